package toast

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/socialconnect/cli/pkg/api"
)

const toastWidth = 48

var (
	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 1).
			Width(toastWidth)
	nameStyle    = lipgloss.NewStyle().Bold(true)
	messageStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	actionStyle  = lipgloss.NewStyle().
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("33")).
			Padding(0, 1)
	hintStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Italic(true)
)

// Icon returns the glyph shown next to a notification of type t
func Icon(t api.NotificationType) string {
	switch t {
	case api.NotificationFollow:
		return "👥"
	case api.NotificationLike:
		return "❤️"
	case api.NotificationComment:
		return "💬"
	default:
		return "👤"
	}
}

// ActionText is the label of the toast's action
func ActionText(t api.NotificationType) string {
	switch t {
	case api.NotificationFollow:
		return "View Profile"
	case api.NotificationLike, api.NotificationComment:
		return "View Post"
	default:
		return "View"
	}
}

// ActionCommand is the command that performs the toast's action, or "" when
// the notification points nowhere.
func ActionCommand(n api.Notification) string {
	if id := n.RelatedPostID(); id != "" {
		return "socialconnect post view " + id
	}
	if n.Type == api.NotificationFollow && n.Sender.ID != "" {
		return "socialconnect user view " + n.Sender.ID
	}
	return ""
}

// Render draws one toast
func Render(n api.Notification) string {
	header := fmt.Sprintf("%s %s", Icon(n.Type), nameStyle.Render(n.Sender.DisplayName()))
	body := messageStyle.Render(n.Message)
	action := actionStyle.Render(ActionText(n.Type))
	if cmd := ActionCommand(n); cmd != "" {
		action += " " + hintStyle.Render(cmd)
	}
	return boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, header, body, "", action))
}

// RenderStack draws toasts top to bottom
func RenderStack(list []api.Notification) string {
	if len(list) == 0 {
		return ""
	}
	boxes := make([]string, len(list))
	for i, n := range list {
		boxes[i] = Render(n)
	}
	return lipgloss.JoinVertical(lipgloss.Left, boxes...)
}
