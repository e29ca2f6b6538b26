// Package formatter renders API objects as terminal text.
package formatter

import (
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/socialconnect/cli/pkg/api"
)

var (
	Bold  = color.New(color.Bold)
	Faint = color.New(color.Faint)
	Cyan  = color.New(color.FgCyan)
	Red   = color.New(color.FgRed)
)

// TimeAgo renders t relative to now ("just now", "5m ago", "3d ago").
// Anything older than a month is shown as a date.
func TimeAgo(t, now time.Time) string {
	if t.IsZero() {
		return ""
	}
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	case d < 30*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	default:
		return t.Format("Jan 2, 2006")
	}
}

// Truncate shortens s to max runes, ending with "..."
func Truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max <= 3 {
		return string(r[:max])
	}
	return string(r[:max-3]) + "..."
}

// Pluralize returns "s" unless n is 1
func Pluralize(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}

// Pagination renders the page footer, or "" for a single page
func Pagination(p api.Pagination) string {
	if p.TotalPages <= 1 {
		return ""
	}
	s := fmt.Sprintf("Page %d of %d (%d total)", p.CurrentPage, p.TotalPages, p.TotalItems)
	if p.HasNext {
		s += fmt.Sprintf(" · next: --page %d", p.CurrentPage+1)
	}
	return s
}

// Post renders a post block
func Post(p api.Post, now time.Time) string {
	var b strings.Builder

	Bold.Fprint(&b, p.Author.DisplayName())
	Faint.Fprintf(&b, " @%s · %s", p.Author.Username, TimeAgo(p.CreatedAt, now))
	if p.Category != "" && p.Category != "general" {
		Cyan.Fprintf(&b, " [%s]", p.Category)
	}
	b.WriteString("\n")

	b.WriteString(p.Content)
	b.WriteString("\n")
	if p.ImageURL != "" {
		Faint.Fprintf(&b, "🖼  %s\n", p.ImageURL)
	}

	heart := "♡"
	if p.IsLikedByUser {
		heart = Red.Sprint("♥")
	}
	fmt.Fprintf(&b, "%s %d  💬 %d", heart, p.LikeCount, p.CommentCount)
	Faint.Fprintf(&b, "  id:%s", p.ID)
	if !p.UpdatedAt.IsZero() && p.UpdatedAt.Sub(p.CreatedAt) > time.Minute {
		Faint.Fprint(&b, " (edited)")
	}
	b.WriteString("\n")
	return b.String()
}

// PostRows is the table form of posts
func PostRows(posts []api.Post, now time.Time) [][]string {
	rows := make([][]string, 0, len(posts))
	for _, p := range posts {
		rows = append(rows, []string{
			p.ID,
			"@" + p.Author.Username,
			Truncate(strings.ReplaceAll(p.Content, "\n", " "), 50),
			fmt.Sprint(p.LikeCount),
			fmt.Sprint(p.CommentCount),
			TimeAgo(p.CreatedAt, now),
		})
	}
	return rows
}

// PostHeaders are the column names of PostRows
var PostHeaders = []string{"ID", "AUTHOR", "CONTENT", "LIKES", "COMMENTS", "CREATED"}

// Comment renders one comment line
func Comment(c api.Comment, now time.Time) string {
	var b strings.Builder
	Bold.Fprintf(&b, "@%s", c.Author.Username)
	Faint.Fprintf(&b, " · %s · id:%s", TimeAgo(c.CreatedAt, now), c.ID)
	b.WriteString("\n  ")
	b.WriteString(c.Content)
	b.WriteString("\n")
	return b.String()
}

// User renders a profile block
func User(u api.User) string {
	var b strings.Builder

	Bold.Fprint(&b, u.DisplayName())
	Faint.Fprintf(&b, " @%s", u.Username)
	if u.IsAdmin || u.Role == "admin" {
		Cyan.Fprint(&b, " [admin]")
	}
	if u.IsVerified {
		b.WriteString(" ✓")
	}
	if u.IsActive != nil && !*u.IsActive {
		Red.Fprint(&b, " [inactive]")
	}
	b.WriteString("\n")

	if p := u.Profile; p != nil {
		if p.Bio != "" {
			b.WriteString(p.Bio + "\n")
		}
		var meta []string
		if p.Location != "" {
			meta = append(meta, "📍 "+p.Location)
		}
		if p.Website != "" {
			meta = append(meta, "🔗 "+p.Website)
		}
		if len(meta) > 0 {
			b.WriteString(strings.Join(meta, "  ") + "\n")
		}
		fmt.Fprintf(&b, "%d post%s · %d follower%s · %d following\n",
			p.PostsCount, Pluralize(p.PostsCount),
			p.FollowersCount, Pluralize(p.FollowersCount),
			p.FollowingCount)
	}
	if u.IsFollowing {
		Faint.Fprint(&b, "You follow this user\n")
	}
	Faint.Fprintf(&b, "id:%s\n", u.ID)
	return b.String()
}

// UserRows is the table form of users
func UserRows(users []api.User) [][]string {
	rows := make([][]string, 0, len(users))
	for _, u := range users {
		status := "active"
		if u.IsActive != nil && !*u.IsActive {
			status = "inactive"
		}
		role := u.Role
		if role == "" {
			role = "user"
		}
		rows = append(rows, []string{u.ID, "@" + u.Username, u.DisplayName(), role, status})
	}
	return rows
}

// UserHeaders are the column names of UserRows
var UserHeaders = []string{"ID", "USERNAME", "NAME", "ROLE", "STATUS"}

// Notification renders one notification line. Unread entries get a dot.
func Notification(n api.Notification, now time.Time) string {
	marker := " "
	if !n.IsRead {
		marker = Cyan.Sprint("●")
	}
	line := fmt.Sprintf("%s %s %s %s", marker, NotificationIcon(n.Type), Bold.Sprint(n.Sender.DisplayName()), n.Message)
	return line + Faint.Sprintf("  %s · id:%s", TimeAgo(n.CreatedAt, now), n.ID)
}

// NotificationIcon is the glyph for a notification type
func NotificationIcon(t api.NotificationType) string {
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

// NotificationRows is the table form of notifications
func NotificationRows(list []api.Notification, now time.Time) [][]string {
	rows := make([][]string, 0, len(list))
	for _, n := range list {
		read := "unread"
		if n.IsRead {
			read = "read"
		}
		rows = append(rows, []string{n.ID, string(n.Type), "@" + n.Sender.Username, Truncate(n.Message, 40), read, TimeAgo(n.CreatedAt, now)})
	}
	return rows
}

// NotificationHeaders are the column names of NotificationRows
var NotificationHeaders = []string{"ID", "TYPE", "FROM", "MESSAGE", "STATUS", "CREATED"}
