package service

import (
	"context"
	"fmt"

	"github.com/socialconnect/cli/pkg/api"
	"github.com/socialconnect/cli/pkg/formatter"
	"github.com/socialconnect/cli/pkg/output"
)

// UserService provides profile and follow operations
type UserService struct {
	base
}

// NewUserService creates a new user service
func NewUserService(d Deps) *UserService {
	return &UserService{base: newBase(d)}
}

// resolve maps "" and "me" to the signed-in user
func (s *UserService) resolve(userID string) (string, error) {
	if userID != "" && userID != "me" {
		return userID, nil
	}
	if err := s.app.Auth.RequireAuth(); err != nil {
		return "", err
	}
	return s.app.Auth.State().UserID(), nil
}

// View shows a user's profile
func (s *UserService) View(ctx context.Context, userID string) error {
	userID, err := s.resolve(userID)
	if err != nil {
		return err
	}
	user, err := s.app.API.GetUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to fetch user: %w", err)
	}
	return s.out.Result(user, func(p *output.Printer) {
		p.Printf("%s", formatter.User(*user))
	})
}

// Follow follows a user
func (s *UserService) Follow(ctx context.Context, userID string) error {
	if err := s.app.Auth.RequireAuth(); err != nil {
		return err
	}
	if userID == s.app.Auth.State().UserID() {
		return fmt.Errorf("you cannot follow yourself")
	}
	resp, err := s.app.API.Follow(ctx, userID)
	if err != nil {
		return err
	}
	s.out.Success("%s", orText(resp.Text(), "Following"))
	return nil
}

// Unfollow stops following a user
func (s *UserService) Unfollow(ctx context.Context, userID string) error {
	if err := s.app.Auth.RequireAuth(); err != nil {
		return err
	}
	resp, err := s.app.API.Unfollow(ctx, userID)
	if err != nil {
		return err
	}
	s.out.Success("%s", orText(resp.Text(), "Unfollowed"))
	return nil
}

// FollowStatus reports whether the signed-in user follows userID
func (s *UserService) FollowStatus(ctx context.Context, userID string) error {
	if err := s.app.Auth.RequireAuth(); err != nil {
		return err
	}
	following, err := s.app.API.FollowStatus(ctx, userID)
	if err != nil {
		return err
	}
	return s.out.Result(api.FollowStatus{IsFollowing: following}, func(p *output.Printer) {
		if following {
			p.Println("You follow this user.")
		} else {
			p.Println("You do not follow this user.")
		}
	})
}

// Followers lists who follows userID
func (s *UserService) Followers(ctx context.Context, userID string, page int) error {
	userID, err := s.resolve(userID)
	if err != nil {
		return err
	}
	resp, err := s.app.API.Followers(ctx, userID, page)
	if err != nil {
		return fmt.Errorf("failed to fetch followers: %w", err)
	}
	return s.showFollows(resp, func(f api.Follow) api.UserBasic { return f.Follower }, "No followers yet.")
}

// Following lists who userID follows
func (s *UserService) Following(ctx context.Context, userID string, page int) error {
	userID, err := s.resolve(userID)
	if err != nil {
		return err
	}
	resp, err := s.app.API.Following(ctx, userID, page)
	if err != nil {
		return fmt.Errorf("failed to fetch following: %w", err)
	}
	return s.showFollows(resp, func(f api.Follow) api.UserBasic { return f.Following }, "Not following anyone yet.")
}

func (s *UserService) showFollows(page *api.FollowPage, side func(api.Follow) api.UserBasic, empty string) error {
	if len(page.Follows) == 0 && !s.out.IsJSON() {
		s.out.Println(empty)
		return nil
	}
	now := s.now()
	rows := make([][]string, 0, len(page.Follows))
	for _, f := range page.Follows {
		u := side(f)
		rows = append(rows, []string{u.ID, "@" + u.Username, u.DisplayName(), formatter.TimeAgo(f.CreatedAt, now)})
	}
	err := s.out.List(page, []string{"ID", "USERNAME", "NAME", "SINCE"}, rows, func(p *output.Printer) {
		for _, f := range page.Follows {
			u := side(f)
			p.Printf("@%s  %s\n", u.Username, formatter.Faint.Sprint(u.DisplayName()))
		}
	})
	s.pagination(formatter.Pagination(page.Pagination))
	return err
}

// Discover searches for users to follow
func (s *UserService) Discover(ctx context.Context, search string, page int) error {
	if err := s.app.Auth.RequireAuth(); err != nil {
		return err
	}
	resp, err := s.app.API.Discover(ctx, search, page)
	if err != nil {
		return fmt.Errorf("failed to discover users: %w", err)
	}
	if len(resp.Users) == 0 && !s.out.IsJSON() {
		s.out.Println("No users found.")
		return nil
	}
	err = s.out.List(resp, formatter.UserHeaders, formatter.UserRows(resp.Users), func(p *output.Printer) {
		for _, u := range resp.Users {
			p.Printf("%s\n", formatter.User(u))
		}
	})
	s.pagination(formatter.Pagination(resp.Pagination))
	return err
}

// SettingsService reads and writes the signed-in user's account settings
type SettingsService struct {
	base
}

// NewSettingsService creates a new settings service
func NewSettingsService(d Deps) *SettingsService {
	return &SettingsService{base: newBase(d)}
}

// View shows the current settings
func (s *SettingsService) View(ctx context.Context) error {
	if err := s.app.Auth.RequireAuth(); err != nil {
		return err
	}
	st, err := s.app.API.GetSettings(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch settings: %w", err)
	}
	if s.out.IsJSON() {
		return s.out.JSON(st)
	}
	return s.out.Record("Settings", []output.Field{
		{Key: "Username", Value: st.User.Username},
		{Key: "Email", Value: st.User.Email},
		{Key: "First name", Value: st.User.FirstName},
		{Key: "Last name", Value: st.User.LastName},
		{Key: "Bio", Value: st.Profile.Bio},
		{Key: "Website", Value: st.Profile.Website},
		{Key: "Location", Value: st.Profile.Location},
		{Key: "Privacy", Value: st.Profile.Privacy},
		{Key: "Avatar", Value: st.Profile.AvatarURL},
		{Key: "Email notifications", Value: onOff(st.Preferences.EmailNotifications)},
		{Key: "Push notifications", Value: onOff(st.Preferences.PushNotifications)},
	})
}

// Update sends only the fields that were set
func (s *SettingsService) Update(ctx context.Context, update api.SettingsUpdate) error {
	if err := s.app.Auth.RequireAuth(); err != nil {
		return err
	}
	if update.User == nil && update.Profile == nil {
		return fmt.Errorf("nothing to update")
	}
	resp, err := s.app.API.UpdateSettings(ctx, update)
	if err != nil {
		return err
	}
	return s.out.Result(resp, func(p *output.Printer) {
		p.Success("%s", orText(resp.Message, "Settings updated"))
	})
}

// UploadAvatar replaces the profile picture with the image at path
func (s *SettingsService) UploadAvatar(ctx context.Context, path string) error {
	if err := s.app.Auth.RequireAuth(); err != nil {
		return err
	}
	resp, err := s.app.API.UploadAvatar(ctx, path)
	if err != nil {
		return err
	}
	return s.out.Result(resp, func(p *output.Printer) {
		p.Success("%s", orText(resp.Message, "Avatar updated"))
		if resp.AvatarURL != "" {
			p.Println(resp.AvatarURL)
		}
	})
}

// RemoveAvatar deletes the profile picture
func (s *SettingsService) RemoveAvatar(ctx context.Context, yes bool) error {
	if err := s.app.Auth.RequireAuth(); err != nil {
		return err
	}
	ok, err := s.confirm(yes, "Remove your avatar?")
	if err != nil || !ok {
		return err
	}
	resp, err := s.app.API.RemoveAvatar(ctx)
	if err != nil {
		return err
	}
	s.out.Success("%s", orText(resp.Text(), "Avatar removed"))
	return nil
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
