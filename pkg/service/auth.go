package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/socialconnect/cli/pkg/api"
	"github.com/socialconnect/cli/pkg/auth"
	"github.com/socialconnect/cli/pkg/formatter"
	"github.com/socialconnect/cli/pkg/logger"
	"github.com/socialconnect/cli/pkg/output"
)

// AuthService provides authentication operations
type AuthService struct {
	base
}

// NewAuthService creates a new auth service
func NewAuthService(d Deps) *AuthService {
	return &AuthService{base: newBase(d)}
}

// Login signs in, prompting for anything not given
func (s *AuthService) Login(ctx context.Context, identifier, password string) error {
	identifier, err := s.ask(identifier, "Email or username: ")
	if err != nil {
		return err
	}
	password, err = s.askSecret(password, "Password: ")
	if err != nil {
		return err
	}

	user, err := s.app.Auth.Login(ctx, identifier, password)
	if err != nil {
		return err
	}

	return s.out.Result(user, func(p *output.Printer) {
		p.Success("Logged in as %s (@%s)", user.DisplayName(), user.Username)
	})
}

// Register creates an account. It does not sign in.
func (s *AuthService) Register(ctx context.Context, in api.RegisterRequest) error {
	var err error
	if in.Email, err = s.ask(in.Email, "Email: "); err != nil {
		return err
	}
	if in.Username, err = s.ask(in.Username, "Username: "); err != nil {
		return err
	}
	if in.FirstName, err = s.ask(in.FirstName, "First name: "); err != nil {
		return err
	}
	if in.LastName, err = s.ask(in.LastName, "Last name: "); err != nil {
		return err
	}
	if in.Password, err = s.askSecret(in.Password, "Password: "); err != nil {
		return err
	}
	if in.PasswordConfirm, err = s.askSecret(in.PasswordConfirm, "Confirm password: "); err != nil {
		return err
	}

	resp, err := s.app.Auth.Register(ctx, in)
	if err != nil {
		return err
	}

	return s.out.Result(resp, func(p *output.Printer) {
		p.Success("%s", resp.Message)
		p.Println("Sign in with: socialconnect auth login")
	})
}

// Logout signs out. Local credentials are always removed.
func (s *AuthService) Logout(ctx context.Context) error {
	if !s.app.Auth.State().IsAuthenticated {
		s.out.Println("Not logged in.")
		return nil
	}
	if err := s.app.Auth.Logout(ctx); err != nil {
		return err
	}
	s.out.Success("Logged out")
	return nil
}

// Me shows the signed-in user as the backend sees it
func (s *AuthService) Me(ctx context.Context) error {
	if err := s.app.Auth.RequireAuth(); err != nil {
		return err
	}
	user, err := s.app.API.Me(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch profile: %w", err)
	}
	return s.out.Result(user, func(p *output.Printer) {
		p.Printf("%s", formatter.User(*user))
	})
}

// Status shows the local session without calling the backend
func (s *AuthService) Status() error {
	st := s.app.Auth.State()
	if !st.IsAuthenticated {
		if st.Expired {
			s.out.Warning("Your session has expired. Run: socialconnect auth login")
		} else {
			s.out.Println("Not logged in.")
		}
		return nil
	}

	fields := []output.Field{
		{Key: "User", Value: "@" + st.User.Username},
		{Key: "User ID", Value: st.User.ID},
		{Key: "Role", Value: roleOf(st.User)},
		{Key: "Session file", Value: s.app.Sessions.Path()},
	}

	exp, err := s.app.Auth.AccessTokenExpiry()
	switch {
	case err == nil:
		left := exp.Sub(s.now()).Round(time.Second)
		state := fmt.Sprintf("expires %s (in %s)", exp.Local().Format("2006-01-02 15:04:05"), left)
		if left <= 0 {
			state = "expired, refreshed on next request"
		}
		fields = append(fields, output.Field{Key: "Access token", Value: state})
	case !errors.Is(err, auth.ErrNoToken):
		logger.Debug("Could not read token expiry", "error", err)
	}

	return s.out.Record("Session", fields)
}

func roleOf(u *api.User) string {
	if u.IsAdmin || u.Role == "admin" {
		return "admin"
	}
	return "user"
}

// Refresh exchanges the refresh token for a new access token now
func (s *AuthService) Refresh(ctx context.Context) error {
	if err := s.app.Auth.RequireAuth(); err != nil {
		return err
	}
	if _, err := s.app.Refresher.Refresh(ctx); err != nil {
		s.app.Auth.Expire()
		return err
	}
	s.app.Auth.Sync()
	s.out.Success("Access token refreshed")
	return nil
}

// RequestPasswordReset starts a password reset
func (s *AuthService) RequestPasswordReset(ctx context.Context, username string) error {
	username, err := s.ask(username, "Username: ")
	if err != nil {
		return err
	}
	resp, err := s.app.API.RequestPasswordReset(ctx, api.PasswordResetRequest{Username: username})
	if err != nil {
		return err
	}
	return s.out.Result(resp, func(p *output.Printer) {
		p.Success("%s", resp.Message)
		if resp.ResetToken != "" {
			p.Printf("Reset token: %s\n", resp.ResetToken)
			p.Println("Finish with: socialconnect auth confirm-reset --token " + resp.ResetToken)
		}
		if resp.ExpiresAt != "" {
			p.Printf("Expires at: %s\n", resp.ExpiresAt)
		}
	})
}

// ConfirmPasswordReset sets a new password with a reset token
func (s *AuthService) ConfirmPasswordReset(ctx context.Context, req api.PasswordResetConfirmRequest) error {
	var err error
	if req.Token, err = s.ask(req.Token, "Reset token: "); err != nil {
		return err
	}
	if req.NewPassword, err = s.askSecret(req.NewPassword, "New password: "); err != nil {
		return err
	}
	if req.NewPasswordConfirm, err = s.askSecret(req.NewPasswordConfirm, "Confirm new password: "); err != nil {
		return err
	}
	resp, err := s.app.API.ConfirmPasswordReset(ctx, req)
	if err != nil {
		return err
	}
	s.out.Success("%s", orText(resp.Text(), "Password has been reset"))
	return nil
}

// ChangePassword changes the signed-in user's password
func (s *AuthService) ChangePassword(ctx context.Context, req api.ChangePasswordRequest) error {
	if err := s.app.Auth.RequireAuth(); err != nil {
		return err
	}
	var err error
	if req.OldPassword, err = s.askSecret(req.OldPassword, "Current password: "); err != nil {
		return err
	}
	if req.NewPassword, err = s.askSecret(req.NewPassword, "New password: "); err != nil {
		return err
	}
	if req.NewPasswordConfirm, err = s.askSecret(req.NewPasswordConfirm, "Confirm new password: "); err != nil {
		return err
	}
	resp, err := s.app.API.ChangePassword(ctx, req)
	if err != nil {
		return err
	}
	s.out.Success("%s", orText(resp.Text(), "Password changed"))
	return nil
}

// VerifyEmail confirms an email address with the emailed token
func (s *AuthService) VerifyEmail(ctx context.Context, token string) error {
	token, err := s.ask(token, "Verification token: ")
	if err != nil {
		return err
	}
	resp, err := s.app.API.VerifyEmail(ctx, api.EmailVerificationRequest{Token: token})
	if err != nil {
		return err
	}
	s.out.Success("%s", orText(resp.Text(), "Email verified"))
	return nil
}

// ResendVerification asks for a new verification email
func (s *AuthService) ResendVerification(ctx context.Context, email string) error {
	email, err := s.ask(email, "Email: ")
	if err != nil {
		return err
	}
	resp, err := s.app.API.ResendVerification(ctx, api.ResendVerificationRequest{Email: email})
	if err != nil {
		return err
	}
	s.out.Success("%s", orText(resp.Text(), "Verification email sent"))
	return nil
}

func orText(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
