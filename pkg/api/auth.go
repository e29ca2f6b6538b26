package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/socialconnect/cli/pkg/client"
	"github.com/socialconnect/cli/pkg/logger"
)

// Login exchanges credentials for a token pair. Bad credentials come back as
// an error; they never trigger a token refresh.
func (c *Client) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	logger.Debug("Logging in", "identifier", req.EmailOrUsername)

	var resp LoginResponse
	if err := c.post(client.WithoutAuth(ctx), "/users/login/", req, &resp); err != nil {
		return nil, err
	}
	if resp.AccessToken == "" {
		return nil, fmt.Errorf("login response carried no access token")
	}
	return &resp, nil
}

// Register creates an account. It does not log the user in.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*RegisterResponse, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	logger.Debug("Registering user", "username", req.Username, "email", req.Email)

	var resp RegisterResponse
	if err := c.post(client.WithoutAuth(ctx), "/users/register/", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Logout blacklists the refresh token on the server
func (c *Client) Logout(ctx context.Context, refreshToken string) error {
	logger.Debug("Logging out")
	return c.post(ctx, "/users/logout/", LogoutRequest{RefreshToken: refreshToken}, nil)
}

// Me returns the authenticated user
func (c *Client) Me(ctx context.Context) (*User, error) {
	var user User
	if err := c.get(ctx, "/users/me/", &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// RequestPasswordReset asks the backend for a reset token
func (c *Client) RequestPasswordReset(ctx context.Context, req PasswordResetRequest) (*PasswordResetResponse, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	var resp PasswordResetResponse
	if err := c.post(client.WithoutAuth(ctx), "/users/password-reset/", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ConfirmPasswordReset sets a new password using a reset token
func (c *Client) ConfirmPasswordReset(ctx context.Context, req PasswordResetConfirmRequest) (*MessageResponse, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	var resp MessageResponse
	if err := c.post(client.WithoutAuth(ctx), "/users/password-reset-confirm/", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ChangePassword changes the authenticated user's password
func (c *Client) ChangePassword(ctx context.Context, req ChangePasswordRequest) (*MessageResponse, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	var resp MessageResponse
	if err := c.post(ctx, "/users/change-password/", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// VerifyEmail confirms an email address with the emailed token
func (c *Client) VerifyEmail(ctx context.Context, req EmailVerificationRequest) (*MessageResponse, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	var resp MessageResponse
	if err := c.post(client.WithoutAuth(ctx), "/users/verify-email/", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ResendVerification sends a new verification email
func (c *Client) ResendVerification(ctx context.Context, req ResendVerificationRequest) (*MessageResponse, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	var resp MessageResponse
	if err := c.post(client.WithoutAuth(ctx), "/users/resend-verification/", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// RefreshAccessToken exchanges a refresh token for a new access token. rest
// must be a client without the refresh transport, or a rejected refresh
// would try to refresh itself.
func RefreshAccessToken(ctx context.Context, rest *resty.Client, refreshToken string) (*RefreshResponse, error) {
	if refreshToken == "" {
		return nil, fmt.Errorf("no refresh token")
	}

	start := time.Now()
	resp, err := rest.R().
		SetContext(ctx).
		SetBody(RefreshRequest{Refresh: refreshToken}).
		Post("/users/token/refresh/")
	if err := CheckResponse(resp, err); err != nil {
		return nil, err
	}

	var out RefreshResponse
	if err := decodeInto(resp, &out); err != nil {
		return nil, err
	}
	if out.Access == "" {
		return nil, &APIError{StatusCode: http.StatusUnauthorized, Message: "refresh response carried no access token"}
	}
	logger.Debug("Access token refreshed", "duration", time.Since(start))
	return &out, nil
}
