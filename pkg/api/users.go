package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	clierrors "github.com/socialconnect/cli/pkg/errors"
	"github.com/socialconnect/cli/pkg/logger"
	"github.com/socialconnect/cli/pkg/validation"
)

// GetUser fetches a user profile by id
func (c *Client) GetUser(ctx context.Context, userID string) (*User, error) {
	if err := validation.ID("user", userID); err != nil {
		return nil, err
	}
	var user User
	if err := c.get(ctx, "/users/"+userID+"/", &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Follow follows a user
func (c *Client) Follow(ctx context.Context, userID string) (*MessageResponse, error) {
	if err := validation.ID("user", userID); err != nil {
		return nil, err
	}
	logger.Debug("Following user", "user_id", userID)
	var resp MessageResponse
	if err := c.post(ctx, "/users/"+userID+"/follow/", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Unfollow unfollows a user
func (c *Client) Unfollow(ctx context.Context, userID string) (*MessageResponse, error) {
	if err := validation.ID("user", userID); err != nil {
		return nil, err
	}
	logger.Debug("Unfollowing user", "user_id", userID)
	var resp MessageResponse
	if err := c.do(ctx, http.MethodDelete, "/users/"+userID+"/unfollow/", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// FollowStatus reports whether the current user follows userID
func (c *Client) FollowStatus(ctx context.Context, userID string) (bool, error) {
	if err := validation.ID("user", userID); err != nil {
		return false, err
	}
	var resp FollowStatus
	if err := c.get(ctx, "/users/"+userID+"/follow-status/", &resp); err != nil {
		return false, err
	}
	return resp.IsFollowing, nil
}

// Followers lists the users following userID
func (c *Client) Followers(ctx context.Context, userID string, page int) (*FollowPage, error) {
	return c.follows(ctx, userID, "followers", page)
}

// Following lists the users userID follows
func (c *Client) Following(ctx context.Context, userID string, page int) (*FollowPage, error) {
	return c.follows(ctx, userID, "following", page)
}

func (c *Client) follows(ctx context.Context, userID, kind string, page int) (*FollowPage, error) {
	if err := validation.ID("user", userID); err != nil {
		return nil, err
	}
	resp, err := c.raw(ctx, http.MethodGet, fmt.Sprintf("/users/%s/%s/", userID, kind), nil, pageQuery(nil, page))
	if err != nil {
		return nil, err
	}
	follows, p, err := decodeItems[Follow](resp.Body(), kind)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", kind, err)
	}
	return &FollowPage{Follows: follows, Pagination: p}, nil
}

// Discover searches for users to follow
func (c *Client) Discover(ctx context.Context, search string, page int) (*UserPage, error) {
	q := pageQuery(nil, page)
	setIf(q, "search", search)
	return c.userPage(ctx, "/users/discover/", q)
}

func (c *Client) userPage(ctx context.Context, path string, q url.Values) (*UserPage, error) {
	resp, err := c.raw(ctx, http.MethodGet, path, nil, q)
	if err != nil {
		return nil, err
	}
	users, p, err := decodeItems[User](resp.Body(), "users")
	if err != nil {
		return nil, fmt.Errorf("failed to decode users: %w", err)
	}
	return &UserPage{Users: users, Pagination: p}, nil
}

// GetSettings fetches the editable account settings
func (c *Client) GetSettings(ctx context.Context) (*Settings, error) {
	var s Settings
	if err := c.get(ctx, "/users/settings/", &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// UpdateSettings sends the changed settings fields
func (c *Client) UpdateSettings(ctx context.Context, update SettingsUpdate) (*SettingsUpdateResponse, error) {
	if err := validate(update); err != nil {
		return nil, err
	}
	var resp SettingsUpdateResponse
	if err := c.do(ctx, http.MethodPut, "/users/settings/", update, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

var imageExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true,
}

const maxImageSize = 2 << 20

// checkImage applies the upload limits before any bytes are sent
func checkImage(field, path string) (os.FileInfo, error) {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return nil, clierrors.FileNotFoundError(path)
	}
	if !imageExtensions[strings.ToLower(filepath.Ext(path))] {
		return nil, clierrors.ValidationError(field, "must be an image file")
	}
	if info.Size() > maxImageSize {
		return nil, clierrors.ValidationError(field, "cannot exceed 2MB")
	}
	return info, nil
}

// UploadAvatar uploads an image file as the user's avatar
func (c *Client) UploadAvatar(ctx context.Context, path string) (*AvatarResponse, error) {
	info, err := checkImage("avatar", path)
	if err != nil {
		return nil, err
	}

	logger.Debug("Uploading avatar", "path", path, "size", info.Size())
	resp, err := c.http.R(ctx).
		SetFile("avatar", path).
		Post("/users/avatar-upload/")
	if err := CheckResponse(resp, err); err != nil {
		return nil, err
	}
	var out AvatarResponse
	if err := decodeInto(resp, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RemoveAvatar deletes the user's avatar
func (c *Client) RemoveAvatar(ctx context.Context) (*MessageResponse, error) {
	var resp MessageResponse
	if err := c.do(ctx, http.MethodDelete, "/users/avatar-remove/", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
