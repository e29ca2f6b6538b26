package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/socialconnect/cli/pkg/logger"
	"github.com/socialconnect/cli/pkg/validation"
)

// Admin endpoints require an account with the admin role. Everyone else
// gets a 403, which surfaces as a forbidden error.

// AdminListUsers lists all accounts, optionally filtered by a search term
func (c *Client) AdminListUsers(ctx context.Context, search string, page int) (*UserPage, error) {
	q := pageQuery(nil, page)
	setIf(q, "search", search)
	return c.userPage(ctx, "/admin/users/", q)
}

// AdminGetUser fetches any account by id
func (c *Client) AdminGetUser(ctx context.Context, userID string) (*User, error) {
	if err := validation.ID("user", userID); err != nil {
		return nil, err
	}
	var user User
	if err := c.get(ctx, "/admin/users/"+userID+"/", &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// AdminActivateUser re-enables an account
func (c *Client) AdminActivateUser(ctx context.Context, userID string) (*MessageResponse, error) {
	return c.adminUserAction(ctx, http.MethodPost, userID, "activate", nil)
}

// AdminDeactivateUser disables an account
func (c *Client) AdminDeactivateUser(ctx context.Context, userID string) (*MessageResponse, error) {
	return c.adminUserAction(ctx, http.MethodPost, userID, "deactivate", nil)
}

// AdminDeleteUser permanently deletes an account
func (c *Client) AdminDeleteUser(ctx context.Context, userID string) (*MessageResponse, error) {
	return c.adminUserAction(ctx, http.MethodDelete, userID, "delete", nil)
}

// AdminSetRole changes an account's role
func (c *Client) AdminSetRole(ctx context.Context, userID, role string) (*MessageResponse, error) {
	req := RoleUpdateRequest{Role: role}
	if err := validate(req); err != nil {
		return nil, err
	}
	return c.adminUserAction(ctx, http.MethodPost, userID, "role", req)
}

func (c *Client) adminUserAction(ctx context.Context, method, userID, action string, body interface{}) (*MessageResponse, error) {
	if err := validation.ID("user", userID); err != nil {
		return nil, err
	}
	logger.Debug("Admin user action", "action", action, "user_id", userID)
	var resp MessageResponse
	if err := c.do(ctx, method, fmt.Sprintf("/admin/users/%s/%s/", userID, action), body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// AdminStats returns user and post totals
func (c *Client) AdminStats(ctx context.Context) (*AdminStats, error) {
	var stats AdminStats
	if err := c.get(ctx, "/admin/users/stats/", &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// AdminListPosts lists every post, including inactive ones
func (c *Client) AdminListPosts(ctx context.Context, f AdminPostFilter) (*PostPage, error) {
	if err := validate(f); err != nil {
		return nil, err
	}
	q := pageQuery(url.Values{}, f.Page)
	setIf(q, "author", f.Author)
	setIf(q, "content", f.Content)
	setIf(q, "date_from", f.DateFrom)
	setIf(q, "date_to", f.DateTo)
	return c.postPage(ctx, "/admin/posts/", q)
}

// AdminGetPost fetches any post by id
func (c *Client) AdminGetPost(ctx context.Context, postID string) (*Post, error) {
	if err := validation.ID("post", postID); err != nil {
		return nil, err
	}
	var post Post
	if err := c.get(ctx, "/admin/posts/"+postID+"/", &post); err != nil {
		return nil, err
	}
	return &post, nil
}

// AdminDeletePost deletes any post
func (c *Client) AdminDeletePost(ctx context.Context, postID string) (*MessageResponse, error) {
	if err := validation.ID("post", postID); err != nil {
		return nil, err
	}
	var resp MessageResponse
	if err := c.do(ctx, http.MethodDelete, "/admin/posts/"+postID+"/delete/", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// AdminBulkDeletePosts deletes several posts in one call
func (c *Client) AdminBulkDeletePosts(ctx context.Context, postIDs []string) (*BulkDeleteResponse, error) {
	req := BulkDeleteRequest{PostIDs: postIDs}
	if err := validate(req); err != nil {
		return nil, err
	}
	logger.Debug("Bulk deleting posts", "count", len(postIDs))
	var resp BulkDeleteResponse
	if err := c.post(ctx, "/admin/posts/bulk-delete/", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// AdminListComments lists comments across all posts
func (c *Client) AdminListComments(ctx context.Context, f AdminCommentFilter) ([]Comment, error) {
	if err := validate(f); err != nil {
		return nil, err
	}
	q := url.Values{}
	setIf(q, "post", f.Post)
	setIf(q, "author", f.Author)
	setIf(q, "content", f.Content)

	resp, err := c.raw(ctx, http.MethodGet, "/admin/posts/comments/", nil, q)
	if err != nil {
		return nil, err
	}
	comments, _, err := decodeItems[Comment](resp.Body(), "comments")
	if err != nil {
		return nil, fmt.Errorf("failed to decode comments: %w", err)
	}
	return comments, nil
}

// AdminDeleteComment deletes any comment
func (c *Client) AdminDeleteComment(ctx context.Context, commentID string) (*MessageResponse, error) {
	if err := validation.ID("comment", commentID); err != nil {
		return nil, err
	}
	var resp MessageResponse
	if err := c.do(ctx, http.MethodDelete, "/admin/posts/comments/"+commentID+"/delete/", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// AdminContentStats returns post, comment and like activity with the top
// creators.
func (c *Client) AdminContentStats(ctx context.Context) (*ContentStats, error) {
	var stats ContentStats
	if err := c.get(ctx, "/admin/posts/content-stats/", &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}
