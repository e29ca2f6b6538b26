package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/go-resty/resty/v2"
	"github.com/socialconnect/cli/pkg/logger"
	"github.com/socialconnect/cli/pkg/validation"
)

// ListPosts lists posts visible to the current user, optionally restricted
// to one author.
func (c *Client) ListPosts(ctx context.Context, authorID string, page int) (*PostPage, error) {
	if authorID != "" {
		if err := validation.ID("author", authorID); err != nil {
			return nil, err
		}
	}
	q := pageQuery(nil, page)
	setIf(q, "author", authorID)
	return c.postPage(ctx, "/posts/", q)
}

// Feed returns the personalized feed: the user's posts plus those of
// everyone they follow, newest first.
func (c *Client) Feed(ctx context.Context, page int) (*PostPage, error) {
	logger.Debug("Fetching feed", "page", page)
	return c.postPage(ctx, "/posts/feed/", pageQuery(nil, page))
}

func (c *Client) postPage(ctx context.Context, path string, q url.Values) (*PostPage, error) {
	resp, err := c.raw(ctx, http.MethodGet, path, nil, q)
	if err != nil {
		return nil, err
	}
	posts, p, err := decodeItems[Post](resp.Body(), "posts")
	if err != nil {
		return nil, fmt.Errorf("failed to decode posts: %w", err)
	}
	return &PostPage{Posts: posts, Pagination: p}, nil
}

// GetPost fetches a post with its comments
func (c *Client) GetPost(ctx context.Context, postID string) (*Post, error) {
	if err := validation.ID("post", postID); err != nil {
		return nil, err
	}
	var post Post
	if err := c.get(ctx, "/posts/"+postID+"/", &post); err != nil {
		return nil, err
	}
	return &post, nil
}

// CreatePost publishes a post. An ImagePath is sent as a multipart upload.
func (c *Client) CreatePost(ctx context.Context, req CreatePostRequest) (*Post, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	logger.Debug("Creating post", "category", req.Category, "image", req.ImagePath != "")

	var (
		resp *resty.Response
		err  error
	)
	if req.ImagePath != "" {
		if _, err := checkImage("image", req.ImagePath); err != nil {
			return nil, err
		}
		resp, err = c.imageForm(ctx, req.Content, req.ImageURL, req.Category, req.ImagePath).
			Post("/posts/")
	} else {
		resp, err = c.http.R(ctx).SetBody(req).Post("/posts/")
	}
	if err := CheckResponse(resp, err); err != nil {
		return nil, err
	}

	var post Post
	if err := decodeInto(resp, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

// UpdatePost edits a post the user owns
func (c *Client) UpdatePost(ctx context.Context, postID string, req UpdatePostRequest) (*Post, error) {
	if err := validation.ID("post", postID); err != nil {
		return nil, err
	}
	if err := validate(req); err != nil {
		return nil, err
	}

	var (
		resp *resty.Response
		err  error
	)
	path := "/posts/" + postID + "/"
	if req.ImagePath != "" {
		if _, err := checkImage("image", req.ImagePath); err != nil {
			return nil, err
		}
		resp, err = c.imageForm(ctx, req.Content, req.ImageURL, req.Category, req.ImagePath).Put(path)
	} else {
		resp, err = c.http.R(ctx).SetBody(req).Put(path)
	}
	if err := CheckResponse(resp, err); err != nil {
		return nil, err
	}

	var post Post
	if err := decodeInto(resp, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

func (c *Client) imageForm(ctx context.Context, content, imageURL, category, imagePath string) *resty.Request {
	form := map[string]string{"content": content}
	if imageURL != "" {
		form["image_url"] = imageURL
	}
	if category != "" {
		form["category"] = category
	}
	return c.http.R(ctx).
		SetFormData(form).
		SetFile("image", imagePath)
}

// DeletePost deletes a post the user owns
func (c *Client) DeletePost(ctx context.Context, postID string) error {
	if err := validation.ID("post", postID); err != nil {
		return err
	}
	logger.Debug("Deleting post", "post_id", postID)
	return c.do(ctx, http.MethodDelete, "/posts/"+postID+"/", nil, nil)
}

// LikePost likes a post
func (c *Client) LikePost(ctx context.Context, postID string) (*MessageResponse, error) {
	return c.like(ctx, http.MethodPost, postID)
}

// UnlikePost removes the user's like
func (c *Client) UnlikePost(ctx context.Context, postID string) (*MessageResponse, error) {
	return c.like(ctx, http.MethodDelete, postID)
}

func (c *Client) like(ctx context.Context, method, postID string) (*MessageResponse, error) {
	if err := validation.ID("post", postID); err != nil {
		return nil, err
	}
	var resp MessageResponse
	if err := c.do(ctx, method, "/posts/"+postID+"/like/", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// LikeStatus reports whether the user likes a post, with its like count
func (c *Client) LikeStatus(ctx context.Context, postID string) (*LikeStatus, error) {
	if err := validation.ID("post", postID); err != nil {
		return nil, err
	}
	var status LikeStatus
	if err := c.get(ctx, "/posts/"+postID+"/like-status/", &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// ListComments lists a post's comments, newest first
func (c *Client) ListComments(ctx context.Context, postID string) ([]Comment, error) {
	if err := validation.ID("post", postID); err != nil {
		return nil, err
	}
	resp, err := c.raw(ctx, http.MethodGet, "/posts/"+postID+"/comments/", nil, nil)
	if err != nil {
		return nil, err
	}
	comments, _, err := decodeItems[Comment](resp.Body(), "comments")
	if err != nil {
		return nil, fmt.Errorf("failed to decode comments: %w", err)
	}
	return comments, nil
}

// AddComment comments on a post
func (c *Client) AddComment(ctx context.Context, postID string, req CreateCommentRequest) (*Comment, error) {
	if err := validation.ID("post", postID); err != nil {
		return nil, err
	}
	if err := validate(req); err != nil {
		return nil, err
	}
	var comment Comment
	if err := c.post(ctx, "/posts/"+postID+"/comments/", req, &comment); err != nil {
		return nil, err
	}
	return &comment, nil
}

// DeleteComment deletes one of the user's comments
func (c *Client) DeleteComment(ctx context.Context, commentID string) error {
	if err := validation.ID("comment", commentID); err != nil {
		return err
	}
	return c.do(ctx, http.MethodDelete, "/posts/comments/"+commentID+"/", nil, nil)
}
