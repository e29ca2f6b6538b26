package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/socialconnect/cli/pkg/api"
	"github.com/socialconnect/cli/pkg/formatter"
	"github.com/socialconnect/cli/pkg/logger"
	"github.com/socialconnect/cli/pkg/output"
)

// PostService provides feed, post and comment operations
type PostService struct {
	base
}

// NewPostService creates a new post service
func NewPostService(d Deps) *PostService {
	return &PostService{base: newBase(d)}
}

// Feed shows the signed-in user's feed. category filters the fetched page
// locally; "" shows everything.
func (s *PostService) Feed(ctx context.Context, page int, category string) error {
	if err := s.app.Auth.RequireAuth(); err != nil {
		return err
	}
	logger.Debug("Fetching feed", "page", page, "category", category)

	resp, err := s.app.API.Feed(ctx, page)
	if err != nil {
		return fmt.Errorf("failed to fetch feed: %w", err)
	}
	posts := filterCategory(resp.Posts, category)
	if len(posts) == 0 && !s.out.IsJSON() {
		s.out.Println("Your feed is empty. Follow people with: socialconnect user discover")
		return nil
	}
	return s.showPosts(posts, resp.Pagination)
}

func filterCategory(posts []api.Post, category string) []api.Post {
	if category == "" {
		return posts
	}
	out := make([]api.Post, 0, len(posts))
	for _, p := range posts {
		if strings.EqualFold(p.Category, category) {
			out = append(out, p)
		}
	}
	return out
}

// List shows posts, optionally only those by authorID
func (s *PostService) List(ctx context.Context, authorID string, page int) error {
	resp, err := s.app.API.ListPosts(ctx, authorID, page)
	if err != nil {
		return fmt.Errorf("failed to list posts: %w", err)
	}
	if len(resp.Posts) == 0 && !s.out.IsJSON() {
		s.out.Println("No posts found.")
		return nil
	}
	return s.showPosts(resp.Posts, resp.Pagination)
}

func (s *PostService) showPosts(posts []api.Post, p api.Pagination) error {
	now := s.now()
	err := s.out.List(posts, formatter.PostHeaders, formatter.PostRows(posts, now), func(out *output.Printer) {
		for i, post := range posts {
			if i > 0 {
				out.Println()
			}
			out.Printf("%s", formatter.Post(post, now))
		}
	})
	s.pagination(formatter.Pagination(p))
	return err
}

// View shows one post with its comments
func (s *PostService) View(ctx context.Context, postID string) error {
	post, err := s.app.API.GetPost(ctx, postID)
	if err != nil {
		return fmt.Errorf("failed to fetch post: %w", err)
	}
	comments := post.Comments
	if comments == nil {
		if comments, err = s.app.API.ListComments(ctx, postID); err != nil {
			logger.Debug("Failed to load comments", "post_id", postID, "error", err)
		}
	}

	now := s.now()
	return s.out.Result(post, func(p *output.Printer) {
		p.Printf("%s", formatter.Post(*post, now))
		if len(comments) == 0 {
			return
		}
		p.Println()
		p.Info("%d comment%s", len(comments), formatter.Pluralize(len(comments)))
		for _, c := range comments {
			p.Printf("%s", formatter.Comment(c, now))
		}
	})
}

// Create publishes a post. Content is prompted for when empty.
func (s *PostService) Create(ctx context.Context, req api.CreatePostRequest) error {
	if err := s.app.Auth.RequireAuth(); err != nil {
		return err
	}
	if req.Content == "" {
		content, err := s.prompt.Multiline("What's on your mind?", 20)
		if err != nil {
			return err
		}
		req.Content = content
	}

	post, err := s.app.API.CreatePost(ctx, req)
	if err != nil {
		return err
	}
	return s.out.Result(post, func(p *output.Printer) {
		p.Success("Post published")
		p.Printf("%s", formatter.Post(*post, s.now()))
	})
}

// Edit replaces a post's content
func (s *PostService) Edit(ctx context.Context, postID string, req api.UpdatePostRequest) error {
	if err := s.app.Auth.RequireAuth(); err != nil {
		return err
	}
	if req.Content == "" {
		current, err := s.app.API.GetPost(ctx, postID)
		if err != nil {
			return fmt.Errorf("failed to fetch post: %w", err)
		}
		s.out.Printf("Current content:\n%s\n\n", current.Content)
		if req.Content, err = s.prompt.Multiline("New content", 20); err != nil {
			return err
		}
		if req.Category == "" {
			req.Category = current.Category
		}
	}

	post, err := s.app.API.UpdatePost(ctx, postID, req)
	if err != nil {
		return err
	}
	return s.out.Result(post, func(p *output.Printer) {
		p.Success("Post updated")
		p.Printf("%s", formatter.Post(*post, s.now()))
	})
}

// Delete removes a post after confirmation
func (s *PostService) Delete(ctx context.Context, postID string, yes bool) error {
	if err := s.app.Auth.RequireAuth(); err != nil {
		return err
	}
	ok, err := s.confirm(yes, "Delete this post?")
	if err != nil || !ok {
		return err
	}
	if err := s.app.API.DeletePost(ctx, postID); err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}
	s.out.Success("Post deleted")
	return nil
}

// Like likes a post
func (s *PostService) Like(ctx context.Context, postID string) error {
	if err := s.app.Auth.RequireAuth(); err != nil {
		return err
	}
	resp, err := s.app.API.LikePost(ctx, postID)
	if err != nil {
		return err
	}
	s.out.Success("%s", orText(resp.Text(), "Post liked"))
	return nil
}

// Unlike removes a like
func (s *PostService) Unlike(ctx context.Context, postID string) error {
	if err := s.app.Auth.RequireAuth(); err != nil {
		return err
	}
	resp, err := s.app.API.UnlikePost(ctx, postID)
	if err != nil {
		return err
	}
	s.out.Success("%s", orText(resp.Text(), "Like removed"))
	return nil
}

// LikeStatus shows whether the user likes a post
func (s *PostService) LikeStatus(ctx context.Context, postID string) error {
	if err := s.app.Auth.RequireAuth(); err != nil {
		return err
	}
	st, err := s.app.API.LikeStatus(ctx, postID)
	if err != nil {
		return err
	}
	return s.out.Result(st, func(p *output.Printer) {
		verb := "You have not liked this post"
		if st.IsLiked {
			verb = "You like this post"
		}
		p.Printf("%s (%d like%s)\n", verb, st.LikeCount, formatter.Pluralize(st.LikeCount))
	})
}

// Comments lists a post's comments
func (s *PostService) Comments(ctx context.Context, postID string) error {
	comments, err := s.app.API.ListComments(ctx, postID)
	if err != nil {
		return fmt.Errorf("failed to list comments: %w", err)
	}
	if len(comments) == 0 && !s.out.IsJSON() {
		s.out.Println("No comments yet.")
		return nil
	}

	now := s.now()
	rows := make([][]string, 0, len(comments))
	for _, c := range comments {
		rows = append(rows, []string{c.ID, "@" + c.Author.Username, formatter.Truncate(c.Content, 60), formatter.TimeAgo(c.CreatedAt, now)})
	}
	return s.out.List(comments, []string{"ID", "AUTHOR", "COMMENT", "CREATED"}, rows, func(p *output.Printer) {
		for _, c := range comments {
			p.Printf("%s", formatter.Comment(c, now))
		}
	})
}

// AddComment comments on a post
func (s *PostService) AddComment(ctx context.Context, postID, content string) error {
	if err := s.app.Auth.RequireAuth(); err != nil {
		return err
	}
	content, err := s.ask(content, "Comment: ")
	if err != nil {
		return err
	}
	comment, err := s.app.API.AddComment(ctx, postID, api.CreateCommentRequest{Content: content})
	if err != nil {
		return err
	}
	return s.out.Result(comment, func(p *output.Printer) {
		p.Success("Comment added")
		p.Printf("%s", formatter.Comment(*comment, s.now()))
	})
}

// DeleteComment removes one of the user's comments
func (s *PostService) DeleteComment(ctx context.Context, commentID string, yes bool) error {
	if err := s.app.Auth.RequireAuth(); err != nil {
		return err
	}
	ok, err := s.confirm(yes, "Delete this comment?")
	if err != nil || !ok {
		return err
	}
	if err := s.app.API.DeleteComment(ctx, commentID); err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}
	s.out.Success("Comment deleted")
	return nil
}
