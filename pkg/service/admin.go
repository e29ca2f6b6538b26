package service

import (
	"context"
	"fmt"
	"strconv"

	"github.com/socialconnect/cli/pkg/api"
	"github.com/socialconnect/cli/pkg/formatter"
	"github.com/socialconnect/cli/pkg/output"
)

// AdminService provides moderation operations. Every call requires the
// admin role.
type AdminService struct {
	base
}

// NewAdminService creates a new admin service
func NewAdminService(d Deps) *AdminService {
	return &AdminService{base: newBase(d)}
}

// Users lists accounts, optionally filtered by search
func (s *AdminService) Users(ctx context.Context, search string, page int) error {
	if err := s.app.Auth.RequireAdmin(); err != nil {
		return err
	}
	resp, err := s.app.API.AdminListUsers(ctx, search, page)
	if err != nil {
		return fmt.Errorf("failed to list users: %w", err)
	}
	if len(resp.Users) == 0 && !s.out.IsJSON() {
		s.out.Println("No users found.")
		return nil
	}
	err = s.out.List(resp, formatter.UserHeaders, formatter.UserRows(resp.Users), func(p *output.Printer) {
		p.Table(formatter.UserHeaders, formatter.UserRows(resp.Users))
	})
	s.pagination(formatter.Pagination(resp.Pagination))
	return err
}

// User shows one account with admin-only fields
func (s *AdminService) User(ctx context.Context, userID string) error {
	if err := s.app.Auth.RequireAdmin(); err != nil {
		return err
	}
	user, err := s.app.API.AdminGetUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to fetch user: %w", err)
	}
	return s.out.Result(user, func(p *output.Printer) {
		p.Printf("%s", formatter.User(*user))
		if user.Email != "" {
			p.Printf("email: %s\n", user.Email)
		}
		if !user.CreatedAt.IsZero() {
			p.Printf("joined: %s\n", user.CreatedAt.Local().Format("2006-01-02"))
		}
	})
}

// Activate re-enables an account
func (s *AdminService) Activate(ctx context.Context, userID string) error {
	return s.userAction(ctx, userID, true, "", "User activated", s.app.API.AdminActivateUser)
}

// Deactivate disables an account without deleting it
func (s *AdminService) Deactivate(ctx context.Context, userID string, yes bool) error {
	return s.userAction(ctx, userID, yes, "Deactivate this user?", "User deactivated", s.app.API.AdminDeactivateUser)
}

// DeleteUser removes an account permanently
func (s *AdminService) DeleteUser(ctx context.Context, userID string, yes bool) error {
	if userID == s.app.Auth.State().UserID() {
		return fmt.Errorf("you cannot delete your own account here")
	}
	return s.userAction(ctx, userID, yes, "Permanently delete this user and all their content?", "User deleted", s.app.API.AdminDeleteUser)
}

// SetRole changes an account's role to "user" or "admin"
func (s *AdminService) SetRole(ctx context.Context, userID, role string) error {
	return s.userAction(ctx, userID, true, "", "Role set to "+role, func(ctx context.Context, id string) (*api.MessageResponse, error) {
		return s.app.API.AdminSetRole(ctx, id, role)
	})
}

// userAction runs fn against userID, asking question first unless yes
func (s *AdminService) userAction(ctx context.Context, userID string, yes bool, question, done string, fn func(context.Context, string) (*api.MessageResponse, error)) error {
	if err := s.app.Auth.RequireAdmin(); err != nil {
		return err
	}
	ok, err := s.confirm(yes, question)
	if err != nil || !ok {
		return err
	}
	resp, err := fn(ctx, userID)
	if err != nil {
		return err
	}
	return s.out.Result(resp, func(p *output.Printer) {
		p.Success("%s", orText(resp.Text(), done))
	})
}

// Stats shows platform-wide counters
func (s *AdminService) Stats(ctx context.Context) error {
	if err := s.app.Auth.RequireAdmin(); err != nil {
		return err
	}
	st, err := s.app.API.AdminStats(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch stats: %w", err)
	}
	if s.out.IsJSON() {
		return s.out.JSON(st)
	}
	return s.out.Record("Platform stats", []output.Field{
		{Key: "Users", Value: strconv.Itoa(st.Users.Total)},
		{Key: "Active", Value: strconv.Itoa(st.Users.Active)},
		{Key: "Inactive", Value: strconv.Itoa(st.Users.Inactive)},
		{Key: "Admins", Value: strconv.Itoa(st.Users.Admins)},
		{Key: "New this week", Value: strconv.Itoa(st.Users.NewThisWeek)},
		{Key: "Active today", Value: strconv.Itoa(st.Users.ActiveToday)},
		{Key: "Posts", Value: strconv.Itoa(st.Posts.Total)},
		{Key: "Posts today", Value: fmt.Sprintf("%d (%s)", st.Posts.Today, st.Date.Today)},
		{Key: "Posts yesterday", Value: fmt.Sprintf("%d (%s)", st.Posts.Yesterday, st.Date.Yesterday)},
	})
}

// Posts lists posts matching f
func (s *AdminService) Posts(ctx context.Context, f api.AdminPostFilter) error {
	if err := s.app.Auth.RequireAdmin(); err != nil {
		return err
	}
	resp, err := s.app.API.AdminListPosts(ctx, f)
	if err != nil {
		return fmt.Errorf("failed to list posts: %w", err)
	}
	if len(resp.Posts) == 0 && !s.out.IsJSON() {
		s.out.Println("No posts found.")
		return nil
	}
	rows := formatter.PostRows(resp.Posts, s.now())
	err = s.out.List(resp, formatter.PostHeaders, rows, func(p *output.Printer) {
		p.Table(formatter.PostHeaders, rows)
	})
	s.pagination(formatter.Pagination(resp.Pagination))
	return err
}

// Post shows one post, including inactive ones
func (s *AdminService) Post(ctx context.Context, postID string) error {
	if err := s.app.Auth.RequireAdmin(); err != nil {
		return err
	}
	post, err := s.app.API.AdminGetPost(ctx, postID)
	if err != nil {
		return fmt.Errorf("failed to fetch post: %w", err)
	}
	return s.out.Result(post, func(p *output.Printer) {
		p.Printf("%s", formatter.Post(*post, s.now()))
		if !post.IsActive {
			p.Warning("This post is inactive")
		}
	})
}

// DeletePost removes any post
func (s *AdminService) DeletePost(ctx context.Context, postID string, yes bool) error {
	if err := s.app.Auth.RequireAdmin(); err != nil {
		return err
	}
	ok, err := s.confirm(yes, "Delete this post?")
	if err != nil || !ok {
		return err
	}
	resp, err := s.app.API.AdminDeletePost(ctx, postID)
	if err != nil {
		return err
	}
	s.out.Success("%s", orText(resp.Text(), "Post deleted"))
	return nil
}

// BulkDeletePosts removes several posts in one request
func (s *AdminService) BulkDeletePosts(ctx context.Context, postIDs []string, yes bool) error {
	if err := s.app.Auth.RequireAdmin(); err != nil {
		return err
	}
	if len(postIDs) == 0 {
		return fmt.Errorf("no post ids given")
	}
	ok, err := s.confirm(yes, fmt.Sprintf("Delete %d post%s?", len(postIDs), formatter.Pluralize(len(postIDs))))
	if err != nil || !ok {
		return err
	}
	resp, err := s.app.API.AdminBulkDeletePosts(ctx, postIDs)
	if err != nil {
		return err
	}
	return s.out.Result(resp, func(p *output.Printer) {
		p.Success("Deleted %d post%s", resp.DeletedCount, formatter.Pluralize(resp.DeletedCount))
	})
}

// Comments lists comments matching f
func (s *AdminService) Comments(ctx context.Context, f api.AdminCommentFilter) error {
	if err := s.app.Auth.RequireAdmin(); err != nil {
		return err
	}
	comments, err := s.app.API.AdminListComments(ctx, f)
	if err != nil {
		return fmt.Errorf("failed to list comments: %w", err)
	}
	if len(comments) == 0 && !s.out.IsJSON() {
		s.out.Println("No comments found.")
		return nil
	}
	now := s.now()
	headers := []string{"ID", "POST", "AUTHOR", "COMMENT", "CREATED"}
	rows := make([][]string, 0, len(comments))
	for _, c := range comments {
		post := ""
		if c.Post != nil {
			post = c.Post.ID
		}
		rows = append(rows, []string{c.ID, post, "@" + c.Author.Username, formatter.Truncate(c.Content, 50), formatter.TimeAgo(c.CreatedAt, now)})
	}
	return s.out.List(comments, headers, rows, func(p *output.Printer) {
		p.Table(headers, rows)
	})
}

// DeleteComment removes any comment
func (s *AdminService) DeleteComment(ctx context.Context, commentID string, yes bool) error {
	if err := s.app.Auth.RequireAdmin(); err != nil {
		return err
	}
	ok, err := s.confirm(yes, "Delete this comment?")
	if err != nil || !ok {
		return err
	}
	resp, err := s.app.API.AdminDeleteComment(ctx, commentID)
	if err != nil {
		return err
	}
	s.out.Success("%s", orText(resp.Text(), "Comment deleted"))
	return nil
}

// ContentStats shows content counters and the most active creators
func (s *AdminService) ContentStats(ctx context.Context) error {
	if err := s.app.Auth.RequireAdmin(); err != nil {
		return err
	}
	st, err := s.app.API.AdminContentStats(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch content stats: %w", err)
	}
	return s.out.Result(st, func(p *output.Printer) {
		_ = p.Record("Content stats", []output.Field{
			{Key: "Posts", Value: fmt.Sprintf("%d total, %d today, %d yesterday, %d this week", st.Posts.Total, st.Posts.Today, st.Posts.Yesterday, st.Posts.ThisWeek)},
			{Key: "Comments", Value: fmt.Sprintf("%d total, %d today, %d yesterday", st.Comments.Total, st.Comments.Today, st.Comments.Yesterday)},
			{Key: "Likes", Value: fmt.Sprintf("%d total, %d today", st.Likes.Total, st.Likes.Today)},
		})
		if len(st.TopCreators.Posters) > 0 {
			p.Println()
			p.Info("Top posters")
			for i, c := range st.TopCreators.Posters {
				p.Printf("%2d. @%s  %d post%s\n", i+1, c.Username, c.PostCount, formatter.Pluralize(c.PostCount))
			}
		}
		if len(st.TopCreators.Commenters) > 0 {
			p.Println()
			p.Info("Top commenters")
			for i, c := range st.TopCreators.Commenters {
				p.Printf("%2d. @%s  %d comment%s\n", i+1, c.Username, c.CommentCount, formatter.Pluralize(c.CommentCount))
			}
		}
	})
}
