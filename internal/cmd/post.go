package cmd

import (
	"strings"

	"github.com/socialconnect/cli/pkg/api"
	"github.com/socialconnect/cli/pkg/service"
	"github.com/spf13/cobra"
)

var (
	feedPage     int
	feedCategory string

	postListAuthor string
	postListPage   int
	postContent    string
	postImageURL   string
	postImagePath  string
	postCategory   string
	postYes        bool
)

var feedCmd = &cobra.Command{
	Use:   "feed",
	Short: "View your feed",
	Long:  "Show posts from you and the people you follow, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		return service.NewPostService(deps()).Feed(cmd.Context(), feedPage, feedCategory)
	},
}

var postCmd = &cobra.Command{
	Use:   "post",
	Short: "Post commands",
	Long:  "Create, view and manage posts",
}

var postListCmd = &cobra.Command{
	Use:   "list",
	Short: "List posts",
	RunE: func(cmd *cobra.Command, args []string) error {
		return service.NewPostService(deps()).List(cmd.Context(), postListAuthor, postListPage)
	},
}

var postViewCmd = &cobra.Command{
	Use:   "view <post-id>",
	Short: "View a post and its comments",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return service.NewPostService(deps()).View(cmd.Context(), args[0])
	},
}

var postCreateCmd = &cobra.Command{
	Use:   "create [content]",
	Short: "Publish a post",
	Long:  "Publish a post. Without content an editor prompt opens. Categories: " + strings.Join(api.PostCategories, ", "),
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		content := postContent
		if len(args) == 1 {
			content = args[0]
		}
		return service.NewPostService(deps()).Create(cmd.Context(), api.CreatePostRequest{
			Content:   content,
			ImageURL:  postImageURL,
			ImagePath: postImagePath,
			Category:  postCategory,
		})
	},
}

var postEditCmd = &cobra.Command{
	Use:   "edit <post-id>",
	Short: "Edit one of your posts",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return service.NewPostService(deps()).Edit(cmd.Context(), args[0], api.UpdatePostRequest{
			Content:   postContent,
			ImageURL:  postImageURL,
			ImagePath: postImagePath,
			Category:  postCategory,
		})
	},
}

var postDeleteCmd = &cobra.Command{
	Use:   "delete <post-id>",
	Short: "Delete one of your posts",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return service.NewPostService(deps()).Delete(cmd.Context(), args[0], postYes)
	},
}

var postLikeCmd = &cobra.Command{
	Use:   "like <post-id>",
	Short: "Like a post",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return service.NewPostService(deps()).Like(cmd.Context(), args[0])
	},
}

var postUnlikeCmd = &cobra.Command{
	Use:   "unlike <post-id>",
	Short: "Remove your like from a post",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return service.NewPostService(deps()).Unlike(cmd.Context(), args[0])
	},
}

var postLikeStatusCmd = &cobra.Command{
	Use:   "like-status <post-id>",
	Short: "Show whether you like a post",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return service.NewPostService(deps()).LikeStatus(cmd.Context(), args[0])
	},
}

var commentCmd = &cobra.Command{
	Use:   "comment",
	Short: "Comment commands",
	Long:  "List, add and delete comments on posts",
}

var commentListCmd = &cobra.Command{
	Use:   "list <post-id>",
	Short: "List comments on a post",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return service.NewPostService(deps()).Comments(cmd.Context(), args[0])
	},
}

var commentAddCmd = &cobra.Command{
	Use:   "add <post-id> [content]",
	Short: "Comment on a post",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		content := ""
		if len(args) == 2 {
			content = args[1]
		}
		return service.NewPostService(deps()).AddComment(cmd.Context(), args[0], content)
	},
}

var commentDeleteCmd = &cobra.Command{
	Use:   "delete <comment-id>",
	Short: "Delete one of your comments",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return service.NewPostService(deps()).DeleteComment(cmd.Context(), args[0], postYes)
	},
}

func init() {
	feedCmd.Flags().IntVar(&feedPage, "page", 1, "Page number")
	feedCmd.Flags().StringVar(&feedCategory, "category", "", "Only show posts in this category")

	postListCmd.Flags().StringVar(&postListAuthor, "author", "", "Only posts by this user id")
	postListCmd.Flags().IntVar(&postListPage, "page", 1, "Page number")

	for _, c := range []*cobra.Command{postCreateCmd, postEditCmd} {
		c.Flags().StringVarP(&postContent, "content", "c", "", "Post text (max 280 characters)")
		c.Flags().StringVar(&postImageURL, "image-url", "", "Link to an image")
		c.Flags().StringVar(&postImagePath, "image", "", "Image file to upload (max 2MB)")
		c.Flags().StringVar(&postCategory, "category", "", "Category: "+strings.Join(api.PostCategories, ", "))
	}

	postDeleteCmd.Flags().BoolVarP(&postYes, "yes", "y", false, "Skip confirmation")
	commentDeleteCmd.Flags().BoolVarP(&postYes, "yes", "y", false, "Skip confirmation")

	postCmd.AddCommand(postListCmd)
	postCmd.AddCommand(postViewCmd)
	postCmd.AddCommand(postCreateCmd)
	postCmd.AddCommand(postEditCmd)
	postCmd.AddCommand(postDeleteCmd)
	postCmd.AddCommand(postLikeCmd)
	postCmd.AddCommand(postUnlikeCmd)
	postCmd.AddCommand(postLikeStatusCmd)

	commentCmd.AddCommand(commentListCmd)
	commentCmd.AddCommand(commentAddCmd)
	commentCmd.AddCommand(commentDeleteCmd)
}
