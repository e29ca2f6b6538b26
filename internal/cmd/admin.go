package cmd

import (
	"github.com/socialconnect/cli/pkg/api"
	"github.com/socialconnect/cli/pkg/service"
	"github.com/spf13/cobra"
)

var (
	adminYes        bool
	adminSearch     string
	adminPage       int
	adminPostFilter api.AdminPostFilter
	adminCommentFlt api.AdminCommentFilter
)

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Administration commands",
	Long:  "Moderate users, posts and comments. Requires an admin account.",
}

// Users

var adminUsersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage users",
}

var adminUsersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List users",
	RunE: func(cmd *cobra.Command, args []string) error {
		return service.NewAdminService(deps()).Users(cmd.Context(), adminSearch, adminPage)
	},
}

var adminUsersViewCmd = &cobra.Command{
	Use:   "view <user-id>",
	Short: "View a user with account details",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return service.NewAdminService(deps()).User(cmd.Context(), args[0])
	},
}

var adminUsersActivateCmd = &cobra.Command{
	Use:   "activate <user-id>",
	Short: "Re-activate a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return service.NewAdminService(deps()).Activate(cmd.Context(), args[0])
	},
}

var adminUsersDeactivateCmd = &cobra.Command{
	Use:   "deactivate <user-id>",
	Short: "Deactivate a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return service.NewAdminService(deps()).Deactivate(cmd.Context(), args[0], adminYes)
	},
}

var adminUsersDeleteCmd = &cobra.Command{
	Use:   "delete <user-id>",
	Short: "Permanently delete a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return service.NewAdminService(deps()).DeleteUser(cmd.Context(), args[0], adminYes)
	},
}

var adminUsersRoleCmd = &cobra.Command{
	Use:       "role <user-id> <user|admin>",
	Short:     "Change a user's role",
	Args:      cobra.ExactArgs(2),
	ValidArgs: []string{"user", "admin"},
	RunE: func(cmd *cobra.Command, args []string) error {
		return service.NewAdminService(deps()).SetRole(cmd.Context(), args[0], args[1])
	},
}

// Posts

var adminPostsCmd = &cobra.Command{
	Use:   "posts",
	Short: "Moderate posts",
}

var adminPostsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List posts with filters",
	RunE: func(cmd *cobra.Command, args []string) error {
		return service.NewAdminService(deps()).Posts(cmd.Context(), adminPostFilter)
	},
}

var adminPostsViewCmd = &cobra.Command{
	Use:   "view <post-id>",
	Short: "View any post",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return service.NewAdminService(deps()).Post(cmd.Context(), args[0])
	},
}

var adminPostsDeleteCmd = &cobra.Command{
	Use:   "delete <post-id>",
	Short: "Delete any post",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return service.NewAdminService(deps()).DeletePost(cmd.Context(), args[0], adminYes)
	},
}

var adminPostsBulkDeleteCmd = &cobra.Command{
	Use:   "bulk-delete <post-id>...",
	Short: "Delete several posts at once",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return service.NewAdminService(deps()).BulkDeletePosts(cmd.Context(), args, adminYes)
	},
}

// Comments

var adminCommentsCmd = &cobra.Command{
	Use:   "comments",
	Short: "Moderate comments",
}

var adminCommentsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List comments with filters",
	RunE: func(cmd *cobra.Command, args []string) error {
		return service.NewAdminService(deps()).Comments(cmd.Context(), adminCommentFlt)
	},
}

var adminCommentsDeleteCmd = &cobra.Command{
	Use:   "delete <comment-id>",
	Short: "Delete any comment",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return service.NewAdminService(deps()).DeleteComment(cmd.Context(), args[0], adminYes)
	},
}

// Stats

var adminStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show user and post totals",
	RunE: func(cmd *cobra.Command, args []string) error {
		return service.NewAdminService(deps()).Stats(cmd.Context())
	},
}

var adminContentStatsCmd = &cobra.Command{
	Use:   "content-stats",
	Short: "Show content statistics and top posters",
	RunE: func(cmd *cobra.Command, args []string) error {
		return service.NewAdminService(deps()).ContentStats(cmd.Context())
	},
}

func init() {
	adminUsersListCmd.Flags().StringVarP(&adminSearch, "search", "s", "", "Match username or email")
	adminUsersListCmd.Flags().IntVar(&adminPage, "page", 1, "Page number")

	adminPostsListCmd.Flags().StringVar(&adminPostFilter.Author, "author", "", "Author username contains")
	adminPostsListCmd.Flags().StringVar(&adminPostFilter.Content, "content", "", "Content contains")
	adminPostsListCmd.Flags().StringVar(&adminPostFilter.DateFrom, "from", "", "Created on or after (YYYY-MM-DD)")
	adminPostsListCmd.Flags().StringVar(&adminPostFilter.DateTo, "to", "", "Created on or before (YYYY-MM-DD)")
	adminPostsListCmd.Flags().IntVar(&adminPostFilter.Page, "page", 1, "Page number")

	adminCommentsListCmd.Flags().StringVar(&adminCommentFlt.Post, "post", "", "Only comments on this post id")
	adminCommentsListCmd.Flags().StringVar(&adminCommentFlt.Author, "author", "", "Author username contains")
	adminCommentsListCmd.Flags().StringVar(&adminCommentFlt.Content, "content", "", "Content contains")

	for _, c := range []*cobra.Command{adminUsersDeactivateCmd, adminUsersDeleteCmd, adminPostsDeleteCmd, adminPostsBulkDeleteCmd, adminCommentsDeleteCmd} {
		c.Flags().BoolVarP(&adminYes, "yes", "y", false, "Skip confirmation")
	}

	adminUsersCmd.AddCommand(adminUsersListCmd)
	adminUsersCmd.AddCommand(adminUsersViewCmd)
	adminUsersCmd.AddCommand(adminUsersActivateCmd)
	adminUsersCmd.AddCommand(adminUsersDeactivateCmd)
	adminUsersCmd.AddCommand(adminUsersDeleteCmd)
	adminUsersCmd.AddCommand(adminUsersRoleCmd)

	adminPostsCmd.AddCommand(adminPostsListCmd)
	adminPostsCmd.AddCommand(adminPostsViewCmd)
	adminPostsCmd.AddCommand(adminPostsDeleteCmd)
	adminPostsCmd.AddCommand(adminPostsBulkDeleteCmd)

	adminCommentsCmd.AddCommand(adminCommentsListCmd)
	adminCommentsCmd.AddCommand(adminCommentsDeleteCmd)

	adminCmd.AddCommand(adminUsersCmd)
	adminCmd.AddCommand(adminPostsCmd)
	adminCmd.AddCommand(adminCommentsCmd)
	adminCmd.AddCommand(adminStatsCmd)
	adminCmd.AddCommand(adminContentStatsCmd)
}
