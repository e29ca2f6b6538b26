package cmd

import (
	"github.com/socialconnect/cli/pkg/api"
	"github.com/socialconnect/cli/pkg/service"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var (
	userPage       int
	discoverSearch string
	avatarYes      bool
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "User commands",
	Long:  "View profiles, follow people and discover new users",
}

var userViewCmd = &cobra.Command{
	Use:   "view [user-id|me]",
	Short: "View a profile",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return service.NewUserService(deps()).View(cmd.Context(), optionalArg(args))
	},
}

var userFollowCmd = &cobra.Command{
	Use:   "follow <user-id>",
	Short: "Follow a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return service.NewUserService(deps()).Follow(cmd.Context(), args[0])
	},
}

var userUnfollowCmd = &cobra.Command{
	Use:   "unfollow <user-id>",
	Short: "Unfollow a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return service.NewUserService(deps()).Unfollow(cmd.Context(), args[0])
	},
}

var userFollowStatusCmd = &cobra.Command{
	Use:   "follow-status <user-id>",
	Short: "Show whether you follow a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return service.NewUserService(deps()).FollowStatus(cmd.Context(), args[0])
	},
}

var userFollowersCmd = &cobra.Command{
	Use:   "followers [user-id|me]",
	Short: "List followers",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return service.NewUserService(deps()).Followers(cmd.Context(), optionalArg(args), userPage)
	},
}

var userFollowingCmd = &cobra.Command{
	Use:   "following [user-id|me]",
	Short: "List who a user follows",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return service.NewUserService(deps()).Following(cmd.Context(), optionalArg(args), userPage)
	},
}

var userDiscoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Find people to follow",
	RunE: func(cmd *cobra.Command, args []string) error {
		return service.NewUserService(deps()).Discover(cmd.Context(), discoverSearch, userPage)
	},
}

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage user settings",
	Long:  "Configure your profile and account settings",
}

var settingsViewCmd = &cobra.Command{
	Use:   "view",
	Short: "View your settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		return service.NewSettingsService(deps()).View(cmd.Context())
	},
}

var settingsUpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "Update your profile",
	Long:  "Update profile fields. Only the flags you pass are changed.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return service.NewSettingsService(deps()).Update(cmd.Context(), settingsUpdate(cmd.Flags()))
	},
}

var avatarCmd = &cobra.Command{
	Use:   "avatar",
	Short: "Manage your profile picture",
}

var avatarUploadCmd = &cobra.Command{
	Use:   "upload <image-file>",
	Short: "Upload a new profile picture",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return service.NewSettingsService(deps()).UploadAvatar(cmd.Context(), args[0])
	},
}

var avatarRemoveCmd = &cobra.Command{
	Use:   "remove",
	Short: "Remove your profile picture",
	RunE: func(cmd *cobra.Command, args []string) error {
		return service.NewSettingsService(deps()).RemoveAvatar(cmd.Context(), avatarYes)
	},
}

func optionalArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

// settingsUpdate builds an update from the flags that were set
func settingsUpdate(flags *pflag.FlagSet) api.SettingsUpdate {
	changed := func(name string) *string {
		if !flags.Changed(name) {
			return nil
		}
		v, _ := flags.GetString(name)
		return &v
	}

	var update api.SettingsUpdate
	user := api.UserFieldsUpdate{FirstName: changed("first-name"), LastName: changed("last-name")}
	if user.FirstName != nil || user.LastName != nil {
		update.User = &user
	}
	profile := api.ProfileFieldsUpdate{
		Bio:      changed("bio"),
		Website:  changed("website"),
		Location: changed("location"),
		Privacy:  changed("privacy"),
	}
	if profile.Bio != nil || profile.Website != nil || profile.Location != nil || profile.Privacy != nil {
		update.Profile = &profile
	}
	return update
}

func init() {
	for _, c := range []*cobra.Command{userFollowersCmd, userFollowingCmd, userDiscoverCmd} {
		c.Flags().IntVar(&userPage, "page", 1, "Page number")
	}
	userDiscoverCmd.Flags().StringVarP(&discoverSearch, "search", "s", "", "Match username, first or last name")

	settingsUpdateCmd.Flags().String("first-name", "", "First name")
	settingsUpdateCmd.Flags().String("last-name", "", "Last name")
	settingsUpdateCmd.Flags().String("bio", "", "Bio (max 160 characters)")
	settingsUpdateCmd.Flags().String("website", "", "Website URL")
	settingsUpdateCmd.Flags().String("location", "", "Location")
	settingsUpdateCmd.Flags().String("privacy", "", "Profile visibility: public, private, followers_only")

	avatarRemoveCmd.Flags().BoolVarP(&avatarYes, "yes", "y", false, "Skip confirmation")

	userCmd.AddCommand(userViewCmd)
	userCmd.AddCommand(userFollowCmd)
	userCmd.AddCommand(userUnfollowCmd)
	userCmd.AddCommand(userFollowStatusCmd)
	userCmd.AddCommand(userFollowersCmd)
	userCmd.AddCommand(userFollowingCmd)
	userCmd.AddCommand(userDiscoverCmd)

	avatarCmd.AddCommand(avatarUploadCmd)
	avatarCmd.AddCommand(avatarRemoveCmd)
	settingsCmd.AddCommand(settingsViewCmd)
	settingsCmd.AddCommand(settingsUpdateCmd)
	settingsCmd.AddCommand(avatarCmd)
}
