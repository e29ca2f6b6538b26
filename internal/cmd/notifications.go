package cmd

import (
	"github.com/socialconnect/cli/pkg/service"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var (
	notifUnreadOnly  bool
	watchToasts      bool
	watchList        bool
	dismissResetFlag bool
)

var notificationsCmd = &cobra.Command{
	Use:     "notifications",
	Aliases: []string{"notif"},
	Short:   "Notification commands",
	Long:    "View and manage notifications",
}

var notificationsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List notifications",
	RunE: func(cmd *cobra.Command, args []string) error {
		return service.NewNotificationService(deps()).List(cmd.Context(), notifUnreadOnly)
	},
}

var notificationsCountCmd = &cobra.Command{
	Use:   "count",
	Short: "Show unread notification count",
	RunE: func(cmd *cobra.Command, args []string) error {
		return service.NewNotificationService(deps()).Count(cmd.Context())
	},
}

var notificationsReadCmd = &cobra.Command{
	Use:   "read <notification-id>",
	Short: "Mark a notification as read",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return service.NewNotificationService(deps()).Read(cmd.Context(), args[0])
	},
}

var notificationsReadAllCmd = &cobra.Command{
	Use:   "read-all",
	Short: "Mark every notification as read",
	RunE: func(cmd *cobra.Command, args []string) error {
		return service.NewNotificationService(deps()).ReadAll(cmd.Context())
	},
}

var notificationsWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch for real-time notifications",
	Long: `Stream notifications as they arrive. The transport (sse or websocket)
and reconnect behaviour come from the stream.* config keys.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return service.NewNotificationWatcherService(deps()).Watch(cmd.Context(), service.WatchOptions{
			Toasts:        watchToasts,
			List:          watchList,
			HandleSignals: true,
		})
	},
}

var notificationsDismissCmd = &cobra.Command{
	Use:   "dismiss [notification-id]",
	Short: "Stop showing a notification as a toast",
	Long:  "Dismiss a notification's toast. With --reset every dismissed notification may show again.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc := service.NewNotificationService(deps())
		if dismissResetFlag {
			return svc.ResetDismissed()
		}
		if len(args) == 0 {
			return cmd.Usage()
		}
		return svc.Dismiss(args[0])
	},
}

var notificationsPreferencesCmd = &cobra.Command{
	Use:   "preferences",
	Short: "View or update notification preferences",
	Long: `Without flags, show your notification preferences. Pass any of
--follow, --like, --comment, --email or --push (true/false) to change them.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc := service.NewNotificationService(deps())
		changes := preferenceChanges(cmd.Flags())
		if changes.Empty() {
			return svc.Preferences(cmd.Context())
		}
		return svc.UpdatePreferences(cmd.Context(), changes)
	},
}

func preferenceChanges(flags *pflag.FlagSet) service.PreferenceChanges {
	changed := func(name string) *bool {
		if !flags.Changed(name) {
			return nil
		}
		v, _ := flags.GetBool(name)
		return &v
	}
	return service.PreferenceChanges{
		Follow:  changed("follow"),
		Like:    changed("like"),
		Comment: changed("comment"),
		Email:   changed("email"),
		Push:    changed("push"),
	}
}

func init() {
	notificationsListCmd.Flags().BoolVar(&notifUnreadOnly, "unread", false, "Only unread notifications")

	notificationsWatchCmd.Flags().BoolVar(&watchToasts, "toasts", true, "Show toast popups")
	notificationsWatchCmd.Flags().BoolVar(&watchList, "list", false, "Redraw the notification list on every change")

	notificationsDismissCmd.Flags().BoolVar(&dismissResetFlag, "reset", false, "Clear all dismissed notifications")

	notificationsPreferencesCmd.Flags().Bool("follow", true, "Notify on new followers")
	notificationsPreferencesCmd.Flags().Bool("like", true, "Notify on likes")
	notificationsPreferencesCmd.Flags().Bool("comment", true, "Notify on comments")
	notificationsPreferencesCmd.Flags().Bool("email", false, "Send notifications by email")
	notificationsPreferencesCmd.Flags().Bool("push", false, "Send push notifications")

	notificationsCmd.AddCommand(notificationsListCmd)
	notificationsCmd.AddCommand(notificationsCountCmd)
	notificationsCmd.AddCommand(notificationsReadCmd)
	notificationsCmd.AddCommand(notificationsReadAllCmd)
	notificationsCmd.AddCommand(notificationsWatchCmd)
	notificationsCmd.AddCommand(notificationsDismissCmd)
	notificationsCmd.AddCommand(notificationsPreferencesCmd)
}
