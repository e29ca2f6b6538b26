package cmd

import (
	"github.com/socialconnect/cli/pkg/api"
	"github.com/socialconnect/cli/pkg/service"
	"github.com/spf13/cobra"
)

var (
	loginIdentifier string
	loginPassword   string

	registerReq api.RegisterRequest

	resetUsername   string
	confirmResetReq api.PasswordResetConfirmRequest
	verifyToken     string
	resendEmail     string
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Authentication commands",
	Long:  "Sign in, sign out and manage your SocialConnect account credentials",
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create a new SocialConnect account",
	Long:  "Register a new account. Anything not given as a flag is prompted for.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return service.NewAuthService(deps()).Register(cmd.Context(), registerReq)
	},
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Login to SocialConnect",
	Long:  "Authenticate with your email or username and password",
	RunE: func(cmd *cobra.Command, args []string) error {
		return service.NewAuthService(deps()).Login(cmd.Context(), loginIdentifier, loginPassword)
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Logout from SocialConnect",
	RunE: func(cmd *cobra.Command, args []string) error {
		return service.NewAuthService(deps()).Logout(cmd.Context())
	},
}

var meCmd = &cobra.Command{
	Use:   "me",
	Short: "Display current authenticated user",
	RunE: func(cmd *cobra.Command, args []string) error {
		return service.NewAuthService(deps()).Me(cmd.Context())
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the local session",
	RunE: func(cmd *cobra.Command, args []string) error {
		return service.NewAuthService(deps()).Status()
	},
}

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Refresh authentication token",
	RunE: func(cmd *cobra.Command, args []string) error {
		return service.NewAuthService(deps()).Refresh(cmd.Context())
	},
}

var resetPasswordCmd = &cobra.Command{
	Use:   "reset-password",
	Short: "Request a password reset",
	RunE: func(cmd *cobra.Command, args []string) error {
		return service.NewAuthService(deps()).RequestPasswordReset(cmd.Context(), resetUsername)
	},
}

var resetPasswordConfirmCmd = &cobra.Command{
	Use:   "confirm-reset",
	Short: "Confirm password reset with token",
	RunE: func(cmd *cobra.Command, args []string) error {
		return service.NewAuthService(deps()).ConfirmPasswordReset(cmd.Context(), confirmResetReq)
	},
}

var changePasswordCmd = &cobra.Command{
	Use:   "change-password",
	Short: "Change your password",
	RunE: func(cmd *cobra.Command, args []string) error {
		return service.NewAuthService(deps()).ChangePassword(cmd.Context(), api.ChangePasswordRequest{})
	},
}

var verifyEmailCmd = &cobra.Command{
	Use:   "verify-email",
	Short: "Verify your email address",
	RunE: func(cmd *cobra.Command, args []string) error {
		return service.NewAuthService(deps()).VerifyEmail(cmd.Context(), verifyToken)
	},
}

var resendVerificationCmd = &cobra.Command{
	Use:   "resend-verification",
	Short: "Send the verification email again",
	RunE: func(cmd *cobra.Command, args []string) error {
		return service.NewAuthService(deps()).ResendVerification(cmd.Context(), resendEmail)
	},
}

func init() {
	loginCmd.Flags().StringVarP(&loginIdentifier, "user", "u", "", "Email or username")
	loginCmd.Flags().StringVarP(&loginPassword, "password", "p", "", "Password (prompted without echo when omitted)")

	registerCmd.Flags().StringVar(&registerReq.Email, "email", "", "Email address")
	registerCmd.Flags().StringVar(&registerReq.Username, "username", "", "Username")
	registerCmd.Flags().StringVar(&registerReq.FirstName, "first-name", "", "First name")
	registerCmd.Flags().StringVar(&registerReq.LastName, "last-name", "", "Last name")

	resetPasswordCmd.Flags().StringVar(&resetUsername, "username", "", "Username of the account")
	resetPasswordConfirmCmd.Flags().StringVar(&confirmResetReq.Token, "token", "", "Reset token")
	verifyEmailCmd.Flags().StringVar(&verifyToken, "token", "", "Verification token")
	resendVerificationCmd.Flags().StringVar(&resendEmail, "email", "", "Email address")

	authCmd.AddCommand(registerCmd)
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(meCmd)
	authCmd.AddCommand(statusCmd)
	authCmd.AddCommand(refreshCmd)
	authCmd.AddCommand(resetPasswordCmd)
	authCmd.AddCommand(resetPasswordConfirmCmd)
	authCmd.AddCommand(changePasswordCmd)
	authCmd.AddCommand(verifyEmailCmd)
	authCmd.AddCommand(resendVerificationCmd)
}
