package cli

import (
	"errors"
	"fmt"

	"github.com/alexanderramin/worktime/internal/cli/formatter"
	"github.com/alexanderramin/worktime/internal/identity"
	"github.com/alexanderramin/worktime/internal/service"
	"github.com/spf13/cobra"
)

func newLoginCmd(app *App) *cobra.Command {
	var login, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in",
		RunE: func(cmd *cobra.Command, args []string) error {
			if login == "" || password == "" {
				if !app.interactive() {
					return fmt.Errorf("--email and --password are required")
				}
				if err := credentialsForm(&login, &password).Run(); err != nil {
					return err
				}
			}

			id, err := app.Auth.Login(cmd.Context(), identity.Credentials{Login: login, Password: password})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s Signed in as %s\n", formatter.StyleGreen.Render("✔"), formatter.Bold(id.Label()))
			return nil
		},
	}

	cmd.Flags().StringVar(&login, "email", "", "Email or username")
	cmd.Flags().StringVar(&password, "password", "", "Password")

	return cmd
}

func newRegisterCmd(app *App) *cobra.Command {
	var name, email, password string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and sign in",
		RunE: func(cmd *cobra.Command, args []string) error {
			if name == "" || email == "" || password == "" {
				if !app.interactive() {
					return fmt.Errorf("--name, --email and --password are required")
				}
				if err := registrationForm(&name, &email, &password).Run(); err != nil {
					return err
				}
			}

			id, err := app.Auth.Register(cmd.Context(), identity.Registration{Name: name, Email: email, Password: password})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s Registered and signed in as %s\n", formatter.StyleGreen.Render("✔"), formatter.Bold(id.Label()))
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Display name")
	cmd.Flags().StringVar(&email, "email", "", "Email address")
	cmd.Flags().StringVar(&password, "password", "", "Password (at least 6 characters)")

	return cmd
}

func newLogoutCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Save pending changes and sign out",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := app.Auth.Current(ctx)
			switch {
			case errors.Is(err, identity.ErrNotSignedIn):
				fmt.Fprintln(cmd.OutOrStdout(), formatter.Dim("Not signed in."))
				return nil
			case err == nil:
				if relErr := app.Trackers.Release(id.UserID); relErr != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "%s %v\n", formatter.StyleYellow.Render("warning: saving before sign-out failed:"), relErr)
				}
			case !errors.Is(err, service.ErrSessionExpired):
				return err
			}

			if err := app.Auth.Logout(ctx); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")
			return nil
		},
	}
}

func newWhoamiCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := app.Auth.Current(cmd.Context())
			if err != nil {
				if errors.Is(err, identity.ErrNotSignedIn) || errors.Is(err, service.ErrSessionExpired) {
					return errNotSignedIn
				}
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatIdentity(id))
			return nil
		},
	}
}

func newResetPasswordCmd(app *App) *cobra.Command {
	var email, token, newPassword string

	cmd := &cobra.Command{
		Use:   "reset-password",
		Short: "Request a password reset, or complete one with --token",
		Long: `Request a password reset with --email. Providers that email a link
print a confirmation; the local provider prints a reset token that can be
used with --token and --new-password.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			if token != "" {
				if newPassword == "" {
					return fmt.Errorf("--new-password is required with --token")
				}
				if err := app.Auth.CompletePasswordReset(ctx, token, newPassword); err != nil {
					return err
				}
				fmt.Fprintln(out, "Password updated. Sign in with the new password.")
				return nil
			}

			if email == "" {
				return fmt.Errorf("--email is required")
			}
			res, err := app.Auth.RequestPasswordReset(ctx, email)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, res.Message)
			if res.Token != "" {
				fmt.Fprintf(out, "%s %s\n", formatter.Dim("Reset token:"), res.Token)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&token, "token", "", "Reset token")
	cmd.Flags().StringVar(&newPassword, "new-password", "", "New password")

	return cmd
}
