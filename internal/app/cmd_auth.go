package app

import (
	"fmt"

	"github.com/go-faster/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xenking/foodhub-client/internal/api"
	"github.com/xenking/foodhub-client/internal/domain/user"
	"github.com/xenking/foodhub-client/internal/notify"
	"github.com/xenking/foodhub-client/internal/validate"
)

const networkFailure = "Failed to connect to the server. Please try again later."

func (c *cli) authCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Sign in, sign up and manage the account",
	}
	cmd.AddCommand(
		c.loginCommand(),
		c.registerCommand(),
		c.logoutCommand(),
		c.whoamiCommand(),
		c.passwordCommand(),
		c.profileCommand(),
	)
	return cmd
}

// authFailed reports an auth error the way the sign-in screens do.
func (c *cli) authFailed(err error, fallback string) error {
	var (
		netErr *api.NetworkError
		valErr *validate.Error
	)
	if errors.As(err, &valErr) {
		return err
	}
	if errors.As(err, &netErr) {
		c.app.Notifier.Notify(notify.Failure("Network Error", networkFailure))
		return err
	}
	c.app.Notifier.Notify(notify.Failure("Error", api.UserMessage(err, fallback)))
	return err
}

func (c *cli) loginCommand() *cobra.Command {
	var f user.LoginForm
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with email and password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			u, err := c.app.Auth.SignIn(cmd.Context(), f)
			if err != nil {
				return c.authFailed(err, "Invalid email or password")
			}
			c.app.Notifier.Notify(notify.Info("Welcome back!", "You have successfully signed in."))
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s (%s)\n", u.Name, u.Role)
			return nil
		},
	}
	cmd.Flags().StringVar(&f.Email, "email", "", "Email address")
	cmd.Flags().StringVar(&f.Password, "password", "", "Password")
	return cmd
}

func (c *cli) registerCommand() *cobra.Command {
	var (
		f    user.RegisterForm
		role string
		file string
	)
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a customer or provider account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			f.Role = user.Role(role)
			if f.ConfirmPassword == "" {
				f.ConfirmPassword = f.Password
			}
			if err := f.Validate(); err != nil {
				return err
			}
			img, err := c.resolveImage(ctx, file, f.Image)
			if err != nil {
				return err
			}
			f.Image = img

			u, err := c.app.Auth.SignUp(ctx, f)
			if err != nil {
				return c.authFailed(err, "Registration failed")
			}
			c.app.Notifier.Notify(notify.Info("Account created!", "Your account has been created successfully."))
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s (%s)\n", u.Name, u.Role)
			return nil
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&f.Name, "name", "", "Display name")
	fl.StringVar(&f.Email, "email", "", "Email address")
	fl.StringVar(&f.Password, "password", "", "Password")
	fl.StringVar(&f.ConfirmPassword, "confirm", "", "Password confirmation (defaults to --password)")
	fl.StringVar(&role, "role", string(user.RoleCustomer), "CUSTOMER or PROVIDER")
	fl.StringVar(&f.Image, "image-url", "", "Avatar URL")
	fl.StringVar(&file, "image", "", "Avatar file to upload")
	return cmd
}

func (c *cli) logoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.app.Auth.SignOut(cmd.Context()); err != nil {
				c.app.Log.Warn("Sign out request failed; local session dropped", zap.Error(err))
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
			return nil
		},
	}
}

func (c *cli) whoamiCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := c.app.Auth.RequireSession(cmd.Context())
			if err != nil {
				return err
			}
			w := newTable(cmd.OutOrStdout())
			_, _ = fmt.Fprintf(w, "ID\t%s\n", s.User.ID)
			_, _ = fmt.Fprintf(w, "Name\t%s\n", s.User.Name)
			_, _ = fmt.Fprintf(w, "Email\t%s\n", s.User.Email)
			_, _ = fmt.Fprintf(w, "Role\t%s\n", s.User.Role)
			if s.User.Status != "" {
				_, _ = fmt.Fprintf(w, "Status\t%s\n", s.User.Status)
			}
			if !s.ExpiresAt.IsZero() {
				_, _ = fmt.Fprintf(w, "Expires\t%s\n", s.ExpiresAt.Local().Format("2006-01-02 15:04"))
			}
			return w.Flush()
		},
	}
}

func (c *cli) passwordCommand() *cobra.Command {
	var f user.ChangePasswordForm
	cmd := &cobra.Command{
		Use:   "password",
		Short: "Change the password and sign out other sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.app.Auth.ChangePassword(cmd.Context(), f); err != nil {
				return c.authFailed(err, "Failed to change password")
			}
			c.app.Notifier.Notify(notify.Info("Password Updated", "Your password has been changed successfully."))
			return nil
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&f.CurrentPassword, "current", "", "Current password")
	fl.StringVar(&f.NewPassword, "new", "", "New password")
	fl.StringVar(&f.ConfirmPassword, "confirm", "", "New password again")
	return cmd
}

func (c *cli) profileCommand() *cobra.Command {
	var (
		f    user.ProfileForm
		file string
	)
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Update the display profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			img, err := c.resolveImage(ctx, file, f.Image)
			if err != nil {
				c.app.Notifier.Notify(notify.Failure("Error", err.Error()))
				return err
			}
			f.Image = img
			if err := f.Validate(); err != nil {
				return err
			}
			if _, err := c.app.API.UpdateProfile(ctx, f); err != nil {
				c.app.Notifier.Notify(notify.Failure("Error", api.UserMessage(err, "Failed to update profile")))
				return err
			}
			c.app.Notifier.Notify(notify.Info("Profile Updated", "Your profile has been updated successfully."))
			return nil
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&f.Name, "name", "", "Display name")
	fl.StringVar(&f.Image, "image-url", "", "Avatar URL")
	fl.StringVar(&file, "image", "", "Avatar file to upload")
	fl.StringVar(&f.Phone, "phone", "", "Phone number")
	fl.StringVar(&f.Address, "address", "", "Default delivery address")
	return cmd
}
