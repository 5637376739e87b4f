package main

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sodematha/mathasvc/internal/app"
)

var loginCmd = &cobra.Command{
	Use:   "login <phone>",
	Short: "Sign in with a one-time code sent to a mobile number",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		code, _ := cmd.Flags().GetString("code")

		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			out := cmd.OutOrStdout()

			confirmation, err := a.Identity.SendOTP(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Code sent to %s\n", confirmation.PhoneNumber)

			if code == "" {
				fmt.Fprint(out, "Enter code: ")
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("failed to read code: %w", err)
				}
				code = strings.TrimSpace(line)
			}

			user, err := a.Identity.VerifyOTP(ctx, confirmation, code)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Signed in as %s\n", user.PhoneNumber)
			return nil
		})
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Print the signed-in user",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			u := a.Identity.CurrentUser()
			if u == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "not signed in")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s) since %s\n", u.PhoneNumber, u.UID, u.SignedInAt.Format("2006-01-02 15:04"))
			return nil
		})
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			return a.Identity.SignOut(ctx)
		})
	},
}

func init() {
	loginCmd.Flags().String("code", "", "one-time code (prompted for when empty)")
	rootCmd.AddCommand(loginCmd, whoamiCmd, logoutCmd)
}
