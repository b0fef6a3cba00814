package root

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"mindbloom/internal/auth"
	"mindbloom/internal/ui"
)

// readPassword takes the --password flag, or the first line of stdin.
func readPassword(cmd *cobra.Command, flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	pw := strings.TrimRight(line, "\r\n")
	if pw == "" {
		return "", errors.New("password is required")
	}
	return pw, nil
}

func newSignUpCmd() *cobra.Command {
	return credentialsCmd("signup <email>", "Create an account", func(c *auth.Client, cmd *cobra.Command, email, pw string) (*auth.User, error) {
		return c.SignUp(cmd.Context(), email, pw)
	}, "Welcome to MindBloom")
}

func newLoginCmd() *cobra.Command {
	return credentialsCmd("login <email>", "Sign in", func(c *auth.Client, cmd *cobra.Command, email, pw string) (*auth.User, error) {
		return c.SignIn(cmd.Context(), email, pw)
	}, "Signed in")
}

func credentialsCmd(use, short string, do func(*auth.Client, *cobra.Command, string, string) (*auth.User, error), done string) *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()
			client, err := a.requireAuthClient()
			if err != nil {
				return err
			}
			pw, err := readPassword(cmd, password)
			if err != nil {
				return err
			}
			u, err := do(client, cmd, args[0], pw)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ui.Good.Render(fmt.Sprintf("%s %s, %s", ui.IconBloom, done, u.Email)))
			return nil
		},
	}
	cmd.Flags().StringVarP(&password, "password", "p", "", "Password (read from stdin when omitted)")
	return cmd
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()
			client, err := a.requireAuthClient()
			if err != nil {
				return err
			}
			if err := client.SignOut(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ui.Muted.Render("Signed out."))
			return nil
		},
	}
}

func newWhoAmICmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()
			out := cmd.OutOrStdout()
			if a.auth == nil {
				fmt.Fprintln(out, ui.Muted.Render("Local mode: no account needed."))
				return nil
			}
			u, err := a.auth.CurrentUser(cmd.Context())
			if err != nil {
				return err
			}
			if u == nil {
				fmt.Fprintln(out, ui.Muted.Render("Not signed in."))
				return nil
			}
			fmt.Fprintln(out, ui.LabelValue("Signed in as", u.Email))
			return nil
		},
	}
}

func newResetPasswordCmd() *cobra.Command {
	var token, password string
	cmd := &cobra.Command{
		Use:   "reset-password [email]",
		Short: "Request a reset token, or set a new password with --token",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()
			client, err := a.requireAuthClient()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if token == "" {
				if len(args) != 1 {
					return errors.New("email is required to request a reset")
				}
				if err := client.ResetPassword(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintln(out, ui.LabelValue(ui.IconKey+" Reset requested", "if the account exists, a reset token is on its way"))
				return nil
			}

			pw, err := readPassword(cmd, password)
			if err != nil {
				return err
			}
			if err := client.UpdatePassword(cmd.Context(), token, pw); err != nil {
				return err
			}
			fmt.Fprintln(out, ui.Good.Render("Password updated. You can log in with it now."))
			return nil
		},
	}
	cmd.Flags().StringVar(&token, "token", "", "Reset token from the recovery message")
	cmd.Flags().StringVarP(&password, "password", "p", "", "New password (read from stdin when omitted)")
	return cmd
}
