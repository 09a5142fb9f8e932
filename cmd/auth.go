package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/vantage-modeller/vantage/client"
	"github.com/vantage-modeller/vantage/session"
)

var (
	authEmail    string
	authPassword string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and remember the access token",
	Run: func(cmd *cobra.Command, args []string) {
		auth := session.NewAuth(store, newClient())
		if err := runLogin(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), auth, authEmail, authPassword, false); err != nil {
			logrus.Fatalf("login: %s", client.UserMessage(err))
		}
	},
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account and sign in",
	Run: func(cmd *cobra.Command, args []string) {
		auth := session.NewAuth(store, newClient())
		if err := runLogin(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), auth, authEmail, authPassword, true); err != nil {
			logrus.Fatalf("register: %s", client.UserMessage(err))
		}
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored access token",
	Run: func(cmd *cobra.Command, args []string) {
		if err := store.ClearAuth(); err != nil {
			logrus.Fatalf("logout: %v", err)
		}
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user and backend",
	Run: func(cmd *cobra.Command, args []string) {
		writeWhoami(cmd.OutOrStdout(), store, cfg.ResolveEndpoint(store.Endpoint()))
	},
}

// loginService is satisfied by *session.Auth.
type loginService interface {
	Login(ctx context.Context, email, password string) error
	Register(ctx context.Context, email, password string) error
}

// runLogin prompts on in for whichever of email and password is missing.
func runLogin(ctx context.Context, in io.Reader, out io.Writer, auth loginService, email, password string, register bool) error {
	r := bufio.NewReader(in)
	var err error
	if email == "" {
		if email, err = prompt(r, out, "Email"); err != nil {
			return err
		}
	}
	if password == "" {
		if password, err = prompt(r, out, "Password"); err != nil {
			return err
		}
	}
	if register {
		err = auth.Register(ctx, email, password)
	} else {
		err = auth.Login(ctx, email, password)
	}
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "Signed in as %s.\n", strings.TrimSpace(email))
	return err
}

func prompt(r *bufio.Reader, out io.Writer, label string) (string, error) {
	_, _ = fmt.Fprintf(out, "%s: ", label)
	line, err := r.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("reading %s: %w", strings.ToLower(label), err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func writeWhoami(out io.Writer, s *session.Store, endpoint string) {
	if s.LoggedIn() {
		_, _ = fmt.Fprintf(out, "Signed in as %s\n", s.UserEmail())
	} else {
		_, _ = fmt.Fprintln(out, "Not signed in")
	}
	_, _ = fmt.Fprintf(out, "Backend: %s\n", endpoint)
}

func init() {
	for _, c := range []*cobra.Command{loginCmd, registerCmd} {
		c.Flags().StringVar(&authEmail, "email", "", "Account email (prompted when omitted)")
		c.Flags().StringVar(&authPassword, "password", "", "Account password (prompted when omitted)")
	}
	rootCmd.AddCommand(loginCmd, registerCmd, logoutCmd, whoamiCmd)
}
