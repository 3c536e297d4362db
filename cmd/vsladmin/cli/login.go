package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vslplatform/vsladmin/internal/credentials"
)

func newLoginCmd(a *app) *cobra.Command {
	var username string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authenticate with the VSL backend",
		Long: `Authenticate with the VSL backend using username and password.
The token is stored in ~/.vsladmin/token with 0600 permissions and is sent
with every dashboard request.

The password is read from the terminal without echo, or from the first line
of stdin when stdin is not a terminal.

Example:
  vsladmin login --server https://vsl.example.com --username admin`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runLogin(cmd.Context(), username)
		},
	}
	cmd.Flags().StringVar(&username, "username", "", "account username")
	_ = cmd.MarkFlagRequired("username")
	return cmd
}

func (a *app) runLogin(ctx context.Context, username string) error {
	password, err := a.readPassword("Password: ")
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}
	if password == "" {
		return fmt.Errorf("password cannot be empty")
	}

	fmt.Fprintf(a.errOut, "Authenticating with %s...\n", a.cfg.Server)
	auth, err := a.client().Login(ctx, username, password)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	if auth.Username == "" {
		auth.Username = username
	}
	if err := a.store.Save(credentials.TokenData{
		Token:    auth.Token,
		Server:   a.cfg.Server,
		Username: auth.Username,
		Role:     auth.Role,
	}); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}

	fmt.Fprintf(a.errOut, "✓ Logged in as %s\n", auth.Username)
	fmt.Fprintf(a.errOut, "  Token stored in %s\n", a.store.Path())
	if auth.Role != "" && !strings.EqualFold(auth.Role, "admin") {
		fmt.Fprintf(a.errOut, "  Warning: role %s is not ADMIN, the stats endpoint will likely refuse it\n", auth.Role)
	}
	return nil
}

// readPassword prompts on errOut and reads without echo when stdin is a terminal.
func (a *app) readPassword(prompt string) (string, error) {
	fmt.Fprint(a.errOut, prompt)

	if f, ok := a.in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(a.errOut)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}

	line, err := bufio.NewReader(a.in).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the stored token",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.store.Clear(); err != nil {
				return err
			}
			fmt.Fprintln(a.errOut, "✓ Logged out")
			return nil
		},
	}
}
