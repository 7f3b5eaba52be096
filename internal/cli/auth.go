package cli

import (
	"bufio"
	"errors"
	"io"
	"strings"
	"time"

	"quibo-cli/internal/session"

	"github.com/spf13/cobra"
)

type whoami struct {
	SignedIn  bool          `json:"signedIn"`
	User      *session.User `json:"user,omitempty"`
	Name      string        `json:"name,omitempty"`
	ExpiresAt *time.Time    `json:"expiresAt,omitempty"`
	Expired   bool          `json:"expired,omitempty"`
}

func describeSession(s session.Session, ok bool, now time.Time) whoami {
	if !ok {
		return whoami{}
	}
	u := s.User
	out := whoami{SignedIn: true, User: &u, Name: u.DisplayName(), Expired: s.Expired(now, 0)}
	if !s.ExpiresAt.IsZero() {
		exp := s.ExpiresAt
		out.ExpiresAt = &exp
	}
	return out
}

func newAuthCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage the signed-in session",
	}
	cmd.AddCommand(newAuthLoginCmd(app))
	cmd.AddCommand(newAuthLogoutCmd(app))
	cmd.AddCommand(newAuthWhoamiCmd(app))
	return cmd
}

func newAuthLoginCmd(app *App) *cobra.Command {
	var token, refresh string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store an access token issued by the auth provider",
		Long: strings.TrimSpace(`
Stores the access token (a JWT) and optional refresh token from the hosted
auth provider. Pass --token - to read the access token from stdin.
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			if token == "-" {
				t, err := readToken(cmd.InOrStdin())
				if err != nil {
					return writeErr(cmd, err)
				}
				token = t
			}
			if strings.TrimSpace(token) == "" {
				return writeErr(cmd, errUsage("missing --token"))
			}
			if _, err := app.open(cmd.Context()); err != nil {
				return writeErr(cmd, err)
			}
			s, err := app.session.SignIn(strings.TrimSpace(token), strings.TrimSpace(refresh))
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": describeSession(s, true, timeNow())})
		},
	}

	cmd.Flags().StringVar(&token, "token", "", "Access token (JWT), or - to read from stdin")
	cmd.Flags().StringVar(&refresh, "refresh-token", "", "Refresh token used to renew the access token")
	return cmd
}

func readToken(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func newAuthLogoutCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := app.open(cmd.Context()); err != nil {
				return writeErr(cmd, err)
			}
			if err := app.session.SignOut(); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": whoami{}})
		},
	}
}

func newAuthWhoamiCmd(app *App) *cobra.Command {
	var refresh bool

	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := app.open(cmd.Context()); err != nil {
				return writeErr(cmd, err)
			}
			if refresh {
				if _, err := app.session.Refresh(cmd.Context()); err != nil {
					return writeErr(cmd, err)
				}
			}
			s, ok := app.session.Current()
			return writeOut(cmd, app, map[string]any{"data": describeSession(s, ok, timeNow())})
		},
	}

	cmd.Flags().BoolVar(&refresh, "refresh", false, "Renew the access token first")
	return cmd
}
