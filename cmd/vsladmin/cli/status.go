package cli

import (
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/vslplatform/vsladmin/internal/credentials"
)

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the stored login",
		Long: `Show the server, user and role of the stored login and when its token
expires. The token's claims are decoded locally; the signature is not checked.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runStatus(time.Now())
		},
	}
}

func (a *app) runStatus(now time.Time) error {
	data, err := a.store.Load()
	if errors.Is(err, credentials.ErrNoToken) {
		return fmt.Errorf("not logged in. Run 'vsladmin login' first")
	}
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Server:\t%s\n", data.Server)
	fmt.Fprintf(tw, "User:\t%s\n", valueOr(data.Username, "-"))
	fmt.Fprintf(tw, "Role:\t%s\n", valueOr(data.Role, "-"))
	fmt.Fprintf(tw, "Token file:\t%s\n", a.store.Path())
	fmt.Fprintf(tw, "Expires:\t%s\n", describeExpiry(data.Token, now))
	if data.Server != a.cfg.Server {
		fmt.Fprintf(tw, "Note:\ttoken was issued by %s, configured server is %s\n", data.Server, a.cfg.Server)
	}
	return tw.Flush()
}

func describeExpiry(token string, now time.Time) string {
	claims, err := credentials.Inspect(token)
	switch {
	case err != nil:
		return "unknown (token is not a JWT)"
	case claims.ExpiresAt.IsZero():
		return "never"
	case claims.Expired(now):
		return fmt.Sprintf("expired at %s (re-run 'vsladmin login')", claims.ExpiresAt.Format(time.RFC3339))
	default:
		return fmt.Sprintf("%s (in %s)", claims.ExpiresAt.Format(time.RFC3339), formatDuration(claims.Remaining(now)))
	}
}

func valueOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

var lifetimeUnits = []struct {
	size   time.Duration
	suffix string
}{
	{24 * time.Hour, "d"},
	{time.Hour, "h"},
	{time.Minute, "m"},
	{time.Second, "s"},
}

// formatDuration renders a token lifetime in at most its two leading units,
// e.g. "2d2h" or "45m". Lifetimes under a second render as "0s".
func formatDuration(d time.Duration) string {
	d = d.Truncate(time.Second)
	if d < time.Second {
		return "0s"
	}
	var b strings.Builder
	parts := 0
	for _, u := range lifetimeUnits {
		n := d / u.size
		if n == 0 {
			if parts > 0 {
				break
			}
			continue
		}
		fmt.Fprintf(&b, "%d%s", n, u.suffix)
		d -= n * u.size
		if parts++; parts == 2 {
			break
		}
	}
	return b.String()
}
