package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/vslplatform/vsladmin/internal/credentials"
	"github.com/vslplatform/vsladmin/internal/statsapi"
)

func newDoctorCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Run diagnostic checks against the backend",
		Long: `Run a series of diagnostic checks:

  1. Configuration: which config file was loaded
  2. Reachability: can we connect to the backend at all?
  3. Authentication: is there a token, and was it issued by this server?
  4. Token expiry: is the token expired or close to expiring?
  5. Stats access: does the backend serve /api/admin/stats with this token?

Examples:
  vsladmin doctor
  vsladmin doctor --server https://vsl.example.com`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runDoctor(cmd.Context(), time.Now())
		},
	}
}

type checkResult struct {
	name   string
	ok     bool
	detail string
	warn   bool
}

func (a *app) runDoctor(ctx context.Context, now time.Time) error {
	fmt.Fprintf(a.errOut, "Running checks against %s\n\n", a.cfg.Server)

	client := a.client()
	checks := []checkResult{
		a.checkConfig(),
		checkReachable(ctx, client),
	}

	token, authCheck := a.checkAuthentication(ctx)
	checks = append(checks, authCheck)

	if token != "" {
		checks = append(checks, checkTokenExpiry(token, now), checkStatsAccess(ctx, client, token))
	} else {
		checks = append(checks,
			checkResult{name: "Token Expiry", detail: "no token available"},
			checkResult{name: "Stats Access", detail: "skipped (no token)"},
		)
	}

	return reportChecks(a.out, a.errOut, checks)
}

func reportChecks(out, errOut io.Writer, checks []checkResult) error {
	fmt.Fprintln(out)
	allOK, hasWarnings := true, false
	for _, c := range checks {
		icon := "✓"
		switch {
		case c.warn:
			icon = "⚠"
			hasWarnings = true
		case !c.ok:
			icon = "✗"
			allOK = false
		}
		fmt.Fprintf(out, "  %s  %-16s %s\n", icon, c.name, c.detail)
	}
	fmt.Fprintln(out)

	switch {
	case !allOK:
		fmt.Fprintln(errOut, "Some checks failed ✗")
		return fmt.Errorf("health check failed")
	case hasWarnings:
		fmt.Fprintln(errOut, "Checks passed with warnings ⚠")
	default:
		fmt.Fprintln(errOut, "All checks passed ✓")
	}
	return nil
}

func (a *app) checkConfig() checkResult {
	if a.cfg.Path == "" {
		return checkResult{name: "Configuration", ok: true, detail: "defaults (no config file)"}
	}
	return checkResult{name: "Configuration", ok: true, detail: a.cfg.Path}
}

func checkReachable(ctx context.Context, client *statsapi.Client) checkResult {
	elapsed, err := client.Ping(ctx)
	if err != nil {
		return checkResult{name: "Reachability", detail: err.Error()}
	}
	return checkResult{name: "Reachability", ok: true, detail: fmt.Sprintf("connected (%dms)", elapsed.Milliseconds())}
}

func (a *app) checkAuthentication(ctx context.Context) (string, checkResult) {
	token, err := a.tokenSource().Token(ctx)
	if errors.Is(err, credentials.ErrNoToken) {
		return "", checkResult{name: "Authentication", detail: "not logged in (run 'vsladmin login')"}
	}
	if err != nil {
		return "", checkResult{name: "Authentication", detail: err.Error()}
	}

	if a.cfg.Token != "" {
		return token, checkResult{name: "Authentication", ok: true, detail: "token from VSLADMIN_TOKEN"}
	}

	data, err := a.store.Load()
	if err != nil {
		return token, checkResult{name: "Authentication", ok: true, detail: "token found"}
	}
	if strings.TrimRight(data.Server, "/") != a.cfg.Server {
		return token, checkResult{
			name:   "Authentication",
			ok:     true,
			warn:   true,
			detail: fmt.Sprintf("token is for %s, not %s", data.Server, a.cfg.Server),
		}
	}
	return token, checkResult{name: "Authentication", ok: true, detail: fmt.Sprintf("logged in as %s", valueOr(data.Username, "unknown user"))}
}

func checkTokenExpiry(token string, now time.Time) checkResult {
	claims, err := credentials.Inspect(token)
	if err != nil {
		return checkResult{name: "Token Expiry", ok: true, warn: true, detail: "token is not JWT format (cannot check expiry)"}
	}
	if claims.ExpiresAt.IsZero() {
		return checkResult{name: "Token Expiry", ok: true, detail: "token has no expiry"}
	}
	if claims.Expired(now) {
		return checkResult{
			name:   "Token Expiry",
			detail: fmt.Sprintf("token expired at %s (re-run 'vsladmin login')", claims.ExpiresAt.Format(time.RFC3339)),
		}
	}

	remaining := claims.Remaining(now)
	detail := fmt.Sprintf("expires %s (in %s)", claims.ExpiresAt.Format(time.RFC3339), formatDuration(remaining))
	if remaining < time.Hour {
		return checkResult{name: "Token Expiry", ok: true, warn: true, detail: detail + ", consider logging in again"}
	}
	return checkResult{name: "Token Expiry", ok: true, detail: detail}
}

func checkStatsAccess(ctx context.Context, client *statsapi.Client, token string) checkResult {
	resp, err := client.FetchStats(ctx, token)
	var apiErr *statsapi.APIError
	switch {
	case errors.As(err, &apiErr):
		return checkResult{name: "Stats Access", detail: fmt.Sprintf("backend answered %d: %s", apiErr.StatusCode, apiErr.Message)}
	case err != nil:
		return checkResult{name: "Stats Access", detail: err.Error()}
	case resp.Data == nil:
		return checkResult{name: "Stats Access", ok: true, warn: true, detail: "response carried no data"}
	}
	return checkResult{name: "Stats Access", ok: true, detail: "statistics readable"}
}
