package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/vslplatform/vsladmin/internal/dashboard"
	"github.com/vslplatform/vsladmin/internal/tui"
)

const (
	outputText = "text"
	outputJSON = "json"
)

func newDashboardCmd(a *app) *cobra.Command {
	var (
		plain  bool
		output string
	)
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Show the admin dashboard",
		Long: `Fetch the admin statistics once and show them as four cards: total users,
total words, pending contributions and system uptime.

On a terminal the dashboard is interactive (press q to quit). With --plain,
or when stdout is not a terminal, it waits for the fetch and prints the cards
as text. --output json prints the same data as a JSON document.

Examples:
  vsladmin dashboard
  vsladmin dashboard --plain
  vsladmin dashboard --output json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runDashboard(cmd.Context(), output, plain)
		},
	}
	cmd.Flags().BoolVar(&plain, "plain", false, "print once without the interactive view")
	cmd.Flags().StringVarP(&output, "output", "o", outputText, "output format: text or json")
	return cmd
}

func (a *app) runDashboard(ctx context.Context, output string, plain bool) error {
	if output != outputText && output != outputJSON {
		return fmt.Errorf("unsupported output %q (want text or json)", output)
	}

	view := dashboard.New(a.client(), a.tokenSource(),
		dashboard.WithLogger(a.logger),
		dashboard.WithSystemUptime(a.cfg.SystemUptime),
	)
	defer view.Close()
	view.Mount(ctx)

	formatter := dashboard.NewFormatter(a.cfg.LocaleTag())

	if output == outputText && !plain && isTerminal(a.out) {
		m := tui.New(view, formatter, a.cfg.ShowFetchErrors)
		_, err := tea.NewProgram(m,
			tea.WithContext(ctx),
			tea.WithInput(a.in),
			tea.WithOutput(a.out),
		).Run()
		return err
	}

	waitCtx, cancel := context.WithTimeout(ctx, a.cfg.Timeout)
	defer cancel()
	if _, err := view.Wait(waitCtx); err != nil {
		a.logger.Warn("dashboard did not settle in time", zap.Duration("timeout", a.cfg.Timeout), zap.Error(err))
		view.Close()
	}
	state := view.State()

	if output == outputJSON {
		enc := json.NewEncoder(a.out)
		enc.SetIndent("", "  ")
		return enc.Encode(formatter.Report(state, a.cfg.ShowFetchErrors))
	}
	return tui.RenderPlain(a.out, state, formatter, a.cfg.ShowFetchErrors)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
