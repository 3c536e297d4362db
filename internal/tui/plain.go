package tui

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/vslplatform/vsladmin/internal/dashboard"
)

// RenderPlain writes the dashboard without styling, one card per line.
func RenderPlain(w io.Writer, state dashboard.State, f *dashboard.Formatter, showErrors bool) error {
	if _, err := fmt.Fprintln(w, title); err != nil {
		return err
	}
	if state.Loading {
		_, err := fmt.Fprintln(w, loadingText)
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, c := range f.Cards(state.Model) {
		flag := ""
		if c.Alert {
			flag = "[!]"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", c.Label, c.Value, c.Unit, flag)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if notice := fetchNotice(state, showErrors); notice != "" {
		if _, err := fmt.Fprintln(w, notice); err != nil {
			return err
		}
	}
	return nil
}

func fetchNotice(state dashboard.State, showErrors bool) string {
	if !showErrors || state.Loading || state.Outcome.OK() || !state.Outcome.Settled() {
		return ""
	}
	return fmt.Sprintf(unavailableFmt, state.Outcome.Reason())
}
