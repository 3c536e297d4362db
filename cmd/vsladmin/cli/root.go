package cli

import (
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vslplatform/vsladmin/internal/config"
	"github.com/vslplatform/vsladmin/internal/credentials"
	"github.com/vslplatform/vsladmin/internal/logging"
	"github.com/vslplatform/vsladmin/internal/statsapi"
)

// app carries what every subcommand needs once flags and config are resolved.
type app struct {
	configPath string
	server     string
	logLevel   string

	in     io.Reader
	out    io.Writer
	errOut io.Writer

	cfg    *config.Config
	logger *zap.Logger
	store  *credentials.FileStore
}

func newRootCmd(in io.Reader, out, errOut io.Writer) *cobra.Command {
	a := &app{in: in, out: out, errOut: errOut}

	root := &cobra.Command{
		Use:   "vsladmin",
		Short: "vsladmin: VSL platform admin dashboard",
		Long: `vsladmin shows the VSL platform admin dashboard: total users, total
dictionary words, pending contributions and system uptime.

Log in once with 'vsladmin login', then view the dashboard in the terminal
with 'vsladmin dashboard' or in a browser with 'vsladmin serve'.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(errOut)

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (default ~/.vsladmin/config.hcl)")
	root.PersistentFlags().StringVar(&a.server, "server", "", "backend URL, overrides config and VSLADMIN_SERVER")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "debug, info, warn or error")

	root.AddCommand(
		newLoginCmd(a),
		newLogoutCmd(a),
		newStatusCmd(a),
		newDashboardCmd(a),
		newServeCmd(a),
		newDoctorCmd(a),
		newVersionCmd(),
	)
	return root
}

// Execute runs the CLI against the process streams.
func Execute() error {
	return newRootCmd(os.Stdin, os.Stdout, os.Stderr).Execute()
}

// setup resolves config (flags beat env beat file beat defaults), then the
// logger and the token file.
func (a *app) setup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.server != "" {
		cfg.Server = a.server
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}

	dir, err := config.DefaultDir()
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.logger = logger
	a.store = credentials.NewFileStore(dir)
	return nil
}

func (a *app) client() *statsapi.Client {
	return statsapi.New(a.cfg.Server,
		statsapi.WithTimeout(a.cfg.Timeout),
		statsapi.WithLogger(a.logger),
	)
}

// tokenSource prefers VSLADMIN_TOKEN over the stored login.
func (a *app) tokenSource() credentials.Store {
	return credentials.Chain(credentials.Static(a.cfg.Token), a.store)
}
