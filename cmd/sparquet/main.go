package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/ajitpratap0/sparquet/pkg/bridge"
	"github.com/ajitpratap0/sparquet/pkg/config"
	"github.com/ajitpratap0/sparquet/pkg/host"
	"github.com/ajitpratap0/sparquet/pkg/logger"
	"github.com/ajitpratap0/sparquet/pkg/observability"
)

var version = "0.1.0"

// cli holds the persistent flags shared by every bridge command.
type cli struct {
	statePath  string
	configPath string
	jsonOut    bool
	v          *viper.Viper
}

// result is the --json summary of one command.
type result struct {
	Command  string               `json:"command"`
	Code     int                  `json:"code"`
	Error    string               `json:"error,omitempty"`
	Scalars  map[string]float64   `json:"scalars,omitempty"`
	Matrices map[string][]float64 `json:"matrices,omitempty"`
}

var optionHelp = map[string]string{
	"multi":    "Treat the file argument as a manifest of Parquet files",
	"lowlevel": "Use the streaming column-chunk reader or writer",
	"fixedlen": "Write string columns as fixed-length byte arrays",
	"if":       "Write only the rows listed in the state's if-set",
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCommand()
	if err := root.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, err)
		if code := bridge.Code(err); code != 0 {
			fmt.Fprintf(os.Stderr, "r(%d);\n", code)
		}
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	c := &cli{v: viper.New()}

	root := &cobra.Command{
		Use:   "sparquet",
		Short: "sparquet - Parquet bridge for statistical hosts",
		Long: `sparquet moves rows between a statistical host's in-memory dataset and
Parquet files. The host side is a JSON state document holding variables,
named scalars and matrices; each command loads it, runs, and saves it back.

Example:
  sparquet --state st.json shape data.parquet
  sparquet --state st.json coltypes data.parquet
  sparquet --state st.json read data.parquet`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&c.statePath, "state", "sparquet-state.json", "Host state document (.zst, .gz, .lz4 or .sz suffixes are compressed)")
	pf.StringVar(&c.configPath, "config", "", "Path to a YAML config file (optional)")
	pf.BoolVar(&c.jsonOut, "json", false, "Print scalars and matrices as JSON after the command")
	pf.String("log-level", config.DefaultLogLevel, "Log level (debug, info, warn, error)")
	pf.Bool("verbose", false, "Log progress and timings")
	pf.Bool("debug", false, "Log per-file and per-column detail")
	pf.Bool("tracing", false, "Export OpenTelemetry spans to stderr")
	pf.String("compression", config.DefaultCompression, "Parquet codec for write (none, snappy, gzip, zstd, brotli, lz4)")
	for key, flag := range map[string]string{
		"log_level":   "log-level",
		"verbose":     "verbose",
		"debug":       "debug",
		"tracing":     "tracing",
		"compression": "compression",
	} {
		_ = c.v.BindPFlag(key, pf.Lookup(flag))
	}

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("sparquet v%s\n", version)
			fmt.Printf("Go version: %s\n", runtime.Version())
			fmt.Printf("OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	})

	root.AddCommand(
		c.command("check", "Verify the bridge is loadable", 0),
		c.command("shape <file>", "Save row, column and row-group counts", 1, "multi"),
		c.command("colnames <file> <namesFile>", "Write column names, one per line", 2, "multi"),
		c.command("coltypes <file>", "Save host type codes of the selected columns", 1, "multi"),
		c.command("read <file>", "Read selected rows and columns into the host", 1, "lowlevel", "multi"),
		c.command("write <file> <namesFile>", "Write the host rows in range to a Parquet file", 2, "lowlevel", "fixedlen", "if"),
	)
	return root
}

// command builds a subcommand whose boolean flags become option words.
func (c *cli) command(use, short string, nargs int, options ...string) *cobra.Command {
	name := strings.Fields(use)[0]
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(nargs),
	}
	set := make(map[string]*bool, len(options))
	for _, o := range options {
		set[o] = cmd.Flags().Bool(o, false, optionHelp[o])
	}
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		for _, o := range options {
			if *set[o] {
				args = append(args, o)
			}
		}
		return c.run(cmd.Context(), cmd.OutOrStdout(), name, args)
	}
	return cmd
}

// run loads the config and host state, dispatches command and saves the
// state back, even when the command fails.
func (c *cli) run(ctx context.Context, out io.Writer, command string, args []string) error {
	cfg, err := config.LoadWith(c.v, c.configPath)
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	if err := logger.Init(logger.Config{Level: cfg.EffectiveLogLevel(), Encoding: cfg.LogEncoding}); err != nil {
		return fmt.Errorf("logger error: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	if cfg.Tracing {
		if err := observability.Initialize(observability.TracingConfig{
			ServiceName:    "sparquet",
			ServiceVersion: version,
		}); err != nil {
			return fmt.Errorf("tracing error: %w", err)
		}
		defer func() { _ = observability.Shutdown(context.Background()) }()
	}

	state, err := host.LoadState(c.statePath)
	if err != nil {
		return err
	}
	ds := host.FromState(state)
	log := logger.Get().With(zap.String("component", "sparquet-cli"))
	b := bridge.New(cfg, log)

	runErr := prepare(ctx, b, ds, command, args)
	if runErr == nil {
		runErr = b.Dispatch(ctx, ds, command, args)
	}
	if err := host.SaveState(c.statePath, ds.State()); err != nil {
		log.Error("failed to save host state", zap.String("state", c.statePath), zap.Error(err))
		if runErr == nil {
			runErr = err
		}
	}
	if c.jsonOut {
		if err := printResult(out, command, ds.State(), runErr); err != nil {
			return err
		}
	}
	return runErr
}

func printResult(w io.Writer, command string, s *host.State, err error) error {
	r := result{
		Command:  command,
		Code:     bridge.Code(err),
		Scalars:  s.Scalars,
		Matrices: s.Matrices,
	}
	if err != nil {
		r.Error = err.Error()
	}
	data, mErr := json.MarshalIndent(r, "", "  ")
	if mErr != nil {
		return fmt.Errorf("failed to encode result: %w", mErr)
	}
	_, wErr := fmt.Fprintln(w, string(data))
	return wErr
}
