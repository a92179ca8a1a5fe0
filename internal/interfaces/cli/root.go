// Package cli implements the radar command line. API commands go through
// pkg/client; migrate and token work directly from the configuration file.
package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/turtacn/launch-radar/internal/config"
	"github.com/turtacn/launch-radar/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/launch-radar/pkg/client"
	"github.com/turtacn/launch-radar/pkg/errors"
)

// Build-time variables injected via ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

const (
	defaultServer = "http://localhost:8080"
	envServer     = "RADAR_SERVER"
	envToken      = "RADAR_TOKEN"
)

// cliContextKey is the context key for CLIContext.
type cliContextKey struct{}

// RootOptions holds global CLI flags.
type RootOptions struct {
	ConfigPath   string
	ServerAddr   string
	Token        string
	OutputFormat string
	Timeout      time.Duration
	Retries      int
	Verbose      bool
}

// CLIContext carries initialized dependencies through the command tree.
// The API client and the configuration are built on first use so that
// commands needing only one of them do not require the other.
type CLIContext struct {
	Logger       logging.Logger
	OutputFormat string
	Timeout      time.Duration

	opts   *RootOptions
	client *client.Client
	config *config.Config
}

// Client returns the API client for --server and --token, falling back to
// RADAR_SERVER and RADAR_TOKEN.
func (c *CLIContext) Client() (*client.Client, error) {
	if c.client != nil {
		return c.client, nil
	}
	addr := firstNonEmpty(c.opts.ServerAddr, os.Getenv(envServer), defaultServer)
	token := firstNonEmpty(c.opts.Token, os.Getenv(envToken))
	if token == "" {
		return nil, errors.InvalidParam("no API token: pass --token or set " + envToken)
	}
	cl, err := client.NewClient(addr, token,
		client.WithLogger(clientLogger{c.Logger}),
		client.WithUserAgent("radar-cli/"+Version),
		client.WithTimeout(c.Timeout),
		client.WithRetry(client.RetryPolicy{Max: c.opts.Retries}))
	if err != nil {
		return nil, err
	}
	c.client = cl
	return cl, nil
}

// Config loads --config, or the environment when no file is given.
func (c *CLIContext) Config() (*config.Config, error) {
	if c.config != nil {
		return c.config, nil
	}
	cfg, err := config.Load(c.opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	c.config = cfg
	return cfg, nil
}

// NewRootCommand creates the root cobra command with all global flags and subcommands.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "radar",
		Short: "Launch Radar command line",
		Long: "radar queries the Launch Radar API: market hierarchy, coverage heatmaps,\n" +
			"the personal radar, blockers and escalations. migrate and token operate\n" +
			"on the deployment directly and need a configuration file.",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildDate),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return persistentPreRun(cmd, opts)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&opts.ConfigPath, "config", "c", "", "config file path (migrate and token)")
	pf.StringVar(&opts.ServerAddr, "server", "", "API server address (default $"+envServer+" or "+defaultServer+")")
	pf.StringVar(&opts.Token, "token", "", "bearer token (default $"+envToken+")")
	pf.StringVarP(&opts.OutputFormat, "output", "o", "table", "output format (table, json)")
	pf.DurationVar(&opts.Timeout, "timeout", 30*time.Second, "per-command timeout")
	pf.IntVar(&opts.Retries, "retries", 3, "retries for read requests on network errors and 5xx (writes are never retried)")
	pf.BoolVarP(&opts.Verbose, "verbose", "v", false, "enable debug logging")

	cmd.AddCommand(
		newMarketsCmd(),
		newHeatmapCmd(),
		newPersonalCmd(),
		newBlockersCmd(),
		newEscalationsCmd(),
		newMigrateCmd(),
		newTokenCmd(),
		newVersionCmd(),
	)
	return cmd
}

// persistentPreRun builds the logger and stores the CLIContext.
func persistentPreRun(cmd *cobra.Command, opts *RootOptions) error {
	switch strings.ToLower(opts.OutputFormat) {
	case "table", "json":
	default:
		return errors.InvalidParam("unknown output format " + opts.OutputFormat)
	}

	logger, err := initLogger(opts)
	if err != nil {
		return fmt.Errorf("logger initialization failed: %w", err)
	}

	cliCtx := &CLIContext{
		Logger:       logger,
		OutputFormat: strings.ToLower(opts.OutputFormat),
		Timeout:      opts.Timeout,
		opts:         opts,
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(context.WithValue(ctx, cliContextKey{}, cliCtx))
	return nil
}

// initLogger creates a console logger on stderr so stdout stays parseable.
func initLogger(opts *RootOptions) (logging.Logger, error) {
	level := logging.LevelWarn
	if opts.Verbose {
		level = logging.LevelDebug
	}
	return logging.NewLogger(logging.LogConfig{
		Level:            level,
		Format:           "console",
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	})
}

// GetCLIContext extracts CLIContext from a cobra command's context.
func GetCLIContext(cmd *cobra.Command) (*CLIContext, error) {
	ctx := cmd.Context()
	if ctx == nil {
		return nil, errors.Internal("command context is nil")
	}
	cliCtx, ok := ctx.Value(cliContextKey{}).(*CLIContext)
	if !ok || cliCtx == nil {
		return nil, errors.Internal("CLIContext not found in command context")
	}
	return cliCtx, nil
}

// apiCall resolves the context and client and applies --timeout.
func apiCall(cmd *cobra.Command) (*CLIContext, *client.Client, context.Context, context.CancelFunc, error) {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	cl, err := cliCtx.Client()
	if err != nil {
		return nil, nil, nil, nil, err
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), cliCtx.Timeout)
	return cliCtx, cl, ctx, cancel, nil
}

// Execute is the main entry point for the CLI application.
func Execute() error {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		PrintError(rootCmd, err)
		return err
	}
	return nil
}

// PrintError writes a formatted error message to stderr.
func PrintError(cmd *cobra.Command, err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Error: %s\n", err.Error())
}

// PrintSuccess writes a formatted success message to stdout.
func PrintSuccess(cmd *cobra.Command, msg string) {
	fmt.Fprintf(cmd.OutOrStdout(), "OK: %s\n", msg)
}

// clientLogger adapts the structured logger to the client's printf logger.
type clientLogger struct{ l logging.Logger }

func (c clientLogger) Debugf(format string, args ...interface{}) { c.l.Debug(fmt.Sprintf(format, args...)) }
func (c clientLogger) Infof(format string, args ...interface{})  { c.l.Info(fmt.Sprintf(format, args...)) }
func (c clientLogger) Errorf(format string, args ...interface{}) { c.l.Error(fmt.Sprintf(format, args...)) }

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
