// Package cmd implements the multistream command line.
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/smazurov/multistream/internal/config"
	"github.com/smazurov/multistream/internal/logging"
	"github.com/spf13/cobra"
)

const defaultConfigFile = "multistream.toml"

// globalOptions are the persistent flags shared by every command.
type globalOptions struct {
	Config    string
	LogLevel  string
	LogFormat string
}

// Execute runs the command line and returns the process exit code.
func Execute() int {
	return execute(context.Background(), os.Args[1:], os.Stdout, os.Stderr)
}

func execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := newRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(stderr, "multistream: %v\n", err)
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	global := &globalOptions{}

	root := &cobra.Command{
		Use:   "multistream",
		Short: "Relay one input to many streaming endpoints, one ffmpeg per key",
		Long: `multistream runs one ffmpeg process per stream key, relaying a single input
to a streaming server (or one server per key). The processes are supervised
as a group: on Ctrl-C every running child is terminated and reaped before
multistream exits.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&global.Config, "config", "c", defaultConfigFile, "Config file (.toml, .yaml or .yml)")
	pf.StringVar(&global.LogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	pf.StringVar(&global.LogFormat, "log-format", "text", "Log format (text, json)")

	root.AddCommand(
		newRunCmd(global),
		newCheckCmd(global),
		newVersionCmd(),
		newUpdateCmd(global),
	)
	return root
}

// setupLogging applies the logging table of the config file, then
// MULTISTREAM_LOG_LEVEL / MULTISTREAM_LOG_FORMAT, then the flags.
func setupLogging(cmd *cobra.Command, global *globalOptions) {
	cfg := config.LoadLoggingConfig(global.Config)

	if v := os.Getenv(config.EnvPrefix + "LOG_LEVEL"); v != "" {
		cfg.Level = v
	}
	if v := os.Getenv(config.EnvPrefix + "LOG_FORMAT"); v != "" {
		cfg.Format = v
	}
	if cmd.Flags().Changed("log-level") {
		cfg.Level = global.LogLevel
	}
	if cmd.Flags().Changed("log-format") {
		cfg.Format = global.LogFormat
	}

	logging.Initialize(cfg)
}
