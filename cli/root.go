package cli

import (
	"context"

	"github.com/spf13/cobra"

	"readfile/config"
	"readfile/logger"
)

const version = "0.1.0"

// rootOptions are flags shared by every command.
type rootOptions struct {
	configPath string
	logLevel   string
	logFormat  string
}

// Execute runs the command line and returns the process exit code.
func Execute(ctx context.Context, args []string) int {
	cmd := newRootCmd()
	cmd.SetArgs(args)
	if err := cmd.ExecuteContext(ctx); err != nil {
		logger.L().Error("readfile.exit", "err", err)
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "readfile",
		Short:         "Publish the lines of a flat file to Kafka in chunks",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "YAML job file (optional)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "debug|info|warn|error (default from LOG_LEVEL or info)")
	cmd.PersistentFlags().StringVar(&opts.logFormat, "log-format", "", "text|json (default from LOG_FORMAT or text)")

	cmd.AddCommand(runCmd(opts))
	cmd.AddCommand(replayCmd(opts))
	cmd.AddCommand(checkpointCmd(opts))
	return cmd
}

// load reads config and installs the logger; it does not validate.
func (o *rootOptions) load() (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		_ = logger.Setup(logger.Config{})
		return nil, err
	}
	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
	}
	if o.logFormat != "" {
		cfg.LogFormat = o.logFormat
	}
	if err := logger.Setup(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat}); err != nil {
		_ = logger.Setup(logger.Config{})
		return nil, config.ErrLogging(err)
	}
	return cfg, nil
}
