package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/mensylisir/dockmcp/pkg/config"
	"github.com/mensylisir/dockmcp/pkg/connector"
	"github.com/mensylisir/dockmcp/pkg/errors/classify"
	"github.com/mensylisir/dockmcp/pkg/logger"
	"github.com/mensylisir/dockmcp/pkg/runner"
)

var (
	// Global flags
	cfgFile     string
	verboseFlag bool
	dockerFlag  string
	logFileFlag string

	appConfig *config.Config
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "dockmcp",
	Short: "dockmcp gives AI agents safe, read-mostly access to the local Docker daemon.",
	Long: `dockmcp serves the Docker CLI over the Model Context Protocol. Containers can be
listed, inspected, tailed and measured, and commands can be run inside running
containers. Every argument is validated and shell-escaped before docker is invoked.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		if dockerFlag != "" {
			cfg.Runtime.Binary = dockerFlag
		}
		if logFileFlag != "" {
			cfg.Log.File = logFileFlag
		}
		if verboseFlag {
			cfg.Log.Level = "debug"
		}
		logOpts, err := cfg.Log.LoggerOptions()
		if err != nil {
			return err
		}
		logger.Init(logOpts)
		appConfig = cfg
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.SyncGlobal()
	},
}

// Execute adds all child commands to the root command and runs it. Errors other than a
// command exit status are printed to stderr.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		var exit *exitError
		if !errors.As(err, &exit) {
			fmt.Fprintln(os.Stderr, color.New(color.FgRed).Sprint("Error: ")+describe(err))
		}
	}
	return err
}

// exitError carries the exit status of a command run with `dockmcp exec`.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

// ExitCode is the process exit status for an error returned by Execute.
func ExitCode(err error) int {
	var exit *exitError
	if errors.As(err, &exit) {
		return exit.code
	}
	return 1
}

func describe(err error) string {
	var ce *classify.Error
	if errors.As(err, &ce) {
		return fmt.Sprintf("%s: %s", ce.Kind, ce.Message)
	}
	return err.Error()
}

// newRunner builds the operation facade from the loaded configuration.
func newRunner() (*runner.Runner, error) {
	conn, err := connector.NewLocalConnector()
	if err != nil {
		return nil, err
	}
	return runner.New(conn, runner.Options{
		Binary:   appConfig.Runtime.Binary,
		Timeouts: appConfig.Runtime.Timeouts.RunnerTimeouts(),
		Logger:   logger.Get(),
	}), nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (.yaml, .yml or .toml)")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVar(&dockerFlag, "docker", "", "Docker CLI binary (overrides runtime.binary and DOCKMCP_DOCKER)")
	rootCmd.PersistentFlags().StringVar(&logFileFlag, "log-file", "", "Also write JSON logs to this file, rotated by size")
}
