package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hejijunhao/sawmill/internal/config"
	"github.com/hejijunhao/sawmill/internal/engine"
	"github.com/hejijunhao/sawmill/internal/engine/classifier"
)

var (
	cfgFile  string
	logLevel string

	// cfg is populated before any subcommand runs.
	cfg config.Config
)

// rootCmd is the base command when called without subcommands.
var rootCmd = &cobra.Command{
	Use:   "sawmill",
	Short: "Sawmill classifies application-server logs",
	Long: `Sawmill reads WebLogic, Liferay and Java application logs, reassembles
multi-line entries with their stack traces, and reports exceptions, errors
and warnings grouped by signature.`,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "YAML config file (env SAWMILL_* overrides it)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
}

func loadConfig(cmd *cobra.Command, _ []string) error {
	c, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("log-level") {
		c.LogLevel = logLevel
	}
	cfg = c
	return nil
}

// newEngine builds the engine with any configured severity extensions.
func newEngine(ec config.EngineConfig) *engine.Engine {
	var opts []classifier.Option
	if len(ec.ExtraErrorLevels) > 0 {
		opts = append(opts, classifier.WithErrorLevels(ec.ExtraErrorLevels...))
	}
	if len(ec.ExtraErrorKeywords) > 0 {
		opts = append(opts, classifier.WithErrorKeywords(ec.ExtraErrorKeywords...))
	}
	return engine.New(opts...)
}
