package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hejijunhao/sawmill/internal/config"
	"github.com/hejijunhao/sawmill/internal/connector"
	"github.com/hejijunhao/sawmill/internal/engine/compactor"
	"github.com/hejijunhao/sawmill/internal/logging"
	"github.com/hejijunhao/sawmill/internal/output"
	"github.com/hejijunhao/sawmill/internal/output/file"
	"github.com/hejijunhao/sawmill/internal/output/multi"
	"github.com/hejijunhao/sawmill/internal/output/stdout"
	"github.com/hejijunhao/sawmill/internal/output/webhook"
	"github.com/hejijunhao/sawmill/internal/pipeline"
	"github.com/hejijunhao/sawmill/internal/storage"

	// Register connector implementations.
	_ "github.com/hejijunhao/sawmill/internal/connector/file"
	_ "github.com/hejijunhao/sawmill/internal/connector/remote"
	_ "github.com/hejijunhao/sawmill/internal/connector/store"
)

var analyzeFlags struct {
	connector string
	format    string
	out       string
	webhook   string
	verbosity string
	workers   int
	pretty    bool
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze [targets...]",
	Short: "Classify one or more log documents",
	Long: `Fetch each target through the selected connector, classify it, and
write one analysis per document.

Examples:
  sawmill analyze server.log
  sawmill analyze "logs/**/*.log.gz" --format json
  sawmill analyze --connector http https://logs.example.com/app.out
  sawmill analyze --connector store "*.log" --out issues.csv`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAnalyze,
}

func init() {
	f := analyzeCmd.Flags()
	f.StringVar(&analyzeFlags.connector, "connector", "", "document source: "+strings.Join(connector.Providers(), ", "))
	f.StringVarP(&analyzeFlags.format, "format", "f", "", "stdout format: text, json, yaml")
	f.StringVarP(&analyzeFlags.out, "out", "o", "", "also write to a file (.csv for rows, NDJSON otherwise)")
	f.StringVar(&analyzeFlags.webhook, "webhook", "", "also POST analyses to this URL")
	f.StringVar(&analyzeFlags.verbosity, "verbosity", "", "detail level: minimal, standard, full")
	f.IntVarP(&analyzeFlags.workers, "workers", "w", 0, "documents analyzed concurrently")
	f.BoolVar(&analyzeFlags.pretty, "pretty", false, "indent JSON output")
	rootCmd.AddCommand(analyzeCmd)
}

// applyAnalyzeFlags lets explicitly set flags override the loaded config.
func applyAnalyzeFlags(cmd *cobra.Command, c *config.Config) {
	changed := cmd.Flags().Changed
	if changed("connector") {
		c.Connector.Provider = analyzeFlags.connector
	}
	if changed("format") {
		c.Output.Format = analyzeFlags.format
	}
	if changed("out") {
		c.Output.File = analyzeFlags.out
	}
	if changed("webhook") {
		c.Output.Webhook = analyzeFlags.webhook
	}
	if changed("verbosity") {
		c.Engine.Verbosity = analyzeFlags.verbosity
	}
	if changed("workers") {
		c.Engine.Workers = analyzeFlags.workers
	}
	if changed("pretty") {
		c.Output.Pretty = analyzeFlags.pretty
	}
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	c := cfg
	applyAnalyzeFlags(cmd, &c)

	format, err := stdout.ParseFormat(c.Output.Format)
	if err != nil {
		return err
	}
	logging.Init(format != stdout.FormatText, logging.ParseLevel(c.LogLevel))

	verbosity, err := compactor.ParseVerbosity(c.Engine.Verbosity)
	if err != nil {
		return err
	}

	ctor, err := connector.Get(c.Connector.Provider)
	if err != nil {
		return err
	}

	connCfg := connector.ConnectorConfig{
		Provider: c.Connector.Provider,
		APIKey:   c.Connector.APIKey,
		Endpoint: c.Connector.Endpoint,
		MaxBytes: c.Connector.MaxBytes,
	}
	if c.Connector.Provider == "store" {
		st, err := storage.New(c.Storage.StoreConfig())
		if err != nil {
			return err
		}
		connCfg.Store = st
	}

	out, err := buildOutput(c.Output, format, verbosity, cmd.OutOrStdout())
	if err != nil {
		return err
	}

	p := pipeline.New(ctor(), newEngine(c.Engine), out, pipeline.WithWorkers(c.Engine.Workers))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Debug("analyze starting", "connector", c.Connector.Provider, "targets", len(args), "workers", c.Engine.Workers)
	stats, runErr := p.Run(ctx, connCfg, args)
	if err := p.Close(); err != nil && runErr == nil {
		runErr = err
	}
	if runErr != nil {
		return runErr
	}

	slog.Info("analyze finished",
		"documents", stats.Documents,
		"skipped", stats.Skipped,
		"exceptions", stats.Exceptions,
		"errors", stats.Errors,
		"warns", stats.Warns,
	)
	if stats.Documents == 0 && stats.Skipped > 0 {
		return fmt.Errorf("no document could be decoded (%d skipped)", stats.Skipped)
	}
	return nil
}

// buildOutput assembles stdout plus the optional file and webhook sinks.
func buildOutput(oc config.OutputConfig, format stdout.Format, verbosity compactor.Verbosity, w io.Writer) (output.Output, error) {
	opts := []stdout.Option{stdout.WithWriter(w)}
	if oc.Pretty {
		opts = append(opts, stdout.WithPretty())
	}
	outs := []output.Output{stdout.New(format, verbosity, opts...)}

	if oc.File != "" {
		f, err := file.New(oc.File, verbosity)
		if err != nil {
			return nil, err
		}
		outs = append(outs, f)
	}
	if oc.Webhook != "" {
		outs = append(outs, webhook.New(oc.Webhook, verbosity, webhook.WithBatchSize(oc.WebhookBatchSize)))
	}

	if len(outs) == 1 {
		return outs[0], nil
	}
	return multi.New(outs...), nil
}
