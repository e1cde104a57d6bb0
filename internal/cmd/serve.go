package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hejijunhao/sawmill/internal/logging"
	"github.com/hejijunhao/sawmill/internal/server"
	"github.com/hejijunhao/sawmill/internal/storage"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP upload and analysis server",
	Long: `Serve the upload, analyze and export API. Uploads are kept in the
configured store (local directory or S3-compatible bucket) and removed by the
retention sweep once older than server.retention.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default :8000)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	c := cfg
	if cmd.Flags().Changed("addr") {
		c.Server.Addr = serveAddr
	}
	logging.Init(true, logging.ParseLevel(c.LogLevel))

	st, err := storage.New(c.Storage.StoreConfig())
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return server.New(newEngine(c.Engine), st, c.Server).Run(ctx)
}
