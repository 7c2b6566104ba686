package app

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/blackwell-systems/insightwatch/internal/server"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Expose insight generation over HTTP",
	Long: `Start the HTTP API. Routes:

  GET    /health
  POST   /api/insights/:domain               evaluate the dataset in the body
  GET    /api/insights/:domain?from=&to=&limit=   evaluate stored records
  GET    /api/insights                       every domain from stored records
  POST   /api/insights/:domain/dismiss/:id
  DELETE /api/insights/:domain/dismiss/:id

Results are cached in Redis when redis.url is configured. The server stops
gracefully on SIGINT or SIGTERM.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default: server.addr from config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !flagVerbose {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	c := openCache(ctx)
	defer func() { _ = c.Close() }()

	addr := serveAddr
	if addr == "" {
		addr = cfg.Server.Addr
	}

	srv := server.New(newRunner(db, time.Time{}),
		server.WithStore(db),
		server.WithCache(c),
		server.WithLogger(logger),
		server.WithAllowOrigins(cfg.Server.AllowOrigins...),
	)
	return srv.ListenAndServe(ctx, addr)
}
