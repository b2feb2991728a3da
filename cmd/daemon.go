package cmd

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/jcdickinson/apiref/internal/config"
	"github.com/jcdickinson/apiref/internal/daemon"
	"github.com/jcdickinson/apiref/internal/db"
	"github.com/jcdickinson/apiref/internal/logging"
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run the background daemon (usually spawned automatically)",
	Run:   runDaemon,
}

func runDaemon(cmd *cobra.Command, args []string) {
	cfg, err := config.Load()
	if err != nil {
		fatal("failed to load config", err)
	}

	logPath := config.LogPath()
	if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
		fatal("failed to create log directory", err)
	}
	logger, err := logging.New(cfg.Log.Level, logPath)
	if err != nil {
		fatal("failed to open log file", err)
	}
	defer logger.Sync()

	database, err := db.New(config.DBPath())
	if err != nil {
		logger.Fatal("failed to open database", zap.Error(err))
	}

	srv := daemon.NewServer(cfg, database, config.SocketPath(), daemon.WithLogger(logger))
	if err := srv.Start(context.Background()); err != nil {
		logger.Fatal("daemon failed", zap.Error(err))
	}
}

var webCmd = &cobra.Command{
	Use:   "web",
	Short: "Serve the documentation API over HTTP",
	Long: `Serve the daemon's HTTP API on a TCP address. Pages are available at
/package/<id>/<slug> as JSON, or as markdown and HTML with ?format=.
Use --input to serve a local .api.json file as the package "local".`,
	Example: `  apiref web
  apiref web --addr 127.0.0.1:8080
  apiref web --input ./temp/my-lib.api.json`,
	Args: cobra.NoArgs,
	Run:  runWeb,
}

func init() {
	webCmd.Flags().String("addr", "", "listen address (default from config, :3000)")
	webCmd.Flags().String("input", "", "local .api.json file served as package \"local\"")
	viper.BindPFlag("web.addr", webCmd.Flags().Lookup("addr"))
	viper.BindPFlag("local.input", webCmd.Flags().Lookup("input"))
}

func runWeb(cmd *cobra.Command, args []string) {
	stopRunningDaemon(config.SocketPath())

	srv, err := newLocalServer("")
	if err != nil {
		fatal("failed to start server", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := srv.ServeTCP(ctx, viper.GetString("web.addr")); err != nil {
		fatal("server error", err)
	}
	srv.Stop(context.Background())
}
