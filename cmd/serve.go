package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/jcdickinson/apiref/internal/config"
	"github.com/jcdickinson/apiref/internal/daemon"
	"github.com/jcdickinson/apiref/internal/db"
	"github.com/jcdickinson/apiref/internal/logging"
	"github.com/jcdickinson/apiref/internal/mcp"
)

const version = "0.1.0"

var debug bool

var rootCmd = &cobra.Command{
	Use:     "apiref",
	Short:   "API reference documentation for TypeScript packages, served over MCP",
	Version: version,
	Run:     runServe,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "run daemon in-process (visible log output)")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))

	rootCmd.AddCommand(daemonCmd)
	rootCmd.AddCommand(webCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(navCmd)
	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(recentCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(logsCmd)
	rootCmd.AddCommand(clearCacheCmd)
}

// cliLogger is the console logger for foreground commands.
var cliLogger = sync.OnceValue(func() *zap.Logger {
	logger, err := logging.NewConsole(viper.GetString("log.level"))
	if err != nil {
		return zap.NewExample()
	}
	return logger
})

func fatal(msg string, err error) {
	cliLogger().Fatal(msg, zap.Error(err))
}

// stopRunningDaemon asks a running daemon to exit so this process can own
// the catalogue file.
func stopRunningDaemon(socketPath string) {
	client := daemon.NewClient(socketPath)
	if !client.IsAvailable() {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	client.Shutdown(ctx)
	cancel()
	time.Sleep(200 * time.Millisecond)
}

// newLocalServer opens the catalogue and builds a server in this process.
func newLocalServer(socketPath string) (*daemon.Server, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	database, err := db.New(config.DBPath())
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	return daemon.NewServer(cfg, database, socketPath, daemon.WithLogger(cliLogger())), nil
}

// connectDaemon returns a daemon client. In debug mode, starts the daemon
// in-process so all log output is visible in the terminal.
func connectDaemon() (*daemon.Client, error) {
	socketPath := config.SocketPath()

	if !debug {
		return daemon.ConnectOrSpawn(socketPath)
	}

	stopRunningDaemon(socketPath)
	srv, err := newLocalServer(socketPath)
	if err != nil {
		return nil, err
	}
	go func() {
		if err := srv.Start(context.Background()); err != nil {
			cliLogger().Error("in-process daemon error", zap.Error(err))
		}
	}()

	client := daemon.NewClient(socketPath)
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		time.Sleep(50 * time.Millisecond)
		if client.IsAvailable() {
			return client, nil
		}
	}

	return nil, fmt.Errorf("in-process daemon did not start within 5 seconds")
}

func runServe(cmd *cobra.Command, args []string) {
	client, err := connectDaemon()
	if err != nil {
		fatal("failed to connect to daemon", err)
	}

	server := mcp.NewServer(client, version)

	errCh := make(chan error, 1)
	go func() { errCh <- server.Run() }()

	if err := waitForSignal(errCh); err != nil {
		fatal("server error", err)
	}
}

func waitForSignal(errCh chan error) error {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigs:
		cliLogger().Info("received signal", zap.Stringer("signal", sig))
		return nil
	case err := <-errCh:
		return err
	}
}
