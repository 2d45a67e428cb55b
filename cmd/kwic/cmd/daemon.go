package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/corey/kwic/internal/adapters/socket"
	"github.com/corey/kwic/internal/app"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve corpora over HTTP and the daemon socket (foreground)",
	Long: "Starts the HTTP API and the Unix-socket daemon for the configured corpus\n" +
		"directory or archive, and runs until interrupted or asked to stop.",
	Args: exactArgs(0),
	RunE: runServe,
}

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Manage the kwic daemon",
}

var daemonStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the daemon (same as serve)",
	Args:  exactArgs(0),
	RunE:  runServe,
}

var daemonStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the daemon",
	Args:  exactArgs(0),
	RunE:  runDaemonStop,
}

func init() {
	for _, c := range []*cobra.Command{serveCmd, daemonStartCmd} {
		f := c.Flags()
		f.BoolVar(&cfg.Watch, "watch", cfg.Watch, "Evict cached corpora when their files change")
		f.BoolVar(&cfg.Warm, "warm", cfg.Warm, "Load every corpus at startup")
	}
	daemonCmd.AddCommand(daemonStartCmd)
	daemonCmd.AddCommand(daemonStopCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	sockPath := cfg.SocketPath()

	client := socket.NewClient(sockPath)
	if client.Ping() {
		fmt.Printf("daemon already running for %s\n", cfg.Source())
		return nil
	}

	a, err := app.New(cfg)
	if err != nil {
		return fmt.Errorf("init: %w", lockError(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.Start(ctx); err != nil {
		a.Close()
		return err
	}

	fmt.Printf("kwic serving %s\n", cfg.Source())
	fmt.Printf("  http:    %s\n", a.WebServer.URL())
	fmt.Printf("  socket:  %s\n", sockPath)

	select {
	case <-ctx.Done():
		fmt.Println("\nshutting down...")
	case <-a.ShutdownCh():
		fmt.Println("stop requested, shutting down...")
	}
	return a.Stop()
}

func runDaemonStop(cmd *cobra.Command, args []string) error {
	client := socket.NewClient(cfg.SocketPath())

	if !client.Ping() {
		fmt.Println("daemon is not running")
		return nil
	}

	if err := client.Shutdown(); err != nil {
		return err
	}

	fmt.Println("daemon stopped")
	return nil
}

// openClient returns a client for the running daemon or, when none answers,
// an in-process client over a fresh backend. release frees the backend.
func openClient() (client *socket.Client, release func(), err error) {
	client = socket.NewClient(cfg.SocketPath())
	if client.Ping() {
		return client, func() {}, nil
	}
	b, err := app.NewBackend(cfg, nil)
	if err != nil {
		return nil, nil, lockError(err)
	}
	return socket.NewLocalClient(b.Service, version), func() { b.Close() }, nil
}

// daemonClient returns a client for the running daemon or an error telling
// the user how to start one.
func daemonClient() (*socket.Client, error) {
	client := socket.NewClient(cfg.SocketPath())
	if !client.Ping() {
		return nil, fmt.Errorf("daemon not running for %s. Start with: kwic serve", cfg.Source())
	}
	return client, nil
}
