package cmd

import (
	"fmt"

	"github.com/corey/kwic/internal/adapters/socket"
	"github.com/corey/kwic/internal/app"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show configuration",
	Long:  "Shows the resolved corpus source, listen address, state paths and daemon status. No daemon required.",
	Args:  exactArgs(0),
	RunE:  runConfig,
}

func runConfig(cmd *cobra.Command, args []string) error {
	if err := cfg.Validate(); err != nil {
		return usageError{err}
	}
	sockPath := cfg.SocketPath()
	paths := app.NewPaths(cfg.ResolvedStateDir())

	client := socket.NewClient(sockPath)
	daemonRunning := client.Ping()
	daemonStatus := fmt.Sprintf("%s✗ not running%s", colorYellow, colorReset)
	if daemonRunning {
		daemonStatus = fmt.Sprintf("%s✓ running%s", colorGreen, colorReset)
	}

	kind := "directory"
	if cfg.UsesArchive() {
		kind = "archive"
	}

	fmt.Printf("%skwic config%s\n", colorBold, colorReset)
	fmt.Printf("  Source:     %s (%s)\n", cfg.Source(), kind)
	fmt.Printf("  Extension:  %s\n", cfg.Ext)
	fmt.Printf("  Max size:   %s\n", formatBytes(cfg.MaxCorpusBytes))
	fmt.Printf("  Listen:     %s\n", cfg.Addr)
	fmt.Printf("  State:      %s\n", paths.Root)
	fmt.Printf("  Socket:     %s\n", sockPath)
	fmt.Printf("  Log level:  %s\n", cfg.LogLevel)
	fmt.Printf("  Daemon:     %s\n", daemonStatus)

	if daemonRunning {
		if port, err := paths.ReadPort(); err == nil {
			fmt.Printf("  Web UI:     http://localhost:%d\n", port)
		}
	}
	return nil
}
