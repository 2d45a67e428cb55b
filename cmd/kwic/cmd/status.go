package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var statusJSON bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the daemon's corpus cache",
	Args:  exactArgs(0),
	RunE:  runStatus,
}

var clearCmd = &cobra.Command{
	Use:   "clear [corpus ...]",
	Short: "Evict corpora from the daemon's cache (all when none given)",
	RunE:  runClear,
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check daemon status",
	Args:  exactArgs(0),
	RunE:  runHealth,
}

func init() {
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "Print the raw JSON result")
}

func runStatus(cmd *cobra.Command, args []string) error {
	client, err := daemonClient()
	if err != nil {
		return err
	}
	result, err := client.Status()
	if err != nil {
		return err
	}
	if statusJSON {
		return writeJSON(os.Stdout, result)
	}
	fmt.Print(formatStatus(result, time.Now(), autoPalette()))
	return nil
}

func runClear(cmd *cobra.Command, args []string) error {
	client, err := daemonClient()
	if err != nil {
		return err
	}
	result, err := client.Clear(args...)
	if err != nil {
		return err
	}
	if result.Count == 0 {
		fmt.Println("nothing to clear")
		return nil
	}
	fmt.Printf("cleared %d: %s\n", result.Count, strings.Join(result.Cleared, ", "))
	return nil
}

func runHealth(cmd *cobra.Command, args []string) error {
	client, err := daemonClient()
	if err != nil {
		fmt.Println("kwic daemon is not running")
		return nil
	}

	health, err := client.Health()
	if err != nil {
		return err
	}

	fmt.Print(formatHealth(health, autoPalette()))
	return nil
}
