package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	viewStatsOnly bool
	viewNumbered  bool
	viewJSON      bool
)

var viewCmd = &cobra.Command{
	Use:   "view [flags] <corpus>",
	Short: "Print a corpus, or its line, word and character counts",
	Args:  exactArgs(1),
	RunE:  runView,
}

func init() {
	f := viewCmd.Flags()
	f.BoolVar(&viewStatsOnly, "stats-only", false, "Print counts instead of content")
	f.BoolVarP(&viewNumbered, "line-number", "n", false, "Number the lines")
	f.BoolVar(&viewJSON, "json", false, "Print the raw JSON result")
}

func runView(cmd *cobra.Command, args []string) error {
	client, release, err := openClient()
	if err != nil {
		return err
	}
	defer release()

	result, err := client.View(args[0])
	if err != nil {
		return err
	}

	p := autoPalette()
	switch {
	case viewJSON:
		return writeJSON(os.Stdout, result)
	case viewStatsOnly:
		fmt.Print(formatViewStats(result, p))
	default:
		fmt.Print(formatView(result, viewNumbered, p))
	}
	return nil
}
