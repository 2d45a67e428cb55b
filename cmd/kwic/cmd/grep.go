package cmd

import (
	"fmt"
	"os"

	"github.com/corey/kwic/internal/adapters/socket"
	"github.com/spf13/cobra"
)

var (
	grepCaseSensitive bool
	grepCountOnly     bool
	grepQuiet         bool
	grepJSON          bool
	grepColors        colorFlags
)

var grepCmd = &cobra.Command{
	Use:   "grep [flags] <corpus> <query>",
	Short: "Print the lines of a corpus that contain a token",
	Long: "Lists every line containing <query> as a whole token, with per-line\n" +
		"match counts. Exit status is 0 when a line matched, 1 when none did.",
	Args: exactArgs(2),
	RunE: runGrep,
}

func init() {
	f := grepCmd.Flags()
	f.BoolVarP(&grepCaseSensitive, "case-sensitive", "s", false, "Match case exactly")
	f.BoolVarP(&grepCountOnly, "count", "c", false, "Print only the number of matching lines")
	f.BoolVarP(&grepQuiet, "quiet", "q", false, "Quiet mode (exit code only)")
	f.BoolVar(&grepJSON, "json", false, "Print the raw JSON result")
	grepColors.register(grepCmd)
}

func runGrep(cmd *cobra.Command, args []string) error {
	client, release, err := openClient()
	if err != nil {
		return err
	}
	defer release()

	result, err := client.Grep(socket.GrepParams{
		Corpus:        args[0],
		Query:         args[1],
		CaseSensitive: grepCaseSensitive,
	})
	if err != nil {
		return err
	}

	switch {
	case grepQuiet:
	case grepJSON:
		if err := writeJSON(os.Stdout, result); err != nil {
			return err
		}
	default:
		fmt.Print(formatGrepResult(result, grepCountOnly, grepColors.palette()))
	}

	if result.TotalLinesMatched == 0 {
		return exitStatus(1)
	}
	return nil
}
