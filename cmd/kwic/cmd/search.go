package cmd

import (
	"fmt"
	"os"

	"github.com/corey/kwic/internal/adapters/socket"
	"github.com/corey/kwic/internal/domain/concordance"
	"github.com/corey/kwic/internal/domain/kwic"
	"github.com/spf13/cobra"
)

var (
	searchContext       int
	searchCaseSensitive bool
	searchPage          int
	searchPageSize      int
	searchJSON          bool
	searchColors        colorFlags
)

var searchCmd = &cobra.Command{
	Use:   "search [flags] <corpus> <query>",
	Short: "Keyword-in-context search of one corpus",
	Long: "Prints every line containing <query> as a whole token, with up to\n" +
		"--context tokens on each side. Uses the running daemon when there is one.",
	Args: exactArgs(2),
	RunE: runSearch,
}

func init() {
	f := searchCmd.Flags()
	f.IntVarP(&searchContext, "context", "C", kwic.DefaultContextSize, fmt.Sprintf("Tokens of context on each side (1-%d)", concordance.MaxContextSize))
	f.BoolVarP(&searchCaseSensitive, "case-sensitive", "s", false, "Match case exactly")
	f.IntVarP(&searchPage, "page", "p", 1, "Page number, 1-based")
	f.IntVarP(&searchPageSize, "page-size", "n", concordance.DefaultPageSize, fmt.Sprintf("Hits per page (1-%d)", concordance.MaxPageSize))
	f.BoolVar(&searchJSON, "json", false, "Print the raw JSON result")
	searchColors.register(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	// Zero would silently select the service default; reject it like the HTTP API does.
	if searchContext < 1 || searchPage < 1 || searchPageSize < 1 {
		return usageError{fmt.Errorf("--context, --page and --page-size must be positive")}
	}

	client, release, err := openClient()
	if err != nil {
		return err
	}
	defer release()

	result, err := client.Search(socket.SearchParams{
		Corpus:        args[0],
		Query:         args[1],
		ContextSize:   searchContext,
		CaseSensitive: searchCaseSensitive,
		Page:          searchPage,
		PageSize:      searchPageSize,
	})
	if err != nil {
		return err
	}

	if searchJSON {
		return writeJSON(os.Stdout, result)
	}
	fmt.Print(formatSearchResult(result, searchColors.palette()))
	return nil
}
