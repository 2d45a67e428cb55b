package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var corporaJSON bool

var corporaCmd = &cobra.Command{
	Use:   "corpora",
	Short: "List the corpora available in the store",
	Long:  "Lists corpus identifiers. With a daemon running, cached corpora are marked.",
	Args:  exactArgs(0),
	RunE:  runCorpora,
}

func init() {
	corporaCmd.Flags().BoolVar(&corporaJSON, "json", false, "Print the raw JSON result")
}

func runCorpora(cmd *cobra.Command, args []string) error {
	client, release, err := openClient()
	if err != nil {
		return err
	}
	defer release()

	result, err := client.Corpora()
	if err != nil {
		return err
	}
	if corporaJSON {
		return writeJSON(os.Stdout, result)
	}

	cached := make(map[string]bool)
	if !client.IsLocal() {
		if st, err := client.Status(); err == nil {
			for _, s := range st.Cached {
				cached[s.ID] = true
			}
		}
	}
	fmt.Print(formatCorpora(result, cached, autoPalette()))
	return nil
}
