// kwic is a keyword-in-context concordance server and CLI.
// One binary: serve a corpus directory or archive over HTTP and a Unix
// socket, or query it directly from the shell.
package main

import (
	"fmt"
	"os"

	"github.com/corey/kwic/cmd/kwic/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		code := cmd.ExitCode(err)
		if msg := err.Error(); msg != "" && !cmd.IsSilent(err) {
			fmt.Fprintf(os.Stderr, "error: %s\n", msg)
		}
		os.Exit(code)
	}
}
