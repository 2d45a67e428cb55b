package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// colorFlags is the --color/--no-color pair of commands that highlight output.
type colorFlags struct {
	mode    string
	disable bool
}

func (c *colorFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&c.mode, "color", "auto", "Color output: auto, always, never")
	cmd.Flags().BoolVar(&c.disable, "no-color", false, "Suppress color output")
}

// palette resolves the flags. Auto mode colors only a terminal and honors
// NO_COLOR.
func (c colorFlags) palette() palette {
	if c.disable {
		return false
	}
	switch c.mode {
	case "always":
		return true
	case "never":
		return false
	}
	return os.Getenv("NO_COLOR") == "" && stdoutIsTerminal()
}

// autoPalette is the palette of commands without color flags.
func autoPalette() palette {
	return colorFlags{mode: "auto"}.palette()
}

func stdoutIsTerminal() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}
