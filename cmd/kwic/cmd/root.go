package cmd

import (
	"log/slog"
	"os"

	"github.com/corey/kwic/internal/app"
	"github.com/spf13/cobra"
)

// version is stamped at link time: -ldflags "-X github.com/corey/kwic/cmd/kwic/cmd.version=v1.2.3"
var version = "dev"

// cfg is filled from environment defaults, then overridden by flags.
var cfg = app.DefaultConfig(os.Getenv)

var rootCmd = &cobra.Command{
	Use:   "kwic",
	Short: "kwic: keyword-in-context concordance search",
	Long: "Serve line-oriented text corpora and search them in the three-column\n" +
		"KWIC format (left context | match | right context).",
	SilenceErrors:     true,
	SilenceUsage:      true,
	PersistentPreRunE: setupLogging,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.Version = version
	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError{err}
	})

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfg.CorpusDir, "corpus-dir", cfg.CorpusDir, "Directory of corpus files (env "+app.EnvCorpusDir+")")
	pf.StringVar(&cfg.Archive, "archive", cfg.Archive, "bbolt corpus archive; replaces --corpus-dir when set (env "+app.EnvArchive+")")
	pf.StringVar(&cfg.Addr, "addr", cfg.Addr, "HTTP listen address (env "+app.EnvAddr+")")
	pf.StringVar(&cfg.Ext, "ext", cfg.Ext, "Corpus file extension")
	pf.Int64Var(&cfg.MaxCorpusBytes, "max-corpus-bytes", cfg.MaxCorpusBytes, "Largest corpus file accepted (env "+app.EnvMaxBytes+")")
	pf.StringVar(&cfg.StateDir, "state-dir", cfg.StateDir, "Runtime state directory (default <source>/.kwic)")
	pf.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: debug, info, warn, error (env "+app.EnvLogLevel+")")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(daemonCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(grepCmd)
	rootCmd.AddCommand(viewCmd)
	rootCmd.AddCommand(corporaCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(clearCmd)
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(configCmd)
}

// setupLogging installs a text handler on stderr at the configured level
// and hands the logger to the app config.
func setupLogging(cmd *cobra.Command, args []string) error {
	lvl, err := app.ParseLevel(cfg.LogLevel)
	if err != nil {
		return usageError{err}
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)
	cfg.Logger = logger
	cfg.Version = version
	return nil
}
