package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/corey/kwic/internal/adapters/bbolt"
	"github.com/corey/kwic/internal/adapters/dirstore"
	"github.com/corey/kwic/internal/app"
	"github.com/corey/kwic/internal/domain/corpus"
	"github.com/spf13/cobra"
)

var (
	importPrune bool
	importForce bool
)

var importCmd = &cobra.Command{
	Use:   "import [flags] <dir|file> ...",
	Short: "Copy corpus files into the --archive bbolt file",
	Long: "Reads every <id><ext> file of the given directories (non-recursive) or the\n" +
		"given files and stores it in the archive with its modification time.\n" +
		"Files not newer than their archived copy are skipped unless --force.",
	Args: func(cmd *cobra.Command, args []string) error {
		if err := cobra.MinimumNArgs(1)(cmd, args); err != nil {
			return usageError{err}
		}
		return nil
	},
	RunE: runImport,
}

func init() {
	f := importCmd.Flags()
	f.BoolVar(&importPrune, "prune", false, "Delete archived corpora not present in the imported paths")
	f.BoolVar(&importForce, "force", false, "Rewrite corpora even when unchanged")
}

// importSummary reports what an import did, by corpus identifier.
type importSummary struct {
	Imported  []string
	Unchanged []string
	Pruned    []string
	Skipped   map[string]string // path -> reason
	Bytes     int64
}

func runImport(cmd *cobra.Command, args []string) error {
	if cfg.Archive == "" {
		return usageError{fmt.Errorf("import needs --archive (or %s)", app.EnvArchive)}
	}
	if err := cfg.Validate(); err != nil {
		return usageError{err}
	}

	sum, err := importCorpora(cfg.Archive, args, importOptions{
		ext:      cfg.Ext,
		maxBytes: cfg.MaxCorpusBytes,
		prune:    importPrune,
		force:    importForce,
	})
	if err != nil {
		return lockError(err)
	}

	p := autoPalette()
	fmt.Println(p.paint(colorBold, fmt.Sprintf("imported %d corpora (%s) into %s",
		len(sum.Imported), formatBytes(sum.Bytes), cfg.Archive)))
	if n := len(sum.Unchanged); n > 0 {
		fmt.Printf("  unchanged: %d\n", n)
	}
	if n := len(sum.Pruned); n > 0 {
		fmt.Printf("  pruned:    %d\n", n)
	}
	paths := make([]string, 0, len(sum.Skipped))
	for path := range sum.Skipped {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	for _, path := range paths {
		fmt.Println(p.paint(colorYellow, fmt.Sprintf("  skipped %s: %s", path, sum.Skipped[path])))
	}
	return nil
}

type importOptions struct {
	ext      string
	maxBytes int64
	prune    bool
	force    bool
}

// importSource is one corpus file to import.
type importSource struct {
	id    string
	path  string
	store *dirstore.Store
}

// importCorpora copies the corpus files found under paths into the bbolt
// archive at archive, creating it if needed.
func importCorpora(archive string, paths []string, opts importOptions) (*importSummary, error) {
	sum := &importSummary{Skipped: make(map[string]string)}
	sources, err := collectSources(paths, opts, sum)
	if err != nil {
		return nil, err
	}

	st, err := bbolt.NewStore(archive)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	defer st.Close()

	seen := make(map[string]bool, len(sources))
	for _, src := range sources {
		seen[src.id] = true

		modTime, err := src.store.ModTime(src.id)
		if err != nil {
			sum.Skipped[src.path] = err.Error()
			continue
		}
		if !opts.force {
			if archived, err := st.ModTime(src.id); err == nil && !modTime.After(archived) {
				sum.Unchanged = append(sum.Unchanged, src.id)
				continue
			}
		}
		data, err := src.store.ReadAll(src.id)
		if err != nil {
			sum.Skipped[src.path] = err.Error()
			continue
		}
		if err := st.Put(src.id, data, modTime); err != nil {
			return sum, fmt.Errorf("store %s: %w", src.id, err)
		}
		sum.Imported = append(sum.Imported, src.id)
		sum.Bytes += int64(len(data))
	}

	if opts.prune {
		archived, err := st.List()
		if err != nil {
			return sum, fmt.Errorf("list archive: %w", err)
		}
		for _, id := range archived {
			if seen[id] {
				continue
			}
			if err := st.Delete(id); err != nil {
				return sum, fmt.Errorf("prune %s: %w", id, err)
			}
			sum.Pruned = append(sum.Pruned, id)
		}
	}
	return sum, nil
}

// collectSources expands directories and files into corpus sources. A later
// path wins when two provide the same identifier.
func collectSources(paths []string, opts importOptions, sum *importSummary) ([]importSource, error) {
	storeOpts := []dirstore.Option{dirstore.WithExt(opts.ext), dirstore.WithMaxBytes(opts.maxBytes)}
	byID := make(map[string]int)
	var sources []importSource

	add := func(src importSource) {
		if err := corpus.ValidateIdentifier(src.id); err != nil {
			sum.Skipped[src.path] = err.Error()
			return
		}
		if i, ok := byID[src.id]; ok {
			sources[i] = src
			return
		}
		byID[src.id] = len(sources)
		sources = append(sources, src)
	}

	for _, path := range paths {
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, err
		}
		info, err := os.Stat(abs)
		if err != nil {
			return nil, fmt.Errorf("import %s: %w", path, err)
		}

		if info.IsDir() {
			ds, err := dirstore.New(abs, storeOpts...)
			if err != nil {
				return nil, err
			}
			ids, err := ds.List()
			if err != nil {
				return nil, fmt.Errorf("list %s: %w", path, err)
			}
			for _, id := range ids {
				add(importSource{id: id, path: filepath.Join(abs, id+ds.Ext()), store: ds})
			}
			continue
		}

		ds, err := dirstore.New(filepath.Dir(abs), storeOpts...)
		if err != nil {
			return nil, err
		}
		id, ok := ds.ID(abs)
		if !ok {
			sum.Skipped[abs] = fmt.Sprintf("not a %s file", ds.Ext())
			continue
		}
		add(importSource{id: id, path: abs, store: ds})
	}
	return sources, nil
}
