package ports

// LineFilter is a cheap substring prefilter for line scans. Lines for which
// MayContain returns false are skipped without tokenizing. Implementations
// may return false positives, never false negatives.
type LineFilter interface {
	MayContain(line string) bool
}
