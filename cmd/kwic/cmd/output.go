package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/corey/kwic/internal/adapters/socket"
)

// ANSI color codes for terminal output.
const (
	colorReset   = "\033[0m"
	colorBold    = "\033[1m"
	colorCyan    = "\033[36m"
	colorMagenta = "\033[35m"
	colorGreen   = "\033[32m"
	colorYellow  = "\033[33m"
	colorGray    = "\033[90m"
)

// palette wraps text in ANSI codes when enabled.
type palette bool

func (p palette) paint(code, s string) string {
	if !p || s == "" {
		return s
	}
	return code + s + colorReset
}

// writeJSON prints v as indented JSON.
func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// formatSearchResult renders a page of concordance lines in three columns,
// the left context right-aligned so the matches line up:
//
//	3 hits for "cat" in animals │ page 1/1 │ 120µs
//	   2:        the black | cat | sat on the mat
//	  14:  I have 5 black | cat | .
func formatSearchResult(r *socket.SearchResult, p palette) string {
	var sb strings.Builder
	sb.WriteString(p.paint(colorBold, fmt.Sprintf("%d hits for %q in %s", r.TotalHits, r.Query, r.Corpus)))
	if r.TotalPages > 0 {
		sb.WriteString(fmt.Sprintf(" │ page %d/%d", r.Page, r.TotalPages))
	}
	sb.WriteString(fmt.Sprintf(" │ %s\n", r.Elapsed))

	if len(r.Results) == 0 {
		if r.TotalHits > 0 {
			sb.WriteString(p.paint(colorGray, fmt.Sprintf("  (page %d is past the last page)", r.Page)))
			sb.WriteString("\n")
		}
		return sb.String()
	}

	leftWidth, numWidth := 0, 0
	for _, h := range r.Results {
		if n := utf8.RuneCountInString(joinTokens(h.Left)); n > leftWidth {
			leftWidth = n
		}
		if n := len(fmt.Sprint(h.LineNumber)); n > numWidth {
			numWidth = n
		}
	}

	for _, h := range r.Results {
		left := joinTokens(h.Left)
		pad := strings.Repeat(" ", leftWidth-utf8.RuneCountInString(left))
		num := fmt.Sprintf("%*d", numWidth, h.LineNumber)
		sb.WriteString(fmt.Sprintf("  %s: %s%s %s %s %s %s\n",
			p.paint(colorCyan, num),
			pad, left,
			p.paint(colorGray, "|"),
			p.paint(colorMagenta+colorBold, joinTokens(h.Match)),
			p.paint(colorGray, "|"),
			joinTokens(h.Right)))
	}
	return sb.String()
}

// formatGrepResult renders matching lines grep-style: line:content.
func formatGrepResult(r *socket.GrepResult, countOnly bool, p palette) string {
	if countOnly {
		return fmt.Sprintf("%d\n", r.TotalLinesMatched)
	}
	var sb strings.Builder
	for _, m := range r.Results {
		sb.WriteString(fmt.Sprintf("%s:%s", p.paint(colorCyan, fmt.Sprint(m.LineNumber)), m.Content))
		if m.Matches > 1 {
			sb.WriteString(p.paint(colorGray, fmt.Sprintf("  (×%d)", m.Matches)))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// formatViewStats renders the metadata of a corpus without its content.
func formatViewStats(r *socket.ViewResult, p palette) string {
	var sb strings.Builder
	sb.WriteString(p.paint(colorBold, r.Filename))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("  Lines:  %d\n", r.LineCount))
	sb.WriteString(fmt.Sprintf("  Words:  %d\n", r.WordCount))
	sb.WriteString(fmt.Sprintf("  Chars:  %d\n", r.CharCount))
	return sb.String()
}

// formatView renders the full text, optionally numbering lines.
func formatView(r *socket.ViewResult, numbered bool, p palette) string {
	if !numbered {
		if r.Content == "" || strings.HasSuffix(r.Content, "\n") {
			return r.Content
		}
		return r.Content + "\n"
	}
	if r.LineCount == 0 {
		return ""
	}
	lines := strings.Split(r.Content, "\n")
	width := len(fmt.Sprint(len(lines)))
	var sb strings.Builder
	for i, line := range lines {
		sb.WriteString(p.paint(colorCyan, fmt.Sprintf("%*d", width, i+1)))
		sb.WriteString("  ")
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	return sb.String()
}

// formatCorpora renders the available corpora, marking cached ones.
func formatCorpora(r *socket.CorporaResult, cached map[string]bool, p palette) string {
	var sb strings.Builder
	sb.WriteString(p.paint(colorBold, fmt.Sprintf("%d corpora", r.Count)))
	sb.WriteString("\n")
	for _, id := range r.Corpora {
		mark := " "
		if cached[id] {
			mark = p.paint(colorGreen, "●")
		}
		sb.WriteString(fmt.Sprintf("  %s %s\n", mark, id))
	}
	return sb.String()
}

// formatStatus renders the cache table, most recently accessed first.
func formatStatus(r *socket.StatusResult, now time.Time, p palette) string {
	var sb strings.Builder
	sb.WriteString(p.paint(colorBold, fmt.Sprintf("%d cached", r.Count)))
	sb.WriteString("\n")
	if r.Count == 0 {
		return sb.String()
	}

	rows := append(r.Cached[:0:0], r.Cached...)
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].LastAccessed.After(rows[j].LastAccessed)
	})

	idWidth := len("CORPUS")
	for _, s := range rows {
		if len(s.ID) > idWidth {
			idWidth = len(s.ID)
		}
	}
	sb.WriteString(p.paint(colorGray, fmt.Sprintf("  %-*s %8s %9s %7s %9s %5s %8s  %s\n",
		idWidth, "CORPUS", "LINES", "TOKENS", "VOCAB", "SIZE", "LOADS", "HITS", "LAST ACCESS")))
	for _, s := range rows {
		sb.WriteString(fmt.Sprintf("  %-*s %8d %9d %7d %9s %5d %8d  %s\n",
			idWidth, s.ID, s.LineCount, s.TokenCount, s.Vocabulary,
			formatBytes(s.SizeBytes), s.Loads, s.AccessCount, formatAgo(now, s.LastAccessed)))
	}
	return sb.String()
}

// formatHealth renders the daemon health summary.
func formatHealth(r *socket.HealthResult, p palette) string {
	var sb strings.Builder
	sb.WriteString(p.paint(colorGreen, "kwic daemon "+r.Status))
	if r.Version != "" {
		sb.WriteString(p.paint(colorGray, " ("+r.Version+")"))
	}
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("  Cached:  %d corpora\n", r.Cached))
	sb.WriteString(fmt.Sprintf("  Uptime:  %s\n", r.Uptime))
	if r.Requests > 0 {
		sb.WriteString(fmt.Sprintf("  Recent:  %d requests", r.Requests))
		if r.SearchP50 != "" {
			sb.WriteString(fmt.Sprintf(" │ p50 %s", r.SearchP50))
		}
		if r.SearchMax != "" {
			sb.WriteString(fmt.Sprintf(" │ max %s", r.SearchMax))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func joinTokens(tokens []string) string {
	return strings.Join(tokens, " ")
}

// formatBytes renders a byte count with a binary unit.
func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%dB", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f%ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

// formatAgo renders the time since t, coarsely.
func formatAgo(now, t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	d := now.Sub(t)
	switch {
	case d < time.Second:
		return "just now"
	case d < time.Minute:
		return fmt.Sprintf("%ds ago", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}
