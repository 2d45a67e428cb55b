// Package web serves the concordance JSON API and an embedded HTML page.
// Binds to localhost by default; there is no authentication.
package web

import (
	"embed"
	"io/fs"
)

//go:embed static/index.html
var staticFS embed.FS

// staticRoot serves static/ as the site root.
func staticRoot() fs.FS {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err) // embedded path is fixed at build time
	}
	return sub
}
