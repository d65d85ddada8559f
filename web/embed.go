// Package web holds the HTML templates and static assets of the table pages.
package web

import "embed"

// EmbeddedFS contains templates/ and static/ for release builds.
//
//go:embed templates static
var EmbeddedFS embed.FS
