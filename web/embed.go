package webassets

import "embed"

// FS contains embedded web assets from this directory.

//go:embed app.js
var FS embed.FS
