package inkpress

import "embed"

// EmbeddedAssets contains the client assets the engine ships with:
// site.css, widgets.js (quiz submission and chart drawing), editor.js.
//
//go:embed embedded/*
var EmbeddedAssets embed.FS
