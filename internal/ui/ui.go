// Package ui embeds the server's HTML templates.
package ui

import "embed"

//go:embed *.html
var Templates embed.FS
