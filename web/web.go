package web

import "embed"

// Templates: HTML-шаблоны, вшитые в бинарник
//
//go:embed templates/*.html
var Templates embed.FS
