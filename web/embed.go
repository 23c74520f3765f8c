// Package web embeds the ledger page templates and static assets.
package web

import "embed"

// TemplatesFS embeds the page and its HTMX partials.
//
//go:embed templates/*.html
var TemplatesFS embed.FS

// StaticFS embeds static assets (css/js/images).
//
//go:embed static/*
var StaticFS embed.FS
