// Package authweb embeds the templates and static files for production builds.
package authweb

import "embed"

// In dev mode both trees are read from disk instead.

//go:embed all:frontend/static
var StaticFS embed.FS

//go:embed all:frontend/templates
var TemplateFS embed.FS
