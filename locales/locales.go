// Package locales embeds the translation files loaded by utils.InitI18n.
package locales

import "embed"

//go:embed active.*.toml
var FS embed.FS
