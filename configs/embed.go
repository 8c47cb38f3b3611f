// Package configs provides embedded configuration templates for polisearch.
//
// The template is embedded at build time with go:embed so it ships in
// every distribution. `polisearch config init` writes it next to the
// project as polisearch.yaml.
package configs

import _ "embed"

// DefaultConfigTemplate is the annotated starter configuration written
// by `polisearch config init`.
//
//go:embed default.yaml
var DefaultConfigTemplate string
