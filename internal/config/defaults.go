// Package config holds the defaults and config file conventions shared by
// the CLI configuration loader.
package config

import (
	"os"
	"path/filepath"
)

// Default configuration values.
const (
	DefaultBundlesDir  = "bundles"
	DefaultFormat      = "csv"
	DefaultOutput      = "auto" // TTY=text, non-TTY=markdown
	DefaultConcurrency = 4
	DefaultMaxDepth    = 0 // unbounded; cycles are still detected
)

// ConfigFileName is the name of the config file.
const ConfigFileName = "ocaentry.yaml"

// ConfigFileNameAlt is the alternate name of the config file.
const ConfigFileNameAlt = "ocaentry.yml"

// FindConfigFile returns the config file in dir, or "" if there is none.
func FindConfigFile(dir string) string {
	for _, name := range []string{ConfigFileName, ConfigFileNameAlt} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
