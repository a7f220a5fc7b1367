// Package config provides configuration management for the ocaentry CLI.
//
// Values are layered with koanf: defaults, then ocaentry.yaml, then
// OCAENTRY_* environment variables, then explicitly set flags.
package config

import (
	sharedcfg "github.com/leapstack-labs/ocaentry/internal/config"
	"github.com/leapstack-labs/ocaentry/internal/extract"
	"github.com/leapstack-labs/ocaentry/internal/format"
)

// Config holds all CLI configuration options.
type Config struct {
	BundlesDir       string            `koanf:"bundles_dir"`
	LabelLanguage    string            `koanf:"label_language"`
	MetadataLanguage string            `koanf:"metadata_language"`
	MaxDepth         int               `koanf:"max_depth"`
	Format           string            `koanf:"format"`
	IncludeMetadata  bool              `koanf:"include_metadata"`
	OutputDir        string            `koanf:"output_dir"`
	Verbose          bool              `koanf:"verbose"`
	OutputFormat     string            `koanf:"output"`
	Concurrency      int               `koanf:"concurrency"`
	Aliases          map[string]string `koanf:"aliases"` // extra reference name -> SAID

	// ProjectRoot is inferred, never read from the file.
	ProjectRoot string `koanf:"-"`
}

// Default configuration values - uses shared defaults from internal/config
const (
	DefaultBundlesDir  = sharedcfg.DefaultBundlesDir
	DefaultFormat      = sharedcfg.DefaultFormat
	DefaultOutput      = sharedcfg.DefaultOutput
	DefaultConcurrency = sharedcfg.DefaultConcurrency
	DefaultMaxDepth    = sharedcfg.DefaultMaxDepth
)

// ExtractOptions returns the engine options this config selects.
func (c *Config) ExtractOptions() extract.Options {
	return extract.Options{
		LabelLanguage:    c.LabelLanguage,
		MetadataLanguage: c.MetadataLanguage,
		MaxDepth:         c.MaxDepth,
	}
}

// FormatOptions returns the encoder options this config selects.
// Labels replace names in headers only when a label language is set.
func (c *Config) FormatOptions() format.Options {
	return format.Options{
		IncludeMetadata: c.IncludeMetadata,
		UseLabels:       c.LabelLanguage != "",
	}
}
