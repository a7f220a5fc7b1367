package config

import (
	"fmt"
	"os"

	"github.com/leapstack-labs/ocaentry/internal/format"
	"golang.org/x/text/language"
)

// outputModes are the accepted values of the output key.
var outputModes = map[string]bool{
	"auto":     true,
	"text":     true,
	"markdown": true,
	"json":     true,
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.BundlesDir == "" {
		return fmt.Errorf("bundles_dir is required")
	}
	if _, err := format.ParseFormat(c.Format); err != nil {
		return err
	}
	if !outputModes[c.OutputFormat] {
		return fmt.Errorf("invalid output %q (expected auto, text, markdown or json)", c.OutputFormat)
	}
	if c.MaxDepth < 0 {
		return fmt.Errorf("max_depth must not be negative, got %d", c.MaxDepth)
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1, got %d", c.Concurrency)
	}
	if err := validateLanguage("label_language", c.LabelLanguage); err != nil {
		return err
	}
	return validateLanguage("metadata_language", c.MetadataLanguage)
}

// validateLanguage checks that tag is a well-formed BCP 47 / ISO 639 tag.
// Overlay matching itself compares the raw strings.
func validateLanguage(key, tag string) error {
	if tag == "" {
		return nil
	}
	if _, err := language.Parse(tag); err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, tag, err)
	}
	return nil
}

// ValidateDirectories checks if required directories exist.
func (c *Config) ValidateDirectories() error {
	info, err := os.Stat(c.BundlesDir)
	if os.IsNotExist(err) {
		return fmt.Errorf("bundles directory does not exist: %s\nHint: Create the directory or use --bundles-dir to specify a different path", c.BundlesDir)
	}
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("bundles path is not a directory: %s", c.BundlesDir)
	}
	return nil
}
