package commands

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/leapstack-labs/ocaentry/internal/cli/config"
	"github.com/leapstack-labs/ocaentry/internal/cli/output"
	intconfig "github.com/leapstack-labs/ocaentry/internal/config"
	"github.com/leapstack-labs/ocaentry/internal/deps"
	"github.com/leapstack-labs/ocaentry/internal/loader"
	"github.com/leapstack-labs/ocaentry/pkg/core"
	"github.com/spf13/cobra"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg       *config.Config
	Logger    *slog.Logger
	Catalog   *deps.Catalog
	Discovery *deps.DiscoveryResult
	Renderer  *output.Renderer
}

// NewCommandContext creates a CommandContext and loads the bundles directory
// into a catalog. Files that fail to parse are reported as warnings.
func NewCommandContext(cmd *cobra.Command) (*CommandContext, error) {
	cmdCtx := NewCommandContextWithoutCatalog(cmd)
	if err := cmdCtx.Reload(); err != nil {
		return nil, err
	}
	return cmdCtx, nil
}

// NewCommandContextWithoutCatalog creates a CommandContext without touching
// the bundles directory.
func NewCommandContextWithoutCatalog(cmd *cobra.Command) *CommandContext {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())
	mode := output.Mode(cfg.OutputFormat)
	r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode)

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Renderer: r,
	}
}

// Reload rediscovers the bundles directory.
func (c *CommandContext) Reload() error {
	if err := c.Cfg.ValidateDirectories(); err != nil {
		return err
	}

	catalog, result, err := deps.Discover(c.Cfg.BundlesDir, deps.Options{
		Aliases: c.Cfg.Aliases,
		Logger:  c.Logger,
	})
	if err != nil {
		return fmt.Errorf("failed to discover bundles: %w", err)
	}
	for _, e := range result.Errors {
		c.Renderer.Warning(e.Error())
	}

	c.Catalog = catalog
	c.Discovery = result
	return nil
}

// ResolveBundle finds a bundle by SAID, name or path. A file outside the
// bundles directory is parsed directly and its embedded dependencies join
// the catalog.
func (c *CommandContext) ResolveBundle(arg string) (*core.Bundle, error) {
	if b, ok := c.Catalog.Lookup(arg); ok {
		return b, nil
	}

	if info, err := os.Stat(arg); err == nil && !info.IsDir() {
		doc, err := loader.ParseFile(arg)
		if err != nil {
			return nil, err
		}
		for _, dep := range doc.Dependencies {
			c.Catalog.Add(dep)
		}
		return doc.Bundle, nil
	}

	return nil, fmt.Errorf("bundle %q not found in %s (looked up by SAID, name and path)", arg, c.Cfg.BundlesDir)
}

// Helper functions shared across commands

// getConfig returns the current configuration.
// It uses config.GetCurrentConfig() if available, otherwise falls back to environment variables.
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}

	concurrency := intconfig.DefaultConcurrency
	if n, err := strconv.Atoi(os.Getenv("OCAENTRY_CONCURRENCY")); err == nil && n > 0 {
		concurrency = n
	}

	return &config.Config{
		BundlesDir:       getEnvOrDefault("OCAENTRY_BUNDLES_DIR", intconfig.DefaultBundlesDir),
		LabelLanguage:    os.Getenv("OCAENTRY_LABEL_LANGUAGE"),
		MetadataLanguage: os.Getenv("OCAENTRY_METADATA_LANGUAGE"),
		Format:           getEnvOrDefault("OCAENTRY_FORMAT", intconfig.DefaultFormat),
		OutputDir:        os.Getenv("OCAENTRY_OUTPUT_DIR"),
		Verbose:          os.Getenv("OCAENTRY_VERBOSE") == "true",
		OutputFormat:     getEnvOrDefault("OCAENTRY_OUTPUT", intconfig.DefaultOutput),
		Concurrency:      concurrency,
	}
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
