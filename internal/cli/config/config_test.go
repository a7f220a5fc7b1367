package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newFlags mirrors the CLI flag set the loader sees.
func newFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("config", "", "")
	fs.String("bundles-dir", DefaultBundlesDir, "")
	fs.String("label-lang", "", "")
	fs.String("metadata-lang", "", "")
	fs.Int("max-depth", DefaultMaxDepth, "")
	fs.String("format", DefaultFormat, "")
	fs.Bool("include-metadata", false, "")
	fs.String("output-dir", "", "")
	fs.Bool("verbose", false, "")
	fs.String("output", DefaultOutput, "")
	fs.Int("concurrency", DefaultConcurrency, "")
	require.NoError(t, fs.Parse(args))
	return fs
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
}

func TestLoadConfig_Defaults(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	defer ResetConfig()

	cfg, err := LoadConfig("", newFlags(t))
	require.NoError(t, err)

	assert.Equal(t, dir, cfg.ProjectRoot)
	assert.Equal(t, filepath.Join(dir, DefaultBundlesDir), cfg.BundlesDir)
	assert.Equal(t, DefaultFormat, cfg.Format)
	assert.Equal(t, DefaultOutput, cfg.OutputFormat)
	assert.Equal(t, DefaultConcurrency, cfg.Concurrency)
	assert.Zero(t, cfg.MaxDepth)
	assert.Empty(t, cfg.OutputDir)
	assert.Empty(t, cfg.LabelLanguage)
	assert.Empty(t, GetConfigFileUsed())
	assert.Same(t, cfg, GetCurrentConfig())
}

func TestLoadConfig_FileFoundUpward(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "ocaentry.yaml"), `
bundles_dir: oca
label_language: eng
include_metadata: true
max_depth: 5
aliases:
  geo: ESAID_GEO
`)
	nested := filepath.Join(dir, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0750))
	t.Chdir(nested)
	defer ResetConfig()

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)

	assert.Equal(t, dir, cfg.ProjectRoot)
	assert.Equal(t, filepath.Join(dir, "ocaentry.yaml"), GetConfigFileUsed())
	assert.Equal(t, filepath.Join(dir, "oca"), cfg.BundlesDir)
	assert.Equal(t, "eng", cfg.LabelLanguage)
	assert.True(t, cfg.IncludeMetadata)
	assert.Equal(t, 5, cfg.MaxDepth)
	assert.Equal(t, map[string]string{"geo": "ESAID_GEO"}, cfg.Aliases)

	opts := cfg.ExtractOptions()
	assert.Equal(t, "eng", opts.LabelLanguage)
	assert.Equal(t, 5, opts.MaxDepth)
	assert.True(t, cfg.FormatOptions().UseLabels)
	assert.True(t, cfg.FormatOptions().IncludeMetadata)
}

func TestLoadConfig_ExplicitFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "conf", "custom.yml")
	writeFile(t, cfgPath, "bundles_dir: /abs/bundles\nformat: xlsx\n")
	t.Chdir(t.TempDir())
	defer ResetConfig()

	cfg, err := LoadConfig(cfgPath, nil)
	require.NoError(t, err)

	assert.Equal(t, filepath.Dir(cfgPath), cfg.ProjectRoot)
	assert.Equal(t, "/abs/bundles", cfg.BundlesDir)
	assert.Equal(t, "xlsx", cfg.Format)
}

func TestLoadConfig_MissingExplicitFile(t *testing.T) {
	t.Chdir(t.TempDir())
	defer ResetConfig()

	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")
}

func TestLoadConfig_Precedence(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "ocaentry.yml"), "format: csv\nlabel_language: eng\nconcurrency: 2\n")
	t.Chdir(dir)
	defer ResetConfig()

	t.Run("env overrides file", func(t *testing.T) {
		t.Setenv("OCAENTRY_FORMAT", "json")
		t.Setenv("OCAENTRY_MAX_DEPTH", "3")

		cfg, err := LoadConfig("", newFlags(t))
		require.NoError(t, err)
		assert.Equal(t, "json", cfg.Format)
		assert.Equal(t, 3, cfg.MaxDepth)
		assert.Equal(t, "eng", cfg.LabelLanguage)
		assert.Equal(t, 2, cfg.Concurrency)
	})

	t.Run("flags override env", func(t *testing.T) {
		t.Setenv("OCAENTRY_FORMAT", "json")

		cfg, err := LoadConfig("", newFlags(t, "--format=xlsx", "--label-lang=fra", "--metadata-lang=fra"))
		require.NoError(t, err)
		assert.Equal(t, "xlsx", cfg.Format)
		assert.Equal(t, "fra", cfg.LabelLanguage)
		assert.Equal(t, "fra", cfg.MetadataLanguage)
	})

	t.Run("unchanged flags keep file values", func(t *testing.T) {
		cfg, err := LoadConfig("", newFlags(t, "--verbose"))
		require.NoError(t, err)
		assert.True(t, cfg.Verbose)
		assert.Equal(t, "csv", cfg.Format)
		assert.Equal(t, 2, cfg.Concurrency)
	})
}

func TestLoadConfig_PathFlagsRelativeToCWD(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "ocaentry.yaml"), "bundles_dir: from-file\noutput_dir: out\n")
	work := filepath.Join(root, "work")
	require.NoError(t, os.MkdirAll(work, 0750))
	t.Chdir(work)
	defer ResetConfig()

	cfg, err := LoadConfig("", newFlags(t, "--output-dir", "generated"))
	require.NoError(t, err)

	assert.Equal(t, root, cfg.ProjectRoot)
	assert.Equal(t, filepath.Join(root, "from-file"), cfg.BundlesDir)
	assert.Equal(t, filepath.Join(work, "generated"), cfg.OutputDir)
}

func TestLoadConfig_BundlesDirAnchorsProjectRoot(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "ocaentry.yaml"), "label_language: eng\n")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "bundles"), 0750))
	t.Chdir(t.TempDir())
	defer ResetConfig()

	cfg, err := LoadConfig("", newFlags(t, "--bundles-dir", filepath.Join(root, "bundles")))
	require.NoError(t, err)

	assert.Equal(t, root, cfg.ProjectRoot)
	assert.Equal(t, "eng", cfg.LabelLanguage)
	require.NoError(t, cfg.ValidateDirectories())
}

func TestLoadConfig_ExpandsEnvInPaths(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "ocaentry.yaml"), "output_dir: ${OCA_TEST_OUT}/entry\n")
	t.Setenv("OCA_TEST_OUT", "/tmp/oca")
	t.Chdir(dir)
	defer ResetConfig()

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/oca/entry", cfg.OutputDir)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name      string
		file      string
		errSubstr string
	}{
		{"bad format", "format: xml\n", "unknown format"},
		{"bad output", "output: html\n", "invalid output"},
		{"bad label language", "label_language: \"not a tag!\"\n", "invalid label_language"},
		{"bad metadata language", "metadata_language: \"123456789\"\n", "invalid metadata_language"},
		{"negative depth", "max_depth: -1\n", "max_depth must not be negative"},
		{"zero concurrency", "concurrency: 0\n", "concurrency must be at least 1"},
		{"empty bundles dir", "bundles_dir: \"\"\n", "bundles_dir is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeFile(t, filepath.Join(dir, "ocaentry.yaml"), tt.file)
			t.Chdir(dir)
			defer ResetConfig()

			_, err := LoadConfig("", nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errSubstr)
		})
	}
}

func TestValidateLanguage(t *testing.T) {
	for _, tag := range []string{"", "eng", "fra", "en", "en-US", "pt-BR"} {
		assert.NoError(t, validateLanguage("label_language", tag), tag)
	}
	assert.Error(t, validateLanguage("label_language", "en_US!"))
}

func TestValidateDirectories(t *testing.T) {
	dir := t.TempDir()

	cfg := &Config{BundlesDir: filepath.Join(dir, "missing")}
	err := cfg.ValidateDirectories()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--bundles-dir")

	file := filepath.Join(dir, "file.yaml")
	writeFile(t, file, "x: 1\n")
	cfg.BundlesDir = file
	assert.ErrorContains(t, cfg.ValidateDirectories(), "not a directory")

	cfg.BundlesDir = dir
	assert.NoError(t, cfg.ValidateDirectories())
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("TEST_VAR_ONE", "value_one")
	t.Setenv("TEST_VAR_TWO", "value_two")

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"single variable", "${TEST_VAR_ONE}", "value_one"},
		{"multiple variables", "${TEST_VAR_ONE}/${TEST_VAR_TWO}", "value_one/value_two"},
		{"variable in path", "/path/to/${TEST_VAR_ONE}/file", "/path/to/value_one/file"},
		{"unset variable stays as-is", "${UNSET_VARIABLE}", "${UNSET_VARIABLE}"},
		{"no variables", "plain string", "plain string"},
		{"empty string", "", ""},
		{"mixed set and unset", "${TEST_VAR_ONE}:${UNSET_VAR}", "value_one:${UNSET_VAR}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, expandEnvVars(tt.input))
		})
	}
}

func TestGetLogger_Fallback(t *testing.T) {
	logger := GetLogger(context.Background())
	require.NotNil(t, logger)
	logger.Info("discarded")
}
