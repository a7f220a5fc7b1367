package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/leapstack-labs/ocaentry/internal/cli/config"
	"github.com/leapstack-labs/ocaentry/internal/cli/output"
	"github.com/leapstack-labs/ocaentry/internal/extract"
	"github.com/leapstack-labs/ocaentry/internal/format"
	"github.com/leapstack-labs/ocaentry/internal/watch"
	"github.com/leapstack-labs/ocaentry/pkg/core"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// bundleFileExtensions are the files a watch reacts to.
var bundleFileExtensions = []string{".json", ".yaml", ".yml"}

type extractOptions struct {
	all   bool
	watch bool
}

// extractJob is one root bundle and where its entry file goes.
// An empty path means the renderer's output stream.
type extractJob struct {
	root *core.Bundle
	path string
}

// NewExtractCommand creates the extract command.
func NewExtractCommand() *cobra.Command {
	opts := &extractOptions{}

	cmd := &cobra.Command{
		Use:   "extract [bundle...]",
		Short: "Generate data-entry files from bundles",
		Long: `Flatten each bundle into its entry schema and write an empty
data-entry file: CSV, XLSX or JSON.

Bundles are named by SAID, by name, or by path. References to other
bundles are resolved against the bundles directory and expanded into
dotted columns (address.street, address.city, ...).

A single CSV or JSON bundle without --output-dir is written to stdout;
everything else is written to --output-dir (default: current directory)
as <name>.<format>.`,
		Example: `  # CSV header for one bundle on stdout
  ocaentry extract person

  # English labels in the header, with a metadata row
  ocaentry extract person --label-lang eng --include-metadata

  # XLSX workbooks for every bundle, four at a time
  ocaentry extract --all --format xlsx --output-dir entry -j 4

  # Regenerate whenever a bundle changes
  ocaentry extract person --output-dir entry --watch`,
		Args: func(_ *cobra.Command, args []string) error {
			if len(args) == 0 && !opts.all {
				return errors.New("requires at least one bundle, or --all")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExtract(cmd, args, opts)
		},
	}

	cmd.Flags().StringP("format", "f", config.DefaultFormat, "Entry file format (csv|xlsx|json)")
	cmd.Flags().Bool("include-metadata", false, "Add a metadata row (csv) or meta sheet (xlsx)")
	cmd.Flags().StringP("output-dir", "d", "", "Directory for entry files")
	cmd.Flags().IntP("concurrency", "j", config.DefaultConcurrency, "Bundles extracted in parallel")
	cmd.Flags().BoolVar(&opts.all, "all", false, "Extract every bundle in the bundles directory")
	cmd.Flags().BoolVarP(&opts.watch, "watch", "w", false, "Re-extract when bundle files change")

	_ = cmd.RegisterFlagCompletionFunc("format", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		names := make([]string, len(format.Formats))
		for i, f := range format.Formats {
			names[i] = string(f)
		}
		return names, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func runExtract(cmd *cobra.Command, args []string, opts *extractOptions) error {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}

	f, err := format.ParseFormat(cmdCtx.Cfg.Format)
	if err != nil {
		return err
	}

	run := func() error {
		jobs, err := planExtract(cmdCtx, args, opts.all, f)
		if err != nil {
			return err
		}
		summary, errs := runJobs(cmd.Context(), cmdCtx, jobs, f)
		return reportExtract(cmdCtx.Renderer, summary, jobs, errs)
	}

	err = run()
	if !opts.watch {
		return err
	}
	if err != nil {
		cmdCtx.Renderer.Error(err.Error())
	}

	cmdCtx.Renderer.Muted(fmt.Sprintf("Watching %s (Ctrl+C to stop)", cmdCtx.Cfg.BundlesDir))
	return watch.Run(cmd.Context(), cmdCtx.Cfg.BundlesDir, watch.Options{
		Extensions: bundleFileExtensions,
		Logger:     cmdCtx.Logger,
	}, func(paths []string) error {
		cmdCtx.Logger.Info("bundles changed", "files", len(paths))
		if err := cmdCtx.Reload(); err != nil {
			return err
		}
		if err := run(); err != nil {
			cmdCtx.Renderer.Error(err.Error())
		}
		return nil
	})
}

// planExtract resolves the root bundles and their output paths.
func planExtract(cmdCtx *CommandContext, args []string, all bool, f format.Format) ([]extractJob, error) {
	var roots []*core.Bundle
	seen := make(map[*core.Bundle]bool)
	add := func(b *core.Bundle) {
		if !seen[b] {
			seen[b] = true
			roots = append(roots, b)
		}
	}

	if all {
		for _, b := range cmdCtx.Catalog.Bundles() {
			if b.SAID != "" {
				add(b)
			}
		}
	}
	for _, arg := range args {
		b, err := cmdCtx.ResolveBundle(arg)
		if err != nil {
			return nil, err
		}
		add(b)
	}
	if len(roots) == 0 {
		return nil, fmt.Errorf("no bundles to extract in %s", cmdCtx.Cfg.BundlesDir)
	}

	jobs := make([]extractJob, len(roots))
	outDir := cmdCtx.Cfg.OutputDir
	if outDir == "" && len(roots) == 1 && !f.Binary() {
		jobs[0] = extractJob{root: roots[0]}
		return jobs, nil
	}
	if outDir == "" {
		outDir = "."
	}
	if err := os.MkdirAll(outDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	for i, stem := range fileStems(roots) {
		jobs[i] = extractJob{root: roots[i], path: filepath.Join(outDir, stem+f.Extension())}
	}
	return jobs, nil
}

// runJobs extracts every job, at most Cfg.Concurrency at a time.
// Results and errors are in job order.
func runJobs(ctx context.Context, cmdCtx *CommandContext, jobs []extractJob, f format.Format) (*output.ExtractSummary, []error) {
	// link once; IndexFor only reads the catalog afterwards
	cmdCtx.Catalog.Graph()

	results := make([]output.ExtractResult, len(jobs))
	errs := make([]error, len(jobs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cmdCtx.Cfg.Concurrency)
	for i, job := range jobs {
		g.Go(func() error {
			results[i], errs[i] = extractOne(gctx, cmdCtx, job, f)
			return nil
		})
	}
	_ = g.Wait()

	summary := &output.ExtractSummary{Results: results}
	for _, err := range errs {
		if err != nil {
			summary.Failed++
		} else {
			summary.Succeeded++
		}
	}
	return summary, errs
}

func extractOne(ctx context.Context, cmdCtx *CommandContext, job extractJob, f format.Format) (output.ExtractResult, error) {
	runID := uuid.NewString()
	name := displayName(job.root)
	logger := cmdCtx.Logger.With("run_id", runID, "bundle", name)

	result := output.ExtractResult{
		RunID:  runID,
		Bundle: name,
		SAID:   job.root.SAID,
		Format: string(f),
		Path:   job.path,
	}
	fail := func(err error) (output.ExtractResult, error) {
		logger.Error("extraction failed", "error", err)
		result.Error = err.Error()
		return result, err
	}

	if err := ctx.Err(); err != nil {
		return fail(err)
	}

	start := time.Now()
	opts := cmdCtx.Cfg.ExtractOptions()
	opts.Logger = logger
	schema, err := extract.Extract(job.root, cmdCtx.Catalog.IndexFor(job.root), opts)
	if err != nil {
		return fail(err)
	}
	result.Columns = len(schema.Attributes)

	if job.path == "" {
		err = format.Write(cmdCtx.Renderer.Writer(), f, schema, cmdCtx.Cfg.FormatOptions())
	} else {
		err = writeEntryFile(job.path, f, schema, cmdCtx.Cfg.FormatOptions())
	}
	if err != nil {
		return fail(err)
	}

	logger.Info("entry file written",
		"path", job.path,
		"columns", result.Columns,
		"duration_ms", time.Since(start).Milliseconds())
	return result, nil
}

func writeEntryFile(path string, f format.Format, schema *core.EntrySchema, opts format.Options) (err error) {
	file, err := os.Create(path) //nolint:gosec // path is built from the output directory
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	return format.Write(file, f, schema, opts)
}

// reportExtract renders the summary. Entry files written to the output
// stream are the output, so nothing else is printed there.
func reportExtract(r *output.Renderer, summary *output.ExtractSummary, jobs []extractJob, errs []error) error {
	toStream := len(jobs) == 1 && jobs[0].path == ""

	if !toStream {
		switch r.EffectiveMode() {
		case output.ModeJSON:
			if err := r.JSON(summary); err != nil {
				return err
			}
		default:
			extractText(r, summary)
		}
	}

	if summary.Failed == 0 {
		return nil
	}
	if len(jobs) == 1 {
		return fmt.Errorf("extract %s: %w", summary.Results[0].Bundle, errs[0])
	}
	return fmt.Errorf("%d of %d extractions failed: %w", summary.Failed, len(jobs), errors.Join(errs...))
}

// extractText writes status lines; it serves text and markdown modes.
func extractText(r *output.Renderer, summary *output.ExtractSummary) {
	r.Header(1, "Extract")
	for _, res := range summary.Results {
		if res.Error != "" {
			r.StatusLine(res.Bundle, "error", res.Error)
			continue
		}
		r.StatusLine(res.Bundle, "success", fmt.Sprintf("%d columns -> %s", res.Columns, res.Path))
	}
	r.Println("")
	r.Println(output.FormatKeyValue("Succeeded", fmt.Sprintf("%d", summary.Succeeded)))
	r.Println(output.FormatKeyValue("Failed", fmt.Sprintf("%d", summary.Failed)))

	if summary.Failed == 0 {
		r.Success(fmt.Sprintf("%d entry files written", summary.Succeeded))
	}
}

// displayName is how a bundle is shown to users.
func displayName(b *core.Bundle) string {
	switch {
	case b.Name != "":
		return b.Name
	case b.SAID != "":
		return b.SAID
	case b.Source != "":
		return filepath.Base(b.Source)
	}
	return "<unnamed bundle>"
}

// fileStems picks a distinct file name stem per root.
func fileStems(roots []*core.Bundle) []string {
	stems := make([]string, len(roots))
	used := make(map[string]int)
	for i, b := range roots {
		stem := b.Name
		if stem == "" {
			stem = b.SAID
		}
		if stem == "" {
			stem = "bundle"
		}
		stem = strings.Map(func(r rune) rune {
			if r == '/' || r == '\\' || r == os.PathSeparator {
				return '_'
			}
			return r
		}, stem)

		used[stem]++
		if n := used[stem]; n > 1 {
			stem = fmt.Sprintf("%s-%d", stem, n)
		}
		stems[i] = stem
	}
	return stems
}
