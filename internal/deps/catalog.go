// Package deps builds dependency indexes from a directory of bundle documents.
//
// A Catalog holds every bundle it has seen, keyed by SAID and by name, and a
// reference graph between them. IndexFor narrows the catalog to the bundles a
// root actually reaches, which is the table the extraction engine consumes.
package deps

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/leapstack-labs/ocaentry/internal/dag"
	"github.com/leapstack-labs/ocaentry/internal/loader"
	"github.com/leapstack-labs/ocaentry/pkg/core"
)

// bundleExtensions are the file types Discover parses.
var bundleExtensions = map[string]bool{
	".json": true,
	".yaml": true,
	".yml":  true,
}

// Options configures a Catalog.
type Options struct {
	// Aliases maps extra reference names to bundle SAIDs.
	Aliases map[string]string
	// Logger is the structured logger (optional, uses discard if nil)
	Logger *slog.Logger
}

// DiscoveryError represents a non-fatal error during discovery.
type DiscoveryError struct {
	Path    string
	Message string
}

func (e DiscoveryError) Error() string {
	return e.Path + ": " + e.Message
}

// DiscoveryResult contains statistics about a discovery run.
type DiscoveryResult struct {
	Files    int
	Bundles  int
	Errors   []DiscoveryError
	Duration time.Duration
}

// HasErrors returns true if any errors occurred.
func (r *DiscoveryResult) HasErrors() bool {
	return len(r.Errors) > 0
}

// Catalog is the set of known bundles and the references between them.
type Catalog struct {
	logger  *slog.Logger
	aliases map[string]string

	bySAID map[string]*core.Bundle
	byName map[string]*core.Bundle
	keys   map[*core.Bundle]string

	graph      *dag.Graph
	unresolved map[string][]core.RefTarget
	dirty      bool
}

// NewCatalog creates an empty catalog.
func NewCatalog(opts Options) *Catalog {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Catalog{
		logger:     logger,
		aliases:    opts.Aliases,
		bySAID:     make(map[string]*core.Bundle),
		byName:     make(map[string]*core.Bundle),
		keys:       make(map[*core.Bundle]string),
		graph:      dag.NewGraph(),
		unresolved: make(map[string][]core.RefTarget),
	}
}

// Discover loads every bundle document under dir into a new catalog.
// Files that fail to parse are reported in the result and skipped.
func Discover(dir string, opts Options) (*Catalog, *DiscoveryResult, error) {
	c := NewCatalog(opts)
	result, err := c.LoadDir(dir)
	if err != nil {
		return nil, result, err
	}
	return c, result, nil
}

// LoadDir loads every bundle document under dir.
// Hidden directories are skipped.
func (c *Catalog) LoadDir(dir string) (*DiscoveryResult, error) {
	start := time.Now()
	result := &DiscoveryResult{}

	c.logger.Info("discovering bundles", "dir", dir)

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !bundleExtensions[strings.ToLower(filepath.Ext(path))] {
			return nil
		}

		result.Files++
		n, err := c.LoadFile(path)
		if err != nil {
			c.logger.Warn("skipping bundle file", "path", path, "error", err)
			result.Errors = append(result.Errors, DiscoveryError{Path: path, Message: err.Error()})
			return nil
		}
		result.Bundles += n
		return nil
	})
	if err != nil {
		return result, fmt.Errorf("failed to walk bundles directory %s: %w", dir, err)
	}

	result.Duration = time.Since(start)
	c.logger.Info("discovery completed",
		"files", result.Files,
		"bundles", result.Bundles,
		"errors", len(result.Errors),
		"duration_ms", result.Duration.Milliseconds())

	return result, nil
}

// LoadFile parses one bundle document and adds its bundle and embedded
// dependencies. A bundle without a name is named after the file.
// Returns the number of bundles added.
func (c *Catalog) LoadFile(path string) (int, error) {
	doc, err := loader.ParseFile(path)
	if err != nil {
		return 0, err
	}

	if doc.Bundle.Name == "" {
		doc.Bundle.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	added := 0
	for _, b := range append([]*core.Bundle{doc.Bundle}, doc.Dependencies...) {
		if c.Add(b) {
			added++
		}
	}
	return added, nil
}

// Add registers b. It reports false when b is already known or clashes with
// a known bundle's SAID; the first registration wins.
func (c *Catalog) Add(b *core.Bundle) bool {
	if _, known := c.keys[b]; known {
		return false
	}
	if b.SAID != "" {
		if existing, ok := c.bySAID[b.SAID]; ok {
			c.logger.Warn("duplicate bundle SAID, keeping first",
				"said", b.SAID, "kept", existing.Source, "ignored", b.Source)
			return false
		}
	}

	key := bundleKey(b)
	if _, taken := c.graph.Node(key); taken {
		key = fmt.Sprintf("%s#%d", key, len(c.keys))
	}
	c.keys[b] = key
	if b.SAID != "" {
		c.bySAID[b.SAID] = b
	}
	if b.Name != "" {
		if existing, ok := c.byName[b.Name]; ok {
			c.logger.Warn("duplicate bundle name, keeping first",
				"name", b.Name, "kept", existing.Source, "ignored", b.Source)
		} else {
			c.byName[b.Name] = b
		}
	}

	c.graph.AddBundle(key, b)
	c.dirty = true

	c.logger.Debug("registered bundle", "key", key, "name", b.Name, "source", b.Source)
	return true
}

// Lookup finds a bundle by SAID, by name, or by the path it was loaded from.
func (c *Catalog) Lookup(s string) (*core.Bundle, bool) {
	if b, ok := c.bySAID[s]; ok {
		return b, true
	}
	if b, ok := c.resolveName(s); ok {
		return b, true
	}
	for b := range c.keys {
		if b.Source != "" && sameFile(b.Source, s) {
			return b, true
		}
	}
	return nil, false
}

// Resolve resolves a reference against the whole catalog.
func (c *Catalog) Resolve(ref core.RefTarget) (*core.Bundle, bool) {
	switch ref.Kind {
	case core.RefSAID:
		b, ok := c.bySAID[ref.Value]
		return b, ok
	case core.RefName:
		return c.resolveName(ref.Value)
	}
	return nil, false
}

func (c *Catalog) resolveName(name string) (*core.Bundle, bool) {
	if b, ok := c.byName[name]; ok {
		return b, true
	}
	if said, ok := c.aliases[name]; ok {
		b, ok := c.bySAID[said]
		return b, ok
	}
	return nil, false
}

// Graph returns the reference graph, rebuilt if bundles were added.
func (c *Catalog) Graph() *dag.Graph {
	c.link()
	return c.graph
}

// link (re)computes reference edges and unresolved references.
func (c *Catalog) link() {
	if !c.dirty {
		return
	}

	graph := dag.NewGraph()
	for b, key := range c.keys {
		graph.AddBundle(key, b)
	}

	unresolved := make(map[string][]core.RefTarget)
	for b, key := range c.keys {
		for _, ref := range b.References() {
			target, ok := c.Resolve(ref)
			if !ok {
				unresolved[key] = append(unresolved[key], ref)
				continue
			}
			// both ends were added above
			_ = graph.AddReference(c.keys[target], key)
		}
	}

	c.graph = graph
	c.unresolved = unresolved
	c.dirty = false

	if hasCycle, path := graph.FindCycle(); hasCycle {
		c.logger.Warn("bundle references form a cycle", "cycle", strings.Join(path, " -> "))
	}
}

// IndexFor returns a dependency index holding the bundles root reaches.
// root itself does not need to be part of the catalog.
func (c *Catalog) IndexFor(root *core.Bundle) *core.DependencyIndex {
	reachable := c.reach(root)

	idx := core.NewDependencyIndex()
	for said, b := range c.bySAID {
		if reachable[b] {
			idx.BySAID[said] = b
		}
	}
	for name, b := range c.byName {
		if reachable[b] {
			idx.ByName[name] = b
		}
	}
	for name, said := range c.aliases {
		if b, ok := c.bySAID[said]; ok && reachable[b] {
			if _, taken := idx.ByName[name]; !taken {
				idx.ByName[name] = b
			}
		}
	}

	for _, ref := range c.Unresolved(root) {
		c.logger.Warn("unresolved bundle reference", "reference", ref.String())
	}

	c.logger.Debug("built dependency index", "root", root.SAID, "bundles", idx.Len())
	return idx
}

// reach returns the bundles root references, directly or transitively.
func (c *Catalog) reach(root *core.Bundle) map[*core.Bundle]bool {
	c.link()

	reachable := make(map[*core.Bundle]bool)
	for _, ref := range root.References() {
		target, ok := c.Resolve(ref)
		if !ok || reachable[target] {
			continue
		}
		reachable[target] = true
		for _, id := range c.graph.Closure(c.keys[target]) {
			if node, ok := c.graph.Node(id); ok {
				reachable[node.Bundle] = true
			}
		}
	}
	return reachable
}

// Unresolved returns the references reachable from root that no known
// bundle satisfies, sorted and de-duplicated.
func (c *Catalog) Unresolved(root *core.Bundle) []core.RefTarget {
	reachable := c.reach(root)

	seen := make(map[core.RefTarget]bool)
	var refs []core.RefTarget
	collect := func(list []core.RefTarget) {
		for _, ref := range list {
			if !seen[ref] {
				seen[ref] = true
				refs = append(refs, ref)
			}
		}
	}

	for _, ref := range root.References() {
		if _, ok := c.Resolve(ref); !ok {
			collect([]core.RefTarget{ref})
		}
	}
	for b := range reachable {
		collect(c.unresolved[c.keys[b]])
	}

	sort.Slice(refs, func(i, j int) bool {
		return refs[i].String() < refs[j].String()
	})
	return refs
}

// Bundles returns all bundles, referenced bundles before the bundles that
// reference them. A catalog with a cycle is returned sorted by key.
func (c *Catalog) Bundles() []*core.Bundle {
	graph := c.Graph()
	nodes, err := graph.TopologicalSort()
	if err != nil {
		nodes = graph.Nodes()
	}
	bundles := make([]*core.Bundle, len(nodes))
	for i, n := range nodes {
		bundles[i] = n.Bundle
	}
	return bundles
}

// Key returns the graph key of a registered bundle.
func (c *Catalog) Key(b *core.Bundle) (string, bool) {
	key, ok := c.keys[b]
	return key, ok
}

// bundleKey is the graph ID of a bundle.
func bundleKey(b *core.Bundle) string {
	switch {
	case b.SAID != "":
		return b.SAID
	case b.Name != "":
		return core.NameRef(b.Name).String()
	default:
		return "file:" + b.Source
	}
}

func sameFile(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return a == b
	}
	if absA == absB {
		return true
	}
	infoA, errA := os.Stat(absA)
	infoB, errB := os.Stat(absB)
	return errA == nil && errB == nil && os.SameFile(infoA, infoB)
}
