// Package dag provides directed graph operations over bundle references.
// It supports cycle detection, topological ordering and transitive
// dependency lookup.
package dag

import (
	"fmt"
	"slices"
	"sort"

	"github.com/leapstack-labs/ocaentry/pkg/core"
)

// Node represents a bundle in the graph.
type Node struct {
	// ID is the unique bundle key (SAID, or refn:<name> for unfinalized bundles)
	ID string
	// Bundle is the bundle behind the node
	Bundle *core.Bundle
}

// Graph is a directed graph where an edge runs from a referenced bundle
// (dependency) to the bundle referencing it (dependent).
type Graph struct {
	nodes      map[string]*Node
	dependents map[string][]string // dependency -> dependents
	deps       map[string][]string // dependent -> dependencies
}

// NewGraph creates a new empty graph.
func NewGraph() *Graph {
	return &Graph{
		nodes:      make(map[string]*Node),
		dependents: make(map[string][]string),
		deps:       make(map[string][]string),
	}
}

// AddBundle adds a node to the graph, replacing the bundle if the ID exists.
func (g *Graph) AddBundle(id string, b *core.Bundle) {
	if n, exists := g.nodes[id]; exists {
		n.Bundle = b
		return
	}
	g.nodes[id] = &Node{ID: id, Bundle: b}
	g.dependents[id] = []string{}
	g.deps[id] = []string{}
}

// AddReference records that referrerID references targetID.
// Self-references are kept so that FindCycle reports them.
func (g *Graph) AddReference(targetID, referrerID string) error {
	if _, exists := g.nodes[targetID]; !exists {
		return fmt.Errorf("referenced bundle %q does not exist", targetID)
	}
	if _, exists := g.nodes[referrerID]; !exists {
		return fmt.Errorf("referencing bundle %q does not exist", referrerID)
	}

	if !slices.Contains(g.dependents[targetID], referrerID) {
		g.dependents[targetID] = append(g.dependents[targetID], referrerID)
	}
	if !slices.Contains(g.deps[referrerID], targetID) {
		g.deps[referrerID] = append(g.deps[referrerID], targetID)
	}
	return nil
}

// Node returns a node by ID.
func (g *Graph) Node(id string) (*Node, bool) {
	node, exists := g.nodes[id]
	return node, exists
}

// Dependencies returns the bundles id references directly.
func (g *Graph) Dependencies(id string) []string {
	return g.deps[id]
}

// Dependents returns the bundles that reference id directly.
func (g *Graph) Dependents(id string) []string {
	return g.dependents[id]
}

// Nodes returns all nodes sorted by ID.
func (g *Graph) Nodes() []*Node {
	nodes := make([]*Node, 0, len(g.nodes))
	for _, node := range g.nodes {
		nodes = append(nodes, node)
	}
	sort.Slice(nodes, func(i, j int) bool {
		return nodes[i].ID < nodes[j].ID
	})
	return nodes
}

// NodeCount returns the number of nodes in the graph.
func (g *Graph) NodeCount() int {
	return len(g.nodes)
}

// EdgeCount returns the number of references in the graph.
func (g *Graph) EdgeCount() int {
	count := 0
	for _, children := range g.dependents {
		count += len(children)
	}
	return count
}

// FindCycle reports whether the graph contains a cycle, along with the cycle
// path. Nodes are visited in ID order so the reported path is stable.
func (g *Graph) FindCycle() (bool, []string) {
	visited := make(map[string]bool)
	onStack := make(map[string]bool)
	from := make(map[string]string)

	var cyclePath []string

	var dfs func(id string) bool
	dfs = func(id string) bool {
		visited[id] = true
		onStack[id] = true

		for _, next := range g.dependents[id] {
			if !visited[next] {
				from[next] = id
				if dfs(next) {
					return true
				}
			} else if onStack[next] {
				cyclePath = []string{next}
				for curr := id; curr != next; curr = from[curr] {
					cyclePath = append([]string{curr}, cyclePath...)
				}
				cyclePath = append([]string{next}, cyclePath...)
				return true
			}
		}

		onStack[id] = false
		return false
	}

	for _, node := range g.Nodes() {
		if !visited[node.ID] && dfs(node.ID) {
			return true, cyclePath
		}
	}
	return false, nil
}

// TopologicalSort returns nodes with dependencies before dependents.
// Returns an error if the graph contains a cycle.
func (g *Graph) TopologicalSort() ([]*Node, error) {
	if hasCycle, cyclePath := g.FindCycle(); hasCycle {
		return nil, fmt.Errorf("cycle detected: %v", cyclePath)
	}

	visited := make(map[string]bool)
	var result []*Node

	var visit func(id string)
	visit = func(id string) {
		if visited[id] {
			return
		}
		visited[id] = true
		for _, dep := range g.deps[id] {
			visit(dep)
		}
		result = append(result, g.nodes[id])
	}

	for _, node := range g.Nodes() {
		visit(node.ID)
	}
	return result, nil
}

// Levels groups nodes by nesting level. Level 0 holds bundles that reference
// nothing; a bundle at level N references at least one bundle at level N-1.
func (g *Graph) Levels() ([][]string, error) {
	if hasCycle, cyclePath := g.FindCycle(); hasCycle {
		return nil, fmt.Errorf("cycle detected: %v", cyclePath)
	}

	assigned := make(map[string]int)

	var levelOf func(id string) int
	levelOf = func(id string) int {
		if level, ok := assigned[id]; ok {
			return level
		}
		level := 0
		for _, dep := range g.deps[id] {
			level = max(level, levelOf(dep)+1)
		}
		assigned[id] = level
		return level
	}

	maxLevel := -1
	for id := range g.nodes {
		maxLevel = max(maxLevel, levelOf(id))
	}

	levels := make([][]string, maxLevel+1)
	for id, level := range assigned {
		levels[level] = append(levels[level], id)
	}
	for i := range levels {
		sort.Strings(levels[i])
	}
	return levels, nil
}

// Closure returns every bundle id references, directly or transitively,
// sorted by ID. id itself is included only when it sits on a cycle.
func (g *Graph) Closure(id string) []string {
	seen := make(map[string]bool)

	var mark func(nodeID string)
	mark = func(nodeID string) {
		for _, dep := range g.deps[nodeID] {
			if !seen[dep] {
				seen[dep] = true
				mark(dep)
			}
		}
	}
	mark(id)

	result := make([]string, 0, len(seen))
	for nodeID := range seen {
		result = append(result, nodeID)
	}
	sort.Strings(result)
	return result
}

// Roots returns bundles that no other bundle references.
func (g *Graph) Roots() []string {
	var roots []string
	for id := range g.nodes {
		if len(g.dependents[id]) == 0 {
			roots = append(roots, id)
		}
	}
	sort.Strings(roots)
	return roots
}
