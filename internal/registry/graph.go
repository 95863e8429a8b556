package registry

import (
	"slices"

	beanerrors "github.com/xraph/beans/errors"
)

// DependencyGraph manages hard dependencies between local definitions:
// constructor references and depends-on entries. Property references are
// left out because early references resolve cycles through them.
type DependencyGraph struct {
	nodes map[string]*node
	order []string // Preserve registration order
}

type node struct {
	name         string
	dependencies []string
}

// NewDependencyGraph creates a new dependency graph.
func NewDependencyGraph() *DependencyGraph {
	return &DependencyGraph{
		nodes: make(map[string]*node),
		order: make([]string, 0),
	}
}

// AddNode adds a node with its dependencies.
// Nodes are processed in the order they are added (FIFO) when no dependencies exist.
func (g *DependencyGraph) AddNode(name string, dependencies []string) {
	g.nodes[name] = &node{
		name:         name,
		dependencies: dependencies,
	}
	g.order = append(g.order, name)
}

// TopologicalSort returns nodes in dependency order.
// Nodes without dependencies maintain their registration order (FIFO).
// Returns a circular reference error carrying the cycle if one exists.
func (g *DependencyGraph) TopologicalSort() ([]string, error) {
	visited := make(map[string]bool)
	var stack []string
	result := make([]string, 0, len(g.nodes))

	for _, name := range g.order {
		if err := g.visit(name, visited, &stack, &result); err != nil {
			return nil, err
		}
	}

	return result, nil
}

// visit performs DFS traversal; stack holds the current path.
func (g *DependencyGraph) visit(name string, visited map[string]bool, stack *[]string, result *[]string) error {
	if visited[name] {
		return nil
	}

	if i := slices.Index(*stack, name); i >= 0 {
		cycle := append(slices.Clone((*stack)[i:]), name)
		return beanerrors.ErrCircularReference(name, cycle)
	}

	n := g.nodes[name]
	if n == nil {
		// Owned by a parent container or unresolved; reported elsewhere.
		return nil
	}

	*stack = append(*stack, name)
	for _, dep := range n.dependencies {
		if err := g.visit(dep, visited, stack, result); err != nil {
			return err
		}
	}
	*stack = (*stack)[:len(*stack)-1]

	visited[name] = true
	*result = append(*result, name)

	return nil
}

// Graph builds the dependency graph of the local definitions, with every
// reference canonicalized to its local id.
func (r *Registry) Graph() *DependencyGraph {
	g := NewDependencyGraph()
	for _, def := range r.Definitions() {
		var deps []string
		for _, ref := range append(def.ConstructorReferences(), def.DependsOn...) {
			if id, ok := r.Canonical(ref); ok {
				deps = append(deps, id)
			}
		}
		g.AddNode(def.ID, deps)
	}
	return g
}
