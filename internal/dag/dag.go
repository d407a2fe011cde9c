// Package dag orders experiment tasks by their declared dependencies.
// It is a small directed acyclic graph with cycle detection and a
// deterministic topological sort.
package dag

import (
	"fmt"
	"sort"
)

// Graph is a directed acyclic graph of task names.
type Graph struct {
	nodes   map[string]struct{}
	edges   map[string][]string // parent -> dependents
	parents map[string][]string // child -> dependencies
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		nodes:   make(map[string]struct{}),
		edges:   make(map[string][]string),
		parents: make(map[string][]string),
	}
}

// AddNode registers a task. Adding an existing task is a no-op.
func (g *Graph) AddNode(name string) {
	if _, ok := g.nodes[name]; ok {
		return
	}
	g.nodes[name] = struct{}{}
	g.edges[name] = nil
	g.parents[name] = nil
}

// AddEdge declares that child runs after parent.
func (g *Graph) AddEdge(parent, child string) error {
	if _, ok := g.nodes[parent]; !ok {
		return fmt.Errorf("unknown task %q", parent)
	}
	if _, ok := g.nodes[child]; !ok {
		return fmt.Errorf("unknown task %q", child)
	}
	if parent == child {
		return fmt.Errorf("task %q cannot depend on itself", parent)
	}
	for _, c := range g.edges[parent] {
		if c == child {
			return nil
		}
	}
	g.edges[parent] = append(g.edges[parent], child)
	g.parents[child] = append(g.parents[child], parent)
	return nil
}

// Parents returns the dependencies of a task.
func (g *Graph) Parents(name string) []string {
	return g.parents[name]
}

// Children returns the dependents of a task.
func (g *Graph) Children(name string) []string {
	return g.edges[name]
}

// NodeCount returns the number of tasks in the graph.
func (g *Graph) NodeCount() int {
	return len(g.nodes)
}

// TopoSort returns the tasks in dependency order. Ties are broken
// alphabetically so the order is stable across runs. An error is returned
// if the graph contains a cycle.
func (g *Graph) TopoSort() ([]string, error) {
	indegree := make(map[string]int, len(g.nodes))
	for name := range g.nodes {
		indegree[name] = len(g.parents[name])
	}

	var ready []string
	for name, d := range indegree {
		if d == 0 {
			ready = append(ready, name)
		}
	}
	sort.Strings(ready)

	order := make([]string, 0, len(g.nodes))
	for len(ready) > 0 {
		name := ready[0]
		ready = ready[1:]
		order = append(order, name)

		var unlocked []string
		for _, child := range g.edges[name] {
			indegree[child]--
			if indegree[child] == 0 {
				unlocked = append(unlocked, child)
			}
		}
		sort.Strings(unlocked)
		ready = append(ready, unlocked...)
		sort.Strings(ready)
	}

	if len(order) != len(g.nodes) {
		return nil, fmt.Errorf("dependency cycle among %d task(s)", len(g.nodes)-len(order))
	}
	return order, nil
}
