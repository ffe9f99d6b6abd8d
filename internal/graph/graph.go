// Package graph evaluates a static dependency graph of pure compute nodes.
//
// Every node names its inputs. An input is either another node or a source
// value supplied by the caller (a form field, a chart click). When a source
// changes, only the nodes downstream of it are recomputed, in topological
// order, and the caller learns which outputs need to be redrawn.
package graph

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
)

var (
	ErrCycle         = errors.New("graph: cycle detected")
	ErrDuplicateNode = errors.New("graph: duplicate node")
	ErrEmptyName     = errors.New("graph: node without name")
)

// Values maps source and node names to their current value.
type Values map[string]any

type ComputeFunc func(ctx context.Context, in Values) (any, error)

type Node struct {
	Name    string
	Inputs  []string
	Compute ComputeFunc
}

type Graph struct {
	nodes      map[string]Node
	order      []string
	dependents map[string][]string
}

func New(nodes ...Node) (*Graph, error) {
	g := &Graph{
		nodes:      make(map[string]Node, len(nodes)),
		dependents: make(map[string][]string),
	}

	declared := make([]string, 0, len(nodes))
	for _, n := range nodes {
		if n.Name == "" {
			return nil, ErrEmptyName
		}
		if _, dup := g.nodes[n.Name]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateNode, n.Name)
		}
		if n.Compute == nil {
			return nil, fmt.Errorf("graph: node %s has no compute func", n.Name)
		}
		g.nodes[n.Name] = n
		declared = append(declared, n.Name)
	}

	for _, name := range declared {
		for _, in := range g.nodes[name].Inputs {
			g.dependents[in] = append(g.dependents[in], name)
		}
	}

	order, err := g.topoSort(declared)
	if err != nil {
		return nil, err
	}
	g.order = order
	return g, nil
}

// topoSort is Kahn's algorithm; ties keep declaration order so evaluation
// is deterministic.
func (g *Graph) topoSort(declared []string) ([]string, error) {
	indegree := make(map[string]int, len(declared))
	for _, name := range declared {
		for _, in := range g.nodes[name].Inputs {
			if _, isNode := g.nodes[in]; isNode {
				indegree[name]++
			}
		}
	}

	var ready []string
	for _, name := range declared {
		if indegree[name] == 0 {
			ready = append(ready, name)
		}
	}

	order := make([]string, 0, len(declared))
	for len(ready) > 0 {
		name := ready[0]
		ready = ready[1:]
		order = append(order, name)

		for _, dep := range g.dependents[name] {
			indegree[dep]--
			if indegree[dep] == 0 {
				ready = append(ready, dep)
			}
		}
	}

	if len(order) != len(declared) {
		var stuck []string
		for _, name := range declared {
			if indegree[name] > 0 {
				stuck = append(stuck, name)
			}
		}
		return nil, fmt.Errorf("%w among %v", ErrCycle, stuck)
	}
	return order, nil
}

// Order returns the node names in evaluation order.
func (g *Graph) Order() []string {
	return slices.Clone(g.order)
}

// Sources returns the input names that are not produced by any node.
func (g *Graph) Sources() []string {
	var out []string
	for _, name := range g.order {
		for _, in := range g.nodes[name].Inputs {
			if _, isNode := g.nodes[in]; !isNode && !slices.Contains(out, in) {
				out = append(out, in)
			}
		}
	}
	return out
}

// Affected lists, in evaluation order, every node downstream of the changed
// names. With no names given every node is affected.
func (g *Graph) Affected(changed ...string) []string {
	if len(changed) == 0 {
		return g.Order()
	}

	seen := make(map[string]bool)
	queue := slices.Clone(changed)
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		for _, dep := range g.dependents[name] {
			if !seen[dep] {
				seen[dep] = true
				queue = append(queue, dep)
			}
		}
		if _, isNode := g.nodes[name]; isNode {
			seen[name] = true
		}
	}

	out := make([]string, 0, len(seen))
	for _, name := range g.order {
		if seen[name] {
			out = append(out, name)
		}
	}
	return out
}

type Result struct {
	Values  Values
	Updated []string
}

// Evaluate recomputes the nodes affected by changed against state. Upstream
// nodes whose value is missing from state are computed on demand but are not
// reported as updated. state itself is not modified.
func (g *Graph) Evaluate(ctx context.Context, state Values, changed ...string) (Result, error) {
	vals := maps.Clone(state)
	if vals == nil {
		vals = make(Values)
	}

	affected := g.Affected(changed...)
	stale := make(map[string]bool, len(affected))
	for _, name := range affected {
		stale[name] = true
	}

	done := make(map[string]bool)
	var ensure func(name string) error
	ensure = func(name string) error {
		if done[name] {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		node := g.nodes[name]
		in := make(Values, len(node.Inputs))
		for _, dep := range node.Inputs {
			if _, isNode := g.nodes[dep]; isNode {
				if _, have := vals[dep]; !have || stale[dep] {
					if err := ensure(dep); err != nil {
						return err
					}
				}
			}
			if v, ok := vals[dep]; ok {
				in[dep] = v
			}
		}

		out, err := node.Compute(ctx, in)
		if err != nil {
			return fmt.Errorf("graph: node %s: %w", name, err)
		}
		vals[name] = out
		done[name] = true
		return nil
	}

	for _, name := range affected {
		if err := ensure(name); err != nil {
			return Result{}, err
		}
	}

	return Result{Values: vals, Updated: affected}, nil
}

// Lookup returns the value stored under key when it has type T.
func Lookup[T any](v Values, key string) (T, bool) {
	val, ok := v[key].(T)
	return val, ok
}

// Get is Lookup without the presence flag.
func Get[T any](v Values, key string) T {
	val, _ := Lookup[T](v, key)
	return val
}
