package models

// AddonEdge is a base → addon target relation of the addon graph.
type AddonEdge struct {
	BaseUseCaseID  string
	AddonUseCaseID string
}

// AddonGraph is the adjacency relation of use cases linked by addons.
type AddonGraph map[string][]string

// NewAddonGraph builds the adjacency relation from edges.
func NewAddonGraph(edges []AddonEdge) AddonGraph {
	graph := make(AddonGraph, len(edges))

	for _, edge := range edges {
		graph[edge.BaseUseCaseID] = append(graph[edge.BaseUseCaseID], edge.AddonUseCaseID)
	}

	return graph
}

// HasDirectBackEdge reports whether target already has an addon pointing to base.
func (g AddonGraph) HasDirectBackEdge(base, target string) bool {
	for _, next := range g[target] {
		if next == base {
			return true
		}
	}

	return false
}

// PathBetween returns a path from → … → to following addon edges, or nil
// when to is unreachable. Depth-first, iterative, each node visited once.
func (g AddonGraph) PathBetween(from, to string) []string {
	if from == to {
		return []string{from}
	}

	parent := map[string]string{from: ""}
	stack := []string{from}

	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		for _, next := range g[node] {
			if _, seen := parent[next]; seen {
				continue
			}

			parent[next] = node

			if next == to {
				return unwindPath(parent, from, to)
			}

			stack = append(stack, next)
		}
	}

	return nil
}

// CycleIfAdded returns the cycle that adding base → target would close,
// starting and ending at base, or nil when the edge keeps the graph acyclic.
func (g AddonGraph) CycleIfAdded(base, target string) []string {
	if base == target {
		return []string{base, base}
	}

	path := g.PathBetween(target, base)
	if path == nil {
		return nil
	}

	return append([]string{base}, path...)
}

func unwindPath(parent map[string]string, from, to string) []string {
	var reversed []string

	for node := to; node != from; node = parent[node] {
		reversed = append(reversed, node)
	}

	reversed = append(reversed, from)

	path := make([]string, len(reversed))
	for i, node := range reversed {
		path[len(reversed)-1-i] = node
	}

	return path
}
