package compiler

import (
	"github.com/roach88/shadestore/internal/frontend"
	"github.com/roach88/shadestore/internal/ir"
)

// callGraph maps a definition name to the definitions of the same module
// its defaults and body call, in order of first call.
type callGraph map[string][]string

// buildCallGraph collects same-module call edges. Calls into other modules
// are not edges: imports are compiled first.
func buildCallGraph(defs []frontend.Definition) callGraph {
	local := make(map[string]bool, len(defs))
	for _, d := range defs {
		local[d.Def.Name] = true
	}

	graph := make(callGraph, len(defs))
	for _, d := range defs {
		seen := make(map[string]bool)
		visit := func(e ir.Expression) bool {
			if e.Kind == ir.ExprCall && local[e.Definition] && !seen[e.Definition] {
				seen[e.Definition] = true
				graph[d.Def.Name] = append(graph[d.Def.Name], e.Definition)
			}
			return true
		}
		for _, p := range d.Def.Parameters {
			if p.Default != nil {
				p.Default.Walk(visit)
			}
		}
		if d.Def.Body != nil {
			d.Def.Body.Walk(visit)
		}
	}
	return graph
}

// orderDefinitions sorts defs so that callees precede callers. Definitions
// that call each other recursively are returned as cycles, each a path
// that starts and ends at the same definition.
func orderDefinitions(defs []frontend.Definition) ([]frontend.Definition, [][]string) {
	graph := buildCallGraph(defs)
	byName := make(map[string]frontend.Definition, len(defs))
	names := make([]string, len(defs))
	for i, d := range defs {
		byName[d.Def.Name] = d
		names[i] = d.Def.Name
	}

	var (
		ordered []frontend.Definition
		cycles  [][]string
	)
	// Tarjan emits each SCC after every SCC reachable from it, which is
	// exactly callee-first order.
	for _, scc := range findSCCs(graph, names) {
		if len(scc) > 1 || hasSelfLoop(scc[0], graph) {
			cycles = append(cycles, reconstructCyclePath(scc, graph))
		}
		for i := len(scc) - 1; i >= 0; i-- {
			ordered = append(ordered, byName[scc[i]])
		}
	}
	return ordered, cycles
}

func hasSelfLoop(node string, graph callGraph) bool {
	for _, w := range graph[node] {
		if w == node {
			return true
		}
	}
	return false
}

// findSCCs finds strongly connected components using Tarjan's algorithm.
// Nodes are visited in the given order so the result is deterministic.
//
// Time complexity: O(V + E)
func findSCCs(graph callGraph, nodes []string) [][]string {
	var (
		index   = 0
		stack   []string
		indices = make(map[string]int)
		lowlink = make(map[string]int)
		onStack = make(map[string]bool)
		sccs    [][]string
	)

	var strongConnect func(string)
	strongConnect = func(v string) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range graph[v] {
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		// v is the root of an SCC: pop it off the stack.
		if lowlink[v] == indices[v] {
			var scc []string
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sccs = append(sccs, scc)
		}
	}

	for _, node := range nodes {
		if _, visited := indices[node]; !visited {
			strongConnect(node)
		}
	}
	return sccs
}

// reconstructCyclePath walks edges inside the SCC from its first member
// until it returns to it. Self-loops give [d, d].
func reconstructCyclePath(scc []string, graph callGraph) []string {
	if len(scc) == 0 {
		return []string{}
	}

	members := make(map[string]bool)
	for _, node := range scc {
		members[node] = true
	}

	start := scc[0]
	current := start
	path := []string{current}
	visited := make(map[string]bool)

	for {
		visited[current] = true

		var next string
		for _, neighbor := range graph[current] {
			if members[neighbor] && (!visited[neighbor] || neighbor == start) {
				next = neighbor
				break
			}
		}
		if next == "" {
			break
		}
		path = append(path, next)
		if next == start {
			break
		}
		current = next
	}
	return path
}
