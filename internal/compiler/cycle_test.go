package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/shadestore/internal/frontend"
	"github.com/roach88/shadestore/internal/ir"
)

// def builds a definition in ::m whose body calls the given definitions.
func def(name string, calls ...string) frontend.Definition {
	body := ir.Const(ir.IntValue(0))
	if len(calls) > 0 {
		var args []ir.Argument
		for i, c := range calls[1:] {
			args = append(args, ir.Arg(string(rune('a'+i)), ir.Call("::m::"+c+"()", ir.TypeInt)))
		}
		body = ir.Call("::m::"+calls[0]+"()", ir.TypeInt, args...)
	}
	return frontend.Definition{Def: ir.Definition{Name: "::m::" + name + "()", Simple: name, Module: "::m", Body: &body}}
}

func names(defs []frontend.Definition) []string {
	out := make([]string, len(defs))
	for i, d := range defs {
		out[i] = d.Def.Simple
	}
	return out
}

func TestOrderDefinitionsEmpty(t *testing.T) {
	ordered, cycles := orderDefinitions(nil)
	assert.Empty(t, ordered)
	assert.Empty(t, cycles)
}

func TestOrderDefinitionsCalleesFirst(t *testing.T) {
	ordered, cycles := orderDefinitions([]frontend.Definition{
		def("top", "mid"),
		def("mid", "leaf"),
		def("leaf"),
		def("other"),
	})
	assert.Empty(t, cycles)
	assert.Equal(t, []string{"leaf", "mid", "top", "other"}, names(ordered))
}

func TestOrderDefinitionsDiamond(t *testing.T) {
	ordered, cycles := orderDefinitions([]frontend.Definition{
		def("a", "b", "c"),
		def("b", "d"),
		def("c", "d"),
		def("d"),
	})
	assert.Empty(t, cycles)
	require.Len(t, ordered, 4)
	pos := make(map[string]int)
	for i, n := range names(ordered) {
		pos[n] = i
	}
	assert.Less(t, pos["d"], pos["b"])
	assert.Less(t, pos["d"], pos["c"])
	assert.Less(t, pos["b"], pos["a"])
	assert.Less(t, pos["c"], pos["a"])
}

func TestOrderDefinitionsSelfLoop(t *testing.T) {
	_, cycles := orderDefinitions([]frontend.Definition{def("f", "f")})
	require.Len(t, cycles, 1)
	assert.Equal(t, []string{"::m::f()", "::m::f()"}, cycles[0])
}

func TestOrderDefinitionsThreeNodeCycle(t *testing.T) {
	ordered, cycles := orderDefinitions([]frontend.Definition{
		def("a", "b"),
		def("b", "c"),
		def("c", "a"),
	})
	require.Len(t, cycles, 1)
	path := cycles[0]
	assert.Len(t, path, 4)
	assert.Equal(t, path[0], path[len(path)-1], "cycle path should return to its start")
	assert.Len(t, ordered, 3, "cyclic definitions are still returned")
}

func TestBuildCallGraphIgnoresForeignCalls(t *testing.T) {
	body := ir.Call("::other::f()", ir.TypeInt, ir.Arg("x", ir.Call("::m::g()", ir.TypeInt)))
	defs := []frontend.Definition{
		{Def: ir.Definition{Name: "::m::f()", Body: &body}},
		{Def: ir.Definition{Name: "::m::g()"}},
	}
	graph := buildCallGraph(defs)
	assert.Equal(t, []string{"::m::g()"}, graph["::m::f()"])
	assert.Empty(t, graph["::m::g()"])
}
