package compiler

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/shadestore/internal/frontend"
	"github.com/roach88/shadestore/internal/ir"
)

const matsSource = `
imports: ["::df", "::anno", "::tex"]

annotations: [{name: "::anno::description", args: ["Base materials"]}]

types: [{name: "finish", kind: "enum", members: [{name: "matte", value: 0}, {name: "gloss", value: 1}]}]

constants: [
	{name: "wood", type: "texture_2d", value: "/textures/wood.png"},
	{name: "lamp", type: "light_profile", value: "/profiles/lamp.ies"},
	{name: "default_finish", type: "finish", value: "gloss"},
]

functions: [
	{
		name: "tinted"
		params: [{name: "tint", type: "color", default: [1, 0.5, 0]}]
		returns: "bsdf"
		body: {call: "::df::diffuse_reflection_bsdf", args: {tint: {param: "tint"}, roughness: 0.25}}
	},
	{
		name: "wood_color"
		params: [{name: "coord", type: "float3"}]
		returns: "color"
		body: {call: "::tex::lookup_color", args: {
			tex: {value: "/textures/wood.png", gamma: "srgb"}
			coord: {param: "coord"}
		}}
	},
]

materials: [{
	name: "plastic"
	annotations: [{name: "::anno::display_name", args: ["Plastic"]}]
	params: [
		{name: "tint", type: "color", default: [0.8, 0.8, 0.8], annotations: [{name: "::anno::description", args: ["Base color"]}]},
		{name: "ior", type: "float", uniform: true, default: 1.5},
	]
	body: {call: "::df::surface_material", args: {
		surface: {call: "tinted", args: {tint: {param: "tint"}}}
		ior: {param: "ior"}
	}}
}]
`

func newTestCompiler(t *testing.T, dirs ...string) *Compiler {
	t.Helper()
	return New(
		WithSearchPaths(dirs...),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
}

func writeSource(t *testing.T, dir, name, src string) string {
	t.Helper()
	rel := filepath.Join(strings.Split(strings.TrimPrefix(name, "::"), "::")...) + ".cue"
	path := filepath.Join(dir, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	return path
}

func hasCode(msgs []ir.Message, code string) bool {
	for _, m := range msgs {
		if m.Code == code {
			return true
		}
	}
	return false
}

func TestCompileFromTextBasic(t *testing.T) {
	c := newTestCompiler(t)
	ctx := context.Background()

	m, msgs, err := c.CompileFromText(ctx, "::mats", strings.NewReader(matsSource))
	require.NoError(t, err, "messages: %v", msgs)

	assert.Equal(t, "::mats", m.Name())
	assert.Equal(t, []string{"::df", "::anno", "::tex"}, m.Imports())
	assert.NotEmpty(t, m.Digest())

	dag := m.DAG()
	require.Len(t, dag.Functions, 2)
	require.Len(t, dag.Materials, 1)
	assert.Equal(t, "::mats::tinted(color)", dag.Functions[0].Def.Name)
	assert.Equal(t, "::mats::wood_color(float3)", dag.Functions[1].Def.Name)
	assert.Equal(t, "::mats::plastic(color,float)", dag.Materials[0].Def.Name)

	plastic := dag.Materials[0]
	assert.Equal(t, ir.TypeMaterial, plastic.Def.ReturnType)
	assert.True(t, plastic.Def.Parameters[1].Uniform)
	require.NotNil(t, plastic.Def.Body)
	assert.Equal(t, "::df::surface_material(bsdf,edf,bool,float)", plastic.Def.Body.Definition)
	surface, ok := plastic.Def.Body.Arg("surface")
	require.True(t, ok)
	assert.Equal(t, "::mats::tinted(color)", surface.Definition)
	assert.Equal(t, ir.Type("bsdf"), surface.Type)

	require.Equal(t, 1, plastic.Annotations.Len())
	assert.Equal(t, "::anno::display_name(string)", plastic.Annotations.Annotations[0].Decl.Name)
	assert.Equal(t, "Plastic", plastic.Annotations.Annotations[0].Args[0].Value.Text)
	require.Len(t, plastic.ParamAnnotations, 2)
	assert.Equal(t, 1, plastic.ParamAnnotations[0].Len())
	assert.Equal(t, 0, plastic.ParamAnnotations[1].Len())

	require.Equal(t, 1, dag.Annotations.Len())
	assert.Equal(t, "::anno", dag.Annotations.Annotations[0].Decl.Module)

	require.Len(t, dag.Constants, 3)
	assert.Equal(t, "gloss", dag.Constants[2].Value.Text)
	assert.Equal(t, int64(1), dag.Constants[2].Value.Int)
}

func TestCompileFromTextNotCachedUntilPublished(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "::lib::colors", `
functions: [{name: "red", returns: "color", body: {type: "color", value: [1, 0, 0]}}]
`)
	c := newTestCompiler(t, dir)
	ctx := context.Background()

	text, _, err := c.CompileFromText(ctx, "::lib::colors", strings.NewReader(`
functions: [{name: "blue", returns: "color", body: {type: "color", value: [0, 0, 1]}}]
`))
	require.NoError(t, err)
	_, ok := c.Module("::lib::colors")
	assert.False(t, ok)

	fromPath, _, err := c.ResolveAndCompile(ctx, "::lib::colors")
	require.NoError(t, err)
	assert.NotSame(t, text, fromPath)
	assert.Equal(t, "::lib::colors::red()", fromPath.DAG().Functions[0].Def.Name)

	c.Publish(text)
	again, _, err := c.ResolveAndCompile(ctx, "::lib::colors")
	require.NoError(t, err)
	assert.Same(t, text, again)
	_, err = c.LookupDefinition(ctx, "::lib::colors::blue()")
	assert.NoError(t, err)
}

func TestCompileCollectsResourceVariants(t *testing.T) {
	c := newTestCompiler(t)
	m, msgs, err := c.CompileFromText(context.Background(), "::mats", strings.NewReader(matsSource))
	require.NoError(t, err, "messages: %v", msgs)

	require.Equal(t, 2, m.ResourceCount())
	wood, _ := m.Resource(0)
	assert.Equal(t, ir.ResourceTexture, wood.Kind)
	assert.Equal(t, "/textures/wood.png", wood.Path)
	assert.Equal(t, []ir.Gamma{ir.GammaDefault, ir.GammaSRGB}, wood.Gammas)

	lamp, _ := m.Resource(1)
	assert.Equal(t, ir.ResourceLightProfile, lamp.Kind)
	assert.Equal(t, []ir.Gamma{""}, lamp.Variants())
}

func TestResolveAndCompileSearchPath(t *testing.T) {
	dir := t.TempDir()
	path := writeSource(t, dir, "::lib::colors", `
functions: [{name: "red", returns: "color", body: {type: "color", value: [1, 0, 0]}}]
`)
	c := newTestCompiler(t, t.TempDir(), dir)
	ctx := context.Background()

	m, _, err := c.ResolveAndCompile(ctx, "::lib::colors")
	require.NoError(t, err)
	assert.Equal(t, path, m.Filename())

	again, msgs, err := c.ResolveAndCompile(ctx, "::lib::colors")
	require.NoError(t, err)
	assert.Same(t, m, again, "second resolution must hit the cache")
	assert.Empty(t, msgs)

	cached, ok := c.Module("::lib::colors")
	assert.True(t, ok)
	assert.Same(t, m, cached)
}

func TestResolveAndCompileStandardModule(t *testing.T) {
	c := newTestCompiler(t)
	m, _, err := c.ResolveAndCompile(context.Background(), "::anno")
	require.NoError(t, err)
	assert.Empty(t, m.Filename())
	assert.True(t, IsStandardModule("::anno"))
	assert.False(t, IsStandardModule("::mats"))

	_, ok := m.AnnotationDecl("::anno::description(string)")
	assert.True(t, ok)
}

func TestResolveAndCompileNotFound(t *testing.T) {
	c := newTestCompiler(t, t.TempDir())
	_, msgs, err := c.ResolveAndCompile(context.Background(), "::missing")
	require.Error(t, err)
	assert.True(t, hasCode(msgs, ErrModuleNotFound))
}

func TestCompileImportCycle(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "::a", `imports: ["::b"]`)
	writeSource(t, dir, "::b", `imports: ["::a"]`)
	c := newTestCompiler(t, dir)

	_, msgs, err := c.ResolveAndCompile(context.Background(), "::a")
	require.ErrorIs(t, err, ErrCompileFailed)
	assert.True(t, hasCode(msgs, ErrImportCycle))
	assert.True(t, hasCode(msgs, ErrImportFailed))

	_, ok := c.Module("::a")
	assert.False(t, ok, "failed modules are not cached")
}

func TestCompileDiagnostics(t *testing.T) {
	tests := []struct {
		name string
		src  string
		code string
	}{
		{"syntax", `functions: [`, ErrSourceSyntax},
		{"unknown field", `shaders: []`, ErrSchemaViolation},
		{"not imported", `functions: [{name: "f", returns: "float", body: {call: "::math::luminance", args: {a: [1, 1, 1]}}}]`, ErrNotImported},
		{"unknown definition", `functions: [{name: "f", returns: "float", body: {call: "nothing"}}]`, ErrUnknownDefinition},
		{"unknown argument", `
imports: ["::math"]
functions: [{name: "f", returns: "float", body: {call: "::math::luminance", args: {b: [1, 1, 1]}}}]`, ErrUnknownArgument},
		{"type mismatch", `functions: [{name: "f", returns: "float", body: {type: "int", value: 1}}]`, ErrTypeMismatch},
		{"bad literal", `constants: [{name: "c", type: "color", value: [1, 2]}]`, ErrBadLiteral},
		{"unknown parameter", `functions: [{name: "f", returns: "float", body: {param: "x"}}]`, ErrUnknownParameter},
		{"unknown annotation", `
imports: ["::anno"]
annotations: [{name: "::anno::nonexistent", args: ["x"]}]`, ErrUnknownAnnotation},
		{"duplicate definition", `functions: [{name: "f", returns: "int", body: 1}, {name: "f", returns: "int", body: 2}]`, ErrDuplicateName},
		{"recursion", `functions: [
	{name: "f", returns: "int", body: {call: "g"}},
	{name: "g", returns: "int", body: {call: "f"}},
]`, ErrRecursiveCall},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestCompiler(t)
			_, msgs, err := c.CompileFromText(context.Background(), "::bad", strings.NewReader(tt.src))
			require.ErrorIs(t, err, ErrCompileFailed)
			assert.True(t, hasCode(msgs, tt.code), "want %s in %v", tt.code, msgs)
		})
	}
}

func TestCompileFromTextInvalidName(t *testing.T) {
	c := newTestCompiler(t)
	_, msgs, err := c.CompileFromText(context.Background(), "mats", strings.NewReader(""))
	require.Error(t, err)
	assert.True(t, hasCode(msgs, ErrInvalidModuleName))
	assert.False(t, c.IsValidName("mats"))
	assert.True(t, c.IsValidName("::mats"))
}

func TestLookupDefinitionAndAnnotation(t *testing.T) {
	c := newTestCompiler(t)
	ctx := context.Background()

	def, err := c.LookupDefinition(ctx, "::state::normal()")
	require.NoError(t, err)
	assert.True(t, def.Varying)

	_, err = c.LookupDefinition(ctx, "::state::nothing()")
	assert.ErrorIs(t, err, frontend.ErrNotFound)

	decl, err := c.LookupAnnotation(ctx, "::anno::key_words(string[])")
	require.NoError(t, err)
	assert.True(t, decl.Params[0].Type.IsDeferredArray())

	_, err = c.LookupAnnotation(ctx, "::nowhere::thing(string)")
	assert.ErrorIs(t, err, frontend.ErrNotFound)
}

func TestIsUniform(t *testing.T) {
	c := newTestCompiler(t)
	ctx := context.Background()
	scope := []ir.Parameter{
		{Name: "u", Type: ir.TypeFloat, Uniform: true},
		{Name: "v", Type: ir.TypeFloat},
	}

	tests := []struct {
		name string
		expr ir.Expression
		want bool
	}{
		{"constant", ir.Const(ir.FloatValue(1)), true},
		{"uniform parameter", ir.ParamRef("u", ir.TypeFloat), true},
		{"varying parameter", ir.ParamRef("v", ir.TypeFloat), false},
		{"varying call", ir.Call("::state::normal()", ir.TypeFloat3), false},
		{"uniform call", ir.Call("::math::luminance(color)", ir.TypeFloat,
			ir.Arg("a", ir.Const(ir.ColorValue(1, 1, 1)))), true},
		{"call of varying argument", ir.Call("::math::to_color(float3)", ir.TypeColor,
			ir.Arg("a", ir.Call("::state::normal()", ir.TypeFloat3))), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.IsUniform(ctx, tt.expr, scope)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := c.IsUniform(ctx, ir.ParamRef("missing", ir.TypeFloat), scope)
	assert.ErrorIs(t, err, frontend.ErrNotFound)
}

func TestAnalyzeBuilder(t *testing.T) {
	c := newTestCompiler(t)
	ctx := context.Background()

	b, err := c.NewEmptyModule("::synth")
	require.NoError(t, err)
	require.NoError(t, b.AddImport("::math"))

	body := ir.Call("::math::luminance(color)", ir.TypeFloat, ir.Arg("a", ir.ParamRef("c", ir.TypeColor)))
	require.NoError(t, b.AddDefinition(frontend.Definition{Def: ir.Definition{
		Name:       "::synth::brightness(color)",
		Simple:     "brightness",
		Module:     "::synth",
		Kind:       ir.KindFunction,
		Parameters: []ir.Parameter{{Name: "c", Type: ir.TypeColor}},
		ReturnType: ir.TypeFloat,
		Body:       &body,
	}}))

	m, msgs, err := c.Analyze(ctx, b)
	require.NoError(t, err, "messages: %v", msgs)
	assert.Equal(t, []string{"::math"}, m.Imports())
	assert.Len(t, m.DAG().Functions, 1)
	assert.Equal(t, 0, m.DAG().Annotations.Len())
	assert.NotNil(t, m.DAG().Annotations)

	assert.ErrorIs(t, b.AddImport("::state"), frontend.ErrSealed)
	_, _, err = c.Analyze(ctx, b)
	assert.ErrorIs(t, err, frontend.ErrSealed)

	_, ok := c.Module("::synth")
	assert.False(t, ok, "analyzed modules are cached only when published")
	c.Publish(m)
	cached, ok := c.Module("::synth")
	require.True(t, ok)
	assert.Same(t, m, cached)
}

func TestAnalyzeRejectsUnimportedCall(t *testing.T) {
	c := newTestCompiler(t)
	b, err := c.NewEmptyModule("::synth")
	require.NoError(t, err)

	body := ir.Call("::math::luminance(color)", ir.TypeFloat)
	require.NoError(t, b.AddDefinition(frontend.Definition{Def: ir.Definition{
		Name: "::synth::f()", Simple: "f", Module: "::synth", Kind: ir.KindFunction,
		ReturnType: ir.TypeFloat, Body: &body,
	}}))

	_, msgs, err := c.Analyze(context.Background(), b)
	require.ErrorIs(t, err, ErrCompileFailed)
	assert.True(t, hasCode(msgs, ErrNotImported))
}
