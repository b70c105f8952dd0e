package module

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/shadestore/internal/element"
	"github.com/roach88/shadestore/internal/frontend"
	"github.com/roach88/shadestore/internal/ir"
	"github.com/roach88/shadestore/internal/store"
)

func sampleParams() Params {
	return Params{
		Name:     "::scene::wood",
		Filename: "/mdl/scene/wood.cue",
		Imports:  []ir.Tag{{ID: 1, Gen: 1}, {ID: 2, Gen: 1}},
		Types: []ir.TypeDecl{{
			Name: "::scene::wood::finish",
			Kind: ir.TypeDeclEnum,
			Members: []ir.EnumMember{
				{Name: "matte", Value: 0},
				{Name: "glossy", Value: 1},
			},
		}},
		Constants: []ir.Constant{{Name: "scale", Value: ir.IntValue(4)}},
		Annotations: ir.AnnotationBlock{
			ir.NewAnnotation("::anno::description(string)", ir.Arg("description", ir.Const(ir.StringValue("Wood")))),
		},
		Functions: []string{"::scene::wood::tinted(color)"},
		Materials: []string{"::scene::wood::plastic(color,float)"},
		Resources: [][]ir.Tag{{{ID: 5, Gen: 1}, {ID: 6, Gen: 1}}, {ir.NullTag}},
	}
}

func createTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRecord_GoldenSerialization(t *testing.T) {
	payload, err := New(sampleParams()).Encode()
	require.NoError(t, err)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "module_record", payload)
}

func TestRecord_RoundTrip(t *testing.T) {
	rec := New(sampleParams())
	payload, err := rec.Encode()
	require.NoError(t, err)

	got, err := Decode(payload)
	require.NoError(t, err)
	assert.Equal(t, rec, got)

	again, err := got.Encode()
	require.NoError(t, err)
	assert.Equal(t, payload, again)
}

func TestRecord_EmptyRoundTrip(t *testing.T) {
	rec := New(Params{Name: "::empty"})
	payload, err := rec.Encode()
	require.NoError(t, err)
	assert.Contains(t, string(payload), `"annotations":[]`)

	got, err := Decode(payload)
	require.NoError(t, err)
	assert.Equal(t, rec, got)
	assert.NotNil(t, got.Annotations())
	assert.Equal(t, 0, got.ResourceCount())
}

func TestRecord_RoundTripResourceSlots(t *testing.T) {
	rec := New(Params{
		Name:      "::scene::mixed",
		Resources: [][]ir.Tag{{}, {ir.NullTag}, {{ID: 3, Gen: 1}, ir.NullTag}},
	})
	payload, err := rec.Encode()
	require.NoError(t, err)
	assert.Contains(t, string(payload), `"resources":[[],[{"id":0,"gen":0}],[{"id":3,"gen":1},{"id":0,"gen":0}]]`)

	got, err := Decode(payload)
	require.NoError(t, err)
	assert.Equal(t, rec, got)
	require.Equal(t, 3, got.ResourceCount())
	assert.Empty(t, got.ResourceTags(0))
	assert.Equal(t, ir.NullTag, got.ResourceTag(0))
	assert.Equal(t, []ir.Tag{ir.NullTag}, got.ResourceTags(1))
	assert.Equal(t, ir.Tag{ID: 3, Gen: 1}, got.ResourceTag(2))
	assert.Equal(t, []ir.Tag{{ID: 3, Gen: 1}}, got.References())
}

func TestDecode_Errors(t *testing.T) {
	_, err := Decode([]byte(`not json`))
	assert.Error(t, err)

	payload, err := element.Call{Definition: "::m::f()"}.Encode()
	require.NoError(t, err)
	_, err = Decode(payload)
	assert.ErrorIs(t, err, ir.ErrClassMismatch)

	payload, err = ir.Encode(ir.ClassModule, map[string]any{"filename": "x"})
	require.NoError(t, err)
	_, err = Decode(payload)
	assert.ErrorContains(t, err, "missing name")
}

func TestRecord_GettersReturnCopies(t *testing.T) {
	p := sampleParams()
	rec := New(p)

	// Mutating the params after New does not leak into the record.
	p.Imports[0] = ir.Tag{ID: 99, Gen: 1}
	p.Annotations[0].Args[0].Expr.Value.Text = "changed"
	assert.Equal(t, ir.Tag{ID: 1, Gen: 1}, rec.Import(0))

	ann := rec.Annotations()
	ann[0].Args[0].Expr.Value.Text = "changed"
	assert.Equal(t, "Wood", rec.Annotations()[0].Args[0].Expr.Value.Text)

	tags := rec.ResourceTags(0)
	tags[0] = ir.NullTag
	assert.Equal(t, ir.Tag{ID: 5, Gen: 1}, rec.ResourceTag(0))

	types := rec.Types()
	types[0].Members[0].Name = "changed"
	assert.Equal(t, "matte", rec.Types()[0].Members[0].Name)
}

func TestRecord_Accessors(t *testing.T) {
	rec := New(sampleParams())

	assert.Equal(t, 2, rec.ImportCount())
	assert.Equal(t, ir.NullTag, rec.Import(5))
	assert.Equal(t, 1, rec.FunctionCount())
	assert.Equal(t, "::scene::wood::tinted(color)", rec.FunctionName(0))
	assert.Equal(t, "", rec.FunctionName(1))
	assert.Equal(t, 1, rec.MaterialCount())
	assert.Equal(t, "::scene::wood::plastic(color,float)", rec.MaterialName(0))
	assert.Equal(t, 2, rec.ResourceCount())
	assert.Equal(t, ir.NullTag, rec.ResourceTag(1))
	assert.Nil(t, rec.ResourceTags(7))
	assert.Equal(t, ir.IntValue(4), rec.Constants()[0].Value)
	assert.False(t, rec.IsStandardModule())
	assert.True(t, New(Params{Name: "::df"}).IsStandardModule())
	assert.True(t, New(Params{Name: "::std::extra"}).IsStandardModule())
	assert.False(t, New(Params{Name: "::dfx"}).IsStandardModule())

	assert.Equal(t, []ir.Tag{{ID: 1, Gen: 1}, {ID: 2, Gen: 1}, {ID: 5, Gen: 1}, {ID: 6, Gen: 1}}, rec.References())
	assert.Greater(t, rec.Size(), len(rec.Name()))
}

func TestRecord_Attach(t *testing.T) {
	rec := New(sampleParams())

	_, ok := rec.ResourcePath(0)
	assert.False(t, ok, "resource metadata needs the compiled module")

	compiled := frontend.NewModule(frontend.ModuleInfo{Name: "::scene::wood"}, frontend.DAG{
		Functions: []frontend.Definition{{Def: ir.Definition{Name: "::scene::wood::tinted(color)"}}},
		Materials: []frontend.Definition{{Def: ir.Definition{Name: "::scene::wood::plastic(color,float)"}}},
		Resources: []ir.ResourceRef{
			{Kind: ir.ResourceTexture, Type: ir.TypeTexture2D, Path: "/tex/wood.png", Gammas: []ir.Gamma{ir.GammaSRGB, ir.GammaLinear}},
			{Kind: ir.ResourceLightProfile, Type: ir.TypeLightProfile, Path: "/ies/lamp.ies"},
		},
	})
	attached, err := rec.Attach(compiled)
	require.NoError(t, err)
	assert.Nil(t, rec.Compiled())
	assert.Same(t, compiled, attached.Compiled())

	path, ok := attached.ResourcePath(1)
	require.True(t, ok)
	assert.Equal(t, "/ies/lamp.ies", path)
	typ, ok := attached.ResourceType(0)
	require.True(t, ok)
	assert.Equal(t, ir.TypeTexture2D, typ)
	assert.Contains(t, attached.Dump(), "texture_2d /tex/wood.png -> tag(5.1), tag(6.1)")

	_, err = rec.Attach(frontend.NewModule(frontend.ModuleInfo{Name: "::other"}, frontend.DAG{}))
	assert.ErrorContains(t, err, "compiled module is ::other")

	_, err = rec.Attach(frontend.NewModule(frontend.ModuleInfo{Name: "::scene::wood"}, frontend.DAG{}))
	assert.ErrorContains(t, err, "resource slots")

	dag := compiled.DAG()
	dag.Resources[0].Gammas = []ir.Gamma{ir.GammaSRGB}
	_, err = rec.Attach(frontend.NewModule(frontend.ModuleInfo{Name: "::scene::wood"}, dag))
	assert.ErrorContains(t, err, "resource 0 has 2 variants")

	dag = compiled.DAG()
	dag.Materials[0].Def.Name = "::scene::wood::glass(color,float)"
	_, err = rec.Attach(frontend.NewModule(frontend.ModuleInfo{Name: "::scene::wood"}, dag))
	assert.ErrorContains(t, err, "different functions or materials")
}

func TestRecord_Dump(t *testing.T) {
	out := New(sampleParams()).Dump()
	for _, want := range []string{
		"module ::scene::wood",
		"filename: /mdl/scene/wood.cue",
		"annotations: [[ description(\"Wood\") ]]",
		"enum ::scene::wood::finish",
		"scale = 4",
		"0: ::scene::wood::tinted(color)",
		"1: tag(null)",
	} {
		assert.Contains(t, out, want)
	}
}

func commitDefinitions(t *testing.T, s *store.Store, defs ...ir.Definition) {
	t.Helper()
	_, _, err := s.CommitModule(context.Background(), store.NewTxn(),
		store.Pending{Name: "::scene::wood", Class: ir.ClassModule, Payload: []byte(`{}`)},
		func(mod ir.Tag) ([]store.Pending, error) {
			var out []store.Pending
			for _, d := range defs {
				rec := element.Definition{Module: mod, ModuleName: "::scene::wood", Def: d}
				payload, err := rec.Encode()
				if err != nil {
					return nil, err
				}
				out = append(out, store.Pending{Name: d.Name, Class: rec.Class(), Payload: payload})
			}
			return out, nil
		})
	require.NoError(t, err)
}

func TestRecord_FunctionResolvesAndDangles(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	tinted := ir.Definition{
		Name: "::scene::wood::tinted(color)", Simple: "tinted", Module: "::scene::wood",
		Kind: ir.KindFunction, ReturnType: ir.TypeColor,
		Parameters: []ir.Parameter{{Name: "c", Type: ir.TypeColor}},
	}
	commitDefinitions(t, s, tinted)
	rec := New(sampleParams())

	tag, def, err := rec.Function(ctx, s, 0)
	require.NoError(t, err)
	assert.Equal(t, tinted, def.Def)

	require.NoError(t, s.Remove(ctx, tag))
	_, _, err = rec.Function(ctx, s, 0)
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, _, err = rec.Material(ctx, s, 0)
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, _, err = rec.Function(ctx, s, 3)
	assert.ErrorContains(t, err, "index out of range")
}

func TestRecord_FunctionOverloads(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	one := ir.Const(ir.FloatValue(1))
	defs := []ir.Definition{
		{
			Name: "::scene::wood::mix(color,float)", Simple: "mix", Module: "::scene::wood",
			Kind: ir.KindFunction, ReturnType: ir.TypeColor,
			Parameters: []ir.Parameter{{Name: "a", Type: ir.TypeColor}, {Name: "w", Type: ir.TypeFloat, Default: &one}},
		},
		{
			Name: "::scene::wood::mix(float[],int)", Simple: "mix", Module: "::scene::wood",
			Kind: ir.KindFunction, ReturnType: ir.TypeFloat,
			Parameters: []ir.Parameter{{Name: "v", Type: "float[]"}, {Name: "n", Type: ir.TypeInt}},
		},
	}
	commitDefinitions(t, s, defs...)

	p := sampleParams()
	p.Functions = []string{defs[0].Name, defs[1].Name, "::scene::wood::other()"}
	rec := New(p)

	got, err := rec.FunctionOverloads(ctx, s, "mix", []ir.Type{ir.TypeColor})
	require.NoError(t, err)
	assert.Equal(t, []string{defs[0].Name}, got)

	got, err = rec.FunctionOverloads(ctx, s, "::scene::wood::mix", []ir.Type{"float[3]", ir.TypeInt})
	require.NoError(t, err)
	assert.Equal(t, []string{defs[1].Name}, got)

	got, err = rec.FunctionOverloads(ctx, s, "mix", []ir.Type{"float[3]"})
	require.NoError(t, err)
	assert.Empty(t, got, "n has no default")

	assert.Equal(t, []string{defs[0].Name, defs[1].Name}, rec.FunctionOverloadsBySignature("mix", nil))
	assert.Equal(t, []string{defs[1].Name}, rec.FunctionOverloadsBySignature("mix", []ir.Type{"float[]"}))
	assert.Equal(t, []string{"::scene::wood::other()"}, rec.FunctionOverloadsBySignature("other", nil))
	assert.Empty(t, rec.FunctionOverloadsBySignature("other", []ir.Type{ir.TypeInt}))
}
