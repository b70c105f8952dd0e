package frontend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/shadestore/internal/ir"
)

func testDefinition(name string) Definition {
	body := ir.Const(ir.FloatValue(1))
	return Definition{Def: ir.Definition{
		Name:       ir.QualifiedName("::synth", name, nil),
		Simple:     name,
		Module:     "::synth",
		Kind:       ir.KindFunction,
		ReturnType: ir.TypeFloat,
		Body:       &body,
	}}
}

func TestBuilderAccumulateThenSeal(t *testing.T) {
	b := NewBuilder("::synth")

	require.NoError(t, b.AddImport("::base"))
	require.NoError(t, b.AddImport("::base"))
	require.NoError(t, b.AddImport("::synth"))
	require.NoError(t, b.AddDefinition(testDefinition("one")))
	require.NoError(t, b.AddDefinition(testDefinition("two")))
	assert.True(t, b.Has("::synth::one()"))
	assert.Equal(t, 2, b.Len())

	imports, defs, err := b.Seal()
	require.NoError(t, err)
	assert.Equal(t, []string{"::base"}, imports)
	require.Len(t, defs, 2)
	assert.True(t, b.Sealed())

	assert.ErrorIs(t, b.AddDefinition(testDefinition("three")), ErrSealed)
	assert.ErrorIs(t, b.AddImport("::other"), ErrSealed)
	_, _, err = b.Seal()
	assert.ErrorIs(t, err, ErrSealed)
}

func TestBuilderRejectsDuplicates(t *testing.T) {
	b := NewBuilder("::synth")
	require.NoError(t, b.AddDefinition(testDefinition("one")))
	assert.ErrorIs(t, b.AddDefinition(testDefinition("one")), ErrDuplicateDefinition)
}

func TestBuilderCopiesDefinitions(t *testing.T) {
	b := NewBuilder("::synth")
	def := testDefinition("one")
	require.NoError(t, b.AddDefinition(def))

	def.Def.Body.Value.Float = 42

	_, defs, err := b.Seal()
	require.NoError(t, err)
	assert.Equal(t, 1.0, defs[0].Def.Body.Value.Float)
}

func TestModuleAccessorsReturnCopies(t *testing.T) {
	dag := DAG{
		Functions: []Definition{testDefinition("one")},
		Resources: []ir.ResourceRef{{Kind: ir.ResourceTexture, Type: ir.TypeTexture2D, Path: "/a.png", Gammas: []ir.Gamma{ir.GammaSRGB}}},
	}
	m := NewModule(ModuleInfo{Name: "::synth", Imports: []string{"::base"}}, dag)

	imports := m.Imports()
	imports[0] = "::changed"
	assert.Equal(t, []string{"::base"}, m.Imports())

	got := m.DAG()
	got.Functions[0].Def.Simple = "changed"
	got.Resources[0].Gammas[0] = ir.GammaLinear
	again := m.DAG()
	assert.Equal(t, "one", again.Functions[0].Def.Simple)
	assert.Equal(t, ir.GammaSRGB, again.Resources[0].Gammas[0])

	d, ok := m.Definition("::synth::one()")
	require.True(t, ok)
	assert.Equal(t, "one", d.Def.Simple)
	assert.Equal(t, 1, m.ResourceCount())
}

func TestAnnotationBlockModules(t *testing.T) {
	var nilBlock *AnnotationBlock
	assert.Equal(t, 0, nilBlock.Len())
	assert.Nil(t, nilBlock.Clone())

	b := &AnnotationBlock{Annotations: []Annotation{
		{Decl: AnnotationDecl{Name: "::anno::description(string)", Module: "::anno"}},
		{Decl: AnnotationDecl{Name: "::anno::author(string)", Module: "::anno"}},
		{Decl: AnnotationDecl{Name: "::tags::tag(string)", Module: "::tags"}},
	}}
	assert.Equal(t, []string{"::anno", "::tags"}, b.Modules())
	assert.Equal(t, 3, b.Clone().Len())
}
