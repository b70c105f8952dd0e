package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsModuleName(t *testing.T) {
	valid := []string{"::base", "::nvidia::core_definitions", "::_x1"}
	invalid := []string{"", "base", "::", "::1abc", "::a::", "::a b", "::a::b(int)", "a::b"}

	for _, name := range valid {
		assert.True(t, IsModuleName(name), name)
	}
	for _, name := range invalid {
		assert.False(t, IsModuleName(name), name)
	}
}

func TestIsElementName(t *testing.T) {
	for _, name := range []string{"red_plastic", "::base", "::scene::lamp", "scene::lamp"} {
		assert.True(t, IsElementName(name), name)
	}
	for _, name := range []string{"", "::", "red plastic", "::a::", "1st", "::m::f(int)", "café"} {
		assert.False(t, IsElementName(name), name)
	}
}

func TestQualifiedNameRoundTrip(t *testing.T) {
	q := QualifiedName("::base", "diffuse", []Type{TypeColor, TypeFloat})
	assert.Equal(t, "::base::diffuse(color,float)", q)

	module, simple, sig, ok := SplitQualified(q)
	assert.True(t, ok)
	assert.Equal(t, "::base", module)
	assert.Equal(t, "diffuse", simple)
	assert.Equal(t, "color,float", sig)

	assert.Equal(t, "::a::b", ModuleOf("::a::b::c()"))
	assert.Equal(t, "::anno", ModuleOf("::anno::hidden"))
	assert.Equal(t, "", ModuleOf("plain"))
	assert.Equal(t, "", ModuleOf("::x::f(int"))
}

func TestDefinitionCloneIsDeep(t *testing.T) {
	def := Const(ColorValue(1, 0, 0))
	body := Call("::base::f(color)", TypeColor, Arg("c", ParamRef("c", TypeColor)))
	orig := Definition{
		Name:       "::m::g(color)",
		Parameters: []Parameter{{Name: "c", Type: TypeColor, Default: &def}},
		ReturnType: TypeColor,
		Body:       &body,
	}

	cp := orig.Clone()
	cp.Parameters[0].Default.Value.Items[0].Float = 0.25
	cp.Parameters[0].Name = "changed"
	cp.Body.Args[0].Name = "changed"

	assert.Equal(t, 1.0, orig.Parameters[0].Default.Value.Items[0].Float)
	assert.Equal(t, "c", orig.Parameters[0].Name)
	assert.Equal(t, "c", orig.Body.Args[0].Name)
}

func TestAnnotationBlockClone(t *testing.T) {
	var nilBlock AnnotationBlock
	assert.Nil(t, nilBlock.Clone())

	block := AnnotationBlock{NewAnnotation("::anno::description(string)",
		Arg("description", Const(StringValue("wood"))))}
	cp := block.Clone()
	cp[0].Args[0].Expr.Value.Text = "metal"

	assert.Equal(t, "wood", block[0].Args[0].Expr.Value.Text)
}

func TestTypeHelpers(t *testing.T) {
	assert.True(t, Type("string[]").IsDeferredArray())
	assert.True(t, Type("float[3]").IsArray())
	assert.False(t, Type("float[3]").IsDeferredArray())
	assert.Equal(t, TypeFloat, Type("float[3]").Elem())
	assert.Equal(t, TypeColor, TypeColor.Elem())

	kind, ok := TypeTextureCube.ResourceKind()
	assert.True(t, ok)
	assert.Equal(t, ResourceTexture, kind)
	assert.True(t, TypeLightProfile.IsResource())
	assert.False(t, TypeColor.IsResource())
}

func TestValueResourcesVisitsNested(t *testing.T) {
	v := ArrayValue(TypeTexture2D,
		TextureValue(TypeTexture2D, "/a.png", GammaSRGB),
		TextureValue(TypeTexture2D, "/b.png", ""),
	)
	var paths []string
	v.Resources(func(r Value) { paths = append(paths, r.Text) })

	assert.Equal(t, []string{"/a.png", "/b.png"}, paths)
	assert.Equal(t, Type("texture_2d[2]"), v.Type)
	assert.Equal(t, GammaDefault, v.Items[1].Gamma)
}
