package testutil

// BaseSource is the "::base" module: a light profile and a texture, a
// tinted BSDF, a texture lookup, a varying intrinsic and a material with a
// uniform parameter.
const BaseSource = `
imports: ["::df", "::anno", "::tex"]

annotations: [{name: "::anno::author", args: ["shadestore"]}]

constants: [
	{name: "wood", type: "texture_2d", value: "/textures/wood.png"},
	{name: "lamp", type: "light_profile", value: "/profiles/lamp.ies"},
]

functions: [
	{
		name: "tinted"
		params: [{name: "tint", type: "color", default: [1, 0, 0], annotations: [{name: "::anno::description", args: ["Tint"]}]}]
		returns: "bsdf"
		body: {call: "::df::diffuse_reflection_bsdf", args: {tint: {param: "tint"}}}
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
	{name: "noise", returns: "float", varying: true},
]

materials: [{
	name: "plastic"
	annotations: [{name: "::anno::display_name", args: ["Plastic"]}]
	params: [
		{name: "tint", type: "color", default: [1, 1, 1]},
		{name: "ior", type: "float", uniform: true, default: 1.5},
	]
	body: {call: "::df::surface_material", args: {
		surface: {call: "tinted", args: {tint: {param: "tint"}}}
		ior: {param: "ior"}
	}}
}]
`

// SceneSource is the "::scene" module. It imports "::base".
const SceneSource = `
imports: ["::base", "::math"]

functions: [{
	name: "dim"
	params: [{name: "c", type: "color"}]
	returns: "color"
	body: {call: "::math::lerp", args: {a: {param: "c"}, b: [0, 0, 0], l: 0.5}}
}]
`

// BaseResources are the resource files BaseSource refers to.
var BaseResources = []string{"/textures/wood.png", "/profiles/lamp.ies"}

// Fixture names.
const (
	BaseModule  = "::base"
	SceneModule = "::scene"

	Tinted    = "::base::tinted(color)"
	WoodColor = "::base::wood_color(float3)"
	Noise     = "::base::noise()"
	Plastic   = "::base::plastic(color,float)"
)
