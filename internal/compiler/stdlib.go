package compiler

// stdlibSources are the builtin modules compiled when no source file on
// the search paths provides them. Definitions without a body are
// intrinsics.
var stdlibSources = map[string]string{
	"::anno": `
annotation_decls: [
	{name: "description", params: [{name: "description", type: "string"}]},
	{name: "display_name", params: [{name: "name", type: "string"}]},
	{name: "author", params: [{name: "name", type: "string"}]},
	{name: "copyright_notice", params: [{name: "copyright", type: "string"}]},
	{name: "in_group", params: [{name: "group", type: "string"}]},
	{name: "key_words", params: [{name: "words", type: "string[]"}]},
	{name: "soft_range", params: [{name: "min", type: "float"}, {name: "max", type: "float"}]},
	{name: "version", params: [{name: "major", type: "int"}]},
	{name: "hidden"},
	{name: "unused"},
]
`,
	"::state": `
functions: [
	{name: "normal", returns: "float3", varying: true},
	{name: "position", returns: "float3", varying: true},
	{name: "texture_coordinate", params: [{name: "index", type: "int", uniform: true}], returns: "float3", varying: true},
	{name: "animation_time", returns: "float"},
]
`,
	"::math": `
functions: [
	{name: "lerp", params: [{name: "a", type: "color"}, {name: "b", type: "color"}, {name: "l", type: "float"}], returns: "color"},
	{name: "lerp", params: [{name: "a", type: "float"}, {name: "b", type: "float"}, {name: "t", type: "float"}], returns: "float"},
	{name: "luminance", params: [{name: "a", type: "color"}], returns: "float"},
	{name: "to_color", params: [{name: "a", type: "float3"}], returns: "color"},
]
`,
	"::tex": `
functions: [
	{name: "lookup_color", params: [{name: "tex", type: "texture_2d"}, {name: "coord", type: "float3"}], returns: "color"},
	{name: "width", params: [{name: "tex", type: "texture_2d", uniform: true}], returns: "int"},
]
`,
	"::df": `
functions: [
	{name: "diffuse_reflection_bsdf", params: [
		{name: "tint", type: "color", default: [1, 1, 1]},
		{name: "roughness", type: "float", default: 0.0},
	], returns: "bsdf"},
	{name: "specular_bsdf", params: [{name: "tint", type: "color", default: [1, 1, 1]}], returns: "bsdf"},
	{name: "measured_bsdf", params: [{name: "measurement", type: "bsdf_measurement"}], returns: "bsdf"},
	{name: "measured_edf", params: [{name: "profile", type: "light_profile"}], returns: "edf"},
]
materials: [
	{name: "surface_material", params: [
		{name: "surface", type: "bsdf"},
		{name: "emission", type: "edf"},
		{name: "thin_walled", type: "bool", uniform: true, default: false},
		{name: "ior", type: "float", uniform: true, default: 1.0},
	]},
]
`,
}
