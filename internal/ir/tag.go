package ir

import "fmt"

// Tag identifies a stored element. ID is unique for the lifetime of the
// store and Gen distinguishes successive occupants of the same ID, so a
// stale tag never resolves to a different element. The zero Tag is invalid.
//
// Tags carry no ownership: holding one does not keep the element alive.
type Tag struct {
	ID  uint64 `json:"id"`
	Gen uint32 `json:"gen"`
}

// NullTag is the invalid tag.
var NullTag = Tag{}

// IsValid reports whether t is a non-null tag. It does not consult the store.
func (t Tag) IsValid() bool {
	return t.ID != 0
}

func (t Tag) String() string {
	if !t.IsValid() {
		return "tag(null)"
	}
	return fmt.Sprintf("tag(%d.%d)", t.ID, t.Gen)
}

// ClassID is the stable type tag written in front of every persisted element.
type ClassID uint32

// Class ids are four ASCII bytes read big-endian.
const (
	ClassModule             ClassID = 0x5f4d6d6f // '_Mmo'
	ClassFunctionDefinition ClassID = 0x5f4d6664 // '_Mfd'
	ClassMaterialDefinition ClassID = 0x5f4d6d64 // '_Mmd'
	ClassFunctionCall       ClassID = 0x5f4d6663 // '_Mfc'
	ClassMaterialInstance   ClassID = 0x5f4d6d69 // '_Mmi'
	ClassTexture            ClassID = 0x5f547874 // '_Txt'
	ClassLightProfile       ClassID = 0x5f4c7066 // '_Lpf'
	ClassBSDFMeasurement    ClassID = 0x5f42736d // '_Bsm'
)

func (c ClassID) String() string {
	switch c {
	case ClassModule:
		return "module"
	case ClassFunctionDefinition:
		return "function_definition"
	case ClassMaterialDefinition:
		return "material_definition"
	case ClassFunctionCall:
		return "function_call"
	case ClassMaterialInstance:
		return "material_instance"
	case ClassTexture:
		return "texture"
	case ClassLightProfile:
		return "light_profile"
	case ClassBSDFMeasurement:
		return "bsdf_measurement"
	default:
		return fmt.Sprintf("class(0x%08x)", uint32(c))
	}
}

// IsDefinition reports whether c is a function or material definition.
func (c ClassID) IsDefinition() bool {
	return c == ClassFunctionDefinition || c == ClassMaterialDefinition
}

// IsCall reports whether c is a function call or material instance.
func (c ClassID) IsCall() bool {
	return c == ClassFunctionCall || c == ClassMaterialInstance
}

// IsResource reports whether c is a resource entry.
func (c ClassID) IsResource() bool {
	return c == ClassTexture || c == ClassLightProfile || c == ClassBSDFMeasurement
}
