package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeEnvelope(t *testing.T) {
	in := Constant{Name: "tint", Value: ColorValue(1, 0.5, 0)}

	payload, err := Encode(ClassModule, in)
	require.NoError(t, err)
	assert.Contains(t, string(payload), `"class":1598909807`)

	class, err := PeekClass(payload)
	require.NoError(t, err)
	assert.Equal(t, ClassModule, class)

	var out Constant
	require.NoError(t, Decode(payload, ClassModule, &out))
	assert.True(t, in.Value.Equal(out.Value))
	assert.Equal(t, in.Name, out.Name)
}

func TestDecodeClassMismatch(t *testing.T) {
	payload, err := Encode(ClassTexture, map[string]string{"a": "b"})
	require.NoError(t, err)

	var out map[string]string
	err = Decode(payload, ClassModule, &out)
	assert.ErrorIs(t, err, ErrClassMismatch)
}

func TestClassIDString(t *testing.T) {
	assert.Equal(t, "module", ClassModule.String())
	assert.Equal(t, "class(0x00000001)", ClassID(1).String())
	assert.True(t, ClassMaterialInstance.IsCall())
	assert.True(t, ClassFunctionDefinition.IsDefinition())
	assert.True(t, ClassBSDFMeasurement.IsResource())
}
