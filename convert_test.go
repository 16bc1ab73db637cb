package llmschema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestConvertRootTypeWrapping covers scenario 1 (§8): a non-object root is
// wrapped under a required "value" property in strict mode.
func TestConvertRootTypeWrapping(t *testing.T) {
	result, err := Convert([]byte(`{"type":"array","items":{"type":"string"}}`), nil)
	require.NoError(t, err)

	require.NotNil(t, result.Schema.Properties)
	value, ok := (*result.Schema.Properties)["value"]
	require.True(t, ok)
	assert.Equal(t, SchemaType{"array"}, value.Type)
	assert.Contains(t, result.Schema.Required, "value")
	assert.False(t, result.Schema.AdditionalProperties.BoolValue())

	for _, tr := range result.Codec.Transforms {
		assert.NotEqual(t, TransformNullableOptional, tr.Kind)
	}
}

// TestConvertOptionalPropertyNullable covers scenario 2.
func TestConvertOptionalPropertyNullable(t *testing.T) {
	raw := []byte(`{
		"type": "object",
		"properties": {
			"name": {"type": "string"},
			"age": {"type": "integer"}
		},
		"required": ["name"]
	}`)

	result, err := Convert(raw, nil)
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"name", "age"}, result.Schema.Required)
	age := (*result.Schema.Properties)["age"]
	require.Len(t, age.AnyOf, 2)
	assert.Equal(t, SchemaType{"integer"}, age.AnyOf[0].Type)
	assert.Equal(t, SchemaType{"null"}, age.AnyOf[1].Type)

	found := false
	for _, tr := range result.Codec.Transforms {
		if tr.Kind == TransformNullableOptional {
			found = true
			assert.False(t, tr.OriginalRequired)
		}
	}
	assert.True(t, found)
}

// TestConvertMapLowering covers scenario 3.
func TestConvertMapLowering(t *testing.T) {
	raw := []byte(`{"type":"object","additionalProperties":{"type":"integer"}}`)

	result, err := Convert(raw, nil)
	require.NoError(t, err)

	assert.Equal(t, SchemaType{"array"}, result.Schema.Type)
	require.NotNil(t, result.Schema.Items)
	require.NotNil(t, result.Schema.Items.Properties)
	_, hasKey := (*result.Schema.Items.Properties)["key"]
	_, hasValue := (*result.Schema.Items.Properties)["value"]
	assert.True(t, hasKey)
	assert.True(t, hasValue)

	found := false
	for _, tr := range result.Codec.Transforms {
		if tr.Kind == TransformMapToArray {
			found = true
		}
	}
	assert.True(t, found)
}

// TestConvertOpaqueObject covers scenario 4.
func TestConvertOpaqueObject(t *testing.T) {
	result, err := Convert([]byte(`{"type":"object"}`), nil)
	require.NoError(t, err)

	assert.Equal(t, SchemaType{"string"}, result.Schema.Type)

	found := false
	for _, tr := range result.Codec.Transforms {
		if tr.Kind == TransformJSONStringParse {
			found = true
		}
	}
	assert.True(t, found)
}

// TestConvertRecursiveTree covers scenario 5.
func TestConvertRecursiveTree(t *testing.T) {
	raw := []byte(`{
		"$defs": {
			"node": {
				"type": "object",
				"properties": {
					"v": {"type": "integer"},
					"next": {"$ref": "#/$defs/node"}
				},
				"required": ["v"]
			}
		},
		"$ref": "#/$defs/node"
	}`)

	result, err := Convert(raw, map[string]any{"recursionLimit": float64(2)})
	require.NoError(t, err)

	found := false
	for _, tr := range result.Codec.Transforms {
		if tr.Kind == TransformRecursiveInflate {
			found = true
		}
	}
	assert.True(t, found)
}

// TestConvertHeterogeneousEnum covers scenario 6.
func TestConvertHeterogeneousEnum(t *testing.T) {
	raw := []byte(`{"enum":["red",1,true]}`)

	_, err := Convert(raw, map[string]any{"coerceEnum": false})
	require.Error(t, err)

	result, err := Convert(raw, map[string]any{"coerceEnum": true})
	require.NoError(t, err)
	assert.Equal(t, SchemaType{"string"}, result.Schema.Type)
	assert.ElementsMatch(t, []any{"red", "1", "true"}, result.Schema.Enum)

	found := false
	for _, dc := range result.Codec.DroppedConstraints {
		if dc.Constraint == "enum" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestConvertDeterminism(t *testing.T) {
	raw := []byte(`{
		"type": "object",
		"properties": {"a": {"type": "string"}, "b": {"type": "integer"}},
		"required": ["a"]
	}`)

	r1, err := Convert(raw, nil)
	require.NoError(t, err)
	r2, err := Convert(raw, nil)
	require.NoError(t, err)

	c1, err := r1.Codec.Canonical()
	require.NoError(t, err)
	c2, err := r2.Codec.Canonical()
	require.NoError(t, err)
	assert.Equal(t, c1, c2)
}
