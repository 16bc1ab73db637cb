package pass

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dotslashderek/jsonschema-llm/internal/schema"
)

func TestApplyStrictModeClosesObjectAndWrapsOptional(t *testing.T) {
	root, err := schema.NewSchema([]byte(`{
		"type": "object",
		"properties": {
			"name": {"type": "string"},
			"age": {"type": "integer"}
		},
		"required": ["name"]
	}`))
	require.NoError(t, err)

	codec := schema.NewCodec()
	out, err := ApplyStrictMode(root, codec)
	require.NoError(t, err)

	assert.False(t, out.AdditionalProperties.BoolValue())
	assert.ElementsMatch(t, []string{"name", "age"}, out.Required)

	age := (*out.Properties)["age"]
	require.Len(t, age.AnyOf, 2)
	assert.Equal(t, schema.SchemaType{"integer"}, age.AnyOf[0].Type)
	assert.Equal(t, schema.SchemaType{"null"}, age.AnyOf[1].Type)

	name := (*out.Properties)["name"]
	assert.Equal(t, schema.SchemaType{"string"}, name.Type)

	require.Len(t, codec.Transforms, 1)
	assert.Equal(t, schema.TransformNullableOptional, codec.Transforms[0].Kind)
	assert.Equal(t, "/properties/age", codec.Transforms[0].SchemaPath)
}

func TestApplyStrictModeLiftsAdditionalPropertiesSchemaIntoOverflow(t *testing.T) {
	root, err := schema.NewSchema([]byte(`{
		"type": "object",
		"properties": {"name": {"type": "string"}},
		"required": ["name"],
		"additionalProperties": {"type": "integer"}
	}`))
	require.NoError(t, err)

	codec := schema.NewCodec()
	out, err := ApplyStrictMode(root, codec)
	require.NoError(t, err)

	assert.False(t, out.AdditionalProperties.BoolValue())
	overflow, ok := (*out.Properties)["__additional_properties__"]
	require.True(t, ok)
	assert.Equal(t, schema.SchemaType{"array"}, overflow.Type)

	found := false
	for _, tr := range codec.Transforms {
		if tr.Kind == schema.TransformExtractAdditionalProperty {
			found = true
			assert.Equal(t, "__additional_properties__", tr.PropertyName)
		}
	}
	assert.True(t, found)
}

func TestApplyStrictModeSkipsNonObjectNodes(t *testing.T) {
	root, err := schema.NewSchema([]byte(`{"type":"string"}`))
	require.NoError(t, err)

	codec := schema.NewCodec()
	out, err := ApplyStrictMode(root, codec)
	require.NoError(t, err)
	assert.Equal(t, schema.SchemaType{"string"}, out.Type)
	assert.Empty(t, codec.Transforms)
}

func TestApplyStrictModeAllRequiredLeavesNoNullableWrap(t *testing.T) {
	root, err := schema.NewSchema([]byte(`{
		"type": "object",
		"properties": {"a": {"type": "string"}},
		"required": ["a"]
	}`))
	require.NoError(t, err)

	codec := schema.NewCodec()
	_, err = ApplyStrictMode(root, codec)
	require.NoError(t, err)

	for _, tr := range codec.Transforms {
		assert.NotEqual(t, schema.TransformNullableOptional, tr.Kind)
	}
}
