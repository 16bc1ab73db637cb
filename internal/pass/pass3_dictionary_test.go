package pass

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dotslashderek/jsonschema-llm/internal/schema"
)

func TestLowerDictionariesRewritesMapShapedObject(t *testing.T) {
	root, err := schema.NewSchema([]byte(`{"type":"object","additionalProperties":{"type":"integer"}}`))
	require.NoError(t, err)

	codec := schema.NewCodec()
	out, err := LowerDictionaries(root, codec)
	require.NoError(t, err)

	assert.Equal(t, schema.SchemaType{"array"}, out.Type)
	require.NotNil(t, out.Items)
	require.NotNil(t, out.Items.Properties)
	key, hasKey := (*out.Items.Properties)["key"]
	value, hasValue := (*out.Items.Properties)["value"]
	require.True(t, hasKey)
	require.True(t, hasValue)
	assert.Equal(t, schema.SchemaType{"string"}, key.Type)
	assert.Equal(t, schema.SchemaType{"integer"}, value.Type)
	assert.ElementsMatch(t, []string{"key", "value"}, out.Items.Required)

	require.Len(t, codec.Transforms, 1)
	assert.Equal(t, schema.TransformMapToArray, codec.Transforms[0].Kind)
	assert.Equal(t, "key", codec.Transforms[0].KeyField)
	assert.Equal(t, "value", codec.Transforms[0].ValueField)
}

func TestLowerDictionariesIgnoresObjectsWithDeclaredProperties(t *testing.T) {
	root, err := schema.NewSchema([]byte(`{
		"type": "object",
		"properties": {"name": {"type": "string"}},
		"additionalProperties": {"type": "integer"}
	}`))
	require.NoError(t, err)

	codec := schema.NewCodec()
	out, err := LowerDictionaries(root, codec)
	require.NoError(t, err)

	assert.Equal(t, schema.SchemaType{"object"}, out.Type)
	assert.Empty(t, codec.Transforms)
}

func TestLowerDictionariesIgnoresBooleanAdditionalProperties(t *testing.T) {
	root, err := schema.NewSchema([]byte(`{"type":"object","additionalProperties":true}`))
	require.NoError(t, err)

	codec := schema.NewCodec()
	out, err := LowerDictionaries(root, codec)
	require.NoError(t, err)
	assert.Equal(t, schema.SchemaType{"object"}, out.Type)
	assert.Empty(t, codec.Transforms)
}

func TestLowerDictionariesRecursesIntoNestedProperties(t *testing.T) {
	root, err := schema.NewSchema([]byte(`{
		"type": "object",
		"properties": {
			"counts": {"type": "object", "additionalProperties": {"type": "integer"}}
		},
		"required": ["counts"]
	}`))
	require.NoError(t, err)

	codec := schema.NewCodec()
	out, err := LowerDictionaries(root, codec)
	require.NoError(t, err)

	counts := (*out.Properties)["counts"]
	assert.Equal(t, schema.SchemaType{"array"}, counts.Type)
	require.Len(t, codec.Transforms, 1)
	assert.Equal(t, "/properties/counts", codec.Transforms[0].SchemaPath)
}
