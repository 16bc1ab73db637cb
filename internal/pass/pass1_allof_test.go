package pass

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dotslashderek/jsonschema-llm/internal/schema"
)

func TestMergeAllOfIntersectsRequiredAndBounds(t *testing.T) {
	root, err := schema.NewSchema([]byte(`{
		"allOf": [
			{"type": "object", "properties": {"a": {"type": "string"}}, "required": ["a"], "minimum": 1, "maximum": 10},
			{"type": "object", "properties": {"b": {"type": "integer"}}, "required": ["b"], "minimum": 5, "maximum": 8}
		]
	}`))
	require.NoError(t, err)

	out, err := MergeAllOf(root)
	require.NoError(t, err)
	require.Nil(t, out.AllOf)

	assert.ElementsMatch(t, []string{"a", "b"}, out.Required)
	require.NotNil(t, out.Properties)
	_, hasA := (*out.Properties)["a"]
	_, hasB := (*out.Properties)["b"]
	assert.True(t, hasA)
	assert.True(t, hasB)

	assert.Equal(t, "5", schema.FormatRat(out.Minimum))
	assert.Equal(t, "8", schema.FormatRat(out.Maximum))
}

func TestMergeAllOfEmptyTypeIntersectionFails(t *testing.T) {
	root, err := schema.NewSchema([]byte(`{
		"allOf": [
			{"type": "string"},
			{"type": "integer"}
		]
	}`))
	require.NoError(t, err)

	_, err = MergeAllOf(root)
	require.Error(t, err)
}

func TestMergeAllOfLeavesNonAllOfNodesUntouched(t *testing.T) {
	root, err := schema.NewSchema([]byte(`{"type":"string","minLength":3}`))
	require.NoError(t, err)

	out, err := MergeAllOf(root)
	require.NoError(t, err)
	assert.Equal(t, schema.SchemaType{"string"}, out.Type)
}
