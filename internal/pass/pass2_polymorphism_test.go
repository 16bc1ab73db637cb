package pass

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dotslashderek/jsonschema-llm/internal/schema"
)

func TestRewriteOneOfBecomesAnyOf(t *testing.T) {
	root, err := schema.NewSchema([]byte(`{
		"oneOf": [
			{"type": "object", "properties": {"kind": {"const": "cat"}, "lives": {"type": "integer"}}, "required": ["kind", "lives"]},
			{"type": "object", "properties": {"kind": {"const": "dog"}, "breed": {"type": "string"}}, "required": ["kind", "breed"]}
		]
	}`))
	require.NoError(t, err)

	codec := schema.NewCodec()
	out, err := RewriteOneOf(root, codec)
	require.NoError(t, err)

	assert.Nil(t, out.OneOf)
	require.Len(t, out.AnyOf, 2)

	require.Len(t, codec.Transforms, 1)
	tr := codec.Transforms[0]
	assert.Equal(t, schema.TransformDiscriminatorAnyOf, tr.Kind)
	assert.Equal(t, "kind", tr.Discriminator)
	assert.ElementsMatch(t, []string{"cat", "dog"}, tr.Variants)
}

func TestRewriteOneOfNoSharedDiscriminator(t *testing.T) {
	root, err := schema.NewSchema([]byte(`{
		"oneOf": [
			{"type": "string"},
			{"type": "integer"}
		]
	}`))
	require.NoError(t, err)

	codec := schema.NewCodec()
	out, err := RewriteOneOf(root, codec)
	require.NoError(t, err)
	require.Len(t, out.AnyOf, 2)

	require.Len(t, codec.Transforms, 1)
	assert.Empty(t, codec.Transforms[0].Discriminator)
}

func TestRewriteOneOfLeavesPlainSchemasUntouched(t *testing.T) {
	root, err := schema.NewSchema([]byte(`{"type":"string"}`))
	require.NoError(t, err)

	codec := schema.NewCodec()
	out, err := RewriteOneOf(root, codec)
	require.NoError(t, err)
	assert.Equal(t, schema.SchemaType{"string"}, out.Type)
	assert.Empty(t, codec.Transforms)
}
