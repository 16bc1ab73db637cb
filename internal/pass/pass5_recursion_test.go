package pass

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dotslashderek/jsonschema-llm/internal/schema"
)

func recursiveTreeSchema(t *testing.T) *schema.Schema {
	t.Helper()
	root, err := schema.NewSchema([]byte(`{
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
	}`))
	require.NoError(t, err)

	out, err := Normalize(root, 50)
	require.NoError(t, err)
	return out
}

func TestInlineRecursionCutsAtLimit(t *testing.T) {
	normalized := recursiveTreeSchema(t)

	codec := schema.NewCodec()
	out, err := InlineRecursionInto(normalized, 50, 2, codec)
	require.NoError(t, err)

	assert.True(t, out.Type.Has("object"))
	require.NotEmpty(t, codec.Transforms)

	found := false
	for _, tr := range codec.Transforms {
		if tr.Kind == schema.TransformRecursiveInflate {
			found = true
			assert.Equal(t, "#/$defs/node", tr.OriginalRef)
		}
	}
	assert.True(t, found)
}

func TestInlineRecursionLimitZeroCutsImmediately(t *testing.T) {
	normalized := recursiveTreeSchema(t)

	codec := schema.NewCodec()
	out, err := InlineRecursionInto(normalized, 50, 0, codec)
	require.NoError(t, err)

	// Normalize's own alias-chain resolution already inlines the root
	// $ref one level; the $ref one level deeper than that (next.next) is
	// what Pass 5 itself is left to cut at recursionLimit 0.
	next := (*out.Properties)["next"]
	require.NotNil(t, next)
	assert.True(t, next.Type.Has("object"))
	grandchild := (*next.Properties)["next"]
	require.NotNil(t, grandchild)
	assert.False(t, grandchild.Type.Has("object"))
	require.NotEmpty(t, codec.Transforms)
}

func TestInlineRecursionLeavesAcyclicSchemasAlone(t *testing.T) {
	root, err := schema.NewSchema([]byte(`{"type":"object","properties":{"name":{"type":"string"}}}`))
	require.NoError(t, err)

	codec := schema.NewCodec()
	out, err := InlineRecursionInto(root, 50, 3, codec)
	require.NoError(t, err)
	assert.Equal(t, schema.SchemaType{"object"}, out.Type)
	assert.Empty(t, codec.Transforms)
}
