package pass

import (
	"github.com/dotslashderek/jsonschema-llm/internal/schema"
	"github.com/dotslashderek/jsonschema-llm/internal/traversal"
)

const opaqueDescriptionSuffix = " — value must be a JSON-encoded object"

// LowerOpaque runs Pass 4 (§4.6): an "opaque" object schema — type object,
// no properties, additionalProperties true/missing/{} — becomes a string
// schema demanding JSON-encoded content, since strict dialects cannot
// express "any JSON" directly.
func LowerOpaque(root *schema.Schema, codec *schema.Codec) (*schema.Schema, error) {
	ctx := traversal.NewContext(1 << 20)
	return lowerOpaqueNode(root, ctx, codec)
}

func lowerOpaqueNode(n *schema.Schema, ctx *traversal.Context, codec *schema.Codec) (*schema.Schema, error) {
	if n == nil || n.IsBoolean() {
		return n, nil
	}

	out := n.Clone()
	if err := walkChildrenGeneric(out, ctx, func(child *schema.Schema, c *traversal.Context) (*schema.Schema, error) {
		return lowerOpaqueNode(child, c, codec)
	}); err != nil {
		return nil, err
	}

	if isOpaque(out) {
		desc := opaqueDescriptionSuffix
		if out.Description != nil && *out.Description != "" {
			desc = *out.Description + opaqueDescriptionSuffix
		}
		rewritten := &schema.Schema{
			Type:        schema.SchemaType{"string"},
			Description: &desc,
		}

		codec.Append(schema.Transform{
			Kind:       schema.TransformJSONStringParse,
			SchemaPath: ctx.Pointer(),
		})

		return rewritten, nil
	}

	return out, nil
}

// isOpaque reports the Pass 4 detection condition (§4.6).
func isOpaque(n *schema.Schema) bool {
	if !n.Type.Has("object") {
		return false
	}
	if n.Properties != nil && len(*n.Properties) > 0 {
		return false
	}
	if n.AdditionalProperties == nil {
		return true
	}
	if n.AdditionalProperties.IsBoolean() {
		return n.AdditionalProperties.BoolValue()
	}
	// additionalProperties: {} (empty schema, accepts anything)
	return isEmptySchema(n.AdditionalProperties)
}

func isEmptySchema(s *schema.Schema) bool {
	if s == nil || s.IsBoolean() {
		return false
	}
	empty := &schema.Schema{}
	return schema.ValueEqual(s, empty)
}
