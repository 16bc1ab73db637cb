package pass

import (
	"sort"

	"github.com/dotslashderek/jsonschema-llm/internal/schema"
	"github.com/dotslashderek/jsonschema-llm/internal/traversal"
)

const overflowPropertyName = "__additional_properties__"

// ApplyStrictMode runs Pass 6 (§4.8): every object node gets
// additionalProperties:false (lifting a non-false schema there into a
// synthesized overflow property first), every declared property becomes
// required, and properties absent from the original required list are
// wrapped as anyOf:[T, {type:"null"}] so "optional" survives as "nullable"
// in dialects with no concept of an optional object key.
func ApplyStrictMode(root *schema.Schema, codec *schema.Codec) (*schema.Schema, error) {
	ctx := traversal.NewContext(1 << 20)
	return strictNode(root, ctx, codec)
}

func strictNode(n *schema.Schema, ctx *traversal.Context, codec *schema.Codec) (*schema.Schema, error) {
	if n == nil || n.IsBoolean() {
		return n, nil
	}

	out := n.Clone()
	if err := walkChildrenGeneric(out, ctx, func(child *schema.Schema, c *traversal.Context) (*schema.Schema, error) {
		return strictNode(child, c, codec)
	}); err != nil {
		return nil, err
	}

	if !out.Type.Has("object") {
		return out, nil
	}

	originalRequired := map[string]bool{}
	for _, r := range out.Required {
		originalRequired[r] = true
	}

	if out.Properties == nil {
		empty := schema.SchemaMap{}
		out.Properties = &empty
	}
	props := schema.SchemaMap{}
	for k, v := range *out.Properties {
		props[k] = v
	}

	// Step 1: lift a non-false additionalProperties schema into an overflow
	// property before closing the object.
	if out.AdditionalProperties != nil && !(out.AdditionalProperties.IsBoolean() && !out.AdditionalProperties.BoolValue()) {
		valueSchema := out.AdditionalProperties
		if valueSchema.IsBoolean() && valueSchema.BoolValue() {
			desc := "JSON-encoded value"
			valueSchema = &schema.Schema{Type: schema.SchemaType{"string"}, Description: &desc}
		}
		overflowItem := &schema.Schema{
			Type: schema.SchemaType{"object"},
			Properties: &schema.SchemaMap{
				"key":   {Type: schema.SchemaType{"string"}},
				"value": valueSchema,
			},
			Required:             []string{"key", "value"},
			AdditionalProperties: falseSchema(),
		}
		props[overflowPropertyName] = &schema.Schema{
			Type:  schema.SchemaType{"array"},
			Items: overflowItem,
		}
		codec.Append(schema.Transform{
			Kind:         schema.TransformExtractAdditionalProperty,
			SchemaPath:   ctx.Pointer(),
			PropertyName: overflowPropertyName,
		})
	}
	out.AdditionalProperties = falseSchema()

	// Step 2 & 3: every declared property becomes required; properties not
	// originally required are wrapped nullable.
	names := make([]string, 0, len(props))
	for name := range props {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if name == overflowPropertyName {
			continue
		}
		if !originalRequired[name] {
			wrapped := &schema.Schema{
				AnyOf: []*schema.Schema{props[name], nullTypeSchema()},
			}
			props[name] = wrapped
			codec.Append(schema.Transform{
				Kind:             schema.TransformNullableOptional,
				SchemaPath:       ctx.Child("properties").Child(name).Pointer(),
				OriginalRequired: false,
			})
		}
	}

	out.Properties = &props
	required := make([]string, 0, len(props))
	for _, name := range names {
		required = append(required, name)
	}
	out.Required = required

	return out, nil
}
