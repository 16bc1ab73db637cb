package pass

import (
	"github.com/dotslashderek/jsonschema-llm/internal/schema"
	"github.com/dotslashderek/jsonschema-llm/internal/traversal"
)

// LowerDictionaries runs Pass 3 (§4.5): a map-shaped object schema
// (type object, no declared properties, additionalProperties a non-boolean
// schema V) becomes an array of {key, value: V} records, since target
// dialects disallow open-ended property bags but accept arrays freely.
func LowerDictionaries(root *schema.Schema, codec *schema.Codec) (*schema.Schema, error) {
	ctx := traversal.NewContext(1 << 20)
	return lowerDictNode(root, ctx, codec)
}

func lowerDictNode(n *schema.Schema, ctx *traversal.Context, codec *schema.Codec) (*schema.Schema, error) {
	if n == nil || n.IsBoolean() {
		return n, nil
	}

	out := n.Clone()
	if err := walkChildrenGeneric(out, ctx, func(child *schema.Schema, c *traversal.Context) (*schema.Schema, error) {
		return lowerDictNode(child, c, codec)
	}); err != nil {
		return nil, err
	}

	if isMapShaped(out) {
		valueSchema := out.AdditionalProperties
		keyField, valueField := "key", "value"

		arrayItem := &schema.Schema{
			Type: schema.SchemaType{"object"},
			Properties: &schema.SchemaMap{
				keyField:   {Type: schema.SchemaType{"string"}},
				valueField: valueSchema,
			},
			Required:             []string{keyField, valueField},
			AdditionalProperties: falseSchema(),
		}

		rewritten := &schema.Schema{
			Type:  schema.SchemaType{"array"},
			Items: arrayItem,
		}
		if out.Description != nil {
			rewritten.Description = out.Description
		}

		codec.Append(schema.Transform{
			Kind:       schema.TransformMapToArray,
			SchemaPath: ctx.Pointer(),
			KeyField:   keyField,
			ValueField: valueField,
		})

		return rewritten, nil
	}

	return out, nil
}

// isMapShaped reports the Pass 3 detection condition (§4.5).
func isMapShaped(n *schema.Schema) bool {
	if !n.Type.Has("object") {
		return false
	}
	if n.Properties != nil && len(*n.Properties) > 0 {
		return false
	}
	if n.AdditionalProperties == nil {
		return false
	}
	if n.AdditionalProperties.IsBoolean() {
		return false
	}
	return true
}

// walkChildrenGeneric recurses into every direct schema child of n,
// assigning the transformed result back in place. It is shared by the
// passes (3, 4, 5, 6, 7) whose own node-level rule does not need a bespoke
// traversal order.
func walkChildrenGeneric(out *schema.Schema, ctx *traversal.Context, recurse func(*schema.Schema, *traversal.Context) (*schema.Schema, error)) error {
	var err error

	if out.Defs != nil {
		next := make(map[string]*schema.Schema, len(out.Defs))
		for k, v := range out.Defs {
			if next[k], err = recurse(v, ctx.Child("$defs").Child(k)); err != nil {
				return err
			}
		}
		out.Defs = next
	}
	if out.AllOf, err = walkSliceGeneric(out.AllOf, ctx, "allOf", recurse); err != nil {
		return err
	}
	if out.AnyOf, err = walkSliceGeneric(out.AnyOf, ctx, "anyOf", recurse); err != nil {
		return err
	}
	if out.OneOf, err = walkSliceGeneric(out.OneOf, ctx, "oneOf", recurse); err != nil {
		return err
	}
	if out.PrefixItems, err = walkSliceGeneric(out.PrefixItems, ctx, "prefixItems", recurse); err != nil {
		return err
	}
	if out.Properties != nil {
		next := make(schema.SchemaMap, len(*out.Properties))
		for k, v := range *out.Properties {
			c, e := recurse(v, ctx.Child("properties").Child(k))
			if e != nil {
				return e
			}
			next[k] = c
		}
		out.Properties = &next
	}
	if out.PatternProperties != nil {
		next := make(schema.SchemaMap, len(*out.PatternProperties))
		for k, v := range *out.PatternProperties {
			c, e := recurse(v, ctx.Child("patternProperties").Child(k))
			if e != nil {
				return e
			}
			next[k] = c
		}
		out.PatternProperties = &next
	}
	if out.DependentSchemas != nil {
		next := make(map[string]*schema.Schema, len(out.DependentSchemas))
		for k, v := range out.DependentSchemas {
			c, e := recurse(v, ctx.Child("dependentSchemas").Child(k))
			if e != nil {
				return e
			}
			next[k] = c
		}
		out.DependentSchemas = next
	}
	for _, c := range namedChildren(out) {
		child := c.get()
		if child == nil {
			continue
		}
		next, e := recurse(child, ctx.Child(c.token))
		if e != nil {
			return e
		}
		c.set(next)
	}
	return nil
}

func walkSliceGeneric(items []*schema.Schema, ctx *traversal.Context, token string, recurse func(*schema.Schema, *traversal.Context) (*schema.Schema, error)) ([]*schema.Schema, error) {
	if items == nil {
		return nil, nil
	}
	next := make([]*schema.Schema, len(items))
	childCtx := ctx.Child(token)
	for i, item := range items {
		n, err := recurse(item, childCtx.Child(idx(i)))
		if err != nil {
			return nil, err
		}
		next[i] = n
	}
	return next, nil
}
