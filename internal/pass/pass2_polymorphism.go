package pass

import (
	"github.com/dotslashderek/jsonschema-llm/internal/schema"
	"github.com/dotslashderek/jsonschema-llm/internal/traversal"
)

// RewriteOneOf runs Pass 2 (§4.4): every oneOf becomes anyOf with the same
// branches in the same order, optionally tagged with an inferred
// discriminator (§C.5 of the expanded design) when every branch requires
// one shared enum-valued property.
func RewriteOneOf(root *schema.Schema, codec *schema.Codec) (*schema.Schema, error) {
	ctx := traversal.NewContext(1 << 20)
	return rewriteNode(root, ctx, codec)
}

func rewriteNode(n *schema.Schema, ctx *traversal.Context, codec *schema.Codec) (*schema.Schema, error) {
	if n == nil || n.IsBoolean() {
		return n, nil
	}

	out := n.Clone()
	var err error

	if out.Defs != nil {
		next := make(map[string]*schema.Schema, len(out.Defs))
		for k, v := range out.Defs {
			if next[k], err = rewriteNode(v, ctx.Child("$defs").Child(k), codec); err != nil {
				return nil, err
			}
		}
		out.Defs = next
	}
	if out.AllOf, err = rewriteSlice(out.AllOf, ctx, "allOf", codec); err != nil {
		return nil, err
	}
	if out.AnyOf, err = rewriteSlice(out.AnyOf, ctx, "anyOf", codec); err != nil {
		return nil, err
	}
	if out.PrefixItems, err = rewriteSlice(out.PrefixItems, ctx, "prefixItems", codec); err != nil {
		return nil, err
	}
	if out.Properties != nil {
		next := make(schema.SchemaMap, len(*out.Properties))
		for k, v := range *out.Properties {
			c, e := rewriteNode(v, ctx.Child("properties").Child(k), codec)
			if e != nil {
				return nil, e
			}
			next[k] = c
		}
		out.Properties = &next
	}
	if out.PatternProperties != nil {
		next := make(schema.SchemaMap, len(*out.PatternProperties))
		for k, v := range *out.PatternProperties {
			c, e := rewriteNode(v, ctx.Child("patternProperties").Child(k), codec)
			if e != nil {
				return nil, e
			}
			next[k] = c
		}
		out.PatternProperties = &next
	}
	if out.DependentSchemas != nil {
		next := make(map[string]*schema.Schema, len(out.DependentSchemas))
		for k, v := range out.DependentSchemas {
			c, e := rewriteNode(v, ctx.Child("dependentSchemas").Child(k), codec)
			if e != nil {
				return nil, e
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
		next, e := rewriteNode(child, ctx.Child(c.token), codec)
		if e != nil {
			return nil, e
		}
		c.set(next)
	}

	if out.OneOf != nil {
		branches, e := rewriteSlice(out.OneOf, ctx, "oneOf", codec)
		if e != nil {
			return nil, e
		}
		discriminator, variants := inferDiscriminator(branches)
		out.AnyOf = append(out.AnyOf, branches...)
		out.OneOf = nil

		rec := schema.Transform{
			Kind:       schema.TransformDiscriminatorAnyOf,
			SchemaPath: ctx.Pointer(),
			Variants:   variants,
		}
		if discriminator != "" {
			rec.Discriminator = discriminator
		}
		codec.Append(rec)
	}

	return out, nil
}

func rewriteSlice(items []*schema.Schema, ctx *traversal.Context, token string, codec *schema.Codec) ([]*schema.Schema, error) {
	if items == nil {
		return nil, nil
	}
	next := make([]*schema.Schema, len(items))
	childCtx := ctx.Child(token)
	for i, item := range items {
		n, err := rewriteNode(item, childCtx.Child(idx(i)), codec)
		if err != nil {
			return nil, err
		}
		next[i] = n
	}
	return next, nil
}

// inferDiscriminator looks for a single required property that every
// branch declares with a one-member enum or const, a common real-world
// tagged-union shape absent an explicit vendor discriminator extension.
func inferDiscriminator(branches []*schema.Schema) (string, []string) {
	if len(branches) == 0 {
		return "", nil
	}

	candidates := map[string]bool{}
	first := true
	for _, b := range branches {
		if b.IsBoolean() || b.Properties == nil {
			return "", nil
		}
		this := map[string]bool{}
		for name, propSchema := range *b.Properties {
			if !isRequired(b.Required, name) {
				continue
			}
			if tagValue(propSchema) == "" {
				continue
			}
			this[name] = true
		}
		if first {
			for name := range this {
				candidates[name] = true
			}
			first = false
			continue
		}
		for name := range candidates {
			if !this[name] {
				delete(candidates, name)
			}
		}
	}

	if len(candidates) != 1 {
		return "", nil
	}
	var tag string
	for name := range candidates {
		tag = name
	}

	variants := make([]string, 0, len(branches))
	for _, b := range branches {
		propSchema := (*b.Properties)[tag]
		variants = append(variants, tagValue(propSchema))
	}
	return tag, variants
}

func isRequired(required []string, name string) bool {
	for _, r := range required {
		if r == name {
			return true
		}
	}
	return false
}

// tagValue returns the single literal value a discriminator property
// schema pins down, or "" if it does not pin down exactly one.
func tagValue(s *schema.Schema) string {
	if s == nil || s.IsBoolean() {
		return ""
	}
	if s.Const != nil && s.Const.IsSet {
		if str, ok := s.Const.Value.(string); ok {
			return str
		}
	}
	if len(s.Enum) == 1 {
		if str, ok := s.Enum[0].(string); ok {
			return str
		}
	}
	return ""
}
