package pass

import (
	"fmt"
	"sort"

	"github.com/dotslashderek/jsonschema-llm/internal/schema"
	"github.com/dotslashderek/jsonschema-llm/internal/traversal"
)

// supportMatrix describes which 2020-12 keywords a target dialect accepts.
// Conservative defaults model OpenAI Strict (§4.9); gemini and claude are
// treated identically to openai-strict until the pack's examples show
// otherwise, since the spec only names concrete matrix entries for Strict.
type supportMatrix struct {
	pattern                bool
	format                  bool
	recognizedFormats       map[string]bool
	minMaxForStrings        bool
	multipleOf             bool
	uniqueItems            bool
	patternProperties      bool
	propertyNames          bool
	minMaxProperties       bool
	dependentRequired      bool
	dependentSchemas       bool
	conditional            bool // if/then/else
	contains               bool
	unevaluatedProperties  bool
	unevaluatedItems       bool
	not                    bool
}

// openAIStrictFormats is the teacher-registry-derived curated subset OpenAI
// Strict is known to accept (§C.4); the rest are dropped like any other
// unsupported format value.
var openAIStrictFormats = map[string]bool{
	"date-time": true,
	"date":      true,
	"time":      true,
	"duration":  true,
	"email":     true,
	"uuid":      true,
	"uri":       true,
	"ipv4":      true,
	"ipv6":      true,
}

func matrixFor(target schema.Target) supportMatrix {
	return supportMatrix{
		recognizedFormats: openAIStrictFormats,
	}
}

// PruneConstraints runs Pass 7 (§4.9): walks every node and removes keywords
// the target's support matrix does not carry, recording each removal as a
// droppedConstraints entry. Heterogeneous enums fail unless coerceEnum is
// set, in which case every member is stringified.
func PruneConstraints(root *schema.Schema, opts *schema.ConvertOptions, codec *schema.Codec) (*schema.Schema, error) {
	matrix := matrixFor(opts.Target)
	ctx := traversal.NewContext(1 << 20)
	return pruneNode(root, ctx, matrix, opts, codec)
}

func pruneNode(n *schema.Schema, ctx *traversal.Context, matrix supportMatrix, opts *schema.ConvertOptions, codec *schema.Codec) (*schema.Schema, error) {
	if n == nil || n.IsBoolean() {
		return n, nil
	}

	out := n.Clone()
	if err := walkChildrenGeneric(out, ctx, func(child *schema.Schema, c *traversal.Context) (*schema.Schema, error) {
		return pruneNode(child, c, matrix, opts, codec)
	}); err != nil {
		return nil, err
	}

	path := ctx.Pointer()

	if out.Enum != nil {
		if err := pruneEnum(out, path, opts, codec); err != nil {
			return nil, err
		}
	}

	if out.Pattern != nil && !matrix.pattern {
		desc := "must match the pattern: " + *out.Pattern
		if out.Description != nil && *out.Description != "" {
			desc = *out.Description + " (" + desc + ")"
		}
		out.Description = &desc
		codec.Drop(path, "pattern", *out.Pattern)
		out.Pattern = nil
	}
	if out.Format != nil && !matrix.format && !matrix.recognizedFormats[*out.Format] {
		codec.Drop(path, "format", *out.Format)
		out.Format = nil
	}
	if !matrix.minMaxForStrings && out.Type.Has("string") {
		if out.Minimum != nil {
			codec.Drop(path, "minimum", schema.FormatRat(out.Minimum))
			out.Minimum = nil
		}
		if out.Maximum != nil {
			codec.Drop(path, "maximum", schema.FormatRat(out.Maximum))
			out.Maximum = nil
		}
	}
	if out.MultipleOf != nil && !matrix.multipleOf {
		codec.Drop(path, "multipleOf", schema.FormatRat(out.MultipleOf))
		out.MultipleOf = nil
	}
	if out.UniqueItems != nil && !matrix.uniqueItems {
		codec.Drop(path, "uniqueItems", *out.UniqueItems)
		out.UniqueItems = nil
	}
	if out.PatternProperties != nil && !matrix.patternProperties {
		codec.Drop(path, "patternProperties", *out.PatternProperties)
		out.PatternProperties = nil
	}
	if out.PropertyNames != nil && !matrix.propertyNames {
		codec.Drop(path, "propertyNames", out.PropertyNames)
		out.PropertyNames = nil
	}
	if !matrix.minMaxProperties {
		if out.MinProperties != nil {
			codec.Drop(path, "minProperties", *out.MinProperties)
			out.MinProperties = nil
		}
		if out.MaxProperties != nil {
			codec.Drop(path, "maxProperties", *out.MaxProperties)
			out.MaxProperties = nil
		}
	}
	if out.DependentRequired != nil && !matrix.dependentRequired {
		codec.Drop(path, "dependentRequired", out.DependentRequired)
		out.DependentRequired = nil
	}
	if out.DependentSchemas != nil && !matrix.dependentSchemas {
		codec.Drop(path, "dependentSchemas", summarizeSchemaMap(out.DependentSchemas))
		out.DependentSchemas = nil
	}
	if !matrix.conditional && (out.If != nil || out.Then != nil || out.Else != nil) {
		codec.Drop(path, "if-then-else", nil)
		out.If, out.Then, out.Else = nil, nil, nil
	}
	if out.Contains != nil && !matrix.contains {
		codec.Drop(path, "contains", out.Contains)
		out.Contains, out.MinContains, out.MaxContains = nil, nil, nil
	}
	if out.UnevaluatedProperties != nil && !matrix.unevaluatedProperties {
		codec.Drop(path, "unevaluatedProperties", out.UnevaluatedProperties)
		out.UnevaluatedProperties = nil
	}
	if out.UnevaluatedItems != nil && !matrix.unevaluatedItems {
		codec.Drop(path, "unevaluatedItems", out.UnevaluatedItems)
		out.UnevaluatedItems = nil
	}
	if out.Not != nil && !matrix.not {
		codec.Drop(path, "not", out.Not)
		out.Not = nil
	}

	return out, nil
}

// pruneEnum enforces JSON-type homogeneity (§4.9): a heterogeneous enum
// fails the convert call unless coerceEnum is set, in which case every
// member is stringified and the coercion is recorded as a dropped
// constraint. Surviving enums are reordered so any matching default sorts
// first, then original order.
func pruneEnum(out *schema.Schema, path string, opts *schema.ConvertOptions, codec *schema.Codec) error {
	homogeneous, kind := enumKind(out.Enum)
	if !homogeneous {
		if !opts.CoerceEnum {
			return schema.ErrHeterogeneousEnum.WithPath(path)
		}
		original := make([]any, len(out.Enum))
		copy(original, out.Enum)
		stringified := make([]any, len(out.Enum))
		for i, v := range out.Enum {
			stringified[i] = fmt.Sprintf("%v", v)
		}
		out.Enum = stringified
		out.Type = schema.SchemaType{"string"}
		codec.Drop(path, "enum", original)
	}
	_ = kind

	out.Enum = reorderEnum(out.Enum, out.Default)
	return nil
}

// enumKind reports whether every member shares one JSON decoded Go type,
// and which.
func enumKind(enum []any) (bool, string) {
	if len(enum) == 0 {
		return true, ""
	}
	kind := jsonKind(enum[0])
	for _, v := range enum[1:] {
		if jsonKind(v) != kind {
			return false, ""
		}
	}
	return true, kind
}

func jsonKind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case string:
		return "string"
	case float64, int, int64:
		return "number"
	default:
		return "other"
	}
}

func reorderEnum(enum []any, def any) []any {
	if def == nil || len(enum) < 2 {
		return enum
	}
	out := make([]any, 0, len(enum))
	for _, v := range enum {
		if schema.ValueEqual(v, def) {
			out = append([]any{v}, out...)
		} else {
			out = append(out, v)
		}
	}
	return out
}

func summarizeSchemaMap(m map[string]*schema.Schema) []string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
