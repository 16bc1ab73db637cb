package pass

import (
	"github.com/dotslashderek/jsonschema-llm/internal/schema"
	"github.com/dotslashderek/jsonschema-llm/internal/traversal"
)

// MergeAllOf runs Pass 1 (§4.3). Every node's children are merged first
// (depth-first), then an allOf at this node's own position is folded into
// it by intersection — the tightest-wins counterpart of the teacher's
// schemamerge.go, which instead computes a union/superset merge for
// "matches either schema" semantics; allOf means "matches every schema", so
// every comparison direction below is flipped from schemamerge.go's.
func MergeAllOf(root *schema.Schema) (*schema.Schema, error) {
	ctx := traversal.NewContext(1 << 20)
	return mergeAllOfNode(root, ctx)
}

func mergeAllOfNode(n *schema.Schema, ctx *traversal.Context) (*schema.Schema, error) {
	if n == nil || n.IsBoolean() {
		return n, nil
	}

	out := n.Clone()
	var err error

	if out.Defs != nil {
		next := make(map[string]*schema.Schema, len(out.Defs))
		for k, v := range out.Defs {
			if next[k], err = mergeAllOfNode(v, ctx.Child("$defs").Child(k)); err != nil {
				return nil, err
			}
		}
		out.Defs = next
	}
	if out.AnyOf, err = mergeAllOfSlice(out.AnyOf, ctx, "anyOf"); err != nil {
		return nil, err
	}
	if out.OneOf, err = mergeAllOfSlice(out.OneOf, ctx, "oneOf"); err != nil {
		return nil, err
	}
	if out.PrefixItems, err = mergeAllOfSlice(out.PrefixItems, ctx, "prefixItems"); err != nil {
		return nil, err
	}
	if out.Properties != nil {
		next := make(schema.SchemaMap, len(*out.Properties))
		for k, v := range *out.Properties {
			c, e := mergeAllOfNode(v, ctx.Child("properties").Child(k))
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
			c, e := mergeAllOfNode(v, ctx.Child("patternProperties").Child(k))
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
			c, e := mergeAllOfNode(v, ctx.Child("dependentSchemas").Child(k))
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
		next, e := mergeAllOfNode(child, ctx.Child(c.token))
		if e != nil {
			return nil, e
		}
		c.set(next)
	}

	// Merge this node's own allOf branches: each branch is first merged
	// recursively here, then the results are folded into the node.
	mergedAllOf := make([]*schema.Schema, len(out.AllOf))
	for i, branch := range out.AllOf {
		m, e := mergeAllOfNode(branch, ctx.Child("allOf").Child(idx(i)))
		if e != nil {
			return nil, e
		}
		mergedAllOf[i] = m
	}

	if len(mergedAllOf) == 0 {
		return out, nil
	}

	result := out.Clone()
	result.AllOf = nil
	for _, branch := range mergedAllOf {
		var mergeErr *schema.Error
		result, mergeErr = intersectSchemas(result, branch, ctx)
		if mergeErr != nil {
			return nil, mergeErr
		}
	}
	return result, nil
}

func mergeAllOfSlice(items []*schema.Schema, ctx *traversal.Context, token string) ([]*schema.Schema, error) {
	if items == nil {
		return nil, nil
	}
	next := make([]*schema.Schema, len(items))
	childCtx := ctx.Child(token)
	for i, item := range items {
		m, err := mergeAllOfNode(item, childCtx.Child(idx(i)))
		if err != nil {
			return nil, err
		}
		next[i] = m
	}
	return next, nil
}

// intersectSchemas combines a and b under "matches both" semantics (§4.3).
func intersectSchemas(a, b *schema.Schema, ctx *traversal.Context) (*schema.Schema, *schema.Error) {
	if a.IsBoolean() || b.IsBoolean() {
		// false intersected with anything is false; true intersected with
		// anything is the other operand.
		if a.IsBoolean() && !a.BoolValue() {
			return a, nil
		}
		if b.IsBoolean() && !b.BoolValue() {
			return b, nil
		}
		if a.IsBoolean() {
			return b, nil
		}
		return a, nil
	}

	out := &schema.Schema{}

	if a.Type != nil || b.Type != nil {
		merged := intersectTypes(a.Type, b.Type)
		if a.Type != nil && b.Type != nil && len(merged) == 0 {
			return nil, schema.ErrEmptyTypeIntersection.WithPath(ctx.Pointer())
		}
		out.Type = sortedTypes(merged)
	}

	out.Properties = mergePropertiesIntersect(a.Properties, b.Properties, ctx)
	out.Required = unionStrings(a.Required, b.Required)
	out.AdditionalProperties = intersectAdditionalProperties(a.AdditionalProperties, b.AdditionalProperties, ctx)

	out.Minimum = chooseMax(a.Minimum, b.Minimum)
	out.ExclusiveMinimum = chooseMax(a.ExclusiveMinimum, b.ExclusiveMinimum)
	out.Maximum = chooseMin(a.Maximum, b.Maximum)
	out.ExclusiveMaximum = chooseMin(a.ExclusiveMaximum, b.ExclusiveMaximum)
	out.MultipleOf = chooseNonNil(a.MultipleOf, b.MultipleOf)

	out.MinLength = chooseMaxFloat(a.MinLength, b.MinLength)
	out.MaxLength = chooseMinFloat(a.MaxLength, b.MaxLength)
	out.Pattern = chooseNonNilString(a.Pattern, b.Pattern)

	out.MinItems = chooseMaxFloat(a.MinItems, b.MinItems)
	out.MaxItems = chooseMinFloat(a.MaxItems, b.MaxItems)
	out.UniqueItems = chooseBoolOr(a.UniqueItems, b.UniqueItems)
	out.MinProperties = chooseMaxFloat(a.MinProperties, b.MinProperties)
	out.MaxProperties = chooseMinFloat(a.MaxProperties, b.MaxProperties)

	out.Items = chooseNonNilSchema(a.Items, b.Items)
	out.PrefixItems = chooseNonNilSlice(a.PrefixItems, b.PrefixItems)
	out.Contains = chooseNonNilSchema(a.Contains, b.Contains)
	out.PropertyNames = chooseNonNilSchema(a.PropertyNames, b.PropertyNames)
	out.PatternProperties = mergePatternPropertiesUnion(a.PatternProperties, b.PatternProperties)
	out.DependentRequired = mergeDependentRequired(a.DependentRequired, b.DependentRequired)
	out.DependentSchemas = mergeDependentSchemas(a.DependentSchemas, b.DependentSchemas)

	out.If, out.Then, out.Else = chooseConditional(a, b)
	out.Not = chooseNonNilSchema(a.Not, b.Not)
	out.Contains = chooseNonNilSchema(a.Contains, b.Contains)
	out.UnevaluatedItems = chooseNonNilSchema(a.UnevaluatedItems, b.UnevaluatedItems)
	out.UnevaluatedProperties = chooseNonNilSchema(a.UnevaluatedProperties, b.UnevaluatedProperties)

	if a.Enum != nil && b.Enum != nil {
		out.Enum = intersectEnums(a.Enum, b.Enum)
	} else if a.Enum != nil {
		out.Enum = a.Enum
	} else {
		out.Enum = b.Enum
	}

	if a.Const != nil {
		out.Const = a.Const
	} else if b.Const != nil {
		out.Const = b.Const
	}

	out.Format = chooseNonNilString(a.Format, b.Format)
	out.Description = chooseNonNilString(a.Description, b.Description)
	out.Title = chooseNonNilString(a.Title, b.Title)
	out.Default = chooseNonNilAny(a.Default, b.Default)

	out.Extra = mergeExtra(a.Extra, b.Extra)

	return out, nil
}

func intersectTypes(a, b schema.SchemaType) schema.SchemaType {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	set := map[string]bool{}
	for _, t := range b {
		set[t] = true
	}
	var out schema.SchemaType
	for _, t := range a {
		if set[t] {
			out = append(out, t)
		}
	}
	return out
}

func unionStrings(a, b []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, s := range a {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	for _, s := range b {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

func mergePropertiesIntersect(a, b *schema.SchemaMap, ctx *traversal.Context) *schema.SchemaMap {
	if a == nil && b == nil {
		return nil
	}
	out := make(schema.SchemaMap)
	if a != nil {
		for k, v := range *a {
			out[k] = v
		}
	}
	if b != nil {
		for k, v := range *b {
			if existing, ok := out[k]; ok {
				merged, err := intersectSchemas(existing, v, ctx.Child("properties").Child(k))
				if err == nil {
					out[k] = merged
					continue
				}
			}
			out[k] = v
		}
	}
	return &out
}

func intersectAdditionalProperties(a, b *schema.Schema, ctx *traversal.Context) *schema.Schema {
	if a != nil && a.IsBoolean() && !a.BoolValue() {
		return a
	}
	if b != nil && b.IsBoolean() && !b.BoolValue() {
		return b
	}
	if a != nil && b != nil {
		merged, err := intersectSchemas(a, b, ctx.Child("additionalProperties"))
		if err == nil {
			return merged
		}
		return a
	}
	return chooseNonNilSchema(a, b)
}

func mergePatternPropertiesUnion(a, b *schema.SchemaMap) *schema.SchemaMap {
	if a == nil && b == nil {
		return nil
	}
	out := make(schema.SchemaMap)
	if a != nil {
		for k, v := range *a {
			out[k] = v
		}
	}
	if b != nil {
		for k, v := range *b {
			out[k] = v
		}
	}
	return &out
}

func mergeDependentRequired(a, b map[string][]string) map[string][]string {
	if a == nil && b == nil {
		return nil
	}
	out := map[string][]string{}
	for k, v := range a {
		out[k] = v
	}
	for k, v := range b {
		out[k] = unionStrings(out[k], v)
	}
	return out
}

func mergeDependentSchemas(a, b map[string]*schema.Schema) map[string]*schema.Schema {
	if a == nil && b == nil {
		return nil
	}
	out := map[string]*schema.Schema{}
	for k, v := range a {
		out[k] = v
	}
	for k, v := range b {
		out[k] = v
	}
	return out
}

func chooseConditional(a, b *schema.Schema) (*schema.Schema, *schema.Schema, *schema.Schema) {
	if a.If != nil {
		return a.If, a.Then, a.Else
	}
	return b.If, b.Then, b.Else
}

func intersectEnums(a, b []any) []any {
	var out []any
	for _, v := range a {
		for _, w := range b {
			if schema.ValueEqual(v, w) {
				out = append(out, v)
				break
			}
		}
	}
	return out
}

func mergeExtra(a, b map[string]any) map[string]any {
	if a == nil && b == nil {
		return nil
	}
	out := map[string]any{}
	for k, v := range a {
		out[k] = v
	}
	for k, v := range b {
		out[k] = v
	}
	return out
}

func chooseMax(a, b *schema.Rat) *schema.Rat {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	if a.Cmp(b.Rat) >= 0 {
		return a
	}
	return b
}

func chooseMin(a, b *schema.Rat) *schema.Rat {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	if a.Cmp(b.Rat) <= 0 {
		return a
	}
	return b
}

func chooseNonNil(a, b *schema.Rat) *schema.Rat {
	if a != nil {
		return a
	}
	return b
}

func chooseMaxFloat(a, b *float64) *float64 {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	if *a >= *b {
		return a
	}
	return b
}

func chooseMinFloat(a, b *float64) *float64 {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	if *a <= *b {
		return a
	}
	return b
}

func chooseNonNilString(a, b *string) *string {
	if a != nil {
		return a
	}
	return b
}

func chooseNonNilAny(a, b any) any {
	if a != nil {
		return a
	}
	return b
}

func chooseNonNilSchema(a, b *schema.Schema) *schema.Schema {
	if a != nil {
		return a
	}
	return b
}

func chooseNonNilSlice(a, b []*schema.Schema) []*schema.Schema {
	if a != nil {
		return a
	}
	return b
}

func chooseBoolOr(a, b *bool) *bool {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	v := *a || *b
	return &v
}
