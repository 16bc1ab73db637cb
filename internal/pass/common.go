// Package pass implements the eight ordered compiler passes (§4.2–§4.9).
// Each pass is a pure (tree, codec) → (tree, codec) transform, invoked in a
// fixed sequence by the root package's Convert orchestrator. No pass calls
// another; sequencing lives entirely in the orchestrator, per §9's "no
// dynamic dispatch across passes" design note.
package pass

import (
	"sort"
	"strconv"

	"github.com/dotslashderek/jsonschema-llm/internal/schema"
	"github.com/dotslashderek/jsonschema-llm/internal/traversal"
)

// idx renders an array index as a JSON Pointer token.
func idx(i int) string { return strconv.Itoa(i) }

// falseSchema returns a fresh boolean-false schema node, used wherever a
// pass needs to assert "nothing may appear here" (closed tuples, recursion
// cutoffs).
func falseSchema() *schema.Schema {
	f := false
	return &schema.Schema{Boolean: &f}
}

// trueSchema returns a fresh boolean-true schema node.
func trueSchema() *schema.Schema {
	t := true
	return &schema.Schema{Boolean: &t}
}

// nullTypeSchema returns {"type": "null"}, the Pass 5 recursion cutoff
// placeholder for object/array targets.
func nullTypeSchema() *schema.Schema {
	return &schema.Schema{Type: schema.SchemaType{"null"}}
}

// sortedTypes returns a copy of t in alphabetical order (§4.2 step 4).
func sortedTypes(t schema.SchemaType) schema.SchemaType {
	if len(t) < 2 {
		return t
	}
	out := make(schema.SchemaType, len(t))
	copy(out, t)
	sort.Strings(out)
	return out
}

// checkDepth returns ErrDepthExceeded, with ctx's pointer attached as its
// path, when ctx has walked past its configured MaxDepth.
func checkDepth(ctx *traversal.Context) error {
	if ctx.DepthExceeded() {
		return schema.ErrDepthExceeded.WithPath(ctx.Pointer())
	}
	return nil
}

// childRef is one single-valued schema child slot of a node: the JSON
// Pointer token that reaches it plus a getter and a setter, mirroring the
// teacher's initializeNestedSchemasCore enumeration. get returns nil for an
// unset slot; callers skip nil children themselves.
type childRef struct {
	token string
	get   func() *schema.Schema
	set   func(*schema.Schema)
}

// namedChildren returns every single-valued schema child (skips
// collection-valued ones: AllOf/AnyOf/OneOf/PrefixItems/Defs/Properties/
// PatternProperties/DependentSchemas, which passes handle with their own
// loops since they need the map/slice key or index as the pointer token).
func namedChildren(n *schema.Schema) []childRef {
	return []childRef{
		{"not", func() *schema.Schema { return n.Not }, func(c *schema.Schema) { n.Not = c }},
		{"if", func() *schema.Schema { return n.If }, func(c *schema.Schema) { n.If = c }},
		{"then", func() *schema.Schema { return n.Then }, func(c *schema.Schema) { n.Then = c }},
		{"else", func() *schema.Schema { return n.Else }, func(c *schema.Schema) { n.Else = c }},
		{"items", func() *schema.Schema { return n.Items }, func(c *schema.Schema) { n.Items = c }},
		{"contains", func() *schema.Schema { return n.Contains }, func(c *schema.Schema) { n.Contains = c }},
		{"additionalProperties", func() *schema.Schema { return n.AdditionalProperties }, func(c *schema.Schema) { n.AdditionalProperties = c }},
		{"propertyNames", func() *schema.Schema { return n.PropertyNames }, func(c *schema.Schema) { n.PropertyNames = c }},
		{"unevaluatedItems", func() *schema.Schema { return n.UnevaluatedItems }, func(c *schema.Schema) { n.UnevaluatedItems = c }},
		{"unevaluatedProperties", func() *schema.Schema { return n.UnevaluatedProperties }, func(c *schema.Schema) { n.UnevaluatedProperties = c }},
		{"contentSchema", func() *schema.Schema { return n.ContentSchema }, func(c *schema.Schema) { n.ContentSchema = c }},
	}
}
