package pass

import (
	"strconv"
	"strings"

	"github.com/dotslashderek/jsonschema-llm/internal/ref"
	"github.com/dotslashderek/jsonschema-llm/internal/schema"
	"github.com/dotslashderek/jsonschema-llm/internal/traversal"
)

// Normalize runs Pass 0 (§4.2): folds definitions into $defs, closes
// array-form prefixItems tuples, resolves local $ref chains (leaving cycles
// in place for Pass 5), and sorts type arrays alphabetically. It emits no
// codec entries — every step here is fully reversible without a record.
func Normalize(root *schema.Schema, maxDepth int) (*schema.Schema, error) {
	ctx := traversal.NewContext(maxDepth)
	return normalizeNode(root, root, ctx, map[*schema.Schema]bool{})
}

func normalizeNode(n, root *schema.Schema, ctx *traversal.Context, visiting map[*schema.Schema]bool) (*schema.Schema, error) {
	if n == nil || n.IsBoolean() {
		return n, nil
	}
	if err := checkDepth(ctx); err != nil {
		return nil, err
	}
	if visiting[n] {
		// A cycle was already followed into this node during $ref chain
		// resolution; stop descending further, Pass 5 owns cutting cycles.
		return n, nil
	}

	out := n.Clone()

	// Step 1: definitions were already folded into $defs at parse time
	// ($defs wins on collision); copy the map so the writes below do not
	// touch the input tree's map.
	if out.Defs != nil {
		merged := make(map[string]*schema.Schema, len(out.Defs))
		for k, v := range out.Defs {
			merged[k] = v
		}
		out.Defs = merged
	}

	// Step 2: close array-form tuples (already lowered to PrefixItems by
	// unmarshal; here we pin down the "items:false" closing keyword).
	if out.PrefixItems != nil && out.Items == nil {
		out.Items = falseSchema()
	}

	// Step 3: resolve local $ref chains.
	if out.Ref != "" {
		resolved, cyclic, err := resolveChain(out.Ref, root, map[string]bool{})
		if err != nil {
			return nil, err.WithPath(ctx.Pointer())
		}
		if !cyclic {
			ownDefs := out.Defs
			resolvedClone := resolved.Clone()
			resolvedClone.Ref = ""
			if ownDefs != nil {
				merged := make(map[string]*schema.Schema, len(ownDefs)+len(resolvedClone.Defs))
				for k, v := range resolvedClone.Defs {
					merged[k] = v
				}
				for k, v := range ownDefs {
					merged[k] = v
				}
				resolvedClone.Defs = merged
			}
			out = resolvedClone
		}
		// else: leave out.Ref as-is; Pass 5 inlines or cuts it.
	}

	// Step 4: sort type arrays alphabetically.
	out.Type = sortedTypes(out.Type)

	// Recurse into children (depth-first; children normalized, then this
	// node's own transform above already applied).
	visiting[n] = true
	defer delete(visiting, n)

	var err error
	if out.Defs != nil {
		next := make(map[string]*schema.Schema, len(out.Defs))
		for k, v := range out.Defs {
			next[k], err = normalizeNode(v, root, ctx.Child("$defs").Child(k), visiting)
			if err != nil {
				return nil, err
			}
		}
		out.Defs = next
	}
	if out.AllOf, err = normalizeSlice(out.AllOf, root, ctx, "allOf", visiting); err != nil {
		return nil, err
	}
	if out.AnyOf, err = normalizeSlice(out.AnyOf, root, ctx, "anyOf", visiting); err != nil {
		return nil, err
	}
	if out.OneOf, err = normalizeSlice(out.OneOf, root, ctx, "oneOf", visiting); err != nil {
		return nil, err
	}
	if out.PrefixItems, err = normalizeSlice(out.PrefixItems, root, ctx, "prefixItems", visiting); err != nil {
		return nil, err
	}
	if out.Properties != nil {
		next := make(schema.SchemaMap, len(*out.Properties))
		for k, v := range *out.Properties {
			child, cErr := normalizeNode(v, root, ctx.Child("properties").Child(k), visiting)
			if cErr != nil {
				return nil, cErr
			}
			next[k] = child
		}
		out.Properties = &next
	}
	if out.PatternProperties != nil {
		next := make(schema.SchemaMap, len(*out.PatternProperties))
		for k, v := range *out.PatternProperties {
			child, cErr := normalizeNode(v, root, ctx.Child("patternProperties").Child(k), visiting)
			if cErr != nil {
				return nil, cErr
			}
			next[k] = child
		}
		out.PatternProperties = &next
	}
	if out.DependentSchemas != nil {
		next := make(map[string]*schema.Schema, len(out.DependentSchemas))
		for k, v := range out.DependentSchemas {
			child, cErr := normalizeNode(v, root, ctx.Child("dependentSchemas").Child(k), visiting)
			if cErr != nil {
				return nil, cErr
			}
			next[k] = child
		}
		out.DependentSchemas = next
	}

	for _, c := range namedChildren(out) {
		child := c.get()
		if child == nil {
			continue
		}
		next, cErr := normalizeNode(child, root, ctx.Child(c.token), visiting)
		if cErr != nil {
			return nil, cErr
		}
		c.set(next)
	}

	return out, nil
}

func normalizeSlice(items []*schema.Schema, root *schema.Schema, ctx *traversal.Context, token string, visiting map[*schema.Schema]bool) ([]*schema.Schema, error) {
	if items == nil {
		return nil, nil
	}
	next := make([]*schema.Schema, len(items))
	childCtx := ctx.Child(token)
	for i, item := range items {
		n, err := normalizeNode(item, root, childCtx.Child(strconv.Itoa(i)), visiting)
		if err != nil {
			return nil, err
		}
		next[i] = n
	}
	return next, nil
}

// resolveChain follows a local $ref to its terminal subtree, chaining
// through further $refs up to the stack's visited set; a repeated target
// signals a cycle, left for Pass 5 to cut (§4.2 step 3).
func resolveChain(r string, root *schema.Schema, visited map[string]bool) (*schema.Schema, bool, *schema.Error) {
	if !strings.HasPrefix(r, "#") {
		return nil, false, schema.ErrRemoteRefUnsupported
	}
	if visited[r] {
		return nil, true, nil
	}
	visited[r] = true

	target, err := ref.Resolve(root, r)
	if err != nil {
		if e, ok := err.(*schema.Error); ok {
			return nil, false, e
		}
		return nil, false, schema.ErrRefNotFound
	}

	if target.Ref != "" {
		return resolveChain(target.Ref, root, visited)
	}
	return target, false, nil
}
