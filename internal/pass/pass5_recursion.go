package pass

import (
	intref "github.com/dotslashderek/jsonschema-llm/internal/ref"
	"github.com/dotslashderek/jsonschema-llm/internal/schema"
	"github.com/dotslashderek/jsonschema-llm/internal/traversal"
)

// InlineRecursion runs Pass 5 (§4.7), top-down. By the time this pass runs,
// Pass 0 has already resolved every acyclic local $ref, so any $ref
// remaining in the tree is part of a cycle. Each remaining $ref target is
// inlined up to recursionLimit times along its own descent path, then cut
// with a terminal placeholder and a recursive_inflate record.
func InlineRecursion(root *schema.Schema, maxDepth, recursionLimit int) (*schema.Schema, *schema.Codec, error) {
	codec := schema.NewCodec()
	ctx := traversal.NewContext(maxDepth)
	out, err := inlineNode(root, root, ctx, map[string]int{}, recursionLimit, codec)
	return out, codec, err
}

// InlineRecursionInto is like InlineRecursion but appends into an existing
// codec rather than returning a fresh one, for use inside the Convert
// orchestrator's single shared codec.
func InlineRecursionInto(root *schema.Schema, maxDepth, recursionLimit int, codec *schema.Codec) (*schema.Schema, error) {
	ctx := traversal.NewContext(maxDepth)
	return inlineNode(root, root, ctx, map[string]int{}, recursionLimit, codec)
}

func inlineNode(n, root *schema.Schema, ctx *traversal.Context, stack map[string]int, limit int, codec *schema.Codec) (*schema.Schema, error) {
	if n == nil || n.IsBoolean() {
		return n, nil
	}
	if err := checkDepth(ctx); err != nil {
		return nil, err
	}

	if n.Ref != "" {
		count := stack[n.Ref]
		if count < limit {
			target, err := intref.Resolve(root, n.Ref)
			if err != nil {
				if e, ok := err.(*schema.Error); ok {
					return nil, e.WithPath(ctx.Pointer())
				}
				return nil, schema.ErrRefNotFound.WithPath(ctx.Pointer())
			}
			stack[n.Ref] = count + 1
			resolved := target.Clone()
			resolved.Ref = ""
			result, err := inlineNode(resolved, root, ctx, stack, limit, codec)
			stack[n.Ref] = count
			return result, err
		}

		target, err := intref.Resolve(root, n.Ref)
		placeholder := nullTypeSchema()
		if err == nil && target != nil && !target.IsBoolean() && !target.Type.Has("object") && !target.Type.Has("array") && len(target.Type) > 0 {
			placeholder = &schema.Schema{}
		}
		codec.Append(schema.Transform{
			Kind:        schema.TransformRecursiveInflate,
			SchemaPath:  ctx.Pointer(),
			OriginalRef: n.Ref,
		})
		return placeholder, nil
	}

	out := n.Clone()
	err := walkChildrenGeneric(out, ctx, func(child *schema.Schema, c *traversal.Context) (*schema.Schema, error) {
		return inlineNode(child, root, c, stack, limit, codec)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
