// Package traversal provides the depth-first, clone-on-write descent context
// shared by every compiler pass. It owns the one piece of mutable state a
// pass thread needs beyond the tree itself: the current JSON Pointer path
// and the depth guard.
package traversal

import "github.com/kaptinlin/jsonpointer"

// Context is carried down the tree during a pass's descent. It is cheap to
// copy; Child returns a new Context rather than mutating the receiver so
// sibling branches never see each other's path.
type Context struct {
	tokens   []string
	Depth    int
	MaxDepth int
}

// NewContext starts a traversal rooted at the document root ("").
func NewContext(maxDepth int) *Context {
	return &Context{MaxDepth: maxDepth}
}

// Child returns the context for descending into the named keyword position.
func (c *Context) Child(token string) *Context {
	next := make([]string, len(c.tokens), len(c.tokens)+1)
	copy(next, c.tokens)
	next = append(next, token)
	return &Context{tokens: next, Depth: c.Depth + 1, MaxDepth: c.MaxDepth}
}

// Pointer renders the current location as an RFC 6901 JSON Pointer.
func (c *Context) Pointer() string {
	if len(c.tokens) == 0 {
		return ""
	}
	return jsonpointer.Format(c.tokens...)
}

// DepthExceeded reports whether the context has walked past MaxDepth.
// Pass 0 and Pass 5 call this (through checkDepth) on each descent step.
// No minimum is enforced here; NewConvertOptions accepts any non-negative
// maxDepth, including 0.
func (c *Context) DepthExceeded() bool {
	return c.Depth > c.MaxDepth
}
