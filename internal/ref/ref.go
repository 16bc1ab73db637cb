// Package ref resolves local JSON Pointer "$ref" values ("#/...") against a
// document's own tree, following the segment-by-keyword lookup the teacher's
// resolveJSONPointer/findSchemaInSegment pair uses, trimmed to the keywords
// this model carries and with no remote-URI or anchor resolution (the core
// is local-$ref only; §4.2 step 3).
package ref

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/kaptinlin/jsonpointer"

	"github.com/dotslashderek/jsonschema-llm/internal/schema"
)

// IsLocal reports whether ref is a local "#/..." or bare "#" pointer.
func IsLocal(r string) bool {
	return r == "#" || strings.HasPrefix(r, "#/")
}

// Resolve follows a local $ref string against root, returning the pointed-at
// subtree. Anything other than "#" or a "#/..." pointer is rejected with
// ErrRemoteRefUnsupported.
func Resolve(root *schema.Schema, r string) (*schema.Schema, error) {
	if r == "#" {
		return root, nil
	}
	if !strings.HasPrefix(r, "#/") {
		return nil, schema.ErrRemoteRefUnsupported
	}
	return resolveJSONPointer(root, r[1:])
}

func resolveJSONPointer(root *schema.Schema, pointer string) (*schema.Schema, error) {
	if pointer == "" || pointer == "/" {
		return root, nil
	}

	segments := jsonpointer.Parse(pointer)
	current := root
	previous := ""

	for i, segment := range segments {
		decoded, err := url.PathUnescape(segment)
		if err != nil {
			return nil, schema.ErrMalformedRef
		}

		next, found := step(current, decoded, previous)
		if !found {
			if i == len(segments)-1 {
				return nil, schema.ErrRefNotFound
			}
			return nil, schema.ErrRefNotFound
		}
		// A container keyword is followed by its key or index; after any
		// other step the next segment names a keyword of the schema reached.
		wasKeyword := previous == ""
		current = next
		previous = ""
		if wasKeyword {
			switch decoded {
			case "properties", "patternProperties", "prefixItems", "allOf", "anyOf", "oneOf", "$defs", "definitions":
				previous = decoded
			}
		}
	}

	return current, nil
}

// step advances one JSON Pointer segment given the keyword that preceded it,
// mirroring the teacher's findSchemaInSegment switch but scoped to the
// keywords this model's Schema struct carries.
func step(current *schema.Schema, segment, previous string) (*schema.Schema, bool) {
	switch previous {
	case "properties":
		if current.Properties != nil {
			if s, ok := (*current.Properties)[segment]; ok {
				return s, true
			}
		}
	case "patternProperties":
		if current.PatternProperties != nil {
			if s, ok := (*current.PatternProperties)[segment]; ok {
				return s, true
			}
		}
	case "prefixItems":
		idx, err := strconv.Atoi(segment)
		if err == nil && current.PrefixItems != nil && idx >= 0 && idx < len(current.PrefixItems) {
			return current.PrefixItems[idx], true
		}
	case "allOf":
		idx, err := strconv.Atoi(segment)
		if err == nil && idx >= 0 && idx < len(current.AllOf) {
			return current.AllOf[idx], true
		}
	case "anyOf":
		idx, err := strconv.Atoi(segment)
		if err == nil && idx >= 0 && idx < len(current.AnyOf) {
			return current.AnyOf[idx], true
		}
	case "oneOf":
		idx, err := strconv.Atoi(segment)
		if err == nil && idx >= 0 && idx < len(current.OneOf) {
			return current.OneOf[idx], true
		}
	case "$defs", "definitions":
		if def, ok := current.Defs[segment]; ok {
			return def, true
		}
	case "items":
		if current.Items != nil {
			return current.Items, true
		}
	case "":
		return stepRoot(current, segment)
	}
	return nil, false
}

// stepRoot handles the first segment of a pointer, where "previous" carries
// no keyword context yet — the segment itself names the top-level keyword.
func stepRoot(current *schema.Schema, segment string) (*schema.Schema, bool) {
	switch segment {
	case "properties", "patternProperties", "prefixItems", "allOf", "anyOf", "oneOf", "$defs", "definitions":
		// These are containers, not schemas themselves; the caller's next
		// loop iteration will index into them using this segment as the
		// "previous" keyword. Returning current unchanged lets step()
		// dispatch correctly since only "previous" matters for container
		// keywords.
		return current, true
	case "items":
		if current.Items != nil {
			return current.Items, true
		}
	case "additionalProperties":
		if current.AdditionalProperties != nil {
			return current.AdditionalProperties, true
		}
	case "propertyNames":
		if current.PropertyNames != nil {
			return current.PropertyNames, true
		}
	case "contains":
		if current.Contains != nil {
			return current.Contains, true
		}
	case "not":
		if current.Not != nil {
			return current.Not, true
		}
	case "if":
		if current.If != nil {
			return current.If, true
		}
	case "then":
		if current.Then != nil {
			return current.Then, true
		}
	case "else":
		if current.Else != nil {
			return current.Else, true
		}
	}
	return nil, false
}
