// Package rehydrate implements the codec-driven inverse interpreter (§4.10):
// given LLM output JSON and the codec a Convert call produced, it replays
// the recorded transforms in reverse to recover data shaped like the
// original (pre-compile) schema, and separately walks the codec's dropped
// constraints to surface advisory warnings about values the compiled
// dialect could no longer enforce itself.
package rehydrate

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-json-experiment/json"

	"github.com/dotslashderek/jsonschema-llm/internal/schema"
)

// omitted is returned by invert to tell the caller (a map/array builder)
// to drop this entry entirely, used when a nullable_optional property
// rehydrates from an explicit null back to "absent".
type omittedMarker struct{}

var omitted = omittedMarker{}

// Rehydrate runs §4.10's five-step algorithm and returns the rebuilt data
// plus the ordered warning sequence. It never fails on data issues — only
// on a codec version mismatch or a malformed codec/data document, both
// caught before this function is reached by the root-level wrapper.
func Rehydrate(data any, codec *schema.Codec, original *schema.Schema, opts *schema.RehydrateOptions) (any, []schema.Warning) {
	warnings := []schema.Warning{}
	index := indexBySchemaPath(codec.Transforms)

	result := invert(data, original, "", "", index, opts, &warnings)
	if result == omitted {
		result = nil
	}

	checkDroppedConstraints(result, original, codec.DroppedConstraints, &warnings)

	return result, warnings
}

// indexBySchemaPath groups transforms by the path they were recorded at,
// since two passes can both record a transform at the identical path (e.g.
// Pass 3's map_to_array and Pass 6's nullable_optional both landing on the
// same optional dictionary-shaped property). Within a path, the list is
// reversed from recording order so the most recently recorded transform —
// the outermost one the compiled schema presents to the LLM — is inverted
// first, mirroring the reverse-insertion-order contract invert documents.
func indexBySchemaPath(transforms []schema.Transform) map[string][]schema.Transform {
	idx := make(map[string][]schema.Transform, len(transforms))
	for _, t := range transforms {
		idx[t.SchemaPath] = append(idx[t.SchemaPath], t)
	}
	for path, list := range idx {
		for i, j := 0, len(list)-1; i < j; i, j = i+1, j-1 {
			list[i], list[j] = list[j], list[i]
		}
		idx[path] = list
	}
	return idx
}

// withRemaining returns a copy of index with path's transform list replaced
// by rest (or removed entirely when rest is empty), leaving every other
// path's list untouched.
func withRemaining(index map[string][]schema.Transform, path string, rest []schema.Transform) map[string][]schema.Transform {
	next := make(map[string][]schema.Transform, len(index))
	for k, v := range index {
		next[k] = v
	}
	if len(rest) == 0 {
		delete(next, path)
	} else {
		next[path] = rest
	}
	return next
}

// invert walks the data tree alongside the ORIGINAL (pre-compile) schema
// tree, re-deriving the compiled schema's shape at schemaPath implicitly
// from the transform index: wherever one or more transforms were recorded
// at a path, the most recently recorded one is inverted first, and the
// remainder is threaded back through invert so a path carrying both a
// Pass 3/4 shape transform and a Pass 6 nullable_optional wrap (the same
// optional dictionary- or opaque-shaped property) unwinds in the reverse
// of the order the passes applied them (§9's pass-ordering note).
func invert(data any, origSchema *schema.Schema, schemaPath, dataPath string, index map[string][]schema.Transform, opts *schema.RehydrateOptions, warnings *[]schema.Warning) any {
	if transforms, ok := index[schemaPath]; ok && len(transforms) > 0 {
		t := transforms[0]
		rest := transforms[1:]
		nextIndex := withRemaining(index, schemaPath, rest)
		return invertTransform(t, data, origSchema, schemaPath, dataPath, nextIndex, opts, warnings)
	}
	return descend(data, origSchema, schemaPath, dataPath, index, opts, warnings)
}

func invertTransform(t schema.Transform, data any, origSchema *schema.Schema, schemaPath, dataPath string, index map[string][]schema.Transform, opts *schema.RehydrateOptions, warnings *[]schema.Warning) any {
	switch t.Kind {
	case schema.TransformJSONStringParse:
		parsed := invertJSONStringParse(data, dataPath, warnings)
		return invert(parsed, origSchema, schemaPath, dataPath, index, opts, warnings)

	case schema.TransformMapToArray:
		return invertMapToArray(data, origSchema, schemaPath, dataPath, t, index, opts, warnings)

	case schema.TransformNullableOptional:
		if data == nil {
			return omitted
		}
		return invert(data, origSchema, schemaPath, dataPath, index, opts, warnings)

	case schema.TransformDiscriminatorAnyOf:
		branch := selectAnyOfBranch(origSchema, data)
		return invert(data, branch, schemaPath, dataPath, index, opts, warnings)

	case schema.TransformExtractAdditionalProperty:
		return invertExtractAdditionalProperties(data, origSchema, schemaPath, dataPath, t, index, opts, warnings)

	case schema.TransformRecursiveInflate:
		if data != nil {
			*warnings = append(*warnings, schema.Warning{
				DataPath:   dataPath,
				SchemaPath: schemaPath,
				Kind:       schema.WarningPathNotFound,
				Message:    "data nests past the recursion limit the schema was compiled with",
			})
		}
		return data

	default:
		return data
	}
}

// invertJSONStringParse undoes Pass 4 (§4.6): the value is a JSON-encoded
// string that must parse back into the original object shape. Recovery
// for markdown fences or surrounding prose mirrors how LLM callers commonly
// post-process raw completions before they ever reach a strict parser.
func invertJSONStringParse(data any, dataPath string, warnings *[]schema.Warning) any {
	str, ok := data.(string)
	if !ok {
		return data
	}

	candidates := []string{str}
	if stripped := stripCodeFences(str); stripped != "" && stripped != str {
		candidates = append(candidates, stripped)
	}
	if extracted := extractJSONCandidate(str); extracted != "" && extracted != str {
		candidates = append(candidates, extracted)
	}

	for _, candidate := range candidates {
		candidate = strings.TrimSpace(candidate)
		if candidate == "" {
			continue
		}
		var parsed any
		if err := json.Unmarshal([]byte(candidate), &parsed); err == nil {
			return parsed
		}
	}

	*warnings = append(*warnings, schema.Warning{
		DataPath:   dataPath,
		Kind:       schema.WarningConstraintUnevaluable,
		Constraint: "json_string_parse",
		Message:    "value did not parse as JSON; returning the literal string",
	})
	return str
}

func stripCodeFences(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "```") {
		return ""
	}
	lines := strings.Split(trimmed, "\n")
	if len(lines) < 2 {
		return ""
	}
	lines = lines[1:]
	if len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "```" {
		lines = lines[:len(lines)-1]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func extractJSONCandidate(content string) string {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return ""
	}
	objectStart := strings.Index(trimmed, "{")
	arrayStart := strings.Index(trimmed, "[")

	start := -1
	closeChar := ""
	switch {
	case objectStart >= 0 && arrayStart >= 0:
		if objectStart < arrayStart {
			start, closeChar = objectStart, "}"
		} else {
			start, closeChar = arrayStart, "]"
		}
	case objectStart >= 0:
		start, closeChar = objectStart, "}"
	case arrayStart >= 0:
		start, closeChar = arrayStart, "]"
	default:
		return ""
	}

	end := strings.LastIndex(trimmed, closeChar)
	if end < start {
		return ""
	}
	return strings.TrimSpace(trimmed[start : end+1])
}

// invertMapToArray undoes Pass 3 (§4.5): an array of {key,value} records
// becomes an object keyed by each entry's key field.
func invertMapToArray(data any, origSchema *schema.Schema, schemaPath, dataPath string, t schema.Transform, index map[string][]schema.Transform, opts *schema.RehydrateOptions, warnings *[]schema.Warning) any {
	arr, ok := data.([]any)
	if !ok {
		return data
	}
	keyField := t.KeyField
	if keyField == "" {
		keyField = "key"
	}
	valueField := t.ValueField
	if valueField == "" {
		valueField = "value"
	}

	out := map[string]any{}
	var valueSchema *schema.Schema
	if origSchema != nil && origSchema.AdditionalProperties != nil {
		valueSchema = origSchema.AdditionalProperties
	}

	for _, entry := range arr {
		rec, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		key, _ := rec[keyField].(string)
		value := rec[valueField]
		childPath := schemaPath + "/items/properties/" + valueField
		childDataPath := dataPath + "/" + key
		out[key] = descend(value, valueSchema, childPath, childDataPath, index, opts, warnings)
	}
	return out
}

// invertExtractAdditionalProperties undoes Pass 6's overflow lift (§4.8):
// the synthesized overflow property's {key,value} records are merged back
// into the object as ordinary keys.
func invertExtractAdditionalProperties(data any, origSchema *schema.Schema, schemaPath, dataPath string, t schema.Transform, index map[string][]schema.Transform, opts *schema.RehydrateOptions, warnings *[]schema.Warning) any {
	obj, ok := data.(map[string]any)
	if !ok {
		return descend(data, origSchema, schemaPath, dataPath, index, opts, warnings)
	}

	out := map[string]any{}
	for k, v := range obj {
		if k == t.PropertyName {
			continue
		}
		out[k] = v
	}

	overflow, _ := obj[t.PropertyName].([]any)
	var valueSchema *schema.Schema
	if origSchema != nil {
		valueSchema = origSchema.AdditionalProperties
	}
	for _, entry := range overflow {
		rec, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		key, _ := rec["key"].(string)
		value := rec["value"]
		out[key] = descend(value, valueSchema, schemaPath+"/additionalProperties", dataPath+"/"+key, index, opts, warnings)
	}

	return descendProperties(out, origSchema, schemaPath, dataPath, index, opts, warnings)
}

// selectAnyOfBranch picks the oneOf/anyOf branch (§4.4) whose declared type
// matches data's JSON kind, falling back to the first branch when no
// declared type discriminates cleanly.
func selectAnyOfBranch(origSchema *schema.Schema, data any) *schema.Schema {
	if origSchema == nil || len(origSchema.OneOf) == 0 {
		return origSchema
	}
	kind := jsonKindOf(data)
	for _, b := range origSchema.OneOf {
		if b.IsBoolean() {
			continue
		}
		if b.Type.Has(kind) {
			return b
		}
	}
	return origSchema.OneOf[0]
}

func jsonKindOf(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case string:
		return "string"
	case float64, int, int64:
		return "number"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return "object"
	}
}

// descend recurses structurally into data/origSchema without itself
// applying any transform, delegating to invert for each child so a
// transform recorded deeper in the tree is still found.
func descend(data any, origSchema *schema.Schema, schemaPath, dataPath string, index map[string][]schema.Transform, opts *schema.RehydrateOptions, warnings *[]schema.Warning) any {
	if origSchema == nil || origSchema.IsBoolean() {
		return data
	}

	switch v := data.(type) {
	case map[string]any:
		return descendProperties(v, origSchema, schemaPath, dataPath, index, opts, warnings)

	case []any:
		if opts != nil && opts.Coerce && origSchema.MaxItems != nil && *origSchema.MaxItems >= 0 && float64(len(v)) > *origSchema.MaxItems {
			v = v[:int(*origSchema.MaxItems)]
		}
		itemSchema := origSchema.Items
		out := make([]any, len(v))
		for i, item := range v {
			childSchema := itemSchema
			if origSchema.PrefixItems != nil && i < len(origSchema.PrefixItems) {
				childSchema = origSchema.PrefixItems[i]
			}
			out[i] = invert(item, childSchema, schemaPath+"/items", dataPath+"/"+strconv.Itoa(i), index, opts, warnings)
		}
		return out

	default:
		return applyCoercion(v, origSchema, opts)
	}
}

func descendProperties(v map[string]any, origSchema *schema.Schema, schemaPath, dataPath string, index map[string][]schema.Transform, opts *schema.RehydrateOptions, warnings *[]schema.Warning) any {
	if origSchema.Properties == nil {
		return v
	}
	out := map[string]any{}
	for k, val := range v {
		propSchema, ok := (*origSchema.Properties)[k]
		if !ok {
			out[k] = val
			continue
		}
		result := invert(val, propSchema, schemaPath+"/properties/"+k, dataPath+"/"+k, index, opts, warnings)
		if result == omitted {
			continue
		}
		out[k] = result
	}
	return out
}

// applyCoercion implements §4.10 step 4 when RehydrateOptions.Coerce is set:
// clamp numbers into [minimum, maximum], truncate strings to maxLength,
// truncate arrays to maxItems (descend truncates arrays before reaching
// here, so only the scalar cases are relevant at this leaf).
func applyCoercion(v any, s *schema.Schema, opts *schema.RehydrateOptions) any {
	if opts == nil || !opts.Coerce || s == nil || s.IsBoolean() {
		return v
	}
	switch n := v.(type) {
	case float64:
		if s.Minimum != nil {
			if min, ok := ratFloat(s.Minimum); ok && n < min {
				n = min
			}
		}
		if s.Maximum != nil {
			if max, ok := ratFloat(s.Maximum); ok && n > max {
				n = max
			}
		}
		return n
	case string:
		if s.MaxLength != nil && float64(len([]rune(n))) > *s.MaxLength {
			runes := []rune(n)
			return string(runes[:int(*s.MaxLength)])
		}
		return n
	default:
		return v
	}
}

func ratFloat(r *schema.Rat) (float64, bool) {
	if r == nil || r.Rat == nil {
		return 0, false
	}
	f, _ := r.Float64()
	return f, true
}

// checkDroppedConstraints implements §4.10 step 3: for each dropped
// constraint, locate the rehydrated value at its projected data path and
// evaluate the constraint predicate, emitting a warning on violation or
// when the predicate cannot be evaluated at all.
func checkDroppedConstraints(data any, original *schema.Schema, dropped []schema.DroppedConstraint, warnings *[]schema.Warning) {
	for _, dc := range dropped {
		dataPath := schemaPointerToDataPath(dc.Path)
		value, found := lookupDataPath(data, dataPath)
		if !found {
			*warnings = append(*warnings, schema.Warning{
				DataPath:   dataPath,
				SchemaPath: dc.Path,
				Kind:       schema.WarningPathNotFound,
				Constraint: dc.Constraint,
				Message:    "dropped constraint's location is absent from the rehydrated data",
			})
			continue
		}
		evaluateDropped(dc, value, dataPath, warnings)
	}
}

// schemaPointerToDataPath strips schema-shape segments a JSON Pointer into
// the compiled schema carries (properties/, items/, prefixItems/, and
// $defs/<name>/ and anyOf/allOf/oneOf/<index>/ together with their name or
// branch index) so the remaining tokens index into the data tree directly.
func schemaPointerToDataPath(schemaPointer string) string {
	if schemaPointer == "" {
		return ""
	}
	tokens := strings.Split(strings.TrimPrefix(schemaPointer, "/"), "/")
	out := make([]string, 0, len(tokens))
	skipNext := false
	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]
		if skipNext {
			skipNext = false
			continue
		}
		switch tok {
		case "properties", "items", "prefixItems":
			continue
		case "$defs", "definitions", "anyOf", "allOf", "oneOf":
			skipNext = true
			continue
		default:
			out = append(out, tok)
		}
	}
	return "/" + strings.Join(out, "/")
}

func lookupDataPath(data any, path string) (any, bool) {
	if path == "" || path == "/" {
		return data, true
	}
	tokens := strings.Split(strings.TrimPrefix(path, "/"), "/")
	cur := data
	for _, tok := range tokens {
		switch v := cur.(type) {
		case map[string]any:
			next, ok := v[tok]
			if !ok {
				return nil, false
			}
			cur = next
		case []any:
			i, err := strconv.Atoi(tok)
			if err != nil || i < 0 || i >= len(v) {
				return nil, false
			}
			cur = v[i]
		default:
			return nil, false
		}
	}
	return cur, true
}

func evaluateDropped(dc schema.DroppedConstraint, value any, dataPath string, warnings *[]schema.Warning) {
	warn := func(kind schema.WarningKind, msg string) {
		*warnings = append(*warnings, schema.Warning{
			DataPath:   dataPath,
			SchemaPath: dc.Path,
			Kind:       kind,
			Constraint: dc.Constraint,
			Message:    msg,
		})
	}

	switch dc.Constraint {
	case "pattern":
		str, ok := value.(string)
		if !ok {
			warn(schema.WarningConstraintUnevaluable, "pattern applies to strings only")
			return
		}
		patternStr, _ := dc.Value.(string)
		re, err := regexp.Compile(patternStr)
		if err != nil {
			warn(schema.WarningConstraintUnevaluable, "pattern is not representable by the runtime regex engine")
			return
		}
		if !re.MatchString(str) {
			warn(schema.WarningConstraintViolation, "value does not match the dropped pattern constraint")
		}

	case "minimum", "maximum":
		n, ok := asFloat(value)
		if !ok {
			warn(schema.WarningConstraintUnevaluable, dc.Constraint+" applies to numbers only")
			return
		}
		bound, ok := asFloat(dc.Value)
		if !ok {
			warn(schema.WarningConstraintUnevaluable, "dropped bound could not be parsed")
			return
		}
		if (dc.Constraint == "minimum" && n < bound) || (dc.Constraint == "maximum" && n > bound) {
			warn(schema.WarningConstraintViolation, "value falls outside the dropped "+dc.Constraint+" constraint")
		}

	case "multipleOf":
		n, ok := asFloat(value)
		factor, fOk := asFloat(dc.Value)
		if !ok || !fOk || factor == 0 {
			warn(schema.WarningConstraintUnevaluable, "multipleOf could not be evaluated")
			return
		}
		quotient := n / factor
		if quotient != float64(int64(quotient)) {
			warn(schema.WarningConstraintViolation, "value is not a multiple of the dropped multipleOf constraint")
		}

	case "uniqueItems":
		arr, ok := value.([]any)
		if !ok {
			warn(schema.WarningConstraintUnevaluable, "uniqueItems applies to arrays only")
			return
		}
		seen := map[string]bool{}
		for _, item := range arr {
			encoded, err := json.Marshal(item)
			if err != nil {
				warn(schema.WarningConstraintUnevaluable, "array item could not be compared for uniqueness")
				return
			}
			if seen[string(encoded)] {
				warn(schema.WarningConstraintViolation, "array has duplicate items but uniqueItems was dropped")
				return
			}
			seen[string(encoded)] = true
		}

	case "minProperties", "maxProperties":
		obj, ok := value.(map[string]any)
		if !ok {
			warn(schema.WarningConstraintUnevaluable, dc.Constraint+" applies to objects only")
			return
		}
		bound, ok := asFloat(dc.Value)
		if !ok {
			warn(schema.WarningConstraintUnevaluable, "dropped bound could not be parsed")
			return
		}
		n := float64(len(obj))
		if (dc.Constraint == "minProperties" && n < bound) || (dc.Constraint == "maxProperties" && n > bound) {
			warn(schema.WarningConstraintViolation, "object size falls outside the dropped "+dc.Constraint+" constraint")
		}

	case "enum":
		members, ok := dc.Value.([]any)
		if !ok {
			warn(schema.WarningConstraintUnevaluable, "coerced enum witness could not be read")
			return
		}
		str, ok := value.(string)
		if !ok {
			warn(schema.WarningConstraintUnevaluable, "coerced enum applies to the stringified value")
			return
		}
		for _, m := range members {
			if str == stringifyEnumMember(m) {
				return
			}
		}
		warn(schema.WarningConstraintViolation, "value is not one of the original enum members")

	default:
		warn(schema.WarningConstraintUnevaluable, dc.Constraint+" has no rehydrate-time predicate in this build")
	}
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// stringifyEnumMember mirrors Pass 7's coercion (fmt.Sprintf("%v", v)) so
// the rehydrator checks the data against the same stringified form the
// compiled schema actually offered the LLM.
func stringifyEnumMember(v any) string {
	return fmt.Sprintf("%v", v)
}
