package schema

import "fmt"

// ErrorCode identifies the category of a structural failure returned by
// Convert or Rehydrate. Unlike Warning, an Error always aborts the call.
type ErrorCode string

const (
	ErrCodeJSONParse           ErrorCode = "json_parse_error"
	ErrCodeSchemaError         ErrorCode = "schema_error"
	ErrCodeRecursionDepth      ErrorCode = "recursion_depth_exceeded"
	ErrCodeUnsupportedFeature  ErrorCode = "unsupported_feature"
	ErrCodeUnresolvableRef     ErrorCode = "unresolvable_ref"
	ErrCodeRehydrationError    ErrorCode = "rehydration_error"
	ErrCodeCodecVersionMismatch ErrorCode = "codec_version_mismatch"
)

// Error is the structural failure envelope returned by Convert/Rehydrate
// (§6.3): a machine-readable code, a message, and an optional JSON Pointer
// into the input that the failure concerns.
type Error struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Path    *string   `json:"path,omitempty"`
}

func (e *Error) Error() string {
	if e.Path != nil {
		return fmt.Sprintf("%s: %s (at %s)", e.Code, e.Message, *e.Path)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// WithPath returns a copy of e with Path set, used by callers that catch a
// sentinel error deep in a pass and need to attach the offending location
// before it crosses the public Convert/Rehydrate boundary.
func (e *Error) WithPath(path string) *Error {
	cp := *e
	cp.Path = &path
	return &cp
}

// Sentinel errors. Each is wrapped into an *Error with a path attached at
// the call site that has the contextual location.
var (
	// Schema tree structure errors.
	ErrInvalidSchemaType  = newSentinel(ErrCodeSchemaError, "type must be a string or an array of strings")
	ErrNilConstValue      = newSentinel(ErrCodeSchemaError, "const value receiver is nil")
	ErrUnsupportedRatType = newSentinel(ErrCodeSchemaError, "numeric keyword value has an unsupported JSON type")
	ErrInvalidRatValue    = newSentinel(ErrCodeSchemaError, "numeric keyword value could not be parsed as a rational number")

	// Composition errors (§4.3).
	ErrEmptyTypeIntersection = newSentinel(ErrCodeSchemaError, "allOf branches have no type in common")

	// Reference resolution errors (§4.2 step 3).
	ErrRemoteRefUnsupported = newSentinel(ErrCodeUnresolvableRef, "remote $ref is not supported; only local #/ pointers resolve")
	ErrRefNotFound          = newSentinel(ErrCodeUnresolvableRef, "$ref does not resolve to a schema in the document")
	ErrMalformedRef         = newSentinel(ErrCodeUnresolvableRef, "$ref is not a well-formed JSON Pointer")

	// Traversal / recursion errors (§4.1, §4.7).
	ErrDepthExceeded = newSentinel(ErrCodeRecursionDepth, "schema depth exceeds the configured depth guard")

	// Feature support errors (§4.8, §4.9).
	ErrUnsupportedKeyword  = newSentinel(ErrCodeUnsupportedFeature, "keyword has no representation in the target dialect and cannot be pruned safely")
	ErrHeterogeneousEnum   = newSentinel(ErrCodeUnsupportedFeature, "enum mixes JSON types; set coerceEnum to stringify and continue")

	// Self-check errors (§C.1).
	ErrSelfCheckFailed = newSentinel(ErrCodeSchemaError, "produced schema failed the post-pipeline self-check")

	// Rehydration errors (§4.10).
	ErrCodecVersionMismatch = newSentinel(ErrCodeCodecVersionMismatch, "codec $schema does not match the version this rehydrator understands")
	ErrMalformedCodec       = newSentinel(ErrCodeRehydrationError, "codec record is malformed or references a path outside the schema")
	ErrMalformedData        = newSentinel(ErrCodeRehydrationError, "data could not be parsed as JSON")
)

func newSentinel(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}
