package schema

// WarningKind tags the reason a Warning was emitted during rehydration
// (§6.4). Unlike Error, a Warning never aborts the call.
type WarningKind string

const (
	// WarningConstraintViolation means the data at DataPath violates a
	// constraint that Pass 7 dropped from the schema, recorded in a
	// droppedConstraints codec entry.
	WarningConstraintViolation WarningKind = "constraint_violation"

	// WarningConstraintUnevaluable means the dropped constraint could not
	// be checked against the rehydrated value (e.g. a pattern the runtime
	// regex engine rejects, or a value of the wrong shape to evaluate it
	// against at all).
	WarningConstraintUnevaluable WarningKind = "constraint_unevaluable"

	// WarningPathNotFound means the codec or original schema refers to a
	// location that the rehydrated data does not have, e.g. a recursion
	// depth cut off before the data's actual nesting.
	WarningPathNotFound WarningKind = "path_not_found"
)

// Warning is the advisory envelope returned alongside rehydrated data
// (§6.4). DataPath is a JSON Pointer into the rehydrated value; SchemaPath
// is a JSON Pointer into the original (pre-compile) schema.
type Warning struct {
	DataPath   string      `json:"dataPath"`
	SchemaPath string      `json:"schemaPath"`
	Message    string      `json:"message"`
	Kind       WarningKind `json:"kind"`
	Constraint string      `json:"constraint,omitempty"`
}
