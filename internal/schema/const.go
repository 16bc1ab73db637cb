package schema

import "reflect"

// ValueEqual reports whether two decoded JSON values are equal, used to
// intersect enums during allOf merging, to find an enum member equal to the
// default in Pass 7, and to recognize the empty schema in Pass 4.
func ValueEqual(a, b any) bool {
	return reflect.DeepEqual(a, b)
}

// EnumContains reports whether value appears in enum by deep equality.
func EnumContains(enum []any, value any) bool {
	for _, v := range enum {
		if ValueEqual(v, value) {
			return true
		}
	}
	return false
}
