package schema

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/go-json-experiment/json"
)

// Rat wraps math/big.Rat so numeric constraint keywords (minimum, maximum,
// multipleOf, ...) compare exactly rather than through lossy float64 math —
// load-bearing for Pass 1's tightest-wins merge and Pass 7's dropped-
// constraint witness values.
type Rat struct {
	*big.Rat
}

func (r *Rat) UnmarshalJSON(data []byte) error {
	var tmp any
	if err := json.Unmarshal(data, &tmp); err != nil {
		return err
	}
	converted, err := convertToBigRat(tmp)
	if err != nil {
		return err
	}
	r.Rat = converted
	return nil
}

func (r *Rat) MarshalJSON() ([]byte, error) {
	formatted := FormatRat(r)
	if strings.Contains(formatted, "/") {
		return json.Marshal(formatted)
	}
	return []byte(formatted), nil
}

func convertToBigRat(data any) (*big.Rat, error) {
	var str string
	switch v := data.(type) {
	case float64, float32, int, int64, int32, int16, int8, uint, uint64, uint32, uint16, uint8:
		str = fmt.Sprint(v)
	case string:
		str = v
	default:
		return nil, ErrUnsupportedRatType
	}

	num := new(big.Rat)
	if _, ok := num.SetString(str); !ok {
		return nil, ErrInvalidRatValue
	}
	return num, nil
}

// NewRat builds a Rat from a numeric or numeric-string value, returning nil
// if the value cannot be represented.
func NewRat(value any) *Rat {
	converted, err := convertToBigRat(value)
	if err != nil {
		return nil
	}
	return &Rat{converted}
}

// FormatRat renders a Rat as the shortest decimal string that round-trips,
// falling back to "int/int" fraction notation only when necessary.
func FormatRat(r *Rat) string {
	if r == nil {
		return "null"
	}
	if r.IsInt() {
		return r.Num().String()
	}

	dec := r.FloatString(10)
	trimmed := strings.TrimRight(dec, "0")
	trimmed = strings.TrimRight(trimmed, ".")
	if trimmed == "" {
		return "0"
	}
	if back, ok := new(big.Rat).SetString(trimmed); !ok || back.Cmp(r.Rat) != 0 {
		return r.RatString()
	}
	return trimmed
}
