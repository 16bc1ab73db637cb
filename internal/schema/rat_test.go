package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRatFromNumericAndString(t *testing.T) {
	r := NewRat(float64(3))
	require.NotNil(t, r)
	assert.Equal(t, "3", FormatRat(r))

	r = NewRat("2.5")
	require.NotNil(t, r)
	assert.Equal(t, "2.5", FormatRat(r))

	assert.Nil(t, NewRat("not-a-number"))
	assert.Nil(t, NewRat(true))
}

func TestFormatRatNil(t *testing.T) {
	assert.Equal(t, "null", FormatRat(nil))
}

func TestRatUnmarshalJSON(t *testing.T) {
	var r Rat
	require.NoError(t, r.UnmarshalJSON([]byte(`42`)))
	assert.Equal(t, "42", FormatRat(&r))

	var r2 Rat
	require.NoError(t, r2.UnmarshalJSON([]byte(`1.5`)))
	assert.Equal(t, "1.5", FormatRat(&r2))

	var r3 Rat
	assert.Error(t, r3.UnmarshalJSON([]byte(`"oops"`)))
}

func TestRatExactComparison(t *testing.T) {
	a := NewRat("0.1")
	b := NewRat("0.1")
	require.NotNil(t, a)
	require.NotNil(t, b)
	assert.Equal(t, 0, a.Cmp(b.Rat))

	c := NewRat(float64(1) / 3)
	d := NewRat("1/3")
	require.NotNil(t, d)
	assert.NotEqual(t, 0, c.Cmp(d.Rat))
}
