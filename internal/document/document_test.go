package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_RejectsNonObjectRoot(t *testing.T) {
	for _, raw := range []string{`[1,2]`, `"x"`, `42`, `null`} {
		_, err := Parse([]byte(raw))
		assert.ErrorIs(t, err, ErrNotObject, raw)
	}
}

func TestParse_RejectsMalformed(t *testing.T) {
	for _, raw := range []string{``, `{`, `{"a":}`, `{"a":1} {"b":2}`} {
		_, err := Parse([]byte(raw))
		assert.Error(t, err, raw)
	}
}

func TestAccessors_TypeMismatchSignalsAbsence(t *testing.T) {
	doc, err := Parse([]byte(`{"s":"SEA","n":12.5,"b":true,"z":null,"o":{"k":"v"},"a":["x",2]}`))
	require.NoError(t, err)

	s, ok := doc.String("s")
	assert.True(t, ok)
	assert.Equal(t, "SEA", s)

	_, ok = doc.String("n")
	assert.False(t, ok, "number is not a string")

	n, ok := doc.Number("n")
	assert.True(t, ok)
	assert.InDelta(t, 12.5, n, 1e-9)

	i, ok := doc.Int("n")
	assert.True(t, ok)
	assert.Equal(t, 12, i)

	_, ok = doc.Number("s")
	assert.False(t, ok)

	_, ok = doc.Number("z")
	assert.False(t, ok, "null is not a number")
	assert.True(t, doc.Has("z"))

	_, ok = doc.Number("missing")
	assert.False(t, ok)
	assert.False(t, doc.Has("missing"))

	_, ok = doc.Object("a")
	assert.False(t, ok)

	arr, ok := doc.Array("a")
	require.True(t, ok)
	assert.Equal(t, 2, arr.Len())
	first, ok := arr.Index(0)
	require.True(t, ok)
	fs, _ := first.AsString()
	assert.Equal(t, "x", fs)
	_, ok = arr.Index(5)
	assert.False(t, ok)

	b, ok := doc.Get("b")
	require.True(t, ok)
	bv, ok := b.AsBool()
	assert.True(t, ok)
	assert.True(t, bv)
}

func TestPath_WalksNestedObjects(t *testing.T) {
	doc, err := Parse([]byte(`{"lookups":{"airline":{"name":"Alaska"}}}`))
	require.NoError(t, err)

	v, ok := doc.Path("lookups", "airline", "name")
	require.True(t, ok)
	s, _ := v.AsString()
	assert.Equal(t, "Alaska", s)

	_, ok = doc.Path("lookups", "aircraft", "name")
	assert.False(t, ok)

	_, ok = doc.Path("lookups", "airline", "name", "deeper")
	assert.False(t, ok)
}

func TestZeroValueIsInvalid(t *testing.T) {
	var v Value
	assert.False(t, v.Exists())
	assert.Equal(t, "invalid", v.Kind().String())
	_, ok := v.Get("x")
	assert.False(t, ok)
	assert.Equal(t, 0, v.Len())
}
