package node

import (
	"bytes"
	"testing"

	"github.com/ipld/go-ipld-prime/codec/dagcbor"
	"github.com/ipld/go-ipld-prime/datamodel"
	"github.com/ipld/go-ipld-prime/node/basicnode"

	"github.com/nasdf/odm/value"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildValue(t *testing.T) {
	expect := value.MustFrom(map[string]any{
		"name":   "Bob",
		"age":    30,
		"score":  1.5,
		"admin":  false,
		"tags":   []any{"a", nil},
		"nested": map[string]any{"list": []any{1, 2}},
	})

	n, err := Build(expect)
	require.NoError(t, err)
	assert.Equal(t, datamodel.Kind_Map, n.Kind())

	actual, err := Value(n)
	require.NoError(t, err)
	assert.True(t, value.Equal(expect, actual))
}

func TestDagCBORRoundTrip(t *testing.T) {
	expect := value.MustFrom(map[string]any{"count": 9, "ratio": 0.25, "empty": []any{}})
	n, err := Build(expect)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, dagcbor.Encode(n, &buf))

	nb := basicnode.Prototype.Any.NewBuilder()
	require.NoError(t, dagcbor.Decode(nb, &buf))

	actual, err := MapValue(nb.Build())
	require.NoError(t, err)
	assert.True(t, value.Equal(expect, actual))
	assert.Equal(t, value.KindInt, selectKind(t, actual, "count"))
	assert.Equal(t, value.KindFloat, selectKind(t, actual, "ratio"))
}

func TestMapValueNotMap(t *testing.T) {
	_, err := MapValue(basicnode.NewString("x"))
	assert.Error(t, err)
}

func selectKind(t *testing.T, m *value.Map, key string) value.Kind {
	v, ok := m.Get(key)
	require.True(t, ok)
	return v.Kind()
}
