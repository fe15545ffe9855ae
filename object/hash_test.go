package object

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nasdf/odm/value"
)

func TestOf(t *testing.T) {
	a := value.NewMap()
	a.Set("name", value.String("ada"))
	a.Set("visits", value.Int(1))

	ha, err := Of(a)
	require.NoError(t, err)
	assert.Len(t, ha, 32)

	hb, err := Of(a.Clone())
	require.NoError(t, err)
	assert.True(t, ha.Equal(hb))
	assert.Equal(t, ha.String(), hb.String())

	a.Set("visits", value.Int(2))
	hc, err := Of(a)
	require.NoError(t, err)
	assert.False(t, ha.Equal(hc))
}

func TestSum(t *testing.T) {
	assert.Equal(t, "a7ffc6f8bf1ed76651c14756a061d662f580ff4de43b49fa82d80a4b80f8434a", Sum(nil).String())
}
