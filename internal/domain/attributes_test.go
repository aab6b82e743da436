package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCustomAttributes_Equal(t *testing.T) {
	a := CustomAttributes{{Key: "color", Value: "red"}, {Key: "size", Value: "m"}}
	b := CustomAttributes{{Key: "size", Value: "m"}, {Key: "color", Value: "red"}}
	c := CustomAttributes{{Key: "size", Value: "l"}, {Key: "color", Value: "red"}}

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
	assert.False(t, a.Equal(a[:1]))
	assert.True(t, CustomAttributes(nil).Equal(CustomAttributes{}))
}

func TestCustomAttributes_ValueAndScan(t *testing.T) {
	a := CustomAttributes{{Key: "size", Value: "m"}}

	v, err := a.Value()
	require.NoError(t, err)
	assert.Equal(t, `[{"key":"size","value":"m"}]`, v)

	var scanned CustomAttributes
	require.NoError(t, scanned.Scan([]byte(v.(string))))
	assert.True(t, a.Equal(scanned))

	require.NoError(t, scanned.Scan(nil))
	assert.Nil(t, scanned)

	assert.Error(t, scanned.Scan(42))
}

func TestCustomAttributes_NilValue(t *testing.T) {
	v, err := CustomAttributes(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, "[]", v)
}
