package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStringArrayValueIsDeterministic(t *testing.T) {
	v, err := StringArray{"a", "b"}.Value()
	require.NoError(t, err)
	assert.Equal(t, `["a","b"]`, v)

	v, err = StringArray{}.Value()
	require.NoError(t, err)
	assert.Equal(t, `[]`, v)

	v, err = StringArray(nil).Value()
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestStringArrayScanJSON(t *testing.T) {
	var a StringArray
	require.NoError(t, a.Scan([]byte(`["a","b"]`)))
	assert.Equal(t, StringArray{"a", "b"}, a)

	require.NoError(t, a.Scan(`[]`))
	assert.Empty(t, a)

	require.NoError(t, a.Scan(nil))
	assert.Nil(t, a)
}

func TestStringArrayScanPostgresFormat(t *testing.T) {
	var a StringArray
	require.NoError(t, a.Scan(`{one,two}`))
	assert.Equal(t, StringArray{"one", "two"}, a)

	require.NoError(t, a.Scan(`{"with,comma",plain}`))
	assert.Equal(t, StringArray{"with,comma", "plain"}, a)

	require.NoError(t, a.Scan(`{}`))
	assert.Empty(t, a)
}
