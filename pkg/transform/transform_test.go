package transform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Call_Add(t *testing.T) {
	r := NewRegistry()

	got, err := r.Call("add", 2, 3)
	require.NoError(t, err)
	assert.Equal(t, 5.0, got)

	got, err = r.Call("ADD", "2.5", 1)
	require.NoError(t, err)
	assert.Equal(t, 3.5, got)
}

func TestRegistry_Call_Subtract(t *testing.T) {
	r := NewRegistry()

	got, err := r.Call("subtract", 10, 4)
	require.NoError(t, err)
	assert.Equal(t, 6.0, got)
}

func TestRegistry_Call_ToLowercase(t *testing.T) {
	r := NewRegistry()

	got, err := r.Call("to_lowercase", "Electronics", nil)
	require.NoError(t, err)
	assert.Equal(t, "electronics", got)

	_, err = r.Call("to_lowercase", nil, nil)
	assert.Error(t, err)
}

func TestRegistry_UnknownFunction(t *testing.T) {
	r := NewRegistry()

	_, err := r.Call("multiply", 2, 3)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not registered")
}

func TestCoerceNumber_Invalid(t *testing.T) {
	_, err := Add("abc", 1)
	require.Error(t, err)

	_, err = Add(nil, 1)
	require.Error(t, err)

	_, err = Add("  ", 1)
	require.Error(t, err)
}

func TestRegistry_Names(t *testing.T) {
	r := NewRegistry()
	assert.Equal(t, []string{"add", "subtract", "to_lowercase"}, r.Names())
}
