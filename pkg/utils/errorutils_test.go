package utils

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapIfNotNil(t *testing.T) {
	assert.NoError(t, WrapIfNotNil(nil))
	assert.NoError(t, WrapIfNotNil(nil, "extra"))

	base := errors.New("boom")
	wrapped := WrapIfNotNil(base)
	require.Error(t, wrapped)
	assert.ErrorIs(t, wrapped, base)
	assert.Contains(t, wrapped.Error(), "TestWrapIfNotNil")

	wrapped = WrapIfNotNil(base, "stage one")
	assert.Contains(t, wrapped.Error(), "stage one")
}

func TestContainsErrorSubstring(t *testing.T) {
	inner := errors.New("connection refused")
	outer := fmt.Errorf("fetching audio: %w", inner)

	assert.True(t, ContainsErrorSubstring(outer, "connection refused"))
	assert.True(t, ContainsErrorSubstring(outer, "fetching audio"))
	assert.False(t, ContainsErrorSubstring(outer, "timeout"))
	assert.False(t, ContainsErrorSubstring(nil, "anything"))
}
