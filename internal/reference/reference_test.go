package reference

import (
	"regexp"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFormat(t *testing.T) {
	re := regexp.MustCompile(`^TIX\d{5}$`)
	for i := 0; i < 1000; i++ {
		ref, err := New()
		require.NoError(t, err)
		assert.Regexp(t, re, ref)

		n, err := strconv.Atoi(ref[len(Prefix):])
		require.NoError(t, err)
		assert.GreaterOrEqual(t, n, 10000)
		assert.LessOrEqual(t, n, 99999)
	}
}

func TestValid(t *testing.T) {
	valid, err := New()
	require.NoError(t, err)
	assert.True(t, Valid(valid))

	assert.False(t, Valid(""))
	assert.False(t, Valid("TIX1234"))    // too short
	assert.False(t, Valid("TIX123456"))  // too long
	assert.False(t, Valid("tix12345"))   // wrong case
	assert.False(t, Valid("TIX12a45"))   // non-digit
	assert.False(t, Valid(" TIX12345"))  // leading junk
	assert.False(t, Valid("TIX12345\n")) // trailing junk
}
