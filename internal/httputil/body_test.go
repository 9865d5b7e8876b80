package httputil

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReadBodyAllowsWithinLimit(t *testing.T) {
	body, err := ReadBody(strings.NewReader("hello"), 10)
	require.NoError(t, err)
	require.Equal(t, "hello", string(body))
}

func TestReadBodyRejectsOversize(t *testing.T) {
	body, err := ReadBody(strings.NewReader("helloworld"), 5)
	require.ErrorIs(t, err, ErrBodyTooLarge)
	// the truncated prefix still comes back for error reporting
	require.Equal(t, "hello", string(body))
}

func TestReadBodyUnlimited(t *testing.T) {
	payload := strings.Repeat("x", 4096)
	body, err := ReadBody(strings.NewReader(payload), 0)
	require.NoError(t, err)
	require.Len(t, body, 4096)
}
