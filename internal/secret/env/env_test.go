package env

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetReadsVariable(t *testing.T) {
	t.Setenv("LANGCHAIN_TEST_TOKEN", "sk-from-env")

	value, err := New().Get(context.Background(), "LANGCHAIN_TEST_TOKEN")
	require.NoError(t, err)
	require.Equal(t, "sk-from-env", value)
}

func TestGetAllowsEmptyValue(t *testing.T) {
	t.Setenv("LANGCHAIN_TEST_EMPTY", "")

	value, err := New().Get(context.Background(), "LANGCHAIN_TEST_EMPTY")
	require.NoError(t, err)
	require.Equal(t, "", value)
}

func TestGetFailsWhenUnset(t *testing.T) {
	_, err := New().Get(context.Background(), "LANGCHAIN_TEST_ABSENT")
	require.ErrorContains(t, err, `"LANGCHAIN_TEST_ABSENT" is not set`)
}
