package textutil

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeName(t *testing.T) {
	cases := map[string]string{
		"userId":     "userid",
		" User_ID ":  "userid",
		"user-id":    "userid",
		"user.id":    "userid",
		"First Name": "firstname",
	}
	for input, expected := range cases {
		require.Equal(t, expected, NormalizeName(input), input)
	}
}

func TestMatchName(t *testing.T) {
	require.True(t, MatchName("X-API-Key", []string{"key"}))
	require.False(t, MatchName("Accept", []string{"key", "token"}))
}

func TestClamp(t *testing.T) {
	out, cut := Clamp("hello", 10)
	require.False(t, cut)
	require.Equal(t, "hello", out)

	out, cut = Clamp("héllo wörld", 5)
	require.True(t, cut)
	require.Equal(t, "héllo", out)
}
