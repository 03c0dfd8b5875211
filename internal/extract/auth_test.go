package extract

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestApplyAuth(t *testing.T) {
	cases := []struct {
		name     string
		auth     Auth
		expected http.Header
	}{
		{
			name:     "none",
			auth:     Auth{Type: AuthNone},
			expected: http.Header{},
		},
		{
			name:     "api key default header",
			auth:     Auth{Type: AuthAPIKey, Key: "k1"},
			expected: http.Header{"X-Api-Key": {"k1"}},
		},
		{
			name:     "api key custom header",
			auth:     Auth{Type: AuthAPIKey, Key: "k2", HeaderName: "x-token"},
			expected: http.Header{"X-Token": {"k2"}},
		},
		{
			name:     "bearer",
			auth:     Auth{Type: AuthBearer, Token: "abc"},
			expected: http.Header{"Authorization": {"Bearer abc"}},
		},
		{
			name:     "oauth",
			auth:     Auth{Type: AuthOAuth, Token: "xyz"},
			expected: http.Header{"Authorization": {"Bearer xyz"}},
		},
		{
			name:     "basic",
			auth:     Auth{Type: AuthBasic, Username: "user", Password: "pass"},
			expected: http.Header{"Authorization": {"Basic dXNlcjpwYXNz"}},
		},
		{
			name:     "basic without password",
			auth:     Auth{Type: AuthBasic, Username: "user"},
			expected: http.Header{"Authorization": {"Basic dXNlcjo="}},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			headers := http.Header{}
			err := applyAuth(tc.auth, headers)
			require.NoError(t, err)
			require.Equal(t, tc.expected, headers)
		})
	}
}

func TestApplyAuthMissingCredentials(t *testing.T) {
	cases := []Auth{
		{Type: AuthAPIKey},
		{Type: AuthBearer},
		{Type: AuthOAuth},
		{Type: AuthBasic, Password: "only-password"},
		{Type: "digest"},
	}
	for _, auth := range cases {
		headers := http.Header{}
		err := applyAuth(auth, headers)
		require.Error(t, err, auth.Type)
		require.True(t, IsConfigError(err))
		require.Empty(t, headers)
	}
}

func TestBuildHeadersAuthenticatorWins(t *testing.T) {
	headers, err := buildHeaders(Request{
		Headers: map[string]string{
			"authorization": "Token from-caller",
			"Accept":        "application/json",
		},
		Authentication: Auth{Type: AuthBearer, Token: "from-auth"},
	})
	require.NoError(t, err)
	require.Equal(t, "Bearer from-auth", headers.Get("Authorization"))
	require.Len(t, headers.Values("Authorization"), 1)
	require.Equal(t, "application/json", headers.Get("Accept"))
}
