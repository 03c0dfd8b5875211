package extract

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
)

func validateAuth(auth Auth) error {
	switch auth.Type {
	case AuthNone:
	case AuthAPIKey:
		if auth.Key == "" {
			return configError("authentication.key", "required for api-key authentication")
		}
	case AuthBearer, AuthOAuth:
		if auth.Token == "" {
			return configError("authentication.token", "required for %s authentication", auth.Type)
		}
	case AuthBasic:
		if auth.Username == "" {
			return configError("authentication.username", "required for basic authentication")
		}
	default:
		return configError("authentication.type", "unsupported authentication %q", auth.Type)
	}
	return nil
}

// applyAuth sets the credential headers for `auth`, replacing any header of
// the same (canonical) name already in `headers`.
func applyAuth(auth Auth, headers http.Header) error {
	err := validateAuth(auth)
	if err != nil {
		return err
	}

	switch auth.Type {
	case AuthAPIKey:
		name := strings.TrimSpace(auth.HeaderName)
		if name == "" {
			name = defaultAPIKeyName
		}
		headers.Set(name, auth.Key)
	case AuthBearer, AuthOAuth:
		headers.Set("Authorization", fmt.Sprintf("Bearer %s", auth.Token))
	case AuthBasic:
		credentials := base64.StdEncoding.EncodeToString(
			[]byte(auth.Username + ":" + auth.Password),
		)
		headers.Set("Authorization", fmt.Sprintf("Basic %s", credentials))
	}
	return nil
}

// buildHeaders merges the caller's headers with the credential headers,
// credentials win on conflict.
func buildHeaders(r Request) (http.Header, error) {
	headers := http.Header{}
	for name, value := range r.Headers {
		headers.Set(name, value)
	}
	err := applyAuth(r.Authentication, headers)
	if err != nil {
		return nil, err
	}
	return headers, nil
}
