package authflow

import (
	"net/url"
	"strings"
)

// Tokens are the session credentials carried by an OAuth callback URL.
type Tokens struct {
	AccessToken  string
	RefreshToken string
}

// Empty reports whether neither token is present.
func (t Tokens) Empty() bool {
	return t.AccessToken == "" && t.RefreshToken == ""
}

// callbackError is a provider-reported failure carried by a callback URL.
type callbackError struct {
	Code        string
	Description string
}

// looksLikeCallback is the cheap pre-filter applied before full URL parsing.
func looksLikeCallback(raw string) bool {
	return strings.Contains(raw, "access_token") ||
		strings.Contains(raw, "refresh_token") ||
		strings.Contains(raw, "error")
}

// extractTokens pulls session tokens out of a callback URL, checking the
// hash fragment first and falling back to query parameters. Providers
// differ on where they put the tokens, so both locations are tried.
func extractTokens(raw string) (Tokens, *callbackError) {
	u, err := url.Parse(raw)
	if err != nil {
		return Tokens{}, nil
	}

	if t, e := parseParams(u.Fragment); !t.Empty() || e != nil {
		return t, e
	}
	return parseParams(u.RawQuery)
}

func parseParams(raw string) (Tokens, *callbackError) {
	params, err := url.ParseQuery(raw)
	if err != nil {
		return Tokens{}, nil
	}

	t := Tokens{
		AccessToken:  params.Get("access_token"),
		RefreshToken: params.Get("refresh_token"),
	}
	if code := params.Get("error"); code != "" {
		return t, &callbackError{
			Code:        code,
			Description: params.Get("error_description"),
		}
	}
	return t, nil
}
