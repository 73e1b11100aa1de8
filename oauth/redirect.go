// Package oauth extracts credentials from OAuth2 implicit-grant redirects.
package oauth

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	ParamAccessToken      = "access_token"
	ParamRefreshToken     = "refresh_token"
	ParamTokenType        = "token_type"
	ParamExpiresIn        = "expires_in"
	ParamState            = "state"
	ParamAccountUsername  = "account_username"
	ParamAccountID        = "account_id"
	ParamError            = "error"
	ParamErrorDescription = "error_description"
)

var (
	ErrNoToken = errors.New("redirect does not contain an access token")

	regexParam = regexp.MustCompile(`[?&]([^=#?&]+)=([^&#?]*)`)
)

type (
	// RedirectParams maps raw parameter names to their raw values.
	RedirectParams map[string]string

	Grant struct {
		AccessToken     string
		RefreshToken    string
		TokenType       string
		State           string
		AccountUsername string
		AccountID       string
		ExpiresIn       time.Duration
	}

	AuthorizationError struct {
		Code        string
		Description string
	}
)

func (e *AuthorizationError) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("authorization failed: %s (%s)", e.Code, e.Description)
	}
	return fmt.Sprintf("authorization failed: %s", e.Code)
}

// Parse collects all name=value pairs from the query or fragment of rawURL.
// The fragment marker is treated like a query marker, so pairs from an
// existing query and the fragment end up in the same map. A URL without any
// marker yields an empty map.
func Parse(rawURL string) RedirectParams {
	normalized := strings.Replace(rawURL, "#", "?", 1)
	params := make(RedirectParams)
	for _, match := range regexParam.FindAllStringSubmatch(normalized, -1) {
		params[match[1]] = match[2]
	}
	return params
}

// AccessToken returns the token if present and non-empty.
func AccessToken(params RedirectParams) (string, bool) {
	token := params[ParamAccessToken]
	return token, token != ""
}

// ParseGrant returns ErrNoToken for intermediate URLs of the sign-in flow and
// an *AuthorizationError if the provider denied access.
func ParseGrant(rawURL string) (Grant, error) {
	params := Parse(rawURL)

	if code := params[ParamError]; code != "" {
		description, err := url.QueryUnescape(params[ParamErrorDescription])
		if err != nil {
			description = params[ParamErrorDescription]
		}
		return Grant{}, &AuthorizationError{Code: code, Description: description}
	}

	token, ok := AccessToken(params)
	if !ok {
		return Grant{}, ErrNoToken
	}

	grant := Grant{
		AccessToken:     token,
		RefreshToken:    params[ParamRefreshToken],
		TokenType:       params[ParamTokenType],
		State:           params[ParamState],
		AccountUsername: params[ParamAccountUsername],
		AccountID:       params[ParamAccountID],
	}

	if seconds, err := strconv.ParseInt(params[ParamExpiresIn], 10, 64); err == nil && seconds > 0 {
		grant.ExpiresIn = time.Duration(seconds) * time.Second
	}

	return grant, nil
}

// AuthorizeURL builds the implicit-grant authorization URL for clientID.
func AuthorizeURL(base, clientID, state string) (string, error) {
	if strings.TrimSpace(clientID) == "" {
		return "", errors.New("client id is required")
	}

	authorizeURL, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid authorize URL: %w", err)
	}

	q := authorizeURL.Query()
	q.Set("client_id", clientID)
	q.Set("response_type", "token")
	if state != "" {
		q.Set(ParamState, state)
	}
	authorizeURL.RawQuery = q.Encode()

	return authorizeURL.String(), nil
}
