package trestle

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

// Field names recognized when scanning authentication responses for tokens.
// The backend's response shape is not guaranteed to be flat or consistently
// named, so several spellings are accepted.
var (
	accessTokenFields  = []string{"access_token", "accessToken", "token", "jwt", "id_token"}
	refreshTokenFields = []string{"refresh_token", "refreshToken", "refresh"}
)

// Extraction holds the token material recovered from an authentication or
// refresh response body.
type Extraction struct {
	// AccessToken is always present in a successful extraction.
	AccessToken string

	// RefreshToken is empty when the backend did not issue one.
	RefreshToken string
}

// ExtractTokens scans a JSON response body for an access token and an
// optional refresh token.
//
// The search runs three tiers, first match wins:
//  1. well-known field names at the top level,
//  2. any top-level string value shaped like a compact JWT,
//  3. tiers 1 and 2 repeated one level into nested object values.
//
// A missing access token yields ErrNoToken: accepting a silent null token
// would defer the failure to every subsequent call with a confusing error.
// A missing refresh token is not an error.
func ExtractTokens(body []byte) (Extraction, error) {
	var doc map[string]any
	if err := json.Unmarshal(body, &doc); err != nil {
		return Extraction{}, fmt.Errorf("%w: response body is not a JSON object", ErrNoToken)
	}

	access := findToken(doc, accessTokenFields, "")
	if access == "" {
		return Extraction{}, fmt.Errorf("%w: checked %s at the top level and one level deep",
			ErrNoToken, strings.Join(accessTokenFields, ", "))
	}

	return Extraction{
		AccessToken: access,
		// Excluding the access token's value keeps the shape tier from
		// claiming the same string twice.
		RefreshToken: findToken(doc, refreshTokenFields, access),
	}, nil
}

// findToken applies the three-tier search for the given field names,
// skipping any string equal to exclude.
func findToken(doc map[string]any, names []string, exclude string) string {
	if tok := searchObject(doc, names, exclude); tok != "" {
		return tok
	}
	for _, key := range sortedKeys(doc) {
		nested, ok := doc[key].(map[string]any)
		if !ok {
			continue
		}
		if tok := searchObject(nested, names, exclude); tok != "" {
			return tok
		}
	}
	return ""
}

// searchObject scans a single object level: well-known names first, then any
// string value shaped like a JWT.
func searchObject(obj map[string]any, names []string, exclude string) string {
	for _, name := range names {
		if tok, ok := obj[name].(string); ok && tok != "" && tok != exclude {
			return tok
		}
	}
	for _, key := range sortedKeys(obj) {
		if tok, ok := obj[key].(string); ok && tok != exclude && looksLikeJWT(tok) {
			return tok
		}
	}
	return ""
}

// jwtParser is used for shape detection only. Signatures are never verified
// here; the gateway treats tokens as opaque credentials.
var jwtParser = jwtlib.NewParser()

// looksLikeJWT reports whether s parses as a compact JWT. The prefix and
// separator checks short-circuit the common case of ordinary strings; the
// unverified parse weeds out strings that merely start like one.
func looksLikeJWT(s string) bool {
	if !strings.HasPrefix(s, "eyJ") || strings.Count(s, ".") != 2 {
		return false
	}
	_, _, err := jwtParser.ParseUnverified(s, jwtlib.MapClaims{})
	return err == nil
}

// sortedKeys keeps the scan order deterministic; Go map iteration is not.
func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
