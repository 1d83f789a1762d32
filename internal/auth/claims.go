package auth

import (
	"fmt"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const permissionsClaim = "permissions"

// Claims is the verified view of a token. It is immutable once extracted.
type Claims struct {
	Issuer    string
	Subject   string
	Audience  []string
	ExpiresAt time.Time

	permissions map[string]struct{}
}

// HasPermission reports whether the token grants permission.
func (c Claims) HasPermission(permission string) bool {
	_, ok := c.permissions[permission]
	return ok
}

// Permissions returns the granted permissions, sorted and deduplicated.
func (c Claims) Permissions() []string {
	out := make([]string, 0, len(c.permissions))
	for p := range c.permissions {
		out = append(out, p)
	}
	slices.Sort(out)
	return out
}

// ExtractClaims builds Claims from an already verified payload. The
// permissions claim must be present and be an array of strings.
func ExtractClaims(payload jwt.MapClaims) (Claims, error) {
	raw, ok := payload[permissionsClaim]
	if !ok {
		return Claims{}, fmt.Errorf("%s claim missing", permissionsClaim)
	}

	var items []any
	switch v := raw.(type) {
	case []any:
		items = v
	case []string:
		for _, s := range v {
			items = append(items, s)
		}
	default:
		return Claims{}, fmt.Errorf("%s claim is %T, want array of strings", permissionsClaim, raw)
	}

	permissions := make(map[string]struct{}, len(items))
	for i, item := range items {
		p, ok := item.(string)
		if !ok {
			return Claims{}, fmt.Errorf("%s[%d] is %T, want string", permissionsClaim, i, item)
		}
		permissions[p] = struct{}{}
	}

	claims := Claims{permissions: permissions}
	claims.Issuer, _ = payload.GetIssuer()
	claims.Subject, _ = payload.GetSubject()
	if aud, err := payload.GetAudience(); err == nil {
		claims.Audience = []string(aud)
	}
	if exp, err := payload.GetExpirationTime(); err == nil && exp != nil {
		claims.ExpiresAt = exp.Time
	}

	return claims, nil
}
