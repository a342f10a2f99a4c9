package tokenx

import (
	"github.com/golang-jwt/jwt/v5"
)

// Claims is the claim set carried in a credential's payload segment.
// We embed the registered JWT claims so exp/iat/nbf parse through the
// jwt.NumericDate machinery, and keep additive custom fields so older
// issuers stay compatible.
type Claims struct {
	jwt.RegisteredClaims

	// UserID is the issuing system's user identifier. Some issuers put
	// it here instead of (or as well as) the registered "sub" claim.
	UserID string `json:"userId,omitempty"`
}

// SubjectID returns the user identifier, preferring the custom userId
// claim and falling back to the registered subject.
func (c Claims) SubjectID() string {
	if c.UserID != "" {
		return c.UserID
	}
	return c.Subject
}

// HasExpiry reports whether the claim set carries an exp claim at all.
func (c Claims) HasExpiry() bool {
	return c.ExpiresAt != nil
}
