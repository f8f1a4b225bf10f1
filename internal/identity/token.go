package identity

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// CookieName is where the browser keeps the provider-issued token.
const CookieName = "token"

var (
	ErrMissingToken = errors.New("missing token")
	ErrInvalidToken = errors.New("invalid token")
)

// Claims is the token payload shared with the authentication provider.
type Claims struct {
	Name  string   `json:"name,omitempty"`
	Roles []string `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

// Verifier validates HS256 tokens signed with a shared secret.
type Verifier struct {
	secret []byte
	now    func() time.Time
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret), now: time.Now}
}

// Verify parses and validates a token string.
func (v *Verifier) Verify(tokenStr string) (Identity, error) {
	if tokenStr == "" {
		return Anonymous(), ErrMissingToken
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return v.secret, nil
	}, jwt.WithTimeFunc(v.now))
	if err != nil || !token.Valid {
		return Anonymous(), ErrInvalidToken
	}
	if claims.Subject == "" {
		return Anonymous(), ErrInvalidToken
	}

	roles := make([]Role, 0, len(claims.Roles))
	for _, r := range claims.Roles {
		roles = append(roles, Role(strings.ToLower(r)))
	}

	return Identity{
		Authenticated: true,
		Subject:       claims.Subject,
		Name:          claims.Name,
		Roles:         roles,
	}, nil
}

// FromRequest reads the token from the Authorization header (Bearer) or,
// failing that, from the token cookie. Any failure yields Anonymous.
func (v *Verifier) FromRequest(r *http.Request) (Identity, error) {
	tokenStr := ""
	if authz := r.Header.Get("Authorization"); strings.HasPrefix(authz, "Bearer ") {
		tokenStr = strings.TrimPrefix(authz, "Bearer ")
	} else if c, err := r.Cookie(CookieName); err == nil {
		tokenStr = c.Value
	}
	return v.Verify(tokenStr)
}

// Issue signs a token. The portal itself does not log users in; Issue
// exists for tooling and tests that stand in for the provider.
func (v *Verifier) Issue(subject, name string, roles []Role, ttl time.Duration) (string, error) {
	now := v.now()
	rs := make([]string, len(roles))
	for i, r := range roles {
		rs[i] = string(r)
	}
	claims := Claims{
		Name:  name,
		Roles: rs,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}
