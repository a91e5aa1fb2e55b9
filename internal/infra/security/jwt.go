package security

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	uuid "github.com/google/uuid"

	"github.com/theranjitkumar/blogger/internal/core/domain"
)

// ErrInvalidToken covers every verification failure: bad signature, malformed
// payload, wrong issuer, and natural expiry all collapse into this single
// outcome so callers cannot distinguish cryptographic failure from expiry.
var ErrInvalidToken = errors.New("invalid or expired token")

// AccessTokenClaims carries the identity embedded in a bearer token.
type AccessTokenClaims struct {
	UserID   string `json:"uid"`
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
	Role     string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies HMAC-SHA256 bearer tokens.
//
// There is no revocation list: an issued token stays valid until natural
// expiry. Password changes and administrative suspension invalidate sessions
// and future logins only.
type TokenIssuer struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

const defaultTokenTTL = 24 * time.Hour

// NewTokenIssuer constructs a TokenIssuer. The signing secret is mandatory.
func NewTokenIssuer(secret, issuer string, ttl time.Duration) (*TokenIssuer, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, fmt.Errorf("signing secret is required")
	}
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}

	return &TokenIssuer{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    ttl,
		now:    func() time.Time { return time.Now().UTC() },
	}, nil
}

// WithClock overrides the issuer's time source (primarily for tests).
func (t *TokenIssuer) WithClock(clock func() time.Time) {
	if clock != nil {
		t.now = clock
	}
}

// TTL returns the configured token lifetime.
func (t *TokenIssuer) TTL() time.Duration {
	return t.ttl
}

// Issue signs a token embedding the supplied identity's claims.
func (t *TokenIssuer) Issue(identity domain.Identity) (string, error) {
	if identity.ID == "" {
		return "", fmt.Errorf("identity id is required")
	}

	now := t.now().UTC()

	claims := AccessTokenClaims{
		UserID:   identity.ID,
		Username: identity.Username,
		Email:    identity.Email,
		Role:     string(identity.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.ID,
			Issuer:    t.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return signed, nil
}

// Verify validates signature integrity and expiry and returns the embedded
// identity. Any failure yields ErrInvalidToken.
func (t *TokenIssuer) Verify(token string) (domain.Identity, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return domain.Identity{}, ErrInvalidToken
	}

	claims := &AccessTokenClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(tok *jwt.Token) (interface{}, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", tok.Header["alg"])
		}
		return t.secret, nil
	}, jwt.WithIssuer(t.issuer), jwt.WithTimeFunc(t.now))
	if err != nil || parsed == nil || !parsed.Valid {
		return domain.Identity{}, ErrInvalidToken
	}

	if strings.TrimSpace(claims.UserID) == "" {
		return domain.Identity{}, ErrInvalidToken
	}

	return domain.Identity{
		ID:       claims.UserID,
		Username: claims.Username,
		Email:    claims.Email,
		Role:     domain.Role(claims.Role),
	}, nil
}
