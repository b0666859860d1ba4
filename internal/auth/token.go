package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/Tech-Craft-Resources/orbit-engine/internal/shared"
)

// DefaultTokenTTL applies when TokenConfig.TTL is zero.
const DefaultTokenTTL = 24 * time.Hour

var (
	ErrInvalidToken  = fmt.Errorf("%w: invalid token", shared.ErrUnauthorized)
	ErrExpiredToken  = fmt.Errorf("%w: token expired", shared.ErrUnauthorized)
	ErrMissingSecret = errors.New("auth: jwt secret not configured")
)

// Claims carries the principal of a bearer token. Subject holds the user id.
type Claims struct {
	OrganizationID string `json:"org_id"`
	Role           string `json:"role"`
	jwt.RegisteredClaims
}

// TokenConfig configures signing and verification.
type TokenConfig struct {
	Secret string
	Issuer string
	TTL    time.Duration
}

// Tokens issues and verifies HS256 bearer tokens.
type Tokens struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewTokens validates the config and returns a token service.
func NewTokens(cfg TokenConfig) (*Tokens, error) {
	if cfg.Secret == "" {
		return nil, ErrMissingSecret
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &Tokens{secret: []byte(cfg.Secret), issuer: cfg.Issuer, ttl: ttl, now: time.Now}, nil
}

// Issue signs a token for the principal.
func (t *Tokens) Issue(p shared.Principal) (string, time.Time, error) {
	now := t.now()
	expires := now.Add(t.ttl)
	claims := Claims{
		OrganizationID: p.OrganizationID.String(),
		Role:           string(p.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.UserID.String(),
			Issuer:    t.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expires, nil
}

// Verify parses a token and resolves its principal.
func (t *Tokens) Verify(raw string) (shared.Principal, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(t.now),
	}
	if t.issuer != "" {
		opts = append(opts, jwt.WithIssuer(t.issuer))
	}
	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return t.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return shared.Principal{}, ErrExpiredToken
		}
		return shared.Principal{}, ErrInvalidToken
	}
	return claims.principal()
}

func (c Claims) principal() (shared.Principal, error) {
	userID, err := uuid.Parse(c.Subject)
	if err != nil {
		return shared.Principal{}, ErrInvalidToken
	}
	orgID, err := uuid.Parse(c.OrganizationID)
	if err != nil {
		return shared.Principal{}, ErrInvalidToken
	}
	role := shared.ParseRole(c.Role)
	if role == "" {
		return shared.Principal{}, ErrInvalidToken
	}
	return shared.Principal{OrganizationID: orgID, UserID: userID, Role: role}, nil
}
