// Package auth validates HMAC bearer tokens, resolves the calling user and
// enforces role permissions.
package auth

import (
	"context"
	stdliberrors "errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/turtacn/launch-radar/internal/config"
	"github.com/turtacn/launch-radar/internal/domain/user"
	"github.com/turtacn/launch-radar/pkg/errors"
)

var (
	ErrTokenExpired          = errors.New(errors.ErrCodeUnauthorized, "token expired")
	ErrTokenInvalidSignature = errors.New(errors.ErrCodeUnauthorized, "invalid token signature")
	ErrTokenInvalidIssuer    = errors.New(errors.ErrCodeUnauthorized, "invalid token issuer")
	ErrTokenMalformed        = errors.New(errors.ErrCodeUnauthorized, "malformed token")
	ErrTokenInvalidRole      = errors.New(errors.ErrCodeUnauthorized, "token carries an unknown role")
	ErrMissingAuthHeader     = errors.New(errors.ErrCodeUnauthorized, "missing authorization header")
	ErrInvalidAuthFormat     = errors.New(errors.ErrCodeUnauthorized, "invalid authorization format")
)

// Claims is the token payload. sub is the user id.
type Claims struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// TokenVerifier turns a raw bearer token into a user.
type TokenVerifier interface {
	Verify(ctx context.Context, rawToken string) (*user.User, error)
}

// TokenManager issues and verifies HS256 tokens.
type TokenManager struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenManager(cfg config.AuthConfig) (*TokenManager, error) {
	if len(cfg.JWTSecret) < 16 {
		return nil, errors.InvalidParam("auth.jwt_secret must be at least 16 bytes")
	}
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = config.DefaultTokenTTL
	}
	issuer := cfg.Issuer
	if issuer == "" {
		issuer = config.DefaultIssuer
	}
	return &TokenManager{secret: []byte(cfg.JWTSecret), issuer: issuer, ttl: ttl, now: time.Now}, nil
}

// Issue signs a token for u valid for the configured TTL.
func (m *TokenManager) Issue(u *user.User) (string, time.Time, error) {
	if u == nil || u.ID == "" {
		return "", time.Time{}, errors.InvalidParam("user id is required")
	}
	if !u.Role.Valid() {
		return "", time.Time{}, errors.InvalidParam("unknown role").WithDetail(string(u.Role))
	}

	now := m.now().UTC()
	exp := now.Add(m.ttl)
	claims := Claims{
		Name:  u.Name,
		Email: u.Email,
		Role:  string(u.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   u.ID,
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, errors.Wrap(err, errors.ErrCodeInternal, "sign token")
	}
	return signed, exp, nil
}

// Verify checks signature, issuer and expiry, then maps the claims to a user.
func (m *TokenManager) Verify(_ context.Context, rawToken string) (*user.User, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(rawToken, &claims, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(m.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		switch {
		case stdliberrors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrTokenExpired
		case stdliberrors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, ErrTokenInvalidSignature
		case stdliberrors.Is(err, jwt.ErrTokenInvalidIssuer):
			return nil, ErrTokenInvalidIssuer
		default:
			return nil, ErrTokenMalformed
		}
	}

	role, ok := user.ParseRole(claims.Role)
	if !ok || claims.Subject == "" {
		return nil, ErrTokenInvalidRole
	}
	return &user.User{ID: claims.Subject, Name: claims.Name, Email: claims.Email, Role: role}, nil
}

func extractBearerToken(header string) (string, error) {
	if header == "" {
		return "", ErrMissingAuthHeader
	}
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", ErrInvalidAuthFormat
	}
	return strings.TrimSpace(header[len(prefix):]), nil
}
