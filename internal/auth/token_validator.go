package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/physiocare/clinic/pkg/types"
)

// JWTClaims represents the claims carried by clinic bearer tokens
type JWTClaims struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// TokenValidator validates and issues HS256 bearer tokens
type TokenValidator struct {
	jwtSecret []byte
	issuer    string
	ttl       time.Duration
	now       func() time.Time
}

// NewTokenValidator creates a new token validator
func NewTokenValidator(secret, issuer string, ttl time.Duration) *TokenValidator {
	return &TokenValidator{
		jwtSecret: []byte(secret),
		issuer:    issuer,
		ttl:       ttl,
		now:       time.Now,
	}
}

// ValidateJWT validates a token and returns the actor it identifies
func (tv *TokenValidator) ValidateJWT(tokenString string) (*types.Actor, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(tv.now),
	}
	if tv.issuer != "" {
		opts = append(opts, jwt.WithIssuer(tv.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return tv.jwtSecret, nil
	}, opts...)
	if err != nil {
		return nil, types.NewAuthenticationError(types.ErrCodeAuthenticationFailed, "invalid or expired token", err)
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid {
		return nil, types.NewAuthenticationError(types.ErrCodeAuthenticationFailed, "invalid token claims", nil)
	}

	role := types.UserRole(claims.Role)
	if claims.UserID == "" || !role.Valid() {
		return nil, types.NewAuthenticationError(types.ErrCodeAuthenticationFailed, "token is missing user or role", nil)
	}

	return &types.Actor{
		ID:   claims.UserID,
		Name: claims.Name,
		Role: role,
	}, nil
}

// GenerateToken signs a token for actor valid for the configured TTL
func (tv *TokenValidator) GenerateToken(actor *types.Actor) (string, time.Time, error) {
	if actor == nil || actor.ID == "" || !actor.Role.Valid() {
		return "", time.Time{}, errors.New("actor requires an id and a known role")
	}

	now := tv.now()
	expiresAt := now.Add(tv.ttl)

	claims := &JWTClaims{
		UserID: actor.ID,
		Name:   actor.Name,
		Role:   string(actor.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    tv.issuer,
			Subject:   actor.ID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(tv.jwtSecret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, expiresAt, nil
}

// ActorFromRequest authenticates the bearer token on r
func (tv *TokenValidator) ActorFromRequest(r *http.Request) (*types.Actor, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return nil, types.NewAuthenticationError(types.ErrCodeAuthenticationFailed, "missing authorization header", nil)
	}

	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return nil, types.NewAuthenticationError(types.ErrCodeAuthenticationFailed, "authorization header must be a bearer token", nil)
	}

	return tv.ValidateJWT(strings.TrimSpace(token))
}
