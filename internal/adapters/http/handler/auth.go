package handler

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ogurasousui/codex-staff-ledger/internal/core/access"
)

// TokenVerifier は ID プロバイダが HS256 で署名したアクセストークンを検証します。
type TokenVerifier struct {
	secret []byte
	issuer string
}

// NewTokenVerifier は TokenVerifier を生成します。issuer が空の場合は発行者を検証しません。
func NewTokenVerifier(secret, issuer string) *TokenVerifier {
	return &TokenVerifier{secret: []byte(secret), issuer: issuer}
}

// Subject はトークンを検証し、sub クレームを返します。
func (v *TokenVerifier) Subject(raw string) (string, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	var claims jwt.RegisteredClaims
	token, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		return "", fmt.Errorf("%w: %v", access.ErrUnauthenticated, err)
	}
	if !token.Valid || strings.TrimSpace(claims.Subject) == "" {
		return "", fmt.Errorf("%w: subject claim is required", access.ErrUnauthenticated)
	}
	return claims.Subject, nil
}

func bearerToken(header string) (string, error) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", errors.New("handler: bearer token is required")
	}
	return strings.TrimSpace(token), nil
}
