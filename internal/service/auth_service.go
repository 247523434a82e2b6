package service

import (
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	apperrors "juststart/internal/errors"
)

const tokenSubject = "juststart"

// AuthService guards the control API with a single shared passphrase. With
// no passphrase configured the API is open and no tokens are issued.
type AuthService struct {
	passphraseHash []byte
	jwtSecret      []byte
	tokenTTL       time.Duration
}

type TokenResult struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// NewAuthService hashes the passphrase once; the plain text is not kept.
func NewAuthService(passphrase, jwtSecret string, tokenTTL time.Duration) (*AuthService, error) {
	s := &AuthService{
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  tokenTTL,
	}
	if passphrase == "" {
		return s, nil
	}
	if jwtSecret == "" {
		return nil, fmt.Errorf("jwt secret is required when a passphrase is set")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(passphrase), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash passphrase: %w", err)
	}
	s.passphraseHash = hash
	return s, nil
}

func (s *AuthService) Enabled() bool {
	return len(s.passphraseHash) > 0
}

func (s *AuthService) Login(passphrase string) (*TokenResult, *apperrors.APIError) {
	if !s.Enabled() {
		return nil, apperrors.New(http.StatusNotFound, apperrors.CodeAuthDisabled, "authentication is disabled")
	}
	if passphrase == "" {
		return nil, apperrors.BadRequest("invalid_credentials", "passphrase is required")
	}
	if bcrypt.CompareHashAndPassword(s.passphraseHash, []byte(passphrase)) != nil {
		return nil, apperrors.Unauthorized("invalid passphrase")
	}
	return s.issueToken()
}

func (s *AuthService) ParseToken(tokenString string) (string, *apperrors.APIError) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, jwt.ErrSignatureInvalid
		}
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return "", apperrors.Unauthorized("invalid token")
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok {
		return "", apperrors.Unauthorized("invalid token")
	}

	if claims.Subject != tokenSubject {
		return "", apperrors.Unauthorized("invalid token subject")
	}

	return claims.Subject, nil
}

func (s *AuthService) issueToken() (*TokenResult, *apperrors.APIError) {
	now := time.Now().UTC()
	expiresAt := now.Add(s.tokenTTL)
	claims := jwt.RegisteredClaims{
		Subject:   tokenSubject,
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return nil, apperrors.Internal("failed to sign token")
	}
	return &TokenResult{Token: signed, ExpiresAt: expiresAt}, nil
}
