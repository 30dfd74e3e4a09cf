package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrUnauthenticated  = errors.New("unauthenticated")
	ErrMissingToken     = fmt.Errorf("%w: missing token", ErrUnauthenticated)
	ErrInvalidToken     = fmt.Errorf("%w: invalid token", ErrUnauthenticated)
	ErrExpiredToken     = fmt.Errorf("%w: token has expired", ErrUnauthenticated)
	ErrInvalidSignature = fmt.Errorf("%w: invalid token signature", ErrUnauthenticated)
	ErrInvalidSubject   = fmt.Errorf("%w: invalid token subject", ErrUnauthenticated)
)

// TokenClaims carries the caller id. Older tokens put it in userId, newer ones
// use the registered sub claim.
type TokenClaims struct {
	UserID string `json:"userId,omitempty"`
	jwt.RegisteredClaims
}

// TokenVerifier checks HS256 bearer tokens. It holds no state besides the key.
type TokenVerifier struct {
	secret []byte
	issuer string
	now    func() time.Time
}

func NewTokenVerifier(secret, issuer string) *TokenVerifier {
	return &TokenVerifier{
		secret: []byte(secret),
		issuer: issuer,
		now:    time.Now,
	}
}

// Verify returns the caller identity encoded in credential.
func (v *TokenVerifier) Verify(credential string) (uuid.UUID, error) {
	credential = strings.TrimSpace(credential)
	if credential == "" {
		return uuid.Nil, ErrMissingToken
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(v.now),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	claims := &TokenClaims{}
	token, err := jwt.ParseWithClaims(credential, claims, func(token *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return uuid.Nil, ErrExpiredToken
		}
		if errors.Is(err, jwt.ErrTokenSignatureInvalid) || errors.Is(err, jwt.ErrSignatureInvalid) {
			return uuid.Nil, ErrInvalidSignature
		}
		return uuid.Nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return uuid.Nil, ErrInvalidToken
	}

	subject := claims.UserID
	if subject == "" {
		subject = claims.Subject
	}
	id, err := uuid.Parse(subject)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, ErrInvalidSubject
	}
	return id, nil
}

// Issue signs a token for userID valid for ttl.
func (v *TokenVerifier) Issue(userID uuid.UUID, ttl time.Duration) (string, error) {
	now := v.now()
	claims := TokenClaims{
		UserID: userID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    v.issuer,
			Subject:   userID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(v.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}
