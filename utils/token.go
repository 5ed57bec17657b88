package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/dgrijalva/jwt-go"
)

type JwtCustomClaim struct {
	UserName string `json:"userName"`
	Role     string `json:"role"`
	jwt.StandardClaims
}

// TokenIssuer signs and validates HS256 API tokens with one shared secret.
type TokenIssuer struct {
	secret   []byte
	lifespan time.Duration
}

func NewTokenIssuer(secret string, lifespanHours int) (*TokenIssuer, error) {
	if secret == "" {
		return nil, errors.New("API_SECRET is required")
	}
	if lifespanHours <= 0 {
		lifespanHours = 24
	}
	return &TokenIssuer{secret: []byte(secret), lifespan: time.Duration(lifespanHours) * time.Hour}, nil
}

func (ti *TokenIssuer) JwtGenerate(userName string, role string) (string, error) {
	now := time.Now()
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, &JwtCustomClaim{
		UserName: userName,
		Role:     role,
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: now.Add(ti.lifespan).Unix(),
			IssuedAt:  now.Unix(),
		},
	})
	return t.SignedString(ti.secret)
}

func (ti *TokenIssuer) JwtValidate(token string) (*jwt.Token, error) {
	return jwt.ParseWithClaims(token, &JwtCustomClaim{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("there's a problem with the signing method")
		}
		return ti.secret, nil
	})
}
