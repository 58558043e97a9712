package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "inventory-api"

type TokenMaker struct {
	secret []byte
}

func NewTokenMaker(secret string) *TokenMaker {
	return &TokenMaker{secret: []byte(secret)}
}

type Claims struct {
	OperatorID string `json:"operator_id"`
	Email      string `json:"email"`
	Role       string `json:"role"`
	jwt.RegisteredClaims
}

func (t *TokenMaker) New(op Operator, ttl time.Duration) (string, error) {
	now := time.Now()

	claims := Claims{
		OperatorID: op.ID,
		Email:      op.Email,
		Role:       op.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   op.ID,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
}

func (t *TokenMaker) Parse(tokenStr string) (Claims, error) {
	var c Claims

	token, err := jwt.ParseWithClaims(tokenStr, &c, func(token *jwt.Token) (any, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil || token == nil || !token.Valid {
		return Claims{}, errors.New("invalid token")
	}
	if c.OperatorID == "" {
		return Claims{}, errors.New("token has no operator")
	}

	return c, nil
}
