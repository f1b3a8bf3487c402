package jwt

import "errors"

var (
	ErrMissingToken  = errors.New("jwt: missing token")
	ErrInvalidToken  = errors.New("jwt: invalid token")
	ErrExpiredToken  = errors.New("jwt: token expired")
	ErrInvalidClaims = errors.New("jwt: invalid claims")

	ErrInvalidConfig = errors.New("jwt: invalid configuration")
)
