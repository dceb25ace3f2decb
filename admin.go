package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

const (
	adminSubject       = "admin"
	adminTokenLifetime = 24 * time.Hour
)

var ErrNotAdminToken = errors.New("token is not an admin token")

type AdminJWT struct {
	jwtSecret string
}

func NewAdminJWT(jwtSecret string) *AdminJWT {
	return &AdminJWT{jwtSecret}
}

func (a AdminJWT) GenerateToken(now time.Time) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   adminSubject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(adminTokenLifetime)),
	})
	return token.SignedString([]byte(a.jwtSecret))
}

func (a AdminJWT) Verify(tokenString string) error {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(a.jwtSecret), nil
	})
	if err != nil {
		return err
	}
	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || !token.Valid || claims.Subject != adminSubject {
		return ErrNotAdminToken
	}
	return nil
}
