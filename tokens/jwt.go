// Package tokens issues and verifies the identity tokens handed out before
// a websocket connection is opened. A token binds a connection-scoped
// player id to a display name.
package tokens

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const tokenLifetime = 24 * time.Hour

type Payload struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

func New(payload Payload, secret []byte) (string, error) {
	claims := jwt.MapClaims{
		"id":       payload.ID,
		"username": payload.Username,
		"exp":      time.Now().Add(tokenLifetime).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

func Parse(tokenString string, secret []byte) (*Payload, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}

	id, ok1 := claims["id"].(string)
	username, ok2 := claims["username"].(string)
	if !ok1 || !ok2 || id == "" || username == "" {
		return nil, errors.New("invalid token claims")
	}

	return &Payload{ID: id, Username: username}, nil
}
