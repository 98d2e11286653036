// Package auth issues and checks the signed session cookie carried by the
// HTTP surface. The cookie only proves the caller is the logged-in
// operator; the session itself lives in the identity service.
package auth

import (
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const CookieName = "session"

const SessionTTL = 12 * time.Hour

func CreateCookie(name string, value string, path string, exp time.Time) *http.Cookie {
	cookie := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     path,
		Expires:  exp,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	}
	return cookie
}

func SignSessionToken(userID, role string, secret []byte) (string, error) {
	exp := time.Now().Add(SessionTTL)
	claims := jwt.MapClaims{
		"sub":  userID,
		"role": role,
		"exp":  exp.Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(secret)
}

func ParseSessionToken(raw string, secret []byte) (userID, role string, err error) {
	token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signature method: %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil || !token.Valid {
		return "", "", fmt.Errorf("invalid session token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", "", fmt.Errorf("cannot parse claims")
	}
	userID, ok = claims["sub"].(string)
	if !ok {
		return "", "", fmt.Errorf("invalid subject claim")
	}
	role, ok = claims["role"].(string)
	if !ok {
		return "", "", fmt.Errorf("invalid role claim")
	}
	return userID, role, nil
}
