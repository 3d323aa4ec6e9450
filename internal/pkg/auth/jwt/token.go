package jwt

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt"
)

const (
	// IdentityExpiration defines the lifetime of an identity token.
	IdentityExpiration = 24 * time.Hour

	// TokenIssuer identifies the issuer of the token.
	TokenIssuer = "VoiceLink-Server"
)

// GenerateToken creates and signs a new identity token for the given user id and display name.
func GenerateToken(userID, displayName, secretKey string, duration time.Duration) (string, error) {
	now := time.Now()

	claims := &Claims{
		StandardClaims: jwt.StandardClaims{
			Subject:   userID,
			ExpiresAt: now.Add(duration).Unix(),
			IssuedAt:  now.Unix(),
			Issuer:    TokenIssuer,
		},
		Name: displayName,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	return token.SignedString([]byte(secretKey))
}

// VerifyToken parses and validates the token string using the provided secretKey,
// returning the verified identity. It rejects non-HMAC signing methods, bad
// signatures, expired tokens, and tokens missing a subject.
func VerifyToken(tokenString string, secretKey string) (Identity, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secretKey), nil
	})

	if err != nil {
		return Identity{}, err
	}

	if !token.Valid {
		return Identity{}, errors.New("invalid or expired token")
	}

	if claims.Subject == "" {
		return Identity{}, errors.New("token has no subject")
	}

	return Identity{ID: claims.Subject, Name: claims.Name}, nil
}
