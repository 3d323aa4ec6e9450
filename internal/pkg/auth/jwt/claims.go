package jwt

import "github.com/golang-jwt/jwt"

// Claims defines the structure of the identity token issued at login/registration
// and verified on the signaling handshake. The subject id lives in the standard
// "sub" claim; the display name is the only custom claim.
type Claims struct {
	// StandardClaims embeds the JWT standard fields such as Sub (Subject),
	// Exp (Expiration), Iat (Issued At), and Iss (Issuer).
	jwt.StandardClaims

	// Name is the display name shown to other users. It is carried in the token
	// so the signaling server never needs a database lookup to identify a peer.
	Name string `json:"name"`
}

// Identity is the verified (user id, display name) pair extracted from a valid token.
// This is the only thing the signaling core ever learns about a connection.
type Identity struct {
	ID   string
	Name string
}
