package line

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Issuer is the iss claim LINE puts in every ID token.
const Issuer = "https://access.line.me"

var ErrNonceMismatch = errors.New("id token nonce mismatch")

type IDTokenClaims struct {
	Name    string `json:"name"`
	Picture string `json:"picture,omitempty"`
	Nonce   string `json:"nonce,omitempty"`
	jwt.RegisteredClaims
}

// VerifyIDToken checks an HS256 ID token signed with the channel secret.
func VerifyIDToken(raw, channelID, channelSecret, nonce string) (*IDTokenClaims, error) {
	claims := &IDTokenClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(channelSecret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithAudience(channelID),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("invalid id token: %w", err)
	}

	if nonce != "" && claims.Nonce != nonce {
		return nil, ErrNonceMismatch
	}

	if claims.Subject == "" {
		return nil, errors.New("invalid id token: missing sub")
	}

	return claims, nil
}
