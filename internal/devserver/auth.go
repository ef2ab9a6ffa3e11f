package devserver

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid or expired token")

// PlayerClaims binds a token to one player in one session.
type PlayerClaims struct {
	SessionID string `json:"sessionId"`
	PlayerID  string `json:"playerId"`
	Username  string `json:"username"`
	jwt.RegisteredClaims
}

// Auth issues and validates the session-scoped player tokens the dev server
// hands out on create and join.
type Auth struct {
	secret []byte
}

func NewAuth(secret string) *Auth {
	if secret == "" {
		secret = "dev-only-secret"
	}
	return &Auth{secret: []byte(secret)}
}

// IssuePlayerToken creates a token for a player in a session.
func (a *Auth) IssuePlayerToken(sessionID, playerID, username string) (string, error) {
	claims := &PlayerClaims{
		SessionID: sessionID,
		PlayerID:  playerID,
		Username:  username,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.secret)
}

// ValidatePlayerToken parses a token and returns its claims.
func (a *Auth) ValidatePlayerToken(tokenString string) (*PlayerClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &PlayerClaims{}, func(*jwt.Token) (interface{}, error) {
		return a.secret, nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*PlayerClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
