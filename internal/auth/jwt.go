package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token purposes. An invite token can only be exchanged for a password;
// it is never accepted as an access token.
const (
	TokenUseAccess = "access"
	TokenUseInvite = "invite"
)

// AdminClaims is the payload of the admin console access token. Couple
// sessions use opaque tokens; only the admin surface carries JWTs.
type AdminClaims struct {
	AdminID  int64  `json:"admin_id"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	TokenUse string `json:"token_use"`
	jwt.RegisteredClaims
}

func NewAdminToken(secret string, ttl time.Duration, claims AdminClaims) (string, error) {
	if claims.TokenUse == "" {
		claims.TokenUse = TokenUseAccess
	}
	now := time.Now().UTC()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		Subject:   claims.Email,
		Issuer:    "cradle",
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func ParseAdminToken(secret, tokenString string) (*AdminClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &AdminClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*AdminClaims)
	if !ok || !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}
