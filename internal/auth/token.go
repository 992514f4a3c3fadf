package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken  = errors.New("invalid access token")
	ErrMissingClaims = errors.New("access token is missing required claims")
)

const AccessTokenCookie = "access_token"

// Principal is the authenticated caller carried by an access token.
type Principal struct {
	UserID    uint
	CompanyID uint
	Role      string
}

// ExtractAccessToken reads the token from the access_token cookie, falling
// back to an Authorization: Bearer header.
func ExtractAccessToken(r *http.Request) string {
	if cookie, err := r.Cookie(AccessTokenCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}

	return ""
}

// ParseToken validates an HS256 token and maps its claims to a Principal.
func ParseToken(tokenStr string, secret []byte) (*Principal, error) {
	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return secret, nil
	})
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	userID, ok := claims["user_id"].(float64)
	if !ok {
		return nil, ErrMissingClaims
	}
	companyID, ok := claims["company_id"].(float64)
	if !ok {
		return nil, ErrMissingClaims
	}
	role, _ := claims["role"].(string)

	return &Principal{
		UserID:    uint(userID),
		CompanyID: uint(companyID),
		Role:      role,
	}, nil
}
