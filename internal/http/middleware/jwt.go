package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/gin-gonic/gin"

	"github.com/lumen-labs/iris/internal/db"
	"github.com/lumen-labs/iris/internal/model"
)

// signs a token embedding userID in the "sub" claim.
func GenerateJWT(userID int, secret string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": userID,
		"exp": time.Now().Add(72 * time.Hour).Unix(),
	})
	return token.SignedString([]byte(secret))
}

// verifies the JWT and returns the user ID (unexported, only used internally).
func parseToken(tokenString, secret string) (int, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return 0, errors.New("invalid token")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, errors.New("invalid claims")
	}
	sub, ok := claims["sub"].(float64)
	if !ok {
		return 0, errors.New("invalid sub claim")
	}
	return int(sub), nil
}

// tokenFromRequest reads "Authorization: Bearer <token>", falling back to
// the access_token query parameter for clients (EventSource) that cannot
// set headers.
func tokenFromRequest(c *gin.Context) (string, error) {
	header := c.GetHeader("Authorization")
	if header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			return "", errors.New("invalid auth header")
		}
		return parts[1], nil
	}
	if token := c.Query("access_token"); token != "" {
		return token, nil
	}
	return "", errors.New("missing auth header")
}

// UserFromRequest authenticates the request against the store and returns
// the current user without touching the gin context.
func UserFromRequest(c *gin.Context, secret string, store db.Store) (*model.User, error) {
	token, err := tokenFromRequest(c)
	if err != nil {
		return nil, err
	}
	userID, err := parseToken(token, secret)
	if err != nil {
		return nil, errors.New("invalid token")
	}
	user, err := store.GetUserByID(userID)
	if err != nil {
		return nil, errors.New("user not found")
	}
	return user, nil
}

// JWTMiddleware verifies the request token, loads the user, and sets
// "currentUser" in context.
func JWTMiddleware(secret string, store db.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := UserFromRequest(c, secret, store)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		c.Set("currentUser", user)
		c.Next()
	}
}
