package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// identityKey is the gin context key for the authenticated identity.
const identityKey = "identity"

// Identity is the authenticated caller. User accounts live in the external
// identity provider; the token carries everything this service needs: the
// user id and the manage-all-chats capability.
type Identity struct {
	UserID     int64
	Privileged bool
}

// Claims is the JWT claim set issued by the identity provider.
type Claims struct {
	ManageChats bool `json:"manage_chats"`
	jwt.RegisteredClaims
}

// AuthMiddleware validates the bearer token and stores the Identity in the
// request context.
func AuthMiddleware(secret []byte, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, errorBody("unauthenticated", "authorization header required"))
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, errorBody("unauthenticated", "authorization header must be Bearer <token>"))
			c.Abort()
			return
		}

		claims := &Claims{}
		token, err := jwt.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return secret, nil
		})
		if err != nil || !token.Valid {
			if errors.Is(err, jwt.ErrTokenExpired) {
				c.JSON(http.StatusUnauthorized, errorBody("unauthenticated", "token expired"))
			} else {
				logger.Debug("invalid token", zap.Error(err))
				c.JSON(http.StatusUnauthorized, errorBody("unauthenticated", "invalid token"))
			}
			c.Abort()
			return
		}

		userID, err := claims.RegisteredClaims.GetSubject()
		if err != nil || userID == "" {
			c.JSON(http.StatusUnauthorized, errorBody("unauthenticated", "token missing subject"))
			c.Abort()
			return
		}
		uid, err := parseID(userID)
		if err != nil {
			c.JSON(http.StatusUnauthorized, errorBody("unauthenticated", "invalid subject"))
			c.Abort()
			return
		}

		c.Set(identityKey, Identity{UserID: uid, Privileged: claims.ManageChats})
		c.Next()
	}
}

// identityFrom returns the authenticated identity set by AuthMiddleware.
func identityFrom(c *gin.Context) Identity {
	return c.MustGet(identityKey).(Identity)
}
