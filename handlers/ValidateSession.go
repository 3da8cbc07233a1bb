package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"cfss-backend/models"
	"cfss-backend/utils"

	"github.com/gin-gonic/gin"
)

const userKey = "user"

// ValidateSession resolves the caller identity and stores it on the context.
// With a JWT secret configured it requires an HS256 bearer token; without one
// it trusts the x-user-email and x-user-admin headers set by the gateway.
func ValidateSession(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var user models.UserInfo

		if jwtSecret != "" {
			authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
			token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
			if token == "" || token == authHeader {
				utils.ErrorResponse(c, http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Missing bearer token", nil)
				return
			}
			claims, err := utils.ValidateJWT(jwtSecret, token)
			if err != nil {
				utils.Logger.WithError(err).Debug("rejected bearer token")
				utils.ErrorResponse(c, http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Invalid or expired token", nil)
				return
			}
			user = models.UserInfo{Email: claims.Email, Name: claims.Name, IsAdmin: claims.Admin}
		} else {
			email := strings.TrimSpace(c.GetHeader("x-user-email"))
			if email == "" {
				utils.ErrorResponse(c, http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Missing x-user-email header", nil)
				return
			}
			admin, _ := strconv.ParseBool(strings.TrimSpace(c.GetHeader("x-user-admin")))
			user = models.UserInfo{Email: strings.ToLower(email), IsAdmin: admin}
		}

		c.Set(userKey, user)
		c.Next()
	}
}

// CurrentUser returns the identity set by ValidateSession.
func CurrentUser(c *gin.Context) models.UserInfo {
	if v, ok := c.Get(userKey); ok {
		if user, ok := v.(models.UserInfo); ok {
			return user
		}
	}
	return models.UserInfo{}
}
