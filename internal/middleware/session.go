package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/artbox-backend/internal/response"
)

// CheckSession rejects tokens whose session was signed out.
func CheckSession(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetClaims(c)
		if claims == nil {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenRequired)
			return
		}

		if err := verifier.ValidateSession(c.Request.Context(), claims); err != nil {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrSessionInvalidated)
			return
		}

		c.Next()
	}
}
