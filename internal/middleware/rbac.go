package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/artbox-backend/internal/model"
	"github.com/stemsi/artbox-backend/internal/response"
	"github.com/stemsi/artbox-backend/internal/service"
)

// ContextKeyUser is the Gin context key for the loaded student record.
const ContextKeyUser = "user"

// RequireTeacher admits teacher tokens only.
func RequireTeacher() gin.HandlerFunc {
	return requireRole(model.RoleTeacher, response.ErrTeacherAccessOnly)
}

// RequireStudent admits student tokens only.
func RequireStudent() gin.HandlerFunc {
	return requireRole(model.RoleStudent, response.ErrStudentAccessOnly)
}

func requireRole(role model.Role, code response.ErrCode) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetClaims(c)
		if claims == nil {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenRequired)
			return
		}
		if claims.Role != role {
			response.AbortFail(c, http.StatusForbidden, code)
			return
		}
		c.Next()
	}
}

// UserLoader resolves the signed-in user. *service.AuthService satisfies it.
type UserLoader interface {
	Me(ctx context.Context, claims *service.Claims) (*model.User, error)
}

// RequireRegistered loads the signed-in user and rejects students who are
// not on any class roster.
func RequireRegistered(loader UserLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetClaims(c)
		if claims == nil {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenRequired)
			return
		}

		user, err := loader.Me(c.Request.Context(), claims)
		if err != nil {
			if errors.Is(err, service.ErrNotRegistered) {
				response.AbortFail(c, http.StatusForbidden, response.ErrNotRegistered)
				return
			}
			if errors.Is(err, service.ErrNotFound) {
				response.AbortFail(c, http.StatusUnauthorized, response.ErrSessionInvalidated)
				return
			}
			response.AbortFail(c, http.StatusInternalServerError, response.ErrInternal)
			return
		}

		c.Set(ContextKeyUser, user)
		c.Next()
	}
}

// GetUser retrieves the user loaded by RequireRegistered.
func GetUser(c *gin.Context) *model.User {
	val, exists := c.Get(ContextKeyUser)
	if !exists {
		return nil
	}
	user, _ := val.(*model.User)
	return user
}
