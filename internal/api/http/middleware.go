package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/immxrtalbeast/collabdocs/internal/service"
)

const (
	accessTokenCookie = "access_token"
	ctxUserID         = "userID"
	ctxUserName       = "userName"
)

// RequireAuth rejects requests without a valid access token.
func RequireAuth(users service.UserInteractor) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		token := extractToken(ctx)
		if token == "" {
			ctx.AbortWithStatus(http.StatusForbidden)
			return
		}

		userID, name, err := users.ParseToken(token)
		if err != nil {
			ctx.AbortWithStatus(http.StatusUnauthorized)
			return
		}

		ctx.Set(ctxUserID, userID)
		ctx.Set(ctxUserName, name)
		ctx.Next()
	}
}

// OptionalAuth populates the identity when a valid token is present and
// leaves the request anonymous otherwise.
func OptionalAuth(users service.UserInteractor) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if token := extractToken(ctx); token != "" {
			if userID, name, err := users.ParseToken(token); err == nil {
				ctx.Set(ctxUserID, userID)
				ctx.Set(ctxUserName, name)
			}
		}
		ctx.Next()
	}
}

func extractToken(ctx *gin.Context) string {
	if cookie, err := ctx.Cookie(accessTokenCookie); err == nil && cookie != "" {
		return cookie
	}
	header := ctx.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}

func currentUserID(ctx *gin.Context) string {
	return ctx.GetString(ctxUserID)
}
