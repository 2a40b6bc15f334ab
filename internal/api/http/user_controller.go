package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/immxrtalbeast/collabdocs/internal/service"
)

type UserController struct {
	users    service.UserInteractor
	tokenTTL int
}

func NewUserController(users service.UserInteractor, tokenTTLSeconds int) *UserController {
	return &UserController{users: users, tokenTTL: tokenTTLSeconds}
}

func (c *UserController) Register(ctx *gin.Context) {
	type request struct {
		Name     string `json:"name" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	var req request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	user, token, err := c.users.Register(ctx.Request.Context(), req.Name, req.Password)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.setTokenCookie(ctx, token)
	ctx.JSON(http.StatusOK, gin.H{
		"message": "User registered and logged in successfully",
		"userId":  user.ID,
	})
}

func (c *UserController) Login(ctx *gin.Context) {
	type request struct {
		Name     string `json:"name" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	var req request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	_, token, err := c.users.Login(ctx.Request.Context(), req.Name, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			ctx.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid credentials"})
			return
		}
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.setTokenCookie(ctx, token)
	ctx.JSON(http.StatusOK, gin.H{"message": "Login successful"})
}

func (c *UserController) Verify(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{
		"userId": ctx.GetString(ctxUserID),
		"name":   ctx.GetString(ctxUserName),
	})
}

func (c *UserController) Logout(ctx *gin.Context) {
	ctx.SetSameSite(http.SameSiteNoneMode)
	ctx.SetCookie(accessTokenCookie, "", -1, "/", "", true, true)
	ctx.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

// Names resolves a comma-separated id list into display names.
func (c *UserController) Names(ctx *gin.Context) {
	raw := ctx.Query("ids")
	ids := make([]string, 0)
	for _, id := range strings.Split(raw, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}

	users, err := c.users.ListUserNames(ctx.Request.Context(), ids)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch names"})
		return
	}

	type entry struct {
		ID   string `json:"_id"`
		Name string `json:"name"`
	}
	result := make([]entry, 0, len(users))
	for _, user := range users {
		result = append(result, entry{ID: user.ID, Name: user.Name})
	}
	ctx.JSON(http.StatusOK, result)
}

func (c *UserController) setTokenCookie(ctx *gin.Context, token string) {
	ctx.SetSameSite(http.SameSiteNoneMode)
	ctx.SetCookie(accessTokenCookie, token, c.tokenTTL, "/", "", true, true)
}
