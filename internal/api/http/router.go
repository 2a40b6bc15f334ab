package http

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/immxrtalbeast/collabdocs/internal/service"
)

func SetupRouter(
	users service.UserInteractor,
	userController *UserController,
	documentController *DocumentController,
	realtimeController *RealtimeController,
	allowedOrigins []string,
) *gin.Engine {
	router := gin.Default()

	config := cors.DefaultConfig()
	config.AllowOrigins = allowedOrigins
	config.AllowCredentials = true
	config.AllowHeaders = []string{
		"Authorization",
		"Content-Type",
		"Origin",
		"Accept",
	}
	config.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"}
	config.ExposeHeaders = []string{"Set-Cookie"}
	router.Use(cors.New(config))

	router.GET("/healthz", func(ctx *gin.Context) {
		ctx.JSON(200, gin.H{"status": "ok"})
	})

	router.POST("/users/register", userController.Register)
	router.POST("/login", userController.Login)
	router.GET("/logout", userController.Logout)

	authed := router.Group("/")
	authed.Use(RequireAuth(users))
	{
		authed.GET("/verify", userController.Verify)
		authed.GET("/me", userController.Verify)
		authed.GET("/users/names", userController.Names)

		authed.POST("/documents", documentController.CreateDocument)
		authed.GET("/documents/mine", documentController.ListDocuments)
		authed.GET("/documents/shared-with-me", documentController.ListSharedWithMe)
		authed.GET("/documents/:docID", documentController.GetDocument)
		authed.PUT("/documents/:docID", documentController.UpdateContent)
		authed.PUT("/documents/:docID/title", documentController.UpdateTitle)
		authed.DELETE("/documents/:docID", documentController.DeleteDocument)
		authed.POST("/documents/:docID/share", documentController.ShareDocument)
		authed.GET("/documents/:docID/shared-users", documentController.SharedUsers)

		authed.GET("/documents/shared/link/:linkID", documentController.ResolveSharedLink)
		authed.PUT("/documents/shared/link/:linkID", documentController.UpdateSharedContent)
	}

	ws := router.Group("/ws")
	ws.Use(OptionalAuth(users))
	ws.GET("", realtimeController.Connect)

	return router
}
