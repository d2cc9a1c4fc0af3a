package route

import (
	"github.com/gin-gonic/gin"

	"formbox/backend/api/handler"
	"formbox/backend/api/middleware"
)

func SetApiRouter(route *gin.Engine) {
	apiRouter := route.Group("/api")
	{
		// Authentication routes
		authRoutes := apiRouter.Group("/auth")
		{
			authRoutes.POST("/login", handler.Login)
			authRoutes.POST("/register", handler.Register)
			authRoutes.POST("/refresh", handler.RefreshToken)
			authRoutes.POST("/logout", handler.Logout)
		}

		// Self endpoint
		userRoute := apiRouter.Group("/user")
		userRoute.Use(middleware.UserAuth())
		{
			userRoute.GET("/self", handler.GetSelf)
		}

		// Form routes: owners design and manage forms, callers submit to them
		formRoute := apiRouter.Group("/forms")
		formRoute.Use(middleware.UserAuth())
		{
			formRoute.GET("/", handler.GetForms)
			formRoute.POST("/", handler.CreateForm)
			formRoute.GET("/:id", handler.GetForm)
			formRoute.PUT("/:id", handler.UpdateForm)
			formRoute.DELETE("/:id", handler.DeleteForm)
			formRoute.POST("/:id/publish", handler.PublishForm)

			formRoute.GET("/:id/responses", handler.GetResponses)
			formRoute.POST("/:id/responses", handler.SubmitResponse)
			formRoute.GET("/:id/responses/:responseId", handler.GetResponse)
			formRoute.PUT("/:id/responses/:responseId", handler.UpdateResponse)
		}

		// Standalone upload endpoint
		uploadRoute := apiRouter.Group("/upload")
		uploadRoute.Use(middleware.UserAuth())
		{
			uploadRoute.POST("/", handler.UploadFile)
		}
	}
}

// SetFileRouter exposes stored files through the authenticated serving
// endpoint. Files are never served from a public directory directly.
func SetFileRouter(route *gin.Engine) {
	fileRoute := route.Group("/files")
	fileRoute.Use(middleware.UserAuth())
	{
		fileRoute.GET("/*filepath", handler.ServeFile)
	}
}
