package route

import (
	"github.com/gin-gonic/gin"

	"formbox/backend/api/middleware"
)

func SetRouter(route *gin.Engine) {
	route.Use(middleware.GzipDecodeMiddleware())
	route.Use(middleware.GzipEncodeMiddleware())
	route.Use(middleware.LangMiddleware())

	SetApiRouter(route)
	SetFileRouter(route)
}
