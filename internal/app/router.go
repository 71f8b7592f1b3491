package app

import (
	"learnpath_backend/docs"
	"learnpath_backend/internal/config"
	"learnpath_backend/internal/middleware"
	"learnpath_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 公共路由(无需登录)
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/register", c.auth.Register)
		public.POST("/login", c.auth.Login)
	}

	// 需要授权的路由
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg))
	{
		authGroup.GET("/prerequisites", c.prerequisite.GetPrerequisites)

		paths := authGroup.Group("/paths")
		{
			paths.POST("", c.path.CreatePath)
			paths.GET("", c.path.ListPaths)
			paths.GET("/:id", c.path.GetPath)
			paths.PUT("/:id", c.path.UpdatePath)
			paths.POST("/:id/steps/:stepId/complete", c.path.CompleteStep)
			paths.POST("/:id/steps/:stepId/reopen", c.path.ReopenStep)
			paths.POST("/:id/checkpoints/:checkpointId/submit", c.path.SubmitCheckpoint)
			paths.POST("/:id/adapt", c.path.AdaptPath)
			paths.POST("/:id/branches", c.path.CreateBranch)
		}
	}
}
