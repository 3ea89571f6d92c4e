package app

import (
	"scorm_lms_backend/docs"
	"scorm_lms_backend/internal/config"
	"scorm_lms_backend/internal/middleware"
	"scorm_lms_backend/internal/model"
	"scorm_lms_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, repos *repositories, cfg *config.Config) {
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
	authGroup.Use(middleware.AuthMiddleware(cfg), middleware.ActivityMiddleware(repos.user))
	{
		authGroup.GET("/me", c.auth.GetMe)

		scorm := authGroup.Group("/scorm")
		{
			scorm.GET("/packages", c.pkg.List)
			scorm.GET("/packages/:slug", c.pkg.Detail)
			scorm.POST("/packages/:slug/launch", c.player.Launch)

			// 播放器运行时端点，课件 JS 适配层直接调用
			scorm.POST("/runtime", c.runtime.Dispatch)

			scorm.GET("/progress", c.progress.MyProgress)
			scorm.GET("/attempts/:id", c.progress.AttemptDetail)

			// 管理端：上传、设置、删除
			admin := scorm.Group("")
			admin.Use(middleware.RoleMiddleware(model.Admin))
			{
				admin.POST("/packages", c.pkg.Upload)
				admin.PUT("/packages/:slug", c.pkg.Update)
				admin.DELETE("/packages/:slug", c.pkg.Delete)
			}
		}
	}
}
