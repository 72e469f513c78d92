package app

import (
	"habitloop_backend/internal/config"
	"habitloop_backend/internal/middleware"
	"habitloop_backend/internal/model"
	"habitloop_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, repos *repositories, cfg *config.Config) {
	router.GET("/metrics", monitoring.PrometheusHandler())

	// 1. 公共路由(无需登录)
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/register", c.auth.Register)
		public.POST("/login", c.auth.Login)
	}

	// 2. 需要授权的路由
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg), middleware.ActivityMiddleware(repos.user))
	{
		a.registerUserRoutes(authGroup, c)
		a.registerHabitRoutes(authGroup, c)
		a.registerAchievementRoutes(authGroup, c)
	}

	// 3. 管理端路由
	admin := router.Group("/api/admin")
	admin.Use(middleware.AuthMiddleware(cfg), middleware.RoleMiddleware(model.Admin))
	{
		admin.POST("/achievements/:achievementId/award/:userId", c.achievement.DirectAward)
	}
}

func (a *App) registerUserRoutes(rg *gin.RouterGroup, c *controllers) {
	rg.GET("/profile", c.auth.GetProfile)
	rg.PUT("/user/profile", c.user.UpdateProfile)
	rg.GET("/user/summary", c.user.GetSummary)

	rg.GET("/points/balance", c.points.GetBalance)
	rg.GET("/points/history", c.points.GetHistory)

	rg.GET("/notifications", c.notification.List)
	rg.GET("/notifications/unread-count", c.notification.UnreadCount)
	rg.PATCH("/notifications/:notificationId/read", c.notification.MarkRead)
	rg.POST("/notifications/read-all", c.notification.MarkAllRead)
}

func (a *App) registerHabitRoutes(rg *gin.RouterGroup, c *controllers) {
	rg.POST("/habits", c.habit.Create)
	rg.GET("/habits", c.habit.List)
	rg.GET("/habits/:habitId", c.habit.Get)
	rg.PUT("/habits/:habitId", c.habit.Update)
	rg.DELETE("/habits/:habitId", c.habit.Archive)
	rg.POST("/habits/:habitId/complete", c.habit.Complete)
}

func (a *App) registerAchievementRoutes(rg *gin.RouterGroup, c *controllers) {
	rg.GET("/achievements", c.achievement.List)
	rg.GET("/achievements/mine", c.achievement.GetMine)
	rg.GET("/achievements/:achievementId/progress", c.achievement.GetProgress)
	rg.POST("/achievements/:achievementId/progress", c.achievement.AddProgress)
	rg.POST("/achievements/progress/bulk", c.achievement.AddProgressBulk)
}
