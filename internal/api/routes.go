package api

import (
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"collab_web/internal/api/handlers"
	"collab_web/internal/auth"
	"collab_web/internal/middleware"
	"collab_web/internal/realtime"
	"collab_web/internal/service"
)

// SetupRoutes 註冊所有路由。allowedOrigins 同時用於 CORS 與 WebSocket 的來源檢查
func SetupRoutes(r *gin.Engine, services *service.Services, hub *realtime.Hub, allowedOrigins []string, logger *slog.Logger) {
	r.Use(corsMiddleware(allowedOrigins))

	// 初始化 handlers
	authHandler := handlers.NewAuthHandler(services.User)
	taskHandler := handlers.NewTaskHandler(services.Coordinator, services.Workspace)
	commentHandler := handlers.NewCommentHandler(services.Coordinator, services.Workspace)
	versionHandler := handlers.NewVersionHandler(services.Coordinator, services.Workspace)
	projectHandler := handlers.NewProjectHandler(services.Project)
	adminHandler := handlers.NewAdminHandler(services)
	analyticsHandler := handlers.NewAnalyticsHandler(services.Analytics)
	wsHandler := handlers.NewWebSocketHandler(hub, services.Gate, allowedOrigins, logger)

	requireAuth := middleware.AuthMiddleware(services.Gate)
	requireAdmin := middleware.AuthMiddleware(services.Gate, auth.RoleAdmin)

	// API 路由群組
	api := r.Group("/api")

	// 處理 404 錯誤
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "找不到該路徑", "code": "not_found"})
	})

	// 公開路由
	{
		api.POST("/auth/register", authHandler.Register)
		api.POST("/auth/login", authHandler.Login)

		// 基本的健康檢查
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})

		// token 可選，帶了就驗證
		api.GET("/ws", wsHandler.HandleWebSocket)
	}

	// 需要驗證的路由
	authorized := api.Group("/")
	authorized.Use(requireAuth)
	{
		authorized.GET("/auth/me", authHandler.Me)

		tasks := authorized.Group("/tasks")
		{
			tasks.POST("", taskHandler.Create)
			tasks.GET("", taskHandler.List)
			tasks.DELETE("", taskHandler.ClearAll)
			tasks.GET("/:id", taskHandler.Get)
			tasks.PUT("/:id", taskHandler.Update)
			tasks.DELETE("/:id", taskHandler.Delete)
		}

		comments := authorized.Group("/comments")
		{
			comments.GET("/task/:taskId", commentHandler.ListByTask)
			comments.POST("/task/:taskId", commentHandler.Create)
			comments.PUT("/:id", commentHandler.Update)
			comments.DELETE("/:id", commentHandler.Delete)
		}

		versions := authorized.Group("/versions")
		{
			versions.GET("", versionHandler.ListAll)
			versions.GET("/:projectId", versionHandler.ListByProject)
			versions.POST("/:projectId", versionHandler.Create)
			versions.PUT("/item/:id", versionHandler.Update)
			versions.DELETE("/item/:id", versionHandler.Delete)
		}

		projects := authorized.Group("/projects")
		{
			projects.POST("", projectHandler.CreateProject)
			projects.GET("", projectHandler.ListProjects)
			projects.GET("/:id", projectHandler.GetProject)
		}

		analytics := authorized.Group("/analytics")
		{
			analytics.GET("/summary", analyticsHandler.Summary)
			analytics.GET("/tasks", analyticsHandler.Tasks)
		}
	}

	// 管理員路由
	admin := api.Group("/admin")
	admin.Use(requireAdmin)
	{
		admin.GET("/users", adminHandler.ListUsers)
		admin.PATCH("/users/:id", adminHandler.UpdateUserRole)
		admin.GET("/tasks", adminHandler.ListTasks)
		admin.DELETE("/tasks/:id", adminHandler.DeleteTask)
		admin.GET("/comments", adminHandler.ListComments)
		admin.DELETE("/comments/:id", adminHandler.DeleteComment)
	}
	api.GET("/ws/stats", requireAdmin, wsHandler.Stats)
}

func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(allowedOrigins) == 0 || slices.Contains(allowedOrigins, "*") {
		cfg.AllowOriginFunc = func(string) bool { return true }
	} else {
		cfg.AllowOrigins = allowedOrigins
	}
	return cors.New(cfg)
}
