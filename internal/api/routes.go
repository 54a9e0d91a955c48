package api

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"edtech/internal/api/middleware"
	"edtech/internal/auth"
	"edtech/internal/database"
)

// Deps 汇总路由所需的依赖。Sessions 与 Subscriber 可为空（测试中不依赖 Redis）。
type Deps struct {
	Accounts   *database.AccountStore
	CVs        *database.CVStore
	Courses    *database.CourseStore
	Blogs      *database.BlogStore
	Manager    *auth.Manager
	Tokens     *auth.TokenService
	Sessions   SessionStore
	Exporter   Exporter
	Queue      TaskEnqueuer
	Signer     DownloadSigner
	Subscriber Subscriber
	Logger     *slog.Logger

	PresignTTL     time.Duration
	CookieDomain   string
	AllowedOrigins []string
}

// RegisterRoutes 注册 /v1 下的全部业务路由。
func RegisterRoutes(router *gin.Engine, deps Deps) {
	authHandler := NewAuthHandler(deps.Manager, deps.Tokens, deps.Accounts, deps.Sessions, deps.Logger, deps.CookieDomain)
	cvHandler := NewCVHandler(deps.CVs, deps.Exporter, deps.Queue, deps.Signer, deps.PresignTTL)
	courseHandler := NewCourseHandler(deps.Courses)
	blogHandler := NewBlogHandler(deps.Blogs)
	adminHandler := NewAdminHandler(deps.Accounts)

	authMiddleware := middleware.AuthMiddleware(deps.Tokens, deps.Accounts)
	verified := middleware.RequireVerified()

	v1 := router.Group("/v1")
	{
		if deps.Subscriber != nil {
			wsHandler := NewWsHandler(deps.Subscriber, deps.Tokens, deps.Logger, deps.AllowedOrigins)
			v1.GET("/ws", wsHandler.HandleConnection)
		}

		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.GET("/verify/:token", authHandler.Verify)
			authGroup.POST("/verify/resend", authHandler.ResendVerification)
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/refresh", authHandler.Refresh)
			authGroup.POST("/logout", authMiddleware, authHandler.Logout)
		}

		v1.GET("/courses", courseHandler.ListCourses)
		v1.GET("/courses/:id", courseHandler.GetCourse)
		v1.GET("/blogs", blogHandler.ListBlogs)
		v1.GET("/blogs/:id", blogHandler.GetBlog)

		member := v1.Group("")
		member.Use(authMiddleware, verified)
		{
			member.GET("/me", authHandler.Me)
			member.GET("/me/courses", courseHandler.MyCourses)
			member.POST("/courses/:id/enroll", courseHandler.Enroll)
			member.PUT("/enrollments/:id/progress", courseHandler.UpdateProgress)
			member.POST("/blogs", blogHandler.CreateBlog)
		}

		cvGroup := v1.Group("/cvs")
		cvGroup.Use(authMiddleware, verified)
		{
			cvGroup.POST("", cvHandler.CreateCV)
			cvGroup.GET("", cvHandler.ListCVs)
			cvGroup.GET("/:id", cvHandler.GetCV)
			cvGroup.GET("/:id/download/:format", cvHandler.Download)
			cvGroup.POST("/:id/exports", cvHandler.CreateExport)
			cvGroup.GET("/:id/exports/:exportID/link", cvHandler.ExportLink)
		}

		adminGroup := v1.Group("/admin")
		adminGroup.Use(authMiddleware, verified, middleware.RequireRole(database.RoleAdmin))
		{
			adminGroup.GET("/accounts", adminHandler.ListAccounts)
			adminGroup.PUT("/accounts/:id/role", adminHandler.UpdateRole)
		}
	}
}
