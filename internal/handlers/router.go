package handlers

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/justsurfingit/career-atlas/internal/auth"
)

type RouterConfig struct {
	Jobs     *JobHandler
	Users    *UserHandler
	Auth     *AuthHandler
	Identity auth.IdentityProvider

	AdminAPIKey      string
	UploadRatePerMin int
}

// NewRouter registers every route under /api/v1.
func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	config := cors.DefaultConfig()
	config.AllowAllOrigins = true
	config.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "x-api-key"}
	config.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	r.Use(cors.New(config))

	api := r.Group("/api/v1")
	{
		api.GET("/health", HealthCheck)

		// Job Routes
		api.GET("/jobs", cfg.Jobs.ListJobs)
		api.GET("/jobs/companies", cfg.Jobs.Companies)
		api.GET("/jobs/:id", cfg.Jobs.GetJob)

		admin := api.Group("", auth.RequireAdminKey(cfg.AdminAPIKey))
		admin.POST("/jobs/extract", cfg.Jobs.ParseJob)
		admin.POST("/jobs", cfg.Jobs.CreateJob)

		// Auth Routes
		api.GET("/auth/login", cfg.Auth.Login)
		api.GET("/auth/callback", cfg.Auth.Callback)
		api.POST("/auth/logout", cfg.Auth.Logout)

		user := api.Group("", auth.RequireUser(cfg.Identity))
		user.GET("/me", cfg.Users.Me)

		user.GET("/bookmarks", cfg.Users.ListBookmarks)
		user.POST("/bookmarks/merge", cfg.Users.MergeBookmarks)
		user.PUT("/bookmarks/:id", cfg.Users.AddBookmark)
		user.DELETE("/bookmarks/:id", cfg.Users.RemoveBookmark)

		user.GET("/applications", cfg.Users.ListApplications)
		user.POST("/applications", cfg.Users.Apply)
		user.DELETE("/applications/:id", cfg.Users.RemoveApplication)

		user.GET("/profile", cfg.Users.GetProfile)
		user.PATCH("/profile", cfg.Users.UpdateProfile)
		uploads := user.Group("", RateLimit(cfg.UploadRatePerMin))
		uploads.POST("/profile/avatar", cfg.Users.UploadAvatar)
		uploads.POST("/profile/resume", cfg.Users.UploadResume)
	}
	return r
}
