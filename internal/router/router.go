package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stemsi/artbox-backend/internal/config"
	"github.com/stemsi/artbox-backend/internal/handler"
	"github.com/stemsi/artbox-backend/internal/metrics"
	"github.com/stemsi/artbox-backend/internal/middleware"
	"github.com/stemsi/artbox-backend/internal/response"
	"github.com/stemsi/artbox-backend/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth       *handler.AuthHandler
	Class      *handler.ClassHandler
	Task       *handler.TaskHandler
	Submission *handler.SubmissionHandler
	View       *handler.ViewHandler
	Resource   *handler.ResourceHandler
	Live       *handler.LiveHandler
	Student    *handler.StudentHandler
	Stream     *handler.StreamHandler
	System     *handler.SystemHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	authService *service.AuthService,
	handlers *Handlers,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID", "Content-Disposition", "Retry-After"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())
	router.Use(metrics.Middleware())
	router.Use(middleware.Brotli())

	// Uploaded artwork is only served from disk with the local backend.
	if cfg.StorageBackend == config.StorageLocal {
		uploadsGroup := router.Group("/uploads")
		uploadsGroup.Use(middleware.ImmutableAssets())
		{
			uploadsGroup.Static("/", cfg.UploadDir)
		}
	}

	router.GET("/health", handlers.System.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	requireJWT := middleware.RequireJWT(authService)
	checkSession := middleware.CheckSession(authService)

	// ─── 1. Auth Group (Public, Rate Limited) ──────────────────────────
	authLimiter := middleware.NewRateLimiter(cfg.AuthRateLimit, time.Minute, middleware.ClientIPKey)

	auth := router.Group("/api/v1/auth")
	auth.Use(authLimiter.Middleware())
	{
		auth.POST("/signup", handlers.Auth.SignUp)
		auth.POST("/signin", handlers.Auth.SignIn)

		// Authenticated profile routes
		auth.POST("/signout", requireJWT, checkSession, handlers.Auth.SignOut)
		auth.GET("/me", requireJWT, checkSession, handlers.Auth.Me)
	}

	// ─── 2. Teacher Group ──────────────────────────────────────────────
	teacher := router.Group("/api/v1/teacher")
	teacher.Use(requireJWT, checkSession, middleware.RequireTeacher())
	{
		classes := teacher.Group("/classes")
		{
			classes.GET("", handlers.Class.List)
			classes.POST("", handlers.Class.Create)
			classes.PUT("/:id", handlers.Class.Update)
			classes.DELETE("/:id", handlers.Class.Delete)
			classes.GET("/:id/roster", handlers.Class.Roster)
			classes.POST("/:id/import", handlers.Class.Import)
			classes.GET("/:id/board", handlers.View.Board)
		}

		tasks := teacher.Group("/tasks")
		{
			tasks.GET("", handlers.Task.List)
			tasks.POST("", handlers.Task.Create)
			tasks.PUT("/:id", handlers.Task.Update)
			tasks.DELETE("/:id", handlers.Task.Delete)
			tasks.GET("/:id/submissions", handlers.Submission.Submissions)
			tasks.GET("/:id/submissions/export", handlers.Submission.Export)
		}

		teacher.PATCH("/works/:id/feedback", handlers.Submission.Feedback)
		teacher.DELETE("/works/:id", handlers.Submission.Delete)

		teacher.GET("/units", handlers.View.Units)
		teacher.GET("/portfolio", handlers.View.Portfolio)

		resources := teacher.Group("/resources")
		{
			resources.GET("", handlers.Resource.List)
			resources.POST("", handlers.Resource.Create)
			resources.DELETE("/:id", handlers.Resource.Delete)
		}

		// Server-Sent Events; EventSource passes the token as ?token=.
		liveGroup := teacher.Group("/live")
		liveGroup.Use(middleware.NoStore())
		{
			liveGroup.GET("/units", handlers.Live.Units)
			liveGroup.GET("/tasks/:id/submissions", handlers.Live.Submissions)
		}
	}

	// ─── 3. Student Group (must be on a roster) ────────────────────────
	student := router.Group("/api/v1/student")
	student.Use(requireJWT, checkSession, middleware.RequireStudent(), middleware.RequireRegistered(authService))
	{
		student.GET("/tasks", handlers.Student.Tasks)
		student.POST("/tasks/:id/works", handlers.Student.Submit)
		student.GET("/works", handlers.Student.Works)
		student.DELETE("/works/:id", handlers.Student.DeleteWork)
		student.GET("/portfolio", handlers.Student.Portfolio)
		student.GET("/resources", handlers.Student.Resources)
	}

	// ─── 4. WebSocket Group ────────────────────────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(requireJWT, checkSession, middleware.RequireStudent(), middleware.RequireRegistered(authService))
	{
		ws.GET("/student/stream", handlers.Stream.Stream)
	}

	return router
}
