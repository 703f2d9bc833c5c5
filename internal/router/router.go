package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-local/internal/config"
	"github.com/stemsi/exstem-local/internal/handler"
	"github.com/stemsi/exstem-local/internal/middleware"
	"github.com/stemsi/exstem-local/internal/response"
)

// catalogMaxAge is how long clients may reuse catalog responses.
const catalogMaxAge = 60

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth    *handler.AuthHandler
	Exam    *handler.ExamHandler
	Session *handler.SessionHandler
	Attempt *handler.AttemptHandler
	WS      *handler.WSHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(handlers *Handlers, cfg *config.Config, log zerolog.Logger) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.New()
	router.Use(gin.Recovery())

	// ─── CORS ──────────────────────────────────────────────────────────
	// A local web UI may run on another port. Without ALLOWED_ORIGINS any
	// origin is accepted; the server only listens on loopback by default.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", response.HeaderRequestID}
	corsConfig.ExposeHeaders = []string{response.HeaderRequestID}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	router.Use(response.RequestIDMiddleware())
	router.Use(middleware.RequestLogger(log))
	router.Use(middleware.Brotli())

	router.NoRoute(func(c *gin.Context) {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	})

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// ─── 1. Auth ───────────────────────────────────────────────────────
	auth := router.Group("/api/v1/auth")
	auth.Use(middleware.NoStore())
	{
		auth.POST("/login", handlers.Auth.Login)
		auth.POST("/logout", handlers.Auth.Logout)
		auth.GET("/me", handlers.Auth.Me)
	}

	// ─── 2. Catalog ────────────────────────────────────────────────────
	exams := router.Group("/api/v1/exams")
	{
		exams.GET("", middleware.CacheControl(catalogMaxAge), handlers.Exam.ListExams)
		exams.GET("/:exam_id", middleware.CacheControl(catalogMaxAge), handlers.Exam.GetExam)
		exams.POST("/:exam_id/start", middleware.NoStore(), handlers.Session.StartExam)
	}

	// ─── 3. Running Session ────────────────────────────────────────────
	sess := router.Group("/api/v1/session")
	sess.Use(middleware.NoStore())
	{
		sess.GET("", handlers.Session.GetSession)
		sess.POST("/answer", handlers.Session.Answer)
		sess.POST("/navigate", handlers.Session.Navigate)
		sess.POST("/flag", handlers.Session.Flag)
		sess.POST("/submit", handlers.Session.Submit)
		sess.POST("/exit", handlers.Session.Exit)
	}

	// ─── 4. Results & History ──────────────────────────────────────────
	attempts := router.Group("/api/v1/attempts")
	attempts.Use(middleware.NoStore())
	{
		attempts.GET("", handlers.Attempt.ListAttempts)
		attempts.GET("/:attempt_id", handlers.Attempt.GetAttempt)
	}

	// ─── 5. WebSocket ──────────────────────────────────────────────────
	ws := router.Group("/ws/v1")
	{
		ws.GET("/session/stream", handlers.WS.SessionStream)
	}

	return router
}
