package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prepnest/satdiag-backend/internal/config"
	"github.com/prepnest/satdiag-backend/internal/handler"
	"github.com/prepnest/satdiag-backend/internal/middleware"
	"github.com/prepnest/satdiag-backend/internal/response"
	"github.com/prepnest/satdiag-backend/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth        *handler.AuthHandler
	Diagnostic  *handler.DiagnosticHandler
	Profile     *handler.ProfileHandler
	Appointment *handler.AppointmentHandler
	Tutor       *handler.TutorHandler
	WS          *handler.WSHandler
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
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Apply brotli middleware globally.
	router.Use(middleware.Brotli())

	// Serve generated study plans statically with short-lived caching.
	plansGroup := router.Group("/studyplans")
	plansGroup.Use(middleware.CacheControl(3600))
	{
		plansGroup.Static("/", cfg.StudyPlanDir)
	}

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// Rate limiter for auth routes (30 requests per minute per IP).
	authLimiter := middleware.NewRateLimiter(30, time.Minute)

	// ─── 1. Auth Group (Public, Rate Limited) ──────────────────────────
	auth := router.Group("/api/v1/auth")
	auth.Use(authLimiter.Middleware())
	{
		auth.POST("/start", handlers.Auth.StartSession)
		auth.POST("/tutor/login", handlers.Auth.TutorLogin)

		auth.POST("/logout", middleware.RequireStudentJWT(authService), handlers.Auth.Logout)
	}

	// ─── 2. Student Group (JWT + Single Device) ────────────────────────
	studentAPI := router.Group("/api/v1/student")
	studentAPI.Use(
		middleware.RequireStudentJWT(authService),
		middleware.CheckSingleDeviceSession(authService),
	)
	{
		studentAPI.POST("/profile", handlers.Profile.SaveProfile)
		studentAPI.GET("/profile", handlers.Profile.GetProfile)

		studentAPI.GET("/modules", handlers.Diagnostic.ListModules)
		studentAPI.POST("/modules/:type/start", handlers.Diagnostic.StartModule)
		studentAPI.GET("/exams/:exam_id/payload", handlers.Diagnostic.GetPayload)
		studentAPI.GET("/questions/:question_id", handlers.Diagnostic.LoadQuestion)
		studentAPI.POST("/answers", handlers.Diagnostic.SubmitAnswer)
		studentAPI.POST("/finalize", handlers.Diagnostic.Finalize)
		studentAPI.GET("/state", middleware.NoStore(), handlers.Diagnostic.GetState)

		studentAPI.POST("/appointments", handlers.Appointment.Book)
		studentAPI.GET("/appointments", handlers.Appointment.ListMine)
	}

	// ─── 3. WebSocket Group (Student WS Auth) ──────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireStudentWSAuth(authService))
	{
		ws.GET("/student/stream", handlers.WS.AttemptStream)
	}

	// ─── 4. Tutor Group (JWT) ──────────────────────────────────────────
	tutorAPI := router.Group("/api/v1/tutor")
	tutorAPI.Use(middleware.RequireTutorJWT(authService))
	{
		tutorAPI.GET("/diagnostics", handlers.Tutor.ListDiagnostics)
		tutorAPI.GET("/students/:user_id", handlers.Tutor.GetStudent)
		tutorAPI.POST("/students/:user_id/study-plan", handlers.Tutor.GenerateStudyPlan)
		tutorAPI.GET("/appointments", handlers.Appointment.ListUpcoming)
	}

	return router
}
