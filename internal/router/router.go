package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/stemsi/examportal-backend/internal/config"
	"github.com/stemsi/examportal-backend/internal/handler"
	"github.com/stemsi/examportal-backend/internal/metrics"
	"github.com/stemsi/examportal-backend/internal/middleware"
	"github.com/stemsi/examportal-backend/internal/model"
	"github.com/stemsi/examportal-backend/internal/response"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth          *handler.AuthHandler
	Admin         *handler.AdminHandler
	Catalog       *handler.CatalogHandler
	StudentMgmt   *handler.StudentManagementHandler
	Exam          *handler.ExamHandler
	Dashboard     *handler.DashboardHandler
	StudentPortal *handler.StudentPortalHandler
	WS            *handler.WSHandler
	Stream        *handler.StreamHandler

	// Metrics serves the Prometheus exposition format.
	Metrics http.Handler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	resolver middleware.ActorResolver,
	handlers *Handlers,
	m *metrics.Metrics,
	loginLimiter *middleware.RateLimiter,
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
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	router.Use(response.RequestIDMiddleware())
	router.Use(m.Middleware())
	router.Use(middleware.BrotliWithConfig(middleware.BrotliConfig{
		Quality:   middleware.DefaultBrotliConfig.Quality,
		MinLength: middleware.DefaultBrotliConfig.MinLength,
		SkipPaths: []string{"/metrics"},
	}))

	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})
	if handlers.Metrics != nil {
		router.GET("/metrics", gin.WrapH(handlers.Metrics))
	}

	admin := middleware.RequireRole(model.ActorAdmin)
	staff := middleware.RequireRole(model.ActorAdmin, model.ActorTeacher)
	teacher := middleware.RequireRole(model.ActorTeacher)
	student := middleware.RequireRole(model.ActorStudent)
	anyone := middleware.RequireRole(model.ActorAdmin, model.ActorTeacher, model.ActorStudent)

	api := router.Group("/api/v1")
	api.Use(middleware.Authenticate(resolver), middleware.CacheControl("no-store"))

	// ─── 1. Auth ───────────────────────────────────────────────────────
	auth := api.Group("/auth")
	{
		auth.POST("/login", loginLimiter.Middleware(), handlers.Auth.Login)
		auth.POST("/student/login", loginLimiter.Middleware(), handlers.Auth.StudentLogin)
		auth.POST("/logout", handlers.Auth.Logout)
		auth.GET("/me", anyone, handlers.Auth.Me)
	}

	// ─── 2. Admin ──────────────────────────────────────────────────────
	adminAPI := api.Group("/admin")
	{
		adminAPI.GET("/teachers", admin, handlers.Admin.ListTeachers)
		adminAPI.POST("/teachers", admin, handlers.Admin.CreateTeacher)
		adminAPI.DELETE("/teachers/:id", admin, handlers.Admin.DeleteTeacher)

		adminAPI.GET("/branches", staff, handlers.Catalog.ListBranches)
		adminAPI.POST("/branches", admin, handlers.Catalog.CreateBranch)
		adminAPI.DELETE("/branches/:id", admin, handlers.Catalog.DeleteBranch)

		adminAPI.GET("/subjects", staff, handlers.Catalog.ListSubjects)
		adminAPI.POST("/subjects", admin, handlers.Catalog.CreateSubject)
		adminAPI.DELETE("/subjects/:id", admin, handlers.Catalog.DeleteSubject)

		adminAPI.GET("/dashboard", admin, handlers.Dashboard.Admin)
	}

	// ─── 3. Teacher ────────────────────────────────────────────────────
	teacherAPI := api.Group("/teacher")
	{
		teacherAPI.GET("/students", staff, handlers.StudentMgmt.ListStudents)
		teacherAPI.GET("/students/:id", staff, handlers.StudentMgmt.GetStudent)
		teacherAPI.POST("/students", staff, handlers.StudentMgmt.CreateStudent)
		teacherAPI.DELETE("/students/:id", staff, handlers.StudentMgmt.DeleteStudent)

		teacherAPI.GET("/exams", staff, handlers.Exam.ListExams)
		teacherAPI.POST("/exams", staff, handlers.Exam.CreateExam)
		teacherAPI.GET("/exams/:id", staff, handlers.Exam.GetExam)
		teacherAPI.DELETE("/exams/:id", staff, handlers.Exam.DeleteExam)
		teacherAPI.GET("/exams/:id/results", staff, handlers.Exam.GetExamResults)

		teacherAPI.GET("/dashboard", teacher, handlers.Dashboard.Teacher)
	}

	// ─── 4. Student ────────────────────────────────────────────────────
	studentAPI := api.Group("/student")
	studentAPI.Use(student)
	{
		studentAPI.GET("/dashboard", handlers.Dashboard.Student)
		studentAPI.POST("/exams/:id/enter", handlers.StudentPortal.EnterExam)
		studentAPI.POST("/exams/:id/start", handlers.StudentPortal.StartExam)
		studentAPI.PUT("/exams/:id/answers/:question_id", handlers.StudentPortal.AnswerQuestion)
		studentAPI.POST("/exams/:id/navigate", handlers.StudentPortal.Navigate)
		studentAPI.POST("/exams/:id/submit", handlers.StudentPortal.SubmitExam)
		studentAPI.POST("/exams/:id/retry", handlers.StudentPortal.RetrySubmit)
		studentAPI.GET("/exams/:id/state", handlers.StudentPortal.GetExamState)
	}

	// ─── 5. Change stream (SSE) ────────────────────────────────────────
	api.GET("/stream", staff, handlers.Stream.ChangesSSE)

	// ─── 6. WebSocket ──────────────────────────────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(middleware.Authenticate(resolver), student)
	{
		ws.GET("/student/exams/:id/stream", handlers.WS.ExamWebSocketStream)
	}

	return router
}
