package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/examstack/exam-service/internal/config"
	"github.com/examstack/exam-service/internal/models"
	"github.com/examstack/exam-service/internal/repositories"
	"github.com/examstack/exam-service/internal/services"
	"github.com/examstack/exam-service/internal/utils"
	"github.com/examstack/exam-service/internal/validator"
)

type HandlerManager struct {
	questionHandler *QuestionHandler
	examHandler     *ExamHandler
	sessionHandler  *SessionHandler
	resultHandler   *ResultHandler
	userHandler     *UserHandler
	authMiddleware  *CasdoorAuthMiddleware
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	validator *validator.Validator,
	logger utils.Logger,
	casdoorConfig config.CasdoorConfig,
	userRepo repositories.UserRepository,
) *HandlerManager {
	authMiddleware := NewCasdoorAuthMiddleware(casdoorConfig, userRepo)

	return &HandlerManager{
		questionHandler: NewQuestionHandler(serviceManager.Question(), validator, logger),
		examHandler:     NewExamHandler(serviceManager.Exam(), validator, logger),
		sessionHandler:  NewSessionHandler(serviceManager.Session(), validator, logger),
		resultHandler:   NewResultHandler(serviceManager.Result(), logger),
		userHandler:     NewUserHandler(userRepo, logger),
		authMiddleware:  authMiddleware,
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	adminOnly := hm.authMiddleware.RequireRoleMiddleware(models.RoleAdmin)
	studentOnly := hm.authMiddleware.RequireRoleMiddleware(models.RoleStudent)

	v1 := router.Group("/api/v1")
	v1.Use(hm.authMiddleware.AuthMiddleware())
	{
		// Question bank - admins only
		questions := v1.Group("/questions")
		questions.Use(adminOnly)
		{
			questions.POST("", hm.questionHandler.CreateQuestion)
			questions.POST("/batch", hm.questionHandler.CreateQuestionsBatch)
			questions.GET("", hm.questionHandler.ListQuestions)
			questions.GET("/metadata", hm.questionHandler.GetQuestionMetadata)
			questions.GET("/:id", hm.questionHandler.GetQuestion)
			questions.PUT("/:id", hm.questionHandler.UpdateQuestion)
			questions.DELETE("/:id", hm.questionHandler.DeleteQuestion)
		}

		// Exam management and taking
		exams := v1.Group("/exams")
		{
			// Authoring - admins only
			exams.POST("", adminOnly, hm.examHandler.CreateExam)
			exams.PUT("/:id", adminOnly, hm.examHandler.UpdateExam)
			exams.DELETE("/:id", adminOnly, hm.examHandler.DeleteExam)
			exams.PUT("/:id/status", adminOnly, hm.examHandler.UpdateExamStatus)
			exams.GET("/admin", adminOnly, hm.examHandler.ListExamsAdmin)
			exams.GET("/:id", adminOnly, hm.examHandler.GetExam)

			// Results - admins only
			exams.GET("/:id/results", adminOnly, hm.resultHandler.ListExamResults)
			exams.GET("/:id/results/stats", adminOnly, hm.resultHandler.GetExamStatistics)
			exams.GET("/:id/results/export", adminOnly, hm.resultHandler.ExportExamResults)

			// Taking - students only
			exams.GET("/student", studentOnly, hm.examHandler.ListExamsStudent)
			exams.GET("/:id/take", studentOnly, hm.sessionHandler.TakeExam)
			exams.POST("/:id/submit", studentOnly, hm.sessionHandler.SubmitExam)
		}

		// Results by id and per-student history
		results := v1.Group("/results")
		{
			results.GET("/me", studentOnly, hm.resultHandler.ListMyResults)
			results.GET("/:id", hm.resultHandler.GetResult)
		}

		// Users (for exam assignment UIs) - admins only
		users := v1.Group("/users")
		users.Use(adminOnly)
		{
			users.GET("", hm.userHandler.ListUsers)
			users.GET("/:id", hm.userHandler.GetUser)
		}

		// Identity
		v1.GET("/auth/me", hm.userHandler.Me)
	}

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"service": "exam-service",
		})
	})
}
