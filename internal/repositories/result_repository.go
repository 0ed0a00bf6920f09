package repositories

import (
	"context"

	"github.com/examstack/exam-service/internal/models"
	"gorm.io/gorm"
)

// ResultRepository interface for exam result operations
type ResultRepository interface {
	// Basic CRUD operations
	Create(ctx context.Context, tx *gorm.DB, result *models.ExamResult) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.ExamResult, error)

	// Query operations
	ListByExam(ctx context.Context, tx *gorm.DB, examID uint, filters ResultFilters) ([]*models.ExamResult, int64, error)
	ListByStudent(ctx context.Context, tx *gorm.DB, studentID string, filters ResultFilters) ([]*models.ExamResult, int64, error)
	GetByExamAndStudent(ctx context.Context, tx *gorm.DB, examID uint, studentID string) (*models.ExamResult, error)

	// Validation and checks
	HasCompleted(ctx context.Context, tx *gorm.DB, examID uint, studentID string) (bool, error)

	// Statistics
	GetExamStats(ctx context.Context, tx *gorm.DB, examID uint, passThreshold float64) (*ExamResultStats, error)
}
