package repositories

import (
	"context"

	"github.com/examstack/exam-service/internal/models"
	"gorm.io/gorm"
)

// ExamRepository interface for exam-specific operations
type ExamRepository interface {
	// Basic CRUD operations
	Create(ctx context.Context, tx *gorm.DB, exam *models.Exam) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Exam, error)
	GetByIDWithDetails(ctx context.Context, tx *gorm.DB, id uint) (*models.Exam, error) // Include questions, assignments
	Update(ctx context.Context, tx *gorm.DB, exam *models.Exam) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error

	// Query operations
	List(ctx context.Context, tx *gorm.DB, filters ExamFilters) ([]*models.Exam, int64, error)
	ListForStudent(ctx context.Context, tx *gorm.DB, studentID string, filters ExamFilters) ([]*models.Exam, int64, error)

	// Activation
	SetActive(ctx context.Context, tx *gorm.DB, id uint, active bool) error

	// Question assignment
	ReplaceQuestions(ctx context.Context, tx *gorm.DB, examID uint, questionIDs []uint) error
	GetQuestions(ctx context.Context, tx *gorm.DB, examID uint) ([]*models.ExamQuestion, error)

	// Student assignment
	ReplaceAssignments(ctx context.Context, tx *gorm.DB, examID uint, studentIDs []string) error
	IsAssigned(ctx context.Context, tx *gorm.DB, examID uint, studentID string) (bool, error)

	// Validation and checks
	ExistsByID(ctx context.Context, tx *gorm.DB, id uint) (bool, error)
}
