package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/examstack/exam-service/internal/cache"
	"github.com/examstack/exam-service/internal/models"
	"github.com/examstack/exam-service/internal/repositories"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type ExamPostgreSQL struct {
	db           *gorm.DB
	helpers      *SharedHelpers
	cacheManager *cache.CacheManager
}

func NewExamPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.ExamRepository {
	return &ExamPostgreSQL{
		db:           db,
		helpers:      NewSharedHelpers(db),
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

// ===== BASIC CRUD OPERATIONS =====

// Create creates a new exam with its question and assignment rows
func (e *ExamPostgreSQL) Create(ctx context.Context, tx *gorm.DB, exam *models.Exam) error {
	db := e.getDB(tx)
	if err := db.WithContext(ctx).Create(exam).Error; err != nil {
		return fmt.Errorf("failed to create exam: %w", err)
	}

	cache.SafeInvalidatePattern(ctx, e.cacheManager.Exam, "list:*")
	cache.SafeInvalidatePattern(ctx, e.cacheManager.Exam, "student:*")

	return nil
}

// GetByID retrieves an exam by ID with caching
func (e *ExamPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Exam, error) {
	db := e.getDB(tx)
	cacheKey := fmt.Sprintf("id:%d", id)
	var exam models.Exam

	err := e.cacheManager.Exam.CacheOrExecute(ctx, cacheKey, &exam, cache.ExamCacheConfig.TTL, func() (interface{}, error) {
		var dbExam models.Exam
		if err := db.WithContext(ctx).First(&dbExam, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, gorm.ErrRecordNotFound
			}
			return nil, fmt.Errorf("failed to get exam: %w", err)
		}
		return &dbExam, nil
	})

	if err != nil {
		return nil, err
	}

	return &exam, nil
}

// GetByIDWithDetails retrieves an exam with its questions (in position order)
// and assigned students
func (e *ExamPostgreSQL) GetByIDWithDetails(ctx context.Context, tx *gorm.DB, id uint) (*models.Exam, error) {
	db := e.getDB(tx)
	var exam models.Exam
	if err := db.WithContext(ctx).
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("exam_questions.position ASC")
		}).
		Preload("Questions.Question").
		Preload("AssignedStudents").
		First(&exam, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, gorm.ErrRecordNotFound
		}
		return nil, fmt.Errorf("failed to get exam with details: %w", err)
	}
	return &exam, nil
}

// Update updates an exam
func (e *ExamPostgreSQL) Update(ctx context.Context, tx *gorm.DB, exam *models.Exam) error {
	db := e.getDB(tx)
	if err := db.WithContext(ctx).
		Omit("Questions", "AssignedStudents").
		Save(exam).Error; err != nil {
		return fmt.Errorf("failed to update exam: %w", err)
	}

	cache.InvalidateExamCache(ctx, e.cacheManager, exam.ID)

	return nil
}

// Delete soft deletes an exam
func (e *ExamPostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	db := e.getDB(tx)

	result := db.WithContext(ctx).Delete(&models.Exam{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete exam: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	cache.InvalidateExamCache(ctx, e.cacheManager, id)

	return nil
}

// ===== QUERY OPERATIONS =====

// List retrieves exams with filtering and pagination
func (e *ExamPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.ExamFilters) ([]*models.Exam, int64, error) {
	db := e.getDB(tx)
	query := db.WithContext(ctx).Model(&models.Exam{})

	query = e.helpers.ApplyExamFilters(query, filters)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count exams: %w", err)
	}

	query = e.helpers.ApplyPaginationAndSort(query, filters.SortBy, filters.SortOrder, filters.Limit, filters.Offset)

	var exams []*models.Exam
	if err := query.
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("exam_questions.position ASC")
		}).
		Preload("Questions.Question").
		Preload("AssignedStudents").
		Find(&exams).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list exams: %w", err)
	}

	return exams, total, nil
}

// ListForStudent retrieves active exams assigned to a student
func (e *ExamPostgreSQL) ListForStudent(ctx context.Context, tx *gorm.DB, studentID string, filters repositories.ExamFilters) ([]*models.Exam, int64, error) {
	db := e.getDB(tx)
	query := db.WithContext(ctx).
		Model(&models.Exam{}).
		Joins("JOIN exam_assignments ON exam_assignments.exam_id = exams.id").
		Where("exam_assignments.student_id = ?", studentID).
		Where("exams.is_active = ?", true)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count student exams: %w", err)
	}

	query = e.helpers.ApplyPaginationAndSort(query, filters.SortBy, filters.SortOrder, filters.Limit, filters.Offset)

	var exams []*models.Exam
	if err := query.
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("exam_questions.position ASC")
		}).
		Preload("Questions.Question").
		Find(&exams).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list student exams: %w", err)
	}

	return exams, total, nil
}

// ===== ACTIVATION =====

// SetActive toggles the is_active flag
func (e *ExamPostgreSQL) SetActive(ctx context.Context, tx *gorm.DB, id uint, active bool) error {
	db := e.getDB(tx)
	result := db.WithContext(ctx).
		Model(&models.Exam{}).
		Where("id = ?", id).
		Update("is_active", active)
	if result.Error != nil {
		return fmt.Errorf("failed to set exam active state: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	cache.InvalidateExamCache(ctx, e.cacheManager, id)

	return nil
}

// ===== QUESTION ASSIGNMENT =====

// ReplaceQuestions replaces the exam's question list, preserving the given order
func (e *ExamPostgreSQL) ReplaceQuestions(ctx context.Context, tx *gorm.DB, examID uint, questionIDs []uint) error {
	db := e.getDB(tx)

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("exam_id = ?", examID).Delete(&models.ExamQuestion{}).Error; err != nil {
			return fmt.Errorf("failed to clear exam questions: %w", err)
		}

		if len(questionIDs) == 0 {
			return nil
		}

		rows := make([]models.ExamQuestion, 0, len(questionIDs))
		for i, qid := range questionIDs {
			rows = append(rows, models.ExamQuestion{
				ExamID:     examID,
				QuestionID: qid,
				Position:   i,
			})
		}

		if err := tx.CreateInBatches(rows, 100).Error; err != nil {
			return fmt.Errorf("failed to create exam questions: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	cache.InvalidateExamCache(ctx, e.cacheManager, examID)

	return nil
}

// GetQuestions retrieves the exam's question rows in position order
func (e *ExamPostgreSQL) GetQuestions(ctx context.Context, tx *gorm.DB, examID uint) ([]*models.ExamQuestion, error) {
	db := e.getDB(tx)
	var rows []*models.ExamQuestion
	if err := db.WithContext(ctx).
		Preload("Question").
		Where("exam_id = ?", examID).
		Order("position ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to get exam questions: %w", err)
	}
	return rows, nil
}

// ===== STUDENT ASSIGNMENT =====

// ReplaceAssignments replaces the exam's student assignment list
func (e *ExamPostgreSQL) ReplaceAssignments(ctx context.Context, tx *gorm.DB, examID uint, studentIDs []string) error {
	db := e.getDB(tx)

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("exam_id = ?", examID).Delete(&models.ExamAssignment{}).Error; err != nil {
			return fmt.Errorf("failed to clear exam assignments: %w", err)
		}

		if len(studentIDs) == 0 {
			return nil
		}

		rows := make([]models.ExamAssignment, 0, len(studentIDs))
		for _, sid := range studentIDs {
			rows = append(rows, models.ExamAssignment{
				ExamID:    examID,
				StudentID: sid,
			})
		}

		if err := tx.CreateInBatches(rows, 100).Error; err != nil {
			return fmt.Errorf("failed to create exam assignments: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	cache.InvalidateExamCache(ctx, e.cacheManager, examID)

	return nil
}

// IsAssigned checks whether a student is assigned to an exam
func (e *ExamPostgreSQL) IsAssigned(ctx context.Context, tx *gorm.DB, examID uint, studentID string) (bool, error) {
	db := e.getDB(tx)
	var count int64
	if err := db.WithContext(ctx).
		Model(&models.ExamAssignment{}).
		Where("exam_id = ? AND student_id = ?", examID, studentID).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check exam assignment: %w", err)
	}
	return count > 0, nil
}

// ===== VALIDATION AND CHECKS =====

// ExistsByID checks whether an exam exists
func (e *ExamPostgreSQL) ExistsByID(ctx context.Context, tx *gorm.DB, id uint) (bool, error) {
	db := e.getDB(tx)
	var count int64
	if err := db.WithContext(ctx).
		Model(&models.Exam{}).
		Where("id = ?", id).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check exam existence: %w", err)
	}
	return count > 0, nil
}

// getDB returns the transaction DB if provided, otherwise the repository DB
func (e *ExamPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return e.db
}
