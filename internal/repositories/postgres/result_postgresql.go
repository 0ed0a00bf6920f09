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

type ResultPostgreSQL struct {
	db           *gorm.DB
	helpers      *SharedHelpers
	cacheManager *cache.CacheManager
}

func NewResultPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.ResultRepository {
	return &ResultPostgreSQL{
		db:           db,
		helpers:      NewSharedHelpers(db),
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

// ===== BASIC CRUD OPERATIONS =====

// Create inserts a result with its answer rows. A second completed
// submission for the same exam and student violates the partial unique
// index and surfaces as gorm.ErrDuplicatedKey, which callers map to a
// duplicate-submission error.
func (r *ResultPostgreSQL) Create(ctx context.Context, tx *gorm.DB, result *models.ExamResult) error {
	db := r.getDB(tx)
	if err := db.WithContext(ctx).Create(result).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return gorm.ErrDuplicatedKey
		}
		return fmt.Errorf("failed to create exam result: %w", err)
	}

	cache.InvalidateResultCache(ctx, r.cacheManager, result.ExamID)

	return nil
}

// GetByID retrieves a result with its answers
func (r *ResultPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.ExamResult, error) {
	db := r.getDB(tx)
	var result models.ExamResult
	if err := db.WithContext(ctx).
		Preload("Answers").
		First(&result, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, gorm.ErrRecordNotFound
		}
		return nil, fmt.Errorf("failed to get exam result: %w", err)
	}
	return &result, nil
}

// ===== QUERY OPERATIONS =====

// ListByExam retrieves results for an exam ordered by obtained marks descending
func (r *ResultPostgreSQL) ListByExam(ctx context.Context, tx *gorm.DB, examID uint, filters repositories.ResultFilters) ([]*models.ExamResult, int64, error) {
	db := r.getDB(tx)
	query := db.WithContext(ctx).
		Model(&models.ExamResult{}).
		Where("exam_id = ?", examID)

	query = r.helpers.ApplyResultFilters(query, filters)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count exam results: %w", err)
	}

	query = query.Order("obtained_marks DESC, submitted_at ASC")
	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}

	var results []*models.ExamResult
	if err := query.Preload("Answers").Find(&results).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list exam results: %w", err)
	}

	return results, total, nil
}

// ListByStudent retrieves a student's results across exams, newest first
func (r *ResultPostgreSQL) ListByStudent(ctx context.Context, tx *gorm.DB, studentID string, filters repositories.ResultFilters) ([]*models.ExamResult, int64, error) {
	db := r.getDB(tx)
	query := db.WithContext(ctx).
		Model(&models.ExamResult{}).
		Where("student_id = ?", studentID)

	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.DateFrom != nil {
		query = query.Where("created_at >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("created_at <= ?", *filters.DateTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count student results: %w", err)
	}

	query = query.Order("created_at DESC")
	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}

	var results []*models.ExamResult
	if err := query.Preload("Exam").Find(&results).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list student results: %w", err)
	}

	return results, total, nil
}

// GetByExamAndStudent retrieves a student's completed result for an exam
func (r *ResultPostgreSQL) GetByExamAndStudent(ctx context.Context, tx *gorm.DB, examID uint, studentID string) (*models.ExamResult, error) {
	db := r.getDB(tx)
	var result models.ExamResult
	if err := db.WithContext(ctx).
		Preload("Answers").
		Where("exam_id = ? AND student_id = ? AND status = ?", examID, studentID, models.ResultCompleted).
		First(&result).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, gorm.ErrRecordNotFound
		}
		return nil, fmt.Errorf("failed to get exam result: %w", err)
	}
	return &result, nil
}

// ===== VALIDATION AND CHECKS =====

// HasCompleted checks whether a student already has a completed submission
func (r *ResultPostgreSQL) HasCompleted(ctx context.Context, tx *gorm.DB, examID uint, studentID string) (bool, error) {
	db := r.getDB(tx)
	var count int64
	if err := db.WithContext(ctx).
		Model(&models.ExamResult{}).
		Where("exam_id = ? AND student_id = ? AND status = ?", examID, studentID, models.ResultCompleted).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check completed submission: %w", err)
	}
	return count > 0, nil
}

// ===== STATISTICS =====

// GetExamStats computes aggregate statistics over an exam's completed results.
// Percentages for results with zero total marks count as zero.
func (r *ResultPostgreSQL) GetExamStats(ctx context.Context, tx *gorm.DB, examID uint, passThreshold float64) (*repositories.ExamResultStats, error) {
	db := r.getDB(tx)

	var results []*models.ExamResult
	if err := db.WithContext(ctx).
		Select("total_marks", "obtained_marks").
		Where("exam_id = ? AND status = ?", examID, models.ResultCompleted).
		Find(&results).Error; err != nil {
		return nil, fmt.Errorf("failed to load exam results for stats: %w", err)
	}

	stats := &repositories.ExamResultStats{SubmissionCount: len(results)}
	if len(results) == 0 {
		return stats, nil
	}

	var sum float64
	var passed int
	stats.MinPercentage = results[0].Percentage()
	for _, res := range results {
		pct := res.Percentage()
		sum += pct
		if pct > stats.MaxPercentage {
			stats.MaxPercentage = pct
		}
		if pct < stats.MinPercentage {
			stats.MinPercentage = pct
		}
		if pct >= passThreshold {
			passed++
		}
	}
	stats.MeanPercentage = sum / float64(len(results))
	stats.PassRate = float64(passed) / float64(len(results)) * 100

	return stats, nil
}

// getDB returns the transaction DB if provided, otherwise the repository DB
func (r *ResultPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}
