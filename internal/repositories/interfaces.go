package repositories

import (
	"time"

	"github.com/examstack/exam-service/internal/models"
)

// ===== SHARED FILTER STRUCTS =====

type QuestionFilters struct {
	Subject    *string                 `json:"subject"`
	Topic      *string                 `json:"topic"`
	Type       *models.QuestionType    `json:"type"`
	Difficulty *models.DifficultyLevel `json:"difficulty"`
	CreatedBy  *string                 `json:"created_by"`
	Limit      int                     `json:"limit"`
	Offset     int                     `json:"offset"`
	SortBy     string                  `json:"sort_by"`    // "created_at", "subject", "marks"
	SortOrder  string                  `json:"sort_order"` // "asc", "desc"
}

type ExamFilters struct {
	IsActive  *bool      `json:"is_active"`
	CreatedBy *string    `json:"created_by"`
	DateFrom  *time.Time `json:"date_from"`
	DateTo    *time.Time `json:"date_to"`
	Limit     int        `json:"limit"`
	Offset    int        `json:"offset"`
	SortBy    string     `json:"sort_by"`    // "created_at", "title", "start_time"
	SortOrder string     `json:"sort_order"` // "asc", "desc"
}

type ResultFilters struct {
	StudentID *string              `json:"student_id"`
	Status    *models.ResultStatus `json:"status"`
	DateFrom  *time.Time           `json:"date_from"`
	DateTo    *time.Time           `json:"date_to"`
	Limit     int                  `json:"limit"`
	Offset    int                  `json:"offset"`
}

// ===== SHARED STATISTICS STRUCTS =====

type ExamResultStats struct {
	SubmissionCount int     `json:"submission_count"`
	MeanPercentage  float64 `json:"mean_percentage"`
	MaxPercentage   float64 `json:"max_percentage"`
	MinPercentage   float64 `json:"min_percentage"`
	PassRate        float64 `json:"pass_rate"`
}
