package services

import (
	"context"
	"time"

	"github.com/examstack/exam-service/internal/models"
	"github.com/examstack/exam-service/internal/repositories"
	"github.com/examstack/exam-service/internal/validator"
)

// ===== REQUEST/RESPONSE DTOs =====

// Use business validator types
type CreateQuestionRequest = validator.QuestionCreateRequest
type UpdateQuestionRequest = validator.QuestionUpdateRequest
type CreateExamRequest = validator.ExamCreateRequest
type UpdateExamRequest = validator.ExamUpdateRequest
type ExamStatusRequest = validator.ExamStatusRequest
type SubmitExamRequest = validator.SubmitExamRequest

type QuestionResponse struct {
	*models.Question
	Options    []string `json:"options,omitempty"`
	UsageCount int      `json:"usage_count,omitempty"`
}

type QuestionListResponse struct {
	Questions []*QuestionResponse `json:"questions"`
	Total     int64               `json:"total"`
	Page      int                 `json:"page"`
	Size      int                 `json:"size"`
}

type ExamResponse struct {
	*models.Exam
	QuestionCount int `json:"question_count"`
}

type ExamListResponse struct {
	Exams []*ExamResponse `json:"exams"`
	Total int64           `json:"total"`
	Page  int             `json:"page"`
	Size  int             `json:"size"`
}

// ===== SESSION RELATED DTOs =====

// SanitizedQuestion is a question as presented to a student taking an
// exam: the correct answer is stripped.
type SanitizedQuestion struct {
	ID       uint                `json:"id"`
	Text     string              `json:"text"`
	Type     models.QuestionType `json:"type"`
	Options  []string            `json:"options,omitempty"`
	Subject  string              `json:"subject"`
	Topic    string              `json:"topic,omitempty"`
	Marks    int                 `json:"marks"`
	Position int                 `json:"position"`
}

// StudentExamView is what StartExam hands to the client
type StudentExamView struct {
	ExamID      uint                `json:"exam_id"`
	Title       string              `json:"title"`
	Description *string             `json:"description,omitempty"`
	Duration    int                 `json:"duration"`
	StartTime   time.Time           `json:"start_time"`
	EndTime     time.Time           `json:"end_time"`
	TotalMarks  int                 `json:"total_marks"`
	Questions   []SanitizedQuestion `json:"questions"`
}

// SubmissionResult is the graded outcome returned by SubmitExam
type SubmissionResult struct {
	ResultID      uint      `json:"result_id"`
	ExamID        uint      `json:"exam_id"`
	ObtainedMarks int       `json:"obtained_marks"`
	TotalMarks    int       `json:"total_marks"`
	Score         string    `json:"score"`
	Percentage    float64   `json:"percentage"`
	Grade         string    `json:"grade"`
	Passed        bool      `json:"passed"`
	SubmittedAt   time.Time `json:"submitted_at"`
}

// ===== RESULT RELATED DTOs =====

type ResultResponse struct {
	*models.ExamResult
	Score      string  `json:"score"`
	Percentage float64 `json:"percentage"`
	Grade      string  `json:"grade"`
	Passed     bool    `json:"passed"`
}

type ResultListResponse struct {
	Results []*ResultResponse `json:"results"`
	Total   int64             `json:"total"`
	Page    int               `json:"page"`
	Size    int               `json:"size"`
}

// ===== SERVICE INTERFACES =====

type QuestionService interface {
	// Core CRUD operations
	Create(ctx context.Context, req *CreateQuestionRequest, creatorID string) (*QuestionResponse, error)
	GetByID(ctx context.Context, id uint, userID string) (*QuestionResponse, error)
	Update(ctx context.Context, id uint, req *UpdateQuestionRequest, userID string) (*QuestionResponse, error)
	Delete(ctx context.Context, id uint, userID string) error

	// List and bulk operations
	List(ctx context.Context, filters repositories.QuestionFilters, userID string) (*QuestionListResponse, error)
	CreateBatch(ctx context.Context, reqs []*CreateQuestionRequest, creatorID string) ([]*QuestionResponse, []error)

	// Catalog metadata for filtering UIs
	Metadata(ctx context.Context) (*models.QuestionMetadata, error)
}

type ExamService interface {
	// Core CRUD operations
	Create(ctx context.Context, req *CreateExamRequest, creatorID string) (*ExamResponse, error)
	GetByID(ctx context.Context, id uint, userID string) (*ExamResponse, error)
	Update(ctx context.Context, id uint, req *UpdateExamRequest, userID string) (*ExamResponse, error)
	Delete(ctx context.Context, id uint, userID string) error

	// Activation
	SetActive(ctx context.Context, id uint, active bool, userID string) (*ExamResponse, error)

	// List operations
	ListForAdmin(ctx context.Context, filters repositories.ExamFilters, userID string) (*ExamListResponse, error)
	ListForStudent(ctx context.Context, studentID string, filters repositories.ExamFilters) (*ExamListResponse, error)
}

type SessionService interface {
	// StartExam checks all session preconditions and returns the
	// sanitized exam for taking
	StartExam(ctx context.Context, examID uint, studentID string) (*StudentExamView, error)

	// SubmitExam grades the submitted answers and persists the result
	SubmitExam(ctx context.Context, examID uint, studentID string, req *SubmitExamRequest) (*SubmissionResult, error)
}

type ResultService interface {
	// Per-exam views for admins
	ListByExam(ctx context.Context, examID uint, filters repositories.ResultFilters, userID string) (*ResultListResponse, error)
	GetStatistics(ctx context.Context, examID uint, userID string) (*repositories.ExamResultStats, error)
	ExportResults(ctx context.Context, examID uint, userID string) ([]byte, string, error)

	// Per-student views
	ListByStudent(ctx context.Context, studentID string, filters repositories.ResultFilters) (*ResultListResponse, error)
	GetByID(ctx context.Context, resultID uint, userID string, userRole models.UserRole) (*ResultResponse, error)
}

// ===== SERVICE MANAGER =====

type ServiceManager interface {
	// Core service getters
	Question() QuestionService
	Exam() ExamService
	Session() SessionService
	Result() ResultService

	// Health and lifecycle
	Initialize(ctx context.Context) error
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
