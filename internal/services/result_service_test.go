package services

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/examstack/exam-service/internal/models"
	"github.com/examstack/exam-service/internal/repositories"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// resultTestRepo is a minimal in-memory Repository for result tests
type resultTestRepo struct {
	examExists bool
	exam       *models.Exam
	results    []*models.ExamResult
	stats      *repositories.ExamResultStats
	users      []*models.User
}

func (r *resultTestRepo) Question() repositories.QuestionRepository { return nil }
func (r *resultTestRepo) Exam() repositories.ExamRepository         { return &resultTestExamRepo{r: r} }
func (r *resultTestRepo) Result() repositories.ResultRepository {
	return &resultTestResultRepo{r: r}
}
func (r *resultTestRepo) User() repositories.UserRepository { return &resultTestUserRepo{r: r} }
func (r *resultTestRepo) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return fn(r)
}
func (r *resultTestRepo) Ping(ctx context.Context) error { return nil }
func (r *resultTestRepo) Close() error                   { return nil }

type resultTestExamRepo struct {
	repositories.ExamRepository
	r *resultTestRepo
}

func (e *resultTestExamRepo) ExistsByID(ctx context.Context, tx *gorm.DB, id uint) (bool, error) {
	return e.r.examExists, nil
}

func (e *resultTestExamRepo) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Exam, error) {
	if e.r.exam == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return e.r.exam, nil
}

type resultTestResultRepo struct {
	repositories.ResultRepository
	r *resultTestRepo
}

func (s *resultTestResultRepo) ListByExam(ctx context.Context, tx *gorm.DB, examID uint, filters repositories.ResultFilters) ([]*models.ExamResult, int64, error) {
	return s.r.results, int64(len(s.r.results)), nil
}

func (s *resultTestResultRepo) GetExamStats(ctx context.Context, tx *gorm.DB, examID uint, passThreshold float64) (*repositories.ExamResultStats, error) {
	return s.r.stats, nil
}

type resultTestUserRepo struct {
	repositories.UserRepository
	r *resultTestRepo
}

func (u *resultTestUserRepo) GetByIDs(ctx context.Context, ids []string) ([]*models.User, error) {
	return u.r.users, nil
}

func newResultServiceForTest(repo repositories.Repository) *resultService {
	return &resultService{
		repo:   repo,
		logger: slog.New(slog.NewTextHandler(os.Stdout, nil)),
	}
}

func resultFixture(studentID string, obtained, total int, at time.Time) *models.ExamResult {
	return &models.ExamResult{
		ID:            1,
		ExamID:        10,
		StudentID:     studentID,
		TotalMarks:    total,
		ObtainedMarks: obtained,
		Status:        models.ResultCompleted,
		SubmittedAt:   &at,
	}
}

func TestResultService_ListByExam(t *testing.T) {
	at := time.Date(2025, 3, 15, 11, 0, 0, 0, time.UTC)
	repo := &resultTestRepo{
		examExists: true,
		results: []*models.ExamResult{
			resultFixture("student-1", 7, 8, at),
		},
		users: []*models.User{
			{ID: "student-1", FullName: "Jordan Lee", Email: "jordan@example.com"},
		},
	}

	svc := newResultServiceForTest(repo)
	resp, err := svc.ListByExam(context.Background(), 10, repositories.ResultFilters{}, "admin-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if resp.Total != 1 || len(resp.Results) != 1 {
		t.Fatalf("expected 1 result, got total=%d len=%d", resp.Total, len(resp.Results))
	}

	res := resp.Results[0]
	if res.Score != "7/8" {
		t.Errorf("score = %q, want 7/8", res.Score)
	}
	if res.Grade != "A" {
		t.Errorf("grade = %q, want A", res.Grade)
	}
	if !res.Passed {
		t.Error("expected a pass at 87.5%")
	}
	if res.StudentName != "Jordan Lee" || res.StudentEmail != "jordan@example.com" {
		t.Errorf("student fields not resolved: %q %q", res.StudentName, res.StudentEmail)
	}
}

func TestResultService_ListByExam_UnknownExam(t *testing.T) {
	svc := newResultServiceForTest(&resultTestRepo{examExists: false})
	_, err := svc.ListByExam(context.Background(), 42, repositories.ResultFilters{}, "admin-1")
	if !errors.Is(err, ErrExamNotFound) {
		t.Fatalf("expected ErrExamNotFound, got %v", err)
	}
}

func TestResultService_GetStatistics_Empty(t *testing.T) {
	repo := &resultTestRepo{
		examExists: true,
		stats:      &repositories.ExamResultStats{},
	}

	svc := newResultServiceForTest(repo)
	stats, err := svc.GetStatistics(context.Background(), 10, "admin-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.SubmissionCount != 0 || stats.MeanPercentage != 0 || stats.PassRate != 0 {
		t.Errorf("expected zeroed stats, got %+v", stats)
	}
}

func TestResultService_ExportResults(t *testing.T) {
	at := time.Date(2025, 3, 15, 11, 0, 0, 0, time.UTC)
	repo := &resultTestRepo{
		examExists: true,
		exam:       &models.Exam{ID: 10, Title: "Geography Midterm"},
		results: []*models.ExamResult{
			resultFixture("student-1", 5, 8, at),
		},
		users: []*models.User{
			{ID: "student-1", FullName: "Jordan Lee", Email: "jordan@example.com"},
		},
	}

	svc := newResultServiceForTest(repo)
	data, filename, err := svc.ExportResults(context.Background(), 10, "admin-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if filename == "" {
		t.Error("expected a suggested filename")
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("exported bytes are not a valid workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("Results")
	if err != nil {
		t.Fatalf("failed to read Results sheet: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected header plus one row, got %d rows", len(rows))
	}
	if rows[0][0] != "Student Name" || rows[0][6] != "Submitted At" {
		t.Errorf("unexpected header row: %v", rows[0])
	}
	if rows[1][0] != "Jordan Lee" {
		t.Errorf("expected student name in first data row, got %v", rows[1])
	}
	if rows[1][5] != "C" {
		t.Errorf("expected grade C at 62.5%%, got %q", rows[1][5])
	}
}

func TestResultService_GetByID_Ownership(t *testing.T) {
	at := time.Date(2025, 3, 15, 11, 0, 0, 0, time.UTC)
	stored := resultFixture("student-1", 5, 8, at)

	repo := &resultTestRepo{
		results: []*models.ExamResult{stored},
		users:   []*models.User{{ID: "student-1", FullName: "Jordan Lee"}},
	}
	svc := newResultServiceForTest(&resultGetByIDRepo{resultTestRepo: repo, stored: stored})

	t.Run("owner can read", func(t *testing.T) {
		res, err := svc.GetByID(context.Background(), 1, "student-1", models.RoleStudent)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.Score != "5/8" {
			t.Errorf("score = %q, want 5/8", res.Score)
		}
	})

	t.Run("admin can read", func(t *testing.T) {
		if _, err := svc.GetByID(context.Background(), 1, "someone-else", models.RoleAdmin); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("other student is rejected", func(t *testing.T) {
		_, err := svc.GetByID(context.Background(), 1, "student-2", models.RoleStudent)
		var permErr *PermissionError
		if !errors.As(err, &permErr) {
			t.Fatalf("expected a permission error, got %v", err)
		}
	})
}

// resultGetByIDRepo overlays GetByID on the base result test repo
type resultGetByIDRepo struct {
	*resultTestRepo
	stored *models.ExamResult
}

func (r *resultGetByIDRepo) Result() repositories.ResultRepository {
	return &resultGetByIDResultRepo{
		resultTestResultRepo: resultTestResultRepo{r: r.resultTestRepo},
		stored:               r.stored,
	}
}

type resultGetByIDResultRepo struct {
	resultTestResultRepo
	stored *models.ExamResult
}

func (r *resultGetByIDResultRepo) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.ExamResult, error) {
	if r.stored == nil || r.stored.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	return r.stored, nil
}
