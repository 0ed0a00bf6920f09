package services

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/examstack/exam-service/internal/models"
	"github.com/examstack/exam-service/internal/repositories"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

type resultService struct {
	repo   repositories.Repository
	db     *gorm.DB
	logger *slog.Logger
}

func NewResultService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger) ResultService {
	return &resultService{
		repo:   repo,
		db:     db,
		logger: logger,
	}
}

// ===== PER-EXAM VIEWS =====

// ListByExam returns an exam's completed results ordered by obtained
// marks descending, with student display fields resolved
func (s *resultService) ListByExam(ctx context.Context, examID uint, filters repositories.ResultFilters, userID string) (*ResultListResponse, error) {
	if exists, err := s.repo.Exam().ExistsByID(ctx, nil, examID); err != nil {
		return nil, fmt.Errorf("failed to check exam: %w", err)
	} else if !exists {
		return nil, ErrExamNotFound
	}

	if filters.Limit <= 0 {
		filters.Limit = 50
	}
	if filters.Limit > 200 {
		filters.Limit = 200
	}
	completed := models.ResultCompleted
	filters.Status = &completed

	results, total, err := s.repo.Result().ListByExam(ctx, nil, examID, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list exam results: %w", err)
	}

	s.resolveStudents(ctx, results)

	responses := make([]*ResultResponse, 0, len(results))
	for _, result := range results {
		responses = append(responses, buildResultResponse(result))
	}

	page := 1
	if filters.Limit > 0 {
		page = (filters.Offset / filters.Limit) + 1
	}

	return &ResultListResponse{
		Results: responses,
		Total:   total,
		Page:    page,
		Size:    filters.Limit,
	}, nil
}

// GetStatistics computes the aggregate view over an exam's completed
// results. An exam with no submissions reports zeros.
func (s *resultService) GetStatistics(ctx context.Context, examID uint, userID string) (*repositories.ExamResultStats, error) {
	if exists, err := s.repo.Exam().ExistsByID(ctx, nil, examID); err != nil {
		return nil, fmt.Errorf("failed to check exam: %w", err)
	} else if !exists {
		return nil, ErrExamNotFound
	}

	stats, err := s.repo.Result().GetExamStats(ctx, nil, examID, PassThreshold)
	if err != nil {
		return nil, fmt.Errorf("failed to compute exam statistics: %w", err)
	}
	return stats, nil
}

// ExportResults renders an exam's results as an xlsx workbook and
// returns the file bytes with a suggested filename
func (s *resultService) ExportResults(ctx context.Context, examID uint, userID string) ([]byte, string, error) {
	exam, err := s.repo.Exam().GetByID(ctx, nil, examID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, "", ErrExamNotFound
		}
		return nil, "", fmt.Errorf("failed to get exam: %w", err)
	}

	completed := models.ResultCompleted
	results, _, err := s.repo.Result().ListByExam(ctx, nil, examID, repositories.ResultFilters{Status: &completed})
	if err != nil {
		return nil, "", fmt.Errorf("failed to load exam results: %w", err)
	}

	s.resolveStudents(ctx, results)

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Results"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{"Student Name", "Email", "Score", "Total Marks", "Percentage", "Grade", "Submitted At"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, header)
	}

	for row, result := range results {
		pct := result.Percentage()
		submittedAt := ""
		if result.SubmittedAt != nil {
			submittedAt = result.SubmittedAt.Format(time.RFC3339)
		}

		values := []interface{}{
			result.StudentName,
			result.StudentEmail,
			result.ObtainedMarks,
			result.TotalMarks,
			fmt.Sprintf("%.2f%%", pct),
			LetterGrade(pct),
			submittedAt,
		}
		for col, value := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			f.SetCellValue(sheet, cell, value)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, "", fmt.Errorf("failed to write workbook: %w", err)
	}

	filename := fmt.Sprintf("exam_%d_results_%s.xlsx", exam.ID, time.Now().Format("2006-01-02"))
	return buf.Bytes(), filename, nil
}

// ===== PER-STUDENT VIEWS =====

func (s *resultService) ListByStudent(ctx context.Context, studentID string, filters repositories.ResultFilters) (*ResultListResponse, error) {
	if filters.Limit <= 0 {
		filters.Limit = 50
	}

	results, total, err := s.repo.Result().ListByStudent(ctx, nil, studentID, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list student results: %w", err)
	}

	responses := make([]*ResultResponse, 0, len(results))
	for _, result := range results {
		if result.Exam.ID != 0 {
			result.ExamTitle = result.Exam.Title
		}
		responses = append(responses, buildResultResponse(result))
	}

	page := 1
	if filters.Limit > 0 {
		page = (filters.Offset / filters.Limit) + 1
	}

	return &ResultListResponse{
		Results: responses,
		Total:   total,
		Page:    page,
		Size:    filters.Limit,
	}, nil
}

// GetByID returns a single result. Students can only read their own.
func (s *resultService) GetByID(ctx context.Context, resultID uint, userID string, userRole models.UserRole) (*ResultResponse, error) {
	result, err := s.repo.Result().GetByID(ctx, nil, resultID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrResultNotFound
		}
		return nil, fmt.Errorf("failed to get result: %w", err)
	}

	if userRole != models.RoleAdmin && result.StudentID != userID {
		return nil, NewPermissionError(userID, resultID, "result", "read", "results belong to their student")
	}

	s.resolveStudents(ctx, []*models.ExamResult{result})

	return buildResultResponse(result), nil
}

// ===== HELPERS =====

// resolveStudents fills student display fields from the user repository
func (s *resultService) resolveStudents(ctx context.Context, results []*models.ExamResult) {
	if len(results) == 0 {
		return
	}

	ids := make([]string, 0, len(results))
	seen := make(map[string]bool, len(results))
	for _, result := range results {
		if !seen[result.StudentID] {
			seen[result.StudentID] = true
			ids = append(ids, result.StudentID)
		}
	}

	users, err := s.repo.User().GetByIDs(ctx, ids)
	if err != nil {
		s.logger.Warn("Failed to resolve students for results", "error", err)
		return
	}

	byID := make(map[string]*models.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}
	for _, result := range results {
		if u, ok := byID[result.StudentID]; ok {
			result.StudentName = u.FullName
			result.StudentEmail = u.Email
		}
	}
}

func buildResultResponse(result *models.ExamResult) *ResultResponse {
	pct := result.Percentage()
	return &ResultResponse{
		ExamResult: result,
		Score:      result.Score(),
		Percentage: pct,
		Grade:      LetterGrade(pct),
		Passed:     pct >= PassThreshold,
	}
}
