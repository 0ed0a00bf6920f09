package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/examstack/exam-service/internal/events"
	"github.com/examstack/exam-service/internal/models"
	"github.com/examstack/exam-service/internal/repositories"
	"github.com/examstack/exam-service/internal/validator"
	"gorm.io/gorm"
)

// sessionService drives the exam-taking flow. Sessions are stateless:
// every request re-checks the preconditions against the database and the
// completed result row is the only durable state.
type sessionService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
	publisher events.EventPublisher
	now       func() time.Time
}

func NewSessionService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator, publisher events.EventPublisher) SessionService {
	return &sessionService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
		publisher: publisher,
		now:       time.Now,
	}
}

// StartExam verifies the session preconditions and returns the exam
// sanitized for taking
func (s *sessionService) StartExam(ctx context.Context, examID uint, studentID string) (*StudentExamView, error) {
	s.logger.Info("Starting exam", "exam_id", examID, "student_id", studentID)

	exam, err := s.checkSessionPreconditions(ctx, s.repo, examID, studentID)
	if err != nil {
		return nil, err
	}

	return s.buildStudentExamView(exam), nil
}

// SubmitExam re-checks the preconditions, grades the answers against the
// exam's answer keys and persists the completed result. The partial
// unique index on completed results settles the double-submit race:
// the losing insert comes back as a duplicate and maps to
// ErrAlreadySubmitted.
func (s *sessionService) SubmitExam(ctx context.Context, examID uint, studentID string, req *SubmitExamRequest) (*SubmissionResult, error) {
	s.logger.Info("Submitting exam", "exam_id", examID, "student_id", studentID, "answer_count", len(req.Answers))

	if err := s.validator.ValidateStruct(req); err != nil {
		return nil, validator.ToValidationErrors(err)
	}

	var result *models.ExamResult
	var exam *models.Exam

	err := s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		var err error
		exam, err = s.checkSessionPreconditions(ctx, txRepo, examID, studentID)
		if err != nil {
			return err
		}

		result = s.gradeSubmission(exam, studentID, req.Answers)

		if err := txRepo.Result().Create(ctx, nil, result); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrAlreadySubmitted
			}
			return fmt.Errorf("failed to persist exam result: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Exam submitted successfully",
		"exam_id", examID,
		"student_id", studentID,
		"obtained_marks", result.ObtainedMarks,
		"total_marks", result.TotalMarks)

	s.publishSubmissionEvents(ctx, exam, result, len(req.Answers))

	pct := result.Percentage()
	return &SubmissionResult{
		ResultID:      result.ID,
		ExamID:        examID,
		ObtainedMarks: result.ObtainedMarks,
		TotalMarks:    result.TotalMarks,
		Score:         result.Score(),
		Percentage:    pct,
		Grade:         LetterGrade(pct),
		Passed:        pct >= PassThreshold,
		SubmittedAt:   *result.SubmittedAt,
	}, nil
}
