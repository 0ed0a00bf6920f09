package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/examstack/exam-service/internal/events"
	"github.com/examstack/exam-service/internal/models"
	"github.com/examstack/exam-service/internal/repositories"
	"github.com/examstack/exam-service/internal/validator"
	"gorm.io/gorm"
)

type examService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
	publisher events.EventPublisher
}

func NewExamService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator, publisher events.EventPublisher) ExamService {
	return &examService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
		publisher: publisher,
	}
}

// ===== CORE CRUD OPERATIONS =====

func (s *examService) Create(ctx context.Context, req *CreateExamRequest, creatorID string) (*ExamResponse, error) {
	s.logger.Info("Creating exam", "creator_id", creatorID, "title", req.Title)

	// Validate struct tags
	if err := s.validator.ValidateStruct(req); err != nil {
		return nil, validator.ToValidationErrors(err)
	}

	// Validate window ordering
	if errors := s.validator.Business().ValidateExamCreate(req); len(errors) > 0 {
		return nil, errors
	}

	// Every referenced question must exist
	if err := s.verifyQuestionRefs(ctx, req.QuestionIDs); err != nil {
		return nil, err
	}

	exam := &models.Exam{
		Title:       req.Title,
		Description: req.Description,
		Duration:    req.Duration,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		CreatedBy:   creatorID,
	}

	err := s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		if err := txRepo.Exam().Create(ctx, nil, exam); err != nil {
			return err
		}
		if err := txRepo.Exam().ReplaceQuestions(ctx, nil, exam.ID, req.QuestionIDs); err != nil {
			return err
		}
		if len(req.AssignedStudentIDs) > 0 {
			if err := txRepo.Exam().ReplaceAssignments(ctx, nil, exam.ID, req.AssignedStudentIDs); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create exam: %w", err)
	}

	s.logger.Info("Exam created successfully", "exam_id", exam.ID)

	return s.getExamResponse(ctx, exam.ID)
}

func (s *examService) GetByID(ctx context.Context, id uint, userID string) (*ExamResponse, error) {
	return s.getExamResponse(ctx, id)
}

func (s *examService) Update(ctx context.Context, id uint, req *UpdateExamRequest, userID string) (*ExamResponse, error) {
	s.logger.Info("Updating exam", "exam_id", id, "user_id", userID)

	// Validate struct tags
	if err := s.validator.ValidateStruct(req); err != nil {
		return nil, validator.ToValidationErrors(err)
	}

	exam, err := s.repo.Exam().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrExamNotFound
		}
		return nil, fmt.Errorf("failed to get exam: %w", err)
	}

	// Validate the merged window before applying
	if errors := s.validator.Business().ValidateExamUpdate(req, exam); len(errors) > 0 {
		return nil, errors
	}

	if req.QuestionIDs != nil {
		if err := s.verifyQuestionRefs(ctx, req.QuestionIDs); err != nil {
			return nil, err
		}
	}

	s.applyExamUpdates(exam, req)

	err = s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		if err := txRepo.Exam().Update(ctx, nil, exam); err != nil {
			return err
		}
		if req.QuestionIDs != nil {
			if err := txRepo.Exam().ReplaceQuestions(ctx, nil, exam.ID, req.QuestionIDs); err != nil {
				return err
			}
		}
		if req.AssignedStudentIDs != nil {
			if err := txRepo.Exam().ReplaceAssignments(ctx, nil, exam.ID, req.AssignedStudentIDs); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update exam: %w", err)
	}

	s.logger.Info("Exam updated successfully", "exam_id", id)

	return s.getExamResponse(ctx, id)
}

func (s *examService) Delete(ctx context.Context, id uint, userID string) error {
	s.logger.Info("Deleting exam", "exam_id", id, "user_id", userID)

	if err := s.repo.Exam().Delete(ctx, nil, id); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrExamNotFound
		}
		return fmt.Errorf("failed to delete exam: %w", err)
	}

	s.logger.Info("Exam deleted successfully", "exam_id", id)

	return nil
}

// ===== ACTIVATION =====

func (s *examService) SetActive(ctx context.Context, id uint, active bool, userID string) (*ExamResponse, error) {
	s.logger.Info("Setting exam active state", "exam_id", id, "active", active, "user_id", userID)

	exam, err := s.repo.Exam().GetByIDWithDetails(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrExamNotFound
		}
		return nil, fmt.Errorf("failed to get exam: %w", err)
	}

	if err := s.repo.Exam().SetActive(ctx, nil, id, active); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrExamNotFound
		}
		return nil, fmt.Errorf("failed to set exam active state: %w", err)
	}

	s.publishActivationEvent(ctx, exam, active, userID)

	return s.getExamResponse(ctx, id)
}

// ===== LIST OPERATIONS =====

func (s *examService) ListForAdmin(ctx context.Context, filters repositories.ExamFilters, userID string) (*ExamListResponse, error) {
	if filters.Limit <= 0 {
		filters.Limit = 20
	}
	if filters.Limit > 100 {
		filters.Limit = 100
	}

	exams, total, err := s.repo.Exam().List(ctx, nil, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list exams: %w", err)
	}

	responses := make([]*ExamResponse, 0, len(exams))
	for _, exam := range exams {
		s.decorateExam(ctx, exam, false)
		responses = append(responses, &ExamResponse{
			Exam:          exam,
			QuestionCount: len(exam.Questions),
		})
	}

	page := 1
	if filters.Limit > 0 {
		page = (filters.Offset / filters.Limit) + 1
	}

	return &ExamListResponse{
		Exams: responses,
		Total: total,
		Page:  page,
		Size:  filters.Limit,
	}, nil
}

func (s *examService) ListForStudent(ctx context.Context, studentID string, filters repositories.ExamFilters) (*ExamListResponse, error) {
	if filters.Limit <= 0 {
		filters.Limit = 20
	}
	if filters.Limit > 100 {
		filters.Limit = 100
	}

	exams, total, err := s.repo.Exam().ListForStudent(ctx, nil, studentID, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list student exams: %w", err)
	}

	responses := make([]*ExamResponse, 0, len(exams))
	for _, exam := range exams {
		s.decorateExam(ctx, exam, true)
		responses = append(responses, &ExamResponse{
			Exam:          exam,
			QuestionCount: len(exam.Questions),
		})
	}

	page := 1
	if filters.Limit > 0 {
		page = (filters.Offset / filters.Limit) + 1
	}

	return &ExamListResponse{
		Exams: responses,
		Total: total,
		Page:  page,
		Size:  filters.Limit,
	}, nil
}
