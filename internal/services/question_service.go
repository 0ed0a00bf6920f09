package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/examstack/exam-service/internal/models"
	"github.com/examstack/exam-service/internal/repositories"
	"github.com/examstack/exam-service/internal/validator"
	"gorm.io/gorm"
)

type questionService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
}

func NewQuestionService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator) QuestionService {
	return &questionService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
	}
}

// ===== CORE CRUD OPERATIONS =====

func (s *questionService) Create(ctx context.Context, req *CreateQuestionRequest, creatorID string) (*QuestionResponse, error) {
	s.logger.Info("Creating question", "creator_id", creatorID, "type", req.Type)

	// Validate struct tags
	if err := s.validator.ValidateStruct(req); err != nil {
		return nil, validator.ToValidationErrors(err)
	}

	// Validate type-specific business rules
	if errors := s.validator.Business().ValidateQuestionCreate(req); len(errors) > 0 {
		return nil, errors
	}

	question := &models.Question{
		Text:          req.Text,
		Type:          req.Type,
		CorrectAnswer: req.CorrectAnswer,
		Subject:       req.Subject,
		Topic:         req.Topic,
		Difficulty:    req.Difficulty,
		Marks:         req.Marks,
		CreatedBy:     creatorID,
	}
	if err := question.SetOptionList(req.Options); err != nil {
		return nil, fmt.Errorf("failed to encode options: %w", err)
	}

	if err := s.repo.Question().Create(ctx, nil, question); err != nil {
		return nil, fmt.Errorf("failed to create question: %w", err)
	}

	s.logger.Info("Question created successfully", "question_id", question.ID)

	return s.buildQuestionResponse(ctx, question), nil
}

func (s *questionService) GetByID(ctx context.Context, id uint, userID string) (*QuestionResponse, error) {
	question, err := s.repo.Question().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuestionNotFound
		}
		return nil, fmt.Errorf("failed to get question: %w", err)
	}

	return s.buildQuestionResponse(ctx, question), nil
}

func (s *questionService) Update(ctx context.Context, id uint, req *UpdateQuestionRequest, userID string) (*QuestionResponse, error) {
	s.logger.Info("Updating question", "question_id", id, "user_id", userID)

	// Validate struct tags
	if err := s.validator.ValidateStruct(req); err != nil {
		return nil, validator.ToValidationErrors(err)
	}

	// Get current question
	question, err := s.repo.Question().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuestionNotFound
		}
		return nil, fmt.Errorf("failed to get question: %w", err)
	}

	// Validate the merged state before applying
	if errors := s.validator.Business().ValidateQuestionUpdate(req, question); len(errors) > 0 {
		return nil, errors
	}

	if err := s.applyQuestionUpdates(question, req); err != nil {
		return nil, err
	}

	if err := s.repo.Question().Update(ctx, nil, question); err != nil {
		return nil, fmt.Errorf("failed to update question: %w", err)
	}

	s.logger.Info("Question updated successfully", "question_id", id)

	return s.buildQuestionResponse(ctx, question), nil
}

// Delete removes a question from the catalog. Exams that reference it
// keep their exam_questions rows; students taking those exams simply no
// longer see the deleted question.
func (s *questionService) Delete(ctx context.Context, id uint, userID string) error {
	s.logger.Info("Deleting question", "question_id", id, "user_id", userID)

	if err := s.repo.Question().Delete(ctx, nil, id); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrQuestionNotFound
		}
		return fmt.Errorf("failed to delete question: %w", err)
	}

	s.logger.Info("Question deleted successfully", "question_id", id)

	return nil
}

// ===== LIST AND BULK OPERATIONS =====

func (s *questionService) List(ctx context.Context, filters repositories.QuestionFilters, userID string) (*QuestionListResponse, error) {
	if filters.Limit <= 0 {
		filters.Limit = 20
	}
	if filters.Limit > 100 {
		filters.Limit = 100
	}

	questions, total, err := s.repo.Question().List(ctx, nil, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list questions: %w", err)
	}

	responses := make([]*QuestionResponse, 0, len(questions))
	for _, question := range questions {
		responses = append(responses, s.buildQuestionResponse(ctx, question))
	}

	page := 1
	if filters.Limit > 0 {
		page = (filters.Offset / filters.Limit) + 1
	}

	return &QuestionListResponse{
		Questions: responses,
		Total:     total,
		Page:      page,
		Size:      filters.Limit,
	}, nil
}

func (s *questionService) CreateBatch(ctx context.Context, reqs []*CreateQuestionRequest, creatorID string) ([]*QuestionResponse, []error) {
	s.logger.Info("Creating question batch", "creator_id", creatorID, "count", len(reqs))

	responses := make([]*QuestionResponse, len(reqs))
	errs := make([]error, len(reqs))
	for i, req := range reqs {
		responses[i], errs[i] = s.Create(ctx, req, creatorID)
	}
	return responses, errs
}

// ===== CATALOG METADATA =====

func (s *questionService) Metadata(ctx context.Context) (*models.QuestionMetadata, error) {
	subjects, err := s.repo.Question().GetDistinctSubjects(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to load subjects: %w", err)
	}

	topics, err := s.repo.Question().GetDistinctTopics(ctx, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to load topics: %w", err)
	}

	return &models.QuestionMetadata{
		Subjects: subjects,
		Topics:   topics,
	}, nil
}
