package services

import (
	"context"
	"fmt"

	"github.com/examstack/exam-service/internal/models"
)

// ===== HELPER METHODS =====

// applyQuestionUpdates applies a partial update request onto the model
func (s *questionService) applyQuestionUpdates(question *models.Question, req *UpdateQuestionRequest) error {
	if req.Text != nil {
		question.Text = *req.Text
	}
	if req.Type != nil {
		question.Type = *req.Type
	}
	if req.Options != nil {
		if err := question.SetOptionList(req.Options); err != nil {
			return fmt.Errorf("failed to encode options: %w", err)
		}
	}
	if req.CorrectAnswer != nil {
		question.CorrectAnswer = *req.CorrectAnswer
	}
	if req.Subject != nil {
		question.Subject = *req.Subject
	}
	if req.Topic != nil {
		question.Topic = *req.Topic
	}
	if req.Difficulty != nil {
		question.Difficulty = *req.Difficulty
	}
	if req.Marks != nil {
		question.Marks = *req.Marks
	}
	return nil
}

// buildQuestionResponse resolves the creator name and decodes the
// options column for transport
func (s *questionService) buildQuestionResponse(ctx context.Context, question *models.Question) *QuestionResponse {
	if question.CreatedBy != "" {
		if creator, err := s.repo.User().GetByID(ctx, question.CreatedBy); err == nil && creator != nil {
			question.CreatorName = creator.FullName
		}
	}

	return &QuestionResponse{
		Question: question,
		Options:  question.OptionList(),
	}
}
