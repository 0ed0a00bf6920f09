package services

import (
	"context"
	"fmt"

	"github.com/examstack/exam-service/internal/events"
	"github.com/examstack/exam-service/internal/models"
	"github.com/examstack/exam-service/internal/repositories"
)

// ===== HELPER METHODS =====

// verifyQuestionRefs ensures every referenced question id exists
func (s *examService) verifyQuestionRefs(ctx context.Context, questionIDs []uint) error {
	if len(questionIDs) == 0 {
		return nil
	}

	questions, err := s.repo.Question().GetByIDs(ctx, nil, questionIDs)
	if err != nil {
		return fmt.Errorf("failed to verify question references: %w", err)
	}

	found := make(map[uint]bool, len(questions))
	for _, q := range questions {
		found[q.ID] = true
	}
	for _, id := range questionIDs {
		if !found[id] {
			return NewBusinessRuleError("question_refs", fmt.Sprintf("question %d does not exist", id), map[string]interface{}{
				"question_id": id,
			})
		}
	}
	return nil
}

// applyExamUpdates applies a partial update request onto the model
func (s *examService) applyExamUpdates(exam *models.Exam, req *UpdateExamRequest) {
	if req.Title != nil {
		exam.Title = *req.Title
	}
	if req.Description != nil {
		exam.Description = req.Description
	}
	if req.Duration != nil {
		exam.Duration = *req.Duration
	}
	if req.StartTime != nil {
		exam.StartTime = *req.StartTime
	}
	if req.EndTime != nil {
		exam.EndTime = *req.EndTime
	}
}

// getExamResponse loads the exam with details and decorates it for admins
func (s *examService) getExamResponse(ctx context.Context, id uint) (*ExamResponse, error) {
	exam, err := s.repo.Exam().GetByIDWithDetails(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrExamNotFound
		}
		return nil, fmt.Errorf("failed to get exam: %w", err)
	}

	s.decorateExam(ctx, exam, false)

	return &ExamResponse{
		Exam:          exam,
		QuestionCount: len(exam.Questions),
	}, nil
}

// decorateExam computes TotalMarks, resolves user display fields, and
// strips answer keys when the view is for a student
func (s *examService) decorateExam(ctx context.Context, exam *models.Exam, forStudent bool) {
	total := 0
	for i := range exam.Questions {
		total += exam.Questions[i].Question.Marks
		if forStudent {
			exam.Questions[i].Question.CorrectAnswer = ""
		}
	}
	exam.TotalMarks = total

	if forStudent {
		exam.AssignedStudents = nil
		return
	}

	if exam.CreatedBy != "" {
		if creator, err := s.repo.User().GetByID(ctx, exam.CreatedBy); err == nil && creator != nil {
			exam.CreatorName = creator.FullName
		}
	}

	s.resolveAssignedStudents(ctx, exam)
}

// resolveAssignedStudents fills in name and email for assignment rows
func (s *examService) resolveAssignedStudents(ctx context.Context, exam *models.Exam) {
	if len(exam.AssignedStudents) == 0 {
		return
	}

	ids := make([]string, 0, len(exam.AssignedStudents))
	for _, a := range exam.AssignedStudents {
		ids = append(ids, a.StudentID)
	}

	users, err := s.repo.User().GetByIDs(ctx, ids)
	if err != nil {
		s.logger.Warn("Failed to resolve assigned students", "exam_id", exam.ID, "error", err)
		return
	}

	byID := make(map[string]*models.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}
	for i := range exam.AssignedStudents {
		if u, ok := byID[exam.AssignedStudents[i].StudentID]; ok {
			exam.AssignedStudents[i].StudentName = u.FullName
			exam.AssignedStudents[i].StudentEmail = u.Email
		}
	}
}

// publishActivationEvent emits exam.activated or exam.deactivated
func (s *examService) publishActivationEvent(ctx context.Context, exam *models.Exam, active bool, userID string) {
	if s.publisher == nil {
		return
	}

	var event *events.ExamEvent
	if active {
		studentIDs := make([]string, 0, len(exam.AssignedStudents))
		for _, a := range exam.AssignedStudents {
			studentIDs = append(studentIDs, a.StudentID)
		}
		event = events.NewExamActivatedEvent(exam.ID, exam.Title, exam.StartTime, exam.EndTime, exam.Duration, studentIDs, userID)
	} else {
		event = events.NewExamDeactivatedEvent(exam.ID, exam.Title, userID)
	}

	if err := s.publisher.PublishExamEvent(ctx, event); err != nil {
		s.logger.Warn("Failed to publish exam activation event", "exam_id", exam.ID, "error", err)
	}
}
