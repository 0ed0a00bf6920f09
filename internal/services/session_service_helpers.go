package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/examstack/exam-service/internal/events"
	"github.com/examstack/exam-service/internal/models"
	"github.com/examstack/exam-service/internal/repositories"
)

// PassThreshold is the minimum percentage counted as a pass
const PassThreshold = 60.0

// LetterGrade maps a percentage to its letter grade
func LetterGrade(percentage float64) string {
	switch {
	case percentage >= 90:
		return "A+"
	case percentage >= 80:
		return "A"
	case percentage >= 70:
		return "B"
	case percentage >= 60:
		return "C"
	case percentage >= 50:
		return "D"
	default:
		return "F"
	}
}

// checkSessionPreconditions runs the session gate checks in a fixed
// order so each failure mode surfaces as its own error: exam exists,
// student assigned, exam active, window open, not already submitted.
func (s *sessionService) checkSessionPreconditions(ctx context.Context, repo repositories.Repository, examID uint, studentID string) (*models.Exam, error) {
	exam, err := repo.Exam().GetByIDWithDetails(ctx, nil, examID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrExamNotFound
		}
		return nil, fmt.Errorf("failed to get exam: %w", err)
	}

	assigned, err := repo.Exam().IsAssigned(ctx, nil, examID, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to check assignment: %w", err)
	}
	if !assigned {
		return nil, ErrNotAssigned
	}

	if !exam.IsActive {
		return nil, ErrExamNotActive
	}

	now := s.now()
	if now.Before(exam.StartTime) || now.After(exam.EndTime) {
		return nil, ErrExamWindowClosed
	}

	submitted, err := repo.Result().HasCompleted(ctx, nil, examID, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to check prior submission: %w", err)
	}
	if submitted {
		return nil, ErrAlreadySubmitted
	}

	return exam, nil
}

// buildStudentExamView strips answer keys and flattens the question rows
func (s *sessionService) buildStudentExamView(exam *models.Exam) *StudentExamView {
	questions := make([]SanitizedQuestion, 0, len(exam.Questions))
	total := 0
	for _, eq := range exam.Questions {
		q := eq.Question
		if q.ID == 0 {
			// Dangling reference to a deleted question
			continue
		}
		total += q.Marks
		questions = append(questions, SanitizedQuestion{
			ID:       q.ID,
			Text:     q.Text,
			Type:     q.Type,
			Options:  q.OptionList(),
			Subject:  q.Subject,
			Topic:    q.Topic,
			Marks:    q.Marks,
			Position: eq.Position,
		})
	}

	return &StudentExamView{
		ExamID:      exam.ID,
		Title:       exam.Title,
		Description: exam.Description,
		Duration:    exam.Duration,
		StartTime:   exam.StartTime,
		EndTime:     exam.EndTime,
		TotalMarks:  total,
		Questions:   questions,
	}
}

// gradeSubmission scores the answers against the exam's questions.
// Matching is case-insensitive exact string equality; answers for
// question ids not on the exam are silently ignored; TotalMarks counts
// every exam question whether or not it was answered.
func (s *sessionService) gradeSubmission(exam *models.Exam, studentID string, answers map[uint]string) *models.ExamResult {
	byID := make(map[uint]*models.Question, len(exam.Questions))
	total := 0
	for i := range exam.Questions {
		q := &exam.Questions[i].Question
		if q.ID == 0 {
			continue
		}
		byID[q.ID] = q
		total += q.Marks
	}

	obtained := 0
	rows := make([]models.ResultAnswer, 0, len(answers))
	for questionID, submitted := range answers {
		question, ok := byID[questionID]
		if !ok {
			continue
		}

		correct := strings.EqualFold(submitted, question.CorrectAnswer)
		awarded := 0
		if correct {
			awarded = question.Marks
			obtained += awarded
		}

		rows = append(rows, models.ResultAnswer{
			QuestionID:      questionID,
			SubmittedAnswer: submitted,
			IsCorrect:       correct,
			AwardedMarks:    awarded,
		})
	}

	submittedAt := s.now()
	return &models.ExamResult{
		ExamID:        exam.ID,
		StudentID:     studentID,
		TotalMarks:    total,
		ObtainedMarks: obtained,
		Status:        models.ResultCompleted,
		SubmittedAt:   &submittedAt,
		Answers:       rows,
	}
}

// publishSubmissionEvents emits exam.submitted and exam.graded
func (s *sessionService) publishSubmissionEvents(ctx context.Context, exam *models.Exam, result *models.ExamResult, answerCount int) {
	if s.publisher == nil {
		return
	}

	submitted := events.NewExamSubmittedEvent(exam.ID, exam.Title, result.StudentID, *result.SubmittedAt, answerCount)
	if err := s.publisher.PublishExamEvent(ctx, submitted); err != nil {
		s.logger.Warn("Failed to publish exam submitted event", "exam_id", exam.ID, "error", err)
	}

	pct := result.Percentage()
	graded := events.NewExamGradedEvent(exam.ID, exam.Title, result.StudentID,
		result.ObtainedMarks, result.TotalMarks, pct, LetterGrade(pct), pct >= PassThreshold)
	if err := s.publisher.PublishExamEvent(ctx, graded); err != nil {
		s.logger.Warn("Failed to publish exam graded event", "exam_id", exam.ID, "error", err)
	}
}
