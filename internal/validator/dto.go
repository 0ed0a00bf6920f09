package validator

import (
	"time"

	"github.com/examstack/exam-service/internal/models"
)

// QuestionCreateRequest represents the request structure for creating questions
type QuestionCreateRequest struct {
	Text          string                 `json:"text" validate:"required,min=1,max=2000"`
	Type          models.QuestionType    `json:"type" validate:"required,question_type"`
	Options       []string               `json:"options" validate:"omitempty,max=10,dive,max=500"`
	CorrectAnswer string                 `json:"correct_answer" validate:"required,max=500"`
	Subject       string                 `json:"subject" validate:"required,max=100"`
	Topic         string                 `json:"topic" validate:"omitempty,max=100"`
	Difficulty    models.DifficultyLevel `json:"difficulty" validate:"required,difficulty_level"`
	Marks         int                    `json:"marks" validate:"required,min=1,max=100"`
}

// QuestionUpdateRequest represents the request structure for updating questions
type QuestionUpdateRequest struct {
	Text          *string                 `json:"text" validate:"omitempty,min=1,max=2000"`
	Type          *models.QuestionType    `json:"type" validate:"omitempty,question_type"`
	Options       []string                `json:"options" validate:"omitempty,max=10,dive,max=500"`
	CorrectAnswer *string                 `json:"correct_answer" validate:"omitempty,max=500"`
	Subject       *string                 `json:"subject" validate:"omitempty,max=100"`
	Topic         *string                 `json:"topic" validate:"omitempty,max=100"`
	Difficulty    *models.DifficultyLevel `json:"difficulty" validate:"omitempty,difficulty_level"`
	Marks         *int                    `json:"marks" validate:"omitempty,min=1,max=100"`
}

// ExamCreateRequest represents the request structure for creating exams
type ExamCreateRequest struct {
	Title              string    `json:"title" validate:"required,exam_title"`
	Description        *string   `json:"description" validate:"omitempty,max=1000"`
	Duration           int       `json:"duration" validate:"required,exam_duration"`
	StartTime          time.Time `json:"start_time" validate:"required"`
	EndTime            time.Time `json:"end_time" validate:"required,gtfield=StartTime"`
	QuestionIDs        []uint    `json:"question_ids" validate:"required,min=1,dive,required"`
	AssignedStudentIDs []string  `json:"assigned_student_ids" validate:"omitempty,dive,required"`
}

// ExamUpdateRequest represents the request structure for updating exams
type ExamUpdateRequest struct {
	Title              *string    `json:"title" validate:"omitempty,exam_title"`
	Description        *string    `json:"description" validate:"omitempty,max=1000"`
	Duration           *int       `json:"duration" validate:"omitempty,exam_duration"`
	StartTime          *time.Time `json:"start_time"`
	EndTime            *time.Time `json:"end_time"`
	QuestionIDs        []uint     `json:"question_ids" validate:"omitempty,min=1,dive,required"`
	AssignedStudentIDs []string   `json:"assigned_student_ids" validate:"omitempty,dive,required"`
}

// ExamStatusRequest toggles exam availability
type ExamStatusRequest struct {
	IsActive *bool `json:"is_active" validate:"required"`
}

// SubmitExamRequest carries a student's answers keyed by question id
type SubmitExamRequest struct {
	Answers map[uint]string `json:"answers" validate:"required"`
}
