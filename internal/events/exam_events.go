package events

import (
	"time"

	"github.com/google/uuid"
)

// EventType represents different types of exam domain events
type EventType string

const (
	EventExamActivated   EventType = "exam.activated"
	EventExamDeactivated EventType = "exam.deactivated"
	EventExamSubmitted   EventType = "exam.submitted"
	EventExamGraded      EventType = "exam.graded"
)

// ExamEvent is the base envelope for all exam domain events
type ExamEvent struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Source    string                 `json:"source"`
	Version   string                 `json:"version"`
	Data      interface{}            `json:"data"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// Event payloads

type ExamActivatedEvent struct {
	ExamID      uint      `json:"exam_id"`
	ExamTitle   string    `json:"exam_title"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	Duration    int       `json:"duration"` // minutes
	StudentIDs  []string  `json:"student_ids"`
	ActivatedBy string    `json:"activated_by"`
}

type ExamDeactivatedEvent struct {
	ExamID        uint   `json:"exam_id"`
	ExamTitle     string `json:"exam_title"`
	DeactivatedBy string `json:"deactivated_by"`
}

type ExamSubmittedEvent struct {
	ExamID      uint      `json:"exam_id"`
	ExamTitle   string    `json:"exam_title"`
	StudentID   string    `json:"student_id"`
	SubmittedAt time.Time `json:"submitted_at"`
	AnswerCount int       `json:"answer_count"`
}

type ExamGradedEvent struct {
	ExamID        uint    `json:"exam_id"`
	ExamTitle     string  `json:"exam_title"`
	StudentID     string  `json:"student_id"`
	ObtainedMarks int     `json:"obtained_marks"`
	TotalMarks    int     `json:"total_marks"`
	Percentage    float64 `json:"percentage"`
	Grade         string  `json:"grade"`
	Passed        bool    `json:"passed"`
}

// Event factory functions

func NewExamActivatedEvent(examID uint, title string, startTime, endTime time.Time, duration int, studentIDs []string, activatedBy string) *ExamEvent {
	return newEvent(EventExamActivated, ExamActivatedEvent{
		ExamID:      examID,
		ExamTitle:   title,
		StartTime:   startTime,
		EndTime:     endTime,
		Duration:    duration,
		StudentIDs:  studentIDs,
		ActivatedBy: activatedBy,
	})
}

func NewExamDeactivatedEvent(examID uint, title, deactivatedBy string) *ExamEvent {
	return newEvent(EventExamDeactivated, ExamDeactivatedEvent{
		ExamID:        examID,
		ExamTitle:     title,
		DeactivatedBy: deactivatedBy,
	})
}

func NewExamSubmittedEvent(examID uint, title, studentID string, submittedAt time.Time, answerCount int) *ExamEvent {
	return newEvent(EventExamSubmitted, ExamSubmittedEvent{
		ExamID:      examID,
		ExamTitle:   title,
		StudentID:   studentID,
		SubmittedAt: submittedAt,
		AnswerCount: answerCount,
	})
}

func NewExamGradedEvent(examID uint, title, studentID string, obtained, total int, percentage float64, grade string, passed bool) *ExamEvent {
	return newEvent(EventExamGraded, ExamGradedEvent{
		ExamID:        examID,
		ExamTitle:     title,
		StudentID:     studentID,
		ObtainedMarks: obtained,
		TotalMarks:    total,
		Percentage:    percentage,
		Grade:         grade,
		Passed:        passed,
	})
}

func newEvent(eventType EventType, data interface{}) *ExamEvent {
	return &ExamEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now(),
		Source:    "exam-service",
		Version:   "1.0",
		Data:      data,
	}
}
