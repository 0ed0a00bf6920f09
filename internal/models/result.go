package models

import (
	"fmt"
	"time"
)

type ResultStatus string

const (
	ResultInProgress ResultStatus = "in_progress"
	ResultCompleted  ResultStatus = "completed"
)

// ExamResult is the single durable record of a student's submission.
// A partial unique index on (exam_id, student_id) WHERE status = 'completed'
// guarantees at most one completed result per pair; see pkg.InitDatabase.
type ExamResult struct {
	ID        uint   `json:"id" gorm:"primaryKey"`
	ExamID    uint   `json:"exam_id" gorm:"not null;index"`
	StudentID string `json:"student_id" gorm:"not null;index;size:255"`

	TotalMarks    int          `json:"totalMarks" gorm:"not null"`
	ObtainedMarks int          `json:"obtainedMarks" gorm:"not null"`
	Status        ResultStatus `json:"status" gorm:"not null;default:completed;index"`
	SubmittedAt   *time.Time   `json:"submittedAt"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Answers []ResultAnswer `json:"answers,omitempty" gorm:"foreignKey:ResultID"`
	Exam    Exam           `json:"-" gorm:"foreignKey:ExamID"`

	// Resolved display fields, not stored
	StudentName  string `json:"student_name,omitempty" gorm:"-"`
	StudentEmail string `json:"student_email,omitempty" gorm:"-"`
	ExamTitle    string `json:"exam_title,omitempty" gorm:"-"`
}

func (ExamResult) TableName() string {
	return "exam_results"
}

// Score renders the result in "obtained/total" form.
func (r *ExamResult) Score() string {
	return fmt.Sprintf("%d/%d", r.ObtainedMarks, r.TotalMarks)
}

// Percentage of marks obtained. Zero-total results score zero.
func (r *ExamResult) Percentage() float64 {
	if r.TotalMarks == 0 {
		return 0
	}
	return float64(r.ObtainedMarks) / float64(r.TotalMarks) * 100
}

// ResultAnswer records the per-question grading outcome of a submission.
type ResultAnswer struct {
	ID         uint `json:"id" gorm:"primaryKey"`
	ResultID   uint `json:"result_id" gorm:"not null;index"`
	QuestionID uint `json:"question_id" gorm:"not null;index"`

	SubmittedAnswer string `json:"submittedAnswer" gorm:"type:text"`
	IsCorrect       bool   `json:"isCorrect" gorm:"not null"`
	AwardedMarks    int    `json:"awardedMarks" gorm:"not null"`
}

func (ResultAnswer) TableName() string {
	return "result_answers"
}
