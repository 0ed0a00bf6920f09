package models

import (
	"time"

	"gorm.io/gorm"
)

type Exam struct {
	ID          uint    `json:"id" gorm:"primaryKey"`
	Title       string  `json:"title" gorm:"not null;size:200"`
	Description *string `json:"description,omitempty" gorm:"type:text"`

	// Duration in minutes; drives the client countdown only. The scheduling
	// window below is what the server enforces.
	Duration  int       `json:"duration" gorm:"not null"`
	StartTime time.Time `json:"startTime" gorm:"not null"`
	EndTime   time.Time `json:"endTime" gorm:"not null"`
	IsActive  bool      `json:"isActive" gorm:"not null;default:false;index"`

	CreatedBy string         `json:"created_by" gorm:"not null;index;size:255"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Questions        []ExamQuestion   `json:"questions,omitempty" gorm:"foreignKey:ExamID"`
	AssignedStudents []ExamAssignment `json:"assignedStudents,omitempty" gorm:"foreignKey:ExamID"`

	// Computed on demand: sum of marks over all referenced questions
	TotalMarks int `json:"totalMarks" gorm:"-"`

	// Resolved from the user repository, not stored
	CreatorName string `json:"creator_name,omitempty" gorm:"-"`
}

func (Exam) TableName() string {
	return "exams"
}

// ExamQuestion links a question into an exam at a position. The same
// question may appear more than once; each row counts toward the total.
type ExamQuestion struct {
	ID         uint `json:"id" gorm:"primaryKey"`
	ExamID     uint `json:"exam_id" gorm:"not null;index"`
	QuestionID uint `json:"question_id" gorm:"not null;index"`
	Position   int  `json:"position" gorm:"not null;default:0"`

	Question Question `json:"question" gorm:"foreignKey:QuestionID"`
}

func (ExamQuestion) TableName() string {
	return "exam_questions"
}

// ExamAssignment grants a student access to an exam.
type ExamAssignment struct {
	ID        uint   `json:"id" gorm:"primaryKey"`
	ExamID    uint   `json:"exam_id" gorm:"not null;index;uniqueIndex:idx_exam_assignment"`
	StudentID string `json:"student_id" gorm:"not null;index;size:255;uniqueIndex:idx_exam_assignment"`

	CreatedAt time.Time `json:"created_at"`

	// Resolved display fields, not stored
	StudentName  string `json:"student_name,omitempty" gorm:"-"`
	StudentEmail string `json:"student_email,omitempty" gorm:"-"`
}

func (ExamAssignment) TableName() string {
	return "exam_assignments"
}
