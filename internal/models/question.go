package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

type QuestionType string

const (
	MultipleChoice QuestionType = "multiple_choice"
	TrueFalse      QuestionType = "true_false"
	ShortAnswer    QuestionType = "short_answer"
)

type DifficultyLevel string

const (
	DifficultyEasy   DifficultyLevel = "easy"
	DifficultyMedium DifficultyLevel = "medium"
	DifficultyHard   DifficultyLevel = "hard"
)

type Question struct {
	ID   uint         `json:"id" gorm:"primaryKey"`
	Text string       `json:"text" gorm:"type:text;not null"`
	Type QuestionType `json:"type" gorm:"not null;index"`

	// Options stored as JSONB ([]string). Only meaningful for multiple_choice.
	Options datatypes.JSON `json:"options,omitempty" gorm:"type:jsonb"`

	// CorrectAnswer is never sent to students; sanitized views clear it.
	CorrectAnswer string `json:"correctAnswer,omitempty" gorm:"type:text;not null"`

	Subject    string          `json:"subject" gorm:"not null;index;size:100"`
	Topic      string          `json:"topic" gorm:"not null;index;size:100"`
	Difficulty DifficultyLevel `json:"difficulty" gorm:"default:medium;index"`
	Marks      int             `json:"marks" gorm:"not null;default:1"`

	CreatedBy string    `json:"created_by" gorm:"not null;index;size:255"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Resolved from the user repository, not stored
	CreatorName string `json:"creator_name,omitempty" gorm:"-"`
}

func (Question) TableName() string {
	return "questions"
}

// OptionList decodes the JSONB options column. Malformed or empty
// payloads yield an empty slice.
func (q *Question) OptionList() []string {
	if len(q.Options) == 0 {
		return nil
	}
	var options []string
	if err := json.Unmarshal(q.Options, &options); err != nil {
		return nil
	}
	return options
}

// SetOptionList encodes the given options into the JSONB column
func (q *Question) SetOptionList(options []string) error {
	if options == nil {
		q.Options = nil
		return nil
	}
	data, err := json.Marshal(options)
	if err != nil {
		return err
	}
	q.Options = datatypes.JSON(data)
	return nil
}

// QuestionMetadata holds the distinct subject/topic values for admin filtering UIs.
type QuestionMetadata struct {
	Subjects []string `json:"subjects"`
	Topics   []string `json:"topics"`
}
