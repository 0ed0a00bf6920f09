package validator

import (
	"testing"
	"time"

	"github.com/examstack/exam-service/internal/models"
)

func TestValidateQuestionCreate(t *testing.T) {
	v := New()

	t.Run("valid multiple choice", func(t *testing.T) {
		req := &QuestionCreateRequest{
			Text:          "What is the capital of France?",
			Type:          models.MultipleChoice,
			Options:       []string{"Paris", "London", "Berlin", "Madrid"},
			CorrectAnswer: "Paris",
			Subject:       "Geography",
			Topic:         "Capitals",
			Difficulty:    models.DifficultyEasy,
			Marks:         2,
		}

		if err := v.ValidateStruct(req); err != nil {
			t.Fatalf("unexpected struct validation error: %v", err)
		}
		if errs := v.Business().ValidateQuestionCreate(req); len(errs) != 0 {
			t.Fatalf("unexpected business validation errors: %v", errs)
		}
	})

	t.Run("multiple choice without options", func(t *testing.T) {
		req := &QuestionCreateRequest{
			Text:          "Pick one",
			Type:          models.MultipleChoice,
			CorrectAnswer: "A",
			Subject:       "Math",
			Difficulty:    models.DifficultyMedium,
			Marks:         1,
		}

		errs := v.Business().ValidateQuestionCreate(req)
		if len(errs) == 0 {
			t.Fatal("expected business validation error for missing options")
		}
	})

	t.Run("true false with non boolean answer", func(t *testing.T) {
		req := &QuestionCreateRequest{
			Text:          "The sky is green",
			Type:          models.TrueFalse,
			CorrectAnswer: "maybe",
			Subject:       "Science",
			Difficulty:    models.DifficultyEasy,
			Marks:         1,
		}

		errs := v.Business().ValidateQuestionCreate(req)
		if len(errs) == 0 {
			t.Fatal("expected business validation error for non-boolean answer")
		}
	})

	t.Run("invalid question type", func(t *testing.T) {
		req := &QuestionCreateRequest{
			Text:          "Explain gravity",
			Type:          "essay",
			CorrectAnswer: "n/a",
			Subject:       "Physics",
			Difficulty:    models.DifficultyHard,
			Marks:         5,
		}

		if err := v.ValidateStruct(req); err == nil {
			t.Fatal("expected struct validation error for unknown question type")
		}
	})
}

func TestValidateExamCreate(t *testing.T) {
	v := New()
	now := time.Now()

	t.Run("valid exam", func(t *testing.T) {
		req := &ExamCreateRequest{
			Title:       "Midterm",
			Duration:    60,
			StartTime:   now.Add(1 * time.Hour),
			EndTime:     now.Add(3 * time.Hour),
			QuestionIDs: []uint{1, 2, 3},
		}

		if err := v.ValidateStruct(req); err != nil {
			t.Fatalf("unexpected struct validation error: %v", err)
		}
		if errs := v.Business().ValidateExamCreate(req); len(errs) != 0 {
			t.Fatalf("unexpected business validation errors: %v", errs)
		}
	})

	t.Run("window ends before it starts", func(t *testing.T) {
		req := &ExamCreateRequest{
			Title:       "Backwards",
			Duration:    60,
			StartTime:   now.Add(3 * time.Hour),
			EndTime:     now.Add(1 * time.Hour),
			QuestionIDs: []uint{1},
		}

		errs := v.Business().ValidateExamCreate(req)
		if len(errs) == 0 {
			t.Fatal("expected business validation error for inverted window")
		}
	})

	t.Run("duration out of range", func(t *testing.T) {
		req := &ExamCreateRequest{
			Title:       "Marathon",
			Duration:    500,
			StartTime:   now.Add(1 * time.Hour),
			EndTime:     now.Add(12 * time.Hour),
			QuestionIDs: []uint{1},
		}

		if err := v.ValidateStruct(req); err == nil {
			t.Fatal("expected struct validation error for out-of-range duration")
		}
	})
}
