package validator

import (
	"strings"

	"github.com/examstack/exam-service/internal/models"
	"github.com/go-playground/validator/v10"
)

// BusinessValidator handles business rule validation
type BusinessValidator struct {
	validate *validator.Validate
}

// NewBusinessValidator creates a new business validator
func NewBusinessValidator() *BusinessValidator {
	validate := validator.New()

	bv := &BusinessValidator{validate: validate}
	bv.registerBusinessRules()

	return bv
}

// Validate validates business rules for any struct
func (bv *BusinessValidator) Validate(s interface{}) ValidationErrors {
	err := bv.validate.Struct(s)
	if err != nil {
		return ToValidationErrors(err)
	}
	return nil
}

// ValidateQuestionCreate validates question creation business rules
func (bv *BusinessValidator) ValidateQuestionCreate(req *QuestionCreateRequest) ValidationErrors {
	var errors ValidationErrors

	errors = append(errors, bv.validateQuestionContent(req.Type, req.Options, req.CorrectAnswer)...)

	return errors
}

// ValidateQuestionUpdate validates question update business rules against
// the merged state of the existing question and the patch
func (bv *BusinessValidator) ValidateQuestionUpdate(req *QuestionUpdateRequest, existing *models.Question) ValidationErrors {
	qType := existing.Type
	if req.Type != nil {
		qType = *req.Type
	}

	options := req.Options
	if options == nil {
		options = existing.OptionList()
	}

	answer := existing.CorrectAnswer
	if req.CorrectAnswer != nil {
		answer = *req.CorrectAnswer
	}

	return bv.validateQuestionContent(qType, options, answer)
}

// ValidateExamCreate validates exam creation business rules
func (bv *BusinessValidator) ValidateExamCreate(req *ExamCreateRequest) ValidationErrors {
	var errors ValidationErrors

	if !req.EndTime.After(req.StartTime) {
		errors = append(errors, ValidationError{
			Field:   "end_time",
			Message: "must be after start_time",
			Value:   req.EndTime,
			Rule:    "business_logic",
		})
	}

	return errors
}

// ValidateExamUpdate validates exam update business rules against the
// merged window of the existing exam and the patch
func (bv *BusinessValidator) ValidateExamUpdate(req *ExamUpdateRequest, existing *models.Exam) ValidationErrors {
	var errors ValidationErrors

	start := existing.StartTime
	if req.StartTime != nil {
		start = *req.StartTime
	}
	end := existing.EndTime
	if req.EndTime != nil {
		end = *req.EndTime
	}

	if !end.After(start) {
		errors = append(errors, ValidationError{
			Field:   "end_time",
			Message: "must be after start_time",
			Value:   end,
			Rule:    "business_logic",
		})
	}

	return errors
}

// validateQuestionContent checks type-specific answer constraints
func (bv *BusinessValidator) validateQuestionContent(qType models.QuestionType, options []string, answer string) ValidationErrors {
	var errors ValidationErrors

	switch qType {
	case models.MultipleChoice:
		if len(options) < 2 {
			errors = append(errors, ValidationError{
				Field:   "options",
				Message: "multiple choice questions need at least 2 options",
				Value:   len(options),
				Rule:    "business_logic",
			})
		}
		for i, opt := range options {
			if strings.TrimSpace(opt) == "" {
				errors = append(errors, ValidationError{
					Field:   "options",
					Message: "option cannot be empty",
					Value:   i,
					Rule:    "business_logic",
				})
			}
		}
	case models.TrueFalse:
		if !strings.EqualFold(answer, "true") && !strings.EqualFold(answer, "false") {
			errors = append(errors, ValidationError{
				Field:   "correct_answer",
				Message: "true/false questions must have a true or false answer",
				Value:   answer,
				Rule:    "business_logic",
			})
		}
	}

	return errors
}

// registerBusinessRules registers custom business rule validators
func (bv *BusinessValidator) registerBusinessRules() {
	// Exam duration validation (5-300 minutes)
	bv.validate.RegisterValidation("exam_duration", func(fl validator.FieldLevel) bool {
		duration := fl.Field().Int()
		return duration >= 5 && duration <= 300
	})

	// Title validation (1-200 characters)
	bv.validate.RegisterValidation("exam_title", func(fl validator.FieldLevel) bool {
		title := strings.TrimSpace(fl.Field().String())
		return len(title) >= 1 && len(title) <= 200
	})

	// Struct tags on the DTOs also use question_type and difficulty_level
	bv.validate.RegisterValidation("question_type", validateQuestionType)
	bv.validate.RegisterValidation("difficulty_level", validateDifficultyLevel)
}
