package services

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/examstack/exam-service/internal/models"
	"github.com/examstack/exam-service/internal/repositories"
	"github.com/examstack/exam-service/internal/validator"
	"gorm.io/gorm"
)

// examTestRepo is a minimal in-memory Repository for exam tests
type examTestRepo struct {
	questions []*models.Question
	users     []*models.User
}

func (r *examTestRepo) Question() repositories.QuestionRepository {
	return &examTestQuestionRepo{r: r}
}
func (r *examTestRepo) Exam() repositories.ExamRepository     { return nil }
func (r *examTestRepo) Result() repositories.ResultRepository { return nil }
func (r *examTestRepo) User() repositories.UserRepository     { return &examTestUserRepo{r: r} }
func (r *examTestRepo) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return fn(r)
}
func (r *examTestRepo) Ping(ctx context.Context) error { return nil }
func (r *examTestRepo) Close() error                   { return nil }

type examTestQuestionRepo struct {
	repositories.QuestionRepository
	r *examTestRepo
}

func (q *examTestQuestionRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uint) ([]*models.Question, error) {
	found := make([]*models.Question, 0, len(ids))
	for _, id := range ids {
		for _, question := range q.r.questions {
			if question.ID == id {
				found = append(found, question)
				break
			}
		}
	}
	return found, nil
}

type examTestUserRepo struct {
	repositories.UserRepository
	r *examTestRepo
}

func (u *examTestUserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	for _, user := range u.r.users {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (u *examTestUserRepo) GetByIDs(ctx context.Context, ids []string) ([]*models.User, error) {
	return u.r.users, nil
}

func newExamServiceForTest(repo repositories.Repository) *examService {
	return &examService{
		repo:      repo,
		logger:    slog.New(slog.NewTextHandler(os.Stdout, nil)),
		validator: validator.New(),
	}
}

func TestExamService_VerifyQuestionRefs(t *testing.T) {
	repo := &examTestRepo{
		questions: []*models.Question{
			{ID: 1, Text: "q1", Marks: 5},
			{ID: 2, Text: "q2", Marks: 3},
		},
	}
	svc := newExamServiceForTest(repo)
	ctx := context.Background()

	t.Run("all ids exist", func(t *testing.T) {
		if err := svc.verifyQuestionRefs(ctx, []uint{1, 2}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("empty list is fine", func(t *testing.T) {
		if err := svc.verifyQuestionRefs(ctx, nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("missing id is a business rule violation", func(t *testing.T) {
		err := svc.verifyQuestionRefs(ctx, []uint{1, 99})
		var ruleErr *BusinessRuleError
		if !errors.As(err, &ruleErr) {
			t.Fatalf("expected a business rule error, got %v", err)
		}
		if ruleErr.Rule != "question_refs" {
			t.Errorf("rule = %q, want question_refs", ruleErr.Rule)
		}
	})
}

func TestExamService_DecorateExam(t *testing.T) {
	now := time.Now()
	repo := &examTestRepo{
		users: []*models.User{
			{ID: "admin-1", FullName: "Casey Adams", Email: "casey@example.com"},
			{ID: "student-1", FullName: "Jordan Lee", Email: "jordan@example.com"},
		},
	}
	svc := newExamServiceForTest(repo)

	build := func() *models.Exam {
		return &models.Exam{
			ID:        10,
			Title:     "Geography Midterm",
			StartTime: now,
			EndTime:   now.Add(time.Hour),
			CreatedBy: "admin-1",
			Questions: []models.ExamQuestion{
				{QuestionID: 1, Question: models.Question{ID: 1, CorrectAnswer: "Paris", Marks: 5}},
				{QuestionID: 2, Question: models.Question{ID: 2, CorrectAnswer: "false", Marks: 3}},
			},
			AssignedStudents: []models.ExamAssignment{
				{ExamID: 10, StudentID: "student-1"},
			},
		}
	}

	t.Run("admin view keeps answers and resolves names", func(t *testing.T) {
		exam := build()
		svc.decorateExam(context.Background(), exam, false)

		if exam.TotalMarks != 8 {
			t.Errorf("total marks = %d, want 8", exam.TotalMarks)
		}
		if exam.Questions[0].Question.CorrectAnswer != "Paris" {
			t.Error("admin view must keep answer keys")
		}
		if exam.CreatorName != "Casey Adams" {
			t.Errorf("creator name = %q, want Casey Adams", exam.CreatorName)
		}
		if exam.AssignedStudents[0].StudentName != "Jordan Lee" {
			t.Errorf("assignment not resolved: %+v", exam.AssignedStudents[0])
		}
	})

	t.Run("student view strips answers and assignments", func(t *testing.T) {
		exam := build()
		svc.decorateExam(context.Background(), exam, true)

		if exam.TotalMarks != 8 {
			t.Errorf("total marks = %d, want 8", exam.TotalMarks)
		}
		for _, eq := range exam.Questions {
			if eq.Question.CorrectAnswer != "" {
				t.Error("student view must not carry answer keys")
			}
		}
		if exam.AssignedStudents != nil {
			t.Error("student view must not list other assignees")
		}
	})
}
