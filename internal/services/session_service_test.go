package services

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/examstack/exam-service/internal/events"
	"github.com/examstack/exam-service/internal/models"
	"github.com/examstack/exam-service/internal/repositories"
	"github.com/examstack/exam-service/internal/validator"
	"gorm.io/gorm"
)

// sessionTestRepo is a minimal in-memory Repository for session tests
type sessionTestRepo struct {
	exam      *models.Exam
	assigned  bool
	completed bool
	createErr error
	created   *models.ExamResult
}

func (r *sessionTestRepo) Question() repositories.QuestionRepository { return nil }
func (r *sessionTestRepo) Exam() repositories.ExamRepository         { return &sessionTestExamRepo{r: r} }
func (r *sessionTestRepo) Result() repositories.ResultRepository {
	return &sessionTestResultRepo{r: r}
}
func (r *sessionTestRepo) User() repositories.UserRepository { return nil }
func (r *sessionTestRepo) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return fn(r)
}
func (r *sessionTestRepo) Ping(ctx context.Context) error { return nil }
func (r *sessionTestRepo) Close() error                   { return nil }

type sessionTestExamRepo struct {
	repositories.ExamRepository
	r *sessionTestRepo
}

func (e *sessionTestExamRepo) GetByIDWithDetails(ctx context.Context, tx *gorm.DB, id uint) (*models.Exam, error) {
	if e.r.exam == nil || e.r.exam.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	return e.r.exam, nil
}

func (e *sessionTestExamRepo) IsAssigned(ctx context.Context, tx *gorm.DB, examID uint, studentID string) (bool, error) {
	return e.r.assigned, nil
}

type sessionTestResultRepo struct {
	repositories.ResultRepository
	r *sessionTestRepo
}

func (s *sessionTestResultRepo) HasCompleted(ctx context.Context, tx *gorm.DB, examID uint, studentID string) (bool, error) {
	return s.r.completed, nil
}

func (s *sessionTestResultRepo) Create(ctx context.Context, tx *gorm.DB, result *models.ExamResult) error {
	if s.r.createErr != nil {
		return s.r.createErr
	}
	result.ID = 1
	s.r.created = result
	return nil
}

func newSessionServiceForTest(repo repositories.Repository, at time.Time) (*sessionService, *events.MockEventPublisher) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	publisher := events.NewMockEventPublisher(logger)
	return &sessionService{
		repo:      repo,
		logger:    logger,
		validator: validator.New(),
		publisher: publisher,
		now:       func() time.Time { return at },
	}, publisher
}

func sessionTestExam(now time.Time) *models.Exam {
	q1 := models.Question{
		ID:            1,
		Text:          "What is the capital of France?",
		Type:          models.MultipleChoice,
		CorrectAnswer: "Paris",
		Subject:       "Geography",
		Marks:         5,
	}
	_ = q1.SetOptionList([]string{"Paris", "London", "Berlin", "Madrid"})
	q2 := models.Question{
		ID:            2,
		Text:          "The earth is flat.",
		Type:          models.TrueFalse,
		CorrectAnswer: "false",
		Subject:       "Geography",
		Marks:         3,
	}

	return &models.Exam{
		ID:        10,
		Title:     "Geography Midterm",
		Duration:  60,
		StartTime: now.Add(-time.Hour),
		EndTime:   now.Add(time.Hour),
		IsActive:  true,
		CreatedBy: "admin-1",
		Questions: []models.ExamQuestion{
			{ID: 1, ExamID: 10, QuestionID: 1, Position: 0, Question: q1},
			{ID: 2, ExamID: 10, QuestionID: 2, Position: 1, Question: q2},
		},
	}
}

func TestSessionService_StartExam_Preconditions(t *testing.T) {
	now := time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC)
	ctx := context.Background()

	tests := []struct {
		name    string
		setup   func(exam *models.Exam, repo *sessionTestRepo)
		wantErr error
	}{
		{
			name: "exam not found",
			setup: func(exam *models.Exam, repo *sessionTestRepo) {
				repo.exam = nil
			},
			wantErr: ErrExamNotFound,
		},
		{
			name: "not assigned",
			setup: func(exam *models.Exam, repo *sessionTestRepo) {
				repo.assigned = false
			},
			wantErr: ErrNotAssigned,
		},
		{
			name: "not active",
			setup: func(exam *models.Exam, repo *sessionTestRepo) {
				exam.IsActive = false
			},
			wantErr: ErrExamNotActive,
		},
		{
			name: "window not yet open",
			setup: func(exam *models.Exam, repo *sessionTestRepo) {
				exam.StartTime = now.Add(time.Hour)
				exam.EndTime = now.Add(2 * time.Hour)
			},
			wantErr: ErrExamWindowClosed,
		},
		{
			name: "window already closed",
			setup: func(exam *models.Exam, repo *sessionTestRepo) {
				exam.StartTime = now.Add(-2 * time.Hour)
				exam.EndTime = now.Add(-time.Hour)
			},
			wantErr: ErrExamWindowClosed,
		},
		{
			name: "already submitted",
			setup: func(exam *models.Exam, repo *sessionTestRepo) {
				repo.completed = true
			},
			wantErr: ErrAlreadySubmitted,
		},
		{
			name:  "all preconditions met",
			setup: func(exam *models.Exam, repo *sessionTestRepo) {},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exam := sessionTestExam(now)
			repo := &sessionTestRepo{exam: exam, assigned: true}
			tt.setup(exam, repo)

			svc, _ := newSessionServiceForTest(repo, now)
			view, err := svc.StartExam(ctx, 10, "student-1")

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if view == nil {
				t.Fatal("expected a view")
			}
		})
	}
}

func TestSessionService_StartExam_PreconditionOrder(t *testing.T) {
	// A deactivated exam the student is not assigned to must report the
	// assignment failure, not the activation one.
	now := time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC)
	exam := sessionTestExam(now)
	exam.IsActive = false
	repo := &sessionTestRepo{exam: exam, assigned: false}

	svc, _ := newSessionServiceForTest(repo, now)
	_, err := svc.StartExam(context.Background(), 10, "student-1")
	if !errors.Is(err, ErrNotAssigned) {
		t.Fatalf("expected ErrNotAssigned, got %v", err)
	}
}

func TestSessionService_StartExam_SanitizedView(t *testing.T) {
	now := time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC)
	exam := sessionTestExam(now)
	repo := &sessionTestRepo{exam: exam, assigned: true}

	svc, _ := newSessionServiceForTest(repo, now)
	view, err := svc.StartExam(context.Background(), 10, "student-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if view.ExamID != 10 || view.Title != "Geography Midterm" {
		t.Errorf("unexpected exam identity: %d %q", view.ExamID, view.Title)
	}
	if view.TotalMarks != 8 {
		t.Errorf("expected total marks 8, got %d", view.TotalMarks)
	}
	if len(view.Questions) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(view.Questions))
	}
	if got := view.Questions[0].Options; len(got) != 4 {
		t.Errorf("expected 4 options on first question, got %v", got)
	}
}

func TestSessionService_StartExam_SkipsDanglingQuestions(t *testing.T) {
	now := time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC)
	exam := sessionTestExam(now)
	// Simulate a deleted question: the join row survives but the preload
	// comes back zero-valued.
	exam.Questions = append(exam.Questions, models.ExamQuestion{
		ID: 3, ExamID: 10, QuestionID: 99, Position: 2,
	})
	repo := &sessionTestRepo{exam: exam, assigned: true}

	svc, _ := newSessionServiceForTest(repo, now)
	view, err := svc.StartExam(context.Background(), 10, "student-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(view.Questions) != 2 {
		t.Errorf("expected dangling reference to be skipped, got %d questions", len(view.Questions))
	}
	if view.TotalMarks != 8 {
		t.Errorf("expected total marks 8, got %d", view.TotalMarks)
	}
}

func TestSessionService_SubmitExam_Grading(t *testing.T) {
	now := time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC)
	ctx := context.Background()

	tests := []struct {
		name         string
		answers      map[uint]string
		wantObtained int
		wantGrade    string
		wantPassed   bool
	}{
		{
			name:         "one of two correct",
			answers:      map[uint]string{1: "Paris", 2: "true"},
			wantObtained: 5,
			wantGrade:    "C",
			wantPassed:   true,
		},
		{
			name:         "case insensitive matching",
			answers:      map[uint]string{1: "PARIS", 2: "FALSE"},
			wantObtained: 8,
			wantGrade:    "A+",
			wantPassed:   true,
		},
		{
			name:         "whitespace is not trimmed",
			answers:      map[uint]string{1: " Paris ", 2: "false"},
			wantObtained: 3,
			wantGrade:    "F",
			wantPassed:   false,
		},
		{
			name:         "unknown question ids are ignored",
			answers:      map[uint]string{1: "Paris", 99: "whatever"},
			wantObtained: 5,
			wantGrade:    "C",
			wantPassed:   true,
		},
		{
			name:         "all wrong",
			answers:      map[uint]string{1: "London", 2: "true"},
			wantObtained: 0,
			wantGrade:    "F",
			wantPassed:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &sessionTestRepo{exam: sessionTestExam(now), assigned: true}
			svc, _ := newSessionServiceForTest(repo, now)

			res, err := svc.SubmitExam(ctx, 10, "student-1", &SubmitExamRequest{Answers: tt.answers})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if res.ObtainedMarks != tt.wantObtained {
				t.Errorf("obtained marks = %d, want %d", res.ObtainedMarks, tt.wantObtained)
			}
			if res.TotalMarks != 8 {
				t.Errorf("total marks = %d, want 8", res.TotalMarks)
			}
			if res.Grade != tt.wantGrade {
				t.Errorf("grade = %q, want %q", res.Grade, tt.wantGrade)
			}
			if res.Passed != tt.wantPassed {
				t.Errorf("passed = %v, want %v", res.Passed, tt.wantPassed)
			}
		})
	}
}

func TestSessionService_SubmitExam_PersistsAnswerRows(t *testing.T) {
	now := time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC)
	repo := &sessionTestRepo{exam: sessionTestExam(now), assigned: true}
	svc, publisher := newSessionServiceForTest(repo, now)

	res, err := svc.SubmitExam(context.Background(), 10, "student-1", &SubmitExamRequest{
		Answers: map[uint]string{1: "Paris", 2: "true", 99: "ignored"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Score != "5/8" {
		t.Errorf("score = %q, want 5/8", res.Score)
	}

	if repo.created == nil {
		t.Fatal("expected a persisted result")
	}
	if repo.created.Status != models.ResultCompleted {
		t.Errorf("status = %q, want %q", repo.created.Status, models.ResultCompleted)
	}
	// The answer for the unknown question id must not produce a row.
	if len(repo.created.Answers) != 2 {
		t.Fatalf("expected 2 answer rows, got %d", len(repo.created.Answers))
	}
	if repo.created.SubmittedAt == nil || !repo.created.SubmittedAt.Equal(now) {
		t.Errorf("submitted at = %v, want %v", repo.created.SubmittedAt, now)
	}

	published := publisher.GetPublishedEvents()
	if len(published) != 2 {
		t.Fatalf("expected 2 events, got %d", len(published))
	}
	if published[0].Type != events.EventExamSubmitted || published[1].Type != events.EventExamGraded {
		t.Errorf("unexpected event types: %v, %v", published[0].Type, published[1].Type)
	}
}

func TestSessionService_SubmitExam_DuplicateSubmission(t *testing.T) {
	now := time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC)
	repo := &sessionTestRepo{
		exam:      sessionTestExam(now),
		assigned:  true,
		createErr: gorm.ErrDuplicatedKey,
	}
	svc, publisher := newSessionServiceForTest(repo, now)

	_, err := svc.SubmitExam(context.Background(), 10, "student-1", &SubmitExamRequest{
		Answers: map[uint]string{1: "Paris"},
	})
	if !errors.Is(err, ErrAlreadySubmitted) {
		t.Fatalf("expected ErrAlreadySubmitted, got %v", err)
	}
	if len(publisher.GetPublishedEvents()) != 0 {
		t.Error("no events should be published for a failed submission")
	}
}

func TestLetterGrade(t *testing.T) {
	tests := []struct {
		percentage float64
		want       string
	}{
		{100, "A+"},
		{90, "A+"},
		{89.9, "A"},
		{80, "A"},
		{79.9, "B"},
		{70, "B"},
		{69.9, "C"},
		{60, "C"},
		{59.9, "D"},
		{50, "D"},
		{49.9, "F"},
		{0, "F"},
	}
	for _, tt := range tests {
		if got := LetterGrade(tt.percentage); got != tt.want {
			t.Errorf("LetterGrade(%v) = %q, want %q", tt.percentage, got, tt.want)
		}
	}
}
