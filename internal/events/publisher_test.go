package events

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockEventPublisher(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	publisher := NewMockEventPublisher(logger)
	ctx := context.Background()

	t.Run("PublishExamEvent", func(t *testing.T) {
		event := NewExamSubmittedEvent(7, "Math Midterm", "student-1", time.Now(), 3)

		require.NoError(t, publisher.PublishExamEvent(ctx, event))

		published := publisher.GetPublishedEvents()
		require.Len(t, published, 1)
		assert.Equal(t, EventExamSubmitted, published[0].Type)
	})

	t.Run("EventEnvelope", func(t *testing.T) {
		publisher.ClearEvents()

		event := NewExamGradedEvent(7, "Math Midterm", "student-1", 5, 8, 62.5, "C", true)
		require.NoError(t, publisher.PublishExamEvent(ctx, event))

		published := publisher.GetPublishedEvents()
		require.Len(t, published, 1)

		got := published[0]
		assert.NotEmpty(t, got.ID)
		assert.Equal(t, "exam-service", got.Source)
		assert.Equal(t, "1.0", got.Version)

		data, ok := got.Data.(ExamGradedEvent)
		require.True(t, ok, "expected ExamGradedEvent payload, got %T", got.Data)
		assert.Equal(t, 5, data.ObtainedMarks)
		assert.Equal(t, 8, data.TotalMarks)
		assert.InDelta(t, 62.5, data.Percentage, 0.001)
	})

	t.Run("ClearEvents", func(t *testing.T) {
		publisher.ClearEvents()
		assert.Empty(t, publisher.GetPublishedEvents())
	})
}

func TestEventFactories(t *testing.T) {
	t.Run("activated", func(t *testing.T) {
		start := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
		end := start.Add(2 * time.Hour)
		event := NewExamActivatedEvent(3, "History Final", start, end, 90, []string{"s1", "s2"}, "admin-1")

		assert.Equal(t, EventExamActivated, event.Type)
		data, ok := event.Data.(ExamActivatedEvent)
		require.True(t, ok)
		assert.Equal(t, uint(3), data.ExamID)
		assert.Equal(t, start, data.StartTime)
		assert.Len(t, data.StudentIDs, 2)
		assert.Equal(t, "admin-1", data.ActivatedBy)
	})

	t.Run("deactivated", func(t *testing.T) {
		event := NewExamDeactivatedEvent(3, "History Final", "admin-1")

		assert.Equal(t, EventExamDeactivated, event.Type)
		data, ok := event.Data.(ExamDeactivatedEvent)
		require.True(t, ok)
		assert.Equal(t, "History Final", data.ExamTitle)
	})

	t.Run("graded", func(t *testing.T) {
		event := NewExamGradedEvent(3, "History Final", "s1", 45, 50, 90.0, "A+", true)

		data, ok := event.Data.(ExamGradedEvent)
		require.True(t, ok)
		assert.Equal(t, "A+", data.Grade)
		assert.True(t, data.Passed)
	})
}
