package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go-clinic-negotiation/internal/domain/entity"
	"go-clinic-negotiation/internal/repository"
	"go-clinic-negotiation/pkg/clock"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

func newScheduler(t *testing.T, now time.Time) (*TaskScheduler, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	return NewTaskScheduler(db, testLogger(), repository.NewDelayedTaskRepository(), clock.Fixed{T: now}, time.Second), db
}

func taskStatus(t *testing.T, db *gorm.DB, id uuid.UUID) entity.DelayedTaskStatus {
	t.Helper()
	var task entity.DelayedTask
	if err := db.First(&task, "id = ?", id).Error; err != nil {
		t.Fatalf("failed to load task: %v", err)
	}
	return task.Status
}

func TestTaskSchedulerRunsDueTasksOnce(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	s, db := newScheduler(t, now)

	var fired []uuid.UUID
	s.Register(entity.TaskOpenTimeout, func(ctx context.Context, task entity.DelayedTask) error {
		fired = append(fired, task.AppointmentID)
		return nil
	})

	appointmentID := uuid.New()
	dueID, err := s.Schedule(db, entity.TaskOpenTimeout, appointmentID, now.Add(-time.Minute), nil)
	if err != nil {
		t.Fatalf("Schedule failed: %v", err)
	}
	laterID, err := s.Schedule(db, entity.TaskOpenTimeout, uuid.New(), now.Add(time.Hour), nil)
	if err != nil {
		t.Fatalf("Schedule failed: %v", err)
	}

	s.RunDue(context.Background())

	if len(fired) != 1 || fired[0] != appointmentID {
		t.Fatalf("expected one firing for %s, got %v", appointmentID, fired)
	}
	if got := taskStatus(t, db, dueID); got != entity.DelayedTaskDone {
		t.Fatalf("due task status = %s, want done", got)
	}
	if got := taskStatus(t, db, laterID); got != entity.DelayedTaskPending {
		t.Fatalf("future task status = %s, want pending", got)
	}

	// A claimed task never runs twice.
	s.RunDue(context.Background())
	if len(fired) != 1 {
		t.Fatalf("task ran %d times, want 1", len(fired))
	}
}

func TestTaskSchedulerExpiresStaleTasks(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	s, db := newScheduler(t, now)

	fired := 0
	s.Register(entity.TaskReminder, func(ctx context.Context, task entity.DelayedTask) error {
		fired++
		return nil
	})

	expiresAt := now.Add(-time.Hour)
	id, err := s.Schedule(db, entity.TaskReminder, uuid.New(), now.Add(-2*time.Hour), &expiresAt)
	if err != nil {
		t.Fatalf("Schedule failed: %v", err)
	}

	s.RunDue(context.Background())

	if fired != 0 {
		t.Fatal("expired task must not run")
	}
	if got := taskStatus(t, db, id); got != entity.DelayedTaskExpired {
		t.Fatalf("task status = %s, want expired", got)
	}
}

func TestTaskSchedulerMarksFailures(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	s, db := newScheduler(t, now)

	s.Register(entity.TaskSuggestExpiry, func(ctx context.Context, task entity.DelayedTask) error {
		return errors.New("boom")
	})

	failingID, err := s.Schedule(db, entity.TaskSuggestExpiry, uuid.New(), now.Add(-time.Minute), nil)
	if err != nil {
		t.Fatalf("Schedule failed: %v", err)
	}
	// No handler registered for this kind at all.
	orphanID, err := s.Schedule(db, entity.TaskReservedExpiry, uuid.New(), now.Add(-time.Minute), nil)
	if err != nil {
		t.Fatalf("Schedule failed: %v", err)
	}

	s.RunDue(context.Background())

	if got := taskStatus(t, db, failingID); got != entity.DelayedTaskFailed {
		t.Fatalf("failing task status = %s, want failed", got)
	}
	if got := taskStatus(t, db, orphanID); got != entity.DelayedTaskFailed {
		t.Fatalf("orphan task status = %s, want failed", got)
	}
}

func TestTaskSchedulerRevoke(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	s, db := newScheduler(t, now)

	fired := 0
	s.Register(entity.TaskOpenTimeout, func(ctx context.Context, task entity.DelayedTask) error {
		fired++
		return nil
	})

	id, err := s.Schedule(db, entity.TaskOpenTimeout, uuid.New(), now.Add(-time.Minute), nil)
	if err != nil {
		t.Fatalf("Schedule failed: %v", err)
	}
	if err := s.Revoke(db, id); err != nil {
		t.Fatalf("Revoke failed: %v", err)
	}

	s.RunDue(context.Background())

	if fired != 0 {
		t.Fatal("revoked task must not run")
	}
	if got := taskStatus(t, db, id); got != entity.DelayedTaskRevoked {
		t.Fatalf("task status = %s, want revoked", got)
	}

	// Revoking again is a no-op, not an error.
	if err := s.Revoke(db, id); err != nil {
		t.Fatalf("second revoke should be silent, got %v", err)
	}
}
