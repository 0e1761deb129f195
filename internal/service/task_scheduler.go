package service

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go-clinic-negotiation/internal/domain/entity"
	"go-clinic-negotiation/internal/domain/repository"
	"go-clinic-negotiation/pkg/clock"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Batch of due tasks claimed per poll tick
const taskClaimBatchSize = 100

// TaskHandler runs one fired delayed task. Handlers re-validate current
// appointment state themselves: a stale timer firing after a human action is
// a silent no-op, not an error.
type TaskHandler func(ctx context.Context, task entity.DelayedTask) error

// DelayedTaskScheduler is the write-side interface the usecases consume:
// schedule a callback for later, or revoke one scheduled earlier.
type DelayedTaskScheduler interface {
	Schedule(db *gorm.DB, kind entity.DelayedTaskKind, appointmentID uuid.UUID, executeAt time.Time, expiresAt *time.Time) (uuid.UUID, error)
	// Revoke cancels a pending task. Revoking a task that already ran,
	// expired or was revoked is a no-op.
	Revoke(db *gorm.DB, taskID uuid.UUID) error
}

// TaskScheduler stores delayed callbacks as database rows and polls them with
// a background worker. Claiming flips pending → done with a conditional
// update, so concurrent workers never run the same task twice.
type TaskScheduler struct {
	db       *gorm.DB
	log      *logrus.Logger
	taskRepo repository.DelayedTaskRepository
	clock    clock.Clock
	interval time.Duration

	handlersMu sync.RWMutex
	handlers   map[entity.DelayedTaskKind]TaskHandler

	stopChan chan struct{}
	wg       sync.WaitGroup
	started  atomic.Bool
	stopped  atomic.Bool
}

func NewTaskScheduler(
	db *gorm.DB,
	log *logrus.Logger,
	taskRepo repository.DelayedTaskRepository,
	clk clock.Clock,
	interval time.Duration,
) *TaskScheduler {
	return &TaskScheduler{
		db:       db,
		log:      log,
		taskRepo: taskRepo,
		clock:    clk,
		interval: interval,
		handlers: make(map[entity.DelayedTaskKind]TaskHandler),
		stopChan: make(chan struct{}),
	}
}

// Register binds a handler to a task kind. Handlers must be registered before
// Start; fired tasks with no handler are marked failed.
func (s *TaskScheduler) Register(kind entity.DelayedTaskKind, handler TaskHandler) {
	s.handlersMu.Lock()
	defer s.handlersMu.Unlock()
	s.handlers[kind] = handler
}

func (s *TaskScheduler) Schedule(db *gorm.DB, kind entity.DelayedTaskKind, appointmentID uuid.UUID, executeAt time.Time, expiresAt *time.Time) (uuid.UUID, error) {
	task := &entity.DelayedTask{
		Kind:          kind,
		AppointmentID: appointmentID,
		ExecuteAt:     executeAt,
		ExpiresAt:     expiresAt,
		Status:        entity.DelayedTaskPending,
	}
	if err := s.taskRepo.Create(db, task); err != nil {
		s.log.Errorf("Failed to schedule %s task for appointment %s: %+v", kind, appointmentID, err)
		return uuid.Nil, err
	}
	return task.ID, nil
}

func (s *TaskScheduler) Revoke(db *gorm.DB, taskID uuid.UUID) error {
	rows, err := s.taskRepo.Revoke(db, taskID)
	if err != nil {
		s.log.Warnf("Failed to revoke task %s: %+v", taskID, err)
		return err
	}
	if rows == 0 {
		s.log.Debugf("Task %s was not pending, revoke skipped", taskID)
	}
	return nil
}

// Start launches the polling worker. Call Stop() during graceful shutdown.
func (s *TaskScheduler) Start() {
	if s.started.CompareAndSwap(false, true) {
		s.wg.Add(1)
		go s.pollLoop()
	}
}

// Stop drains the worker. Safe to call multiple times.
func (s *TaskScheduler) Stop() {
	if s.stopped.CompareAndSwap(false, true) {
		close(s.stopChan)
		s.wg.Wait()
		s.log.Info("TaskScheduler stopped")
	}
}

func (s *TaskScheduler) pollLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			s.log.Debug("Task worker stopping")
			return
		case <-ticker.C:
			s.RunDue(context.Background())
		}
	}
}

// RunDue claims and executes every task whose execute time has passed.
// Exported so tests and cron-style callers can drive the worker directly.
func (s *TaskScheduler) RunDue(ctx context.Context) {
	now := s.clock.Now()

	tasks, err := s.taskRepo.FindDue(s.db, now, taskClaimBatchSize)
	if err != nil {
		s.log.Errorf("Failed to query due tasks: %+v", err)
		return
	}

	for _, task := range tasks {
		if task.ExpiresAt != nil && now.After(*task.ExpiresAt) {
			if _, err := s.taskRepo.MarkStatusIf(s.db, task.ID, entity.DelayedTaskExpired); err != nil {
				s.log.Warnf("Failed to expire task %s: %+v", task.ID, err)
			}
			continue
		}

		rows, err := s.taskRepo.MarkStatusIf(s.db, task.ID, entity.DelayedTaskDone)
		if err != nil {
			s.log.Warnf("Failed to claim task %s: %+v", task.ID, err)
			continue
		}
		if rows == 0 {
			// another worker got it first
			continue
		}

		s.execute(ctx, task)
	}
}

func (s *TaskScheduler) execute(ctx context.Context, task entity.DelayedTask) {
	s.handlersMu.RLock()
	handler, ok := s.handlers[task.Kind]
	s.handlersMu.RUnlock()

	if !ok {
		s.log.Errorf("No handler registered for task kind %s (task %s)", task.Kind, task.ID)
		if err := s.taskRepo.MarkFailed(s.db, task.ID); err != nil {
			s.log.Warnf("Failed to mark task %s failed: %+v", task.ID, err)
		}
		return
	}

	if err := handler(ctx, task); err != nil {
		s.log.Errorf("Task %s (%s) for appointment %s failed: %+v", task.ID, task.Kind, task.AppointmentID, err)
		if err := s.taskRepo.MarkFailed(s.db, task.ID); err != nil {
			s.log.Warnf("Failed to mark task %s failed: %+v", task.ID, err)
		}
		return
	}

	s.log.Debugf("Task %s (%s) for appointment %s completed", task.ID, task.Kind, task.AppointmentID)
}
