package repository

import (
	"time"

	"go-clinic-negotiation/internal/domain/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DelayedTaskRepository interface {
	Create(db *gorm.DB, task *entity.DelayedTask) error
	// Revoke cancels a pending task; zero affected rows means the task already
	// ran, expired or was revoked before.
	Revoke(db *gorm.DB, id uuid.UUID) (int64, error)
	// FindDue returns pending tasks whose execute time has passed, oldest first.
	FindDue(db *gorm.DB, now time.Time, limit int) ([]entity.DelayedTask, error)
	// MarkStatusIf flips a pending task to its outcome status; the CAS guard
	// keeps two workers from running the same task.
	MarkStatusIf(db *gorm.DB, id uuid.UUID, to entity.DelayedTaskStatus) (int64, error)
	// MarkFailed records a handler failure on an already claimed task.
	MarkFailed(db *gorm.DB, id uuid.UUID) error
}
