package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DelayedTaskKind names the callback a delayed task fires
type DelayedTaskKind string

const (
	TaskOpenTimeout    DelayedTaskKind = "open_timeout"
	TaskSuggestExpiry  DelayedTaskKind = "suggest_expiry"
	TaskReservedExpiry DelayedTaskKind = "reserved_expiry"
	TaskReminder       DelayedTaskKind = "reminder"
	TaskRatingFollowUp DelayedTaskKind = "rating_follow_up"
)

// DelayedTaskStatus represents the execution state of a delayed task
type DelayedTaskStatus string

const (
	DelayedTaskPending DelayedTaskStatus = "pending"
	DelayedTaskDone    DelayedTaskStatus = "done"
	DelayedTaskRevoked DelayedTaskStatus = "revoked"
	DelayedTaskExpired DelayedTaskStatus = "expired"
	DelayedTaskFailed  DelayedTaskStatus = "failed"
)

// DelayedTask is one scheduled callback row. The worker claims pending rows
// whose ExecuteAt has passed; rows past ExpiresAt are marked expired without
// running. Callbacks re-validate appointment state, so a stale task firing
// after a human action is a silent no-op.
type DelayedTask struct {
	ID            uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	Kind          DelayedTaskKind   `gorm:"type:varchar(32);not null;index" json:"kind"`
	AppointmentID uuid.UUID         `gorm:"type:uuid;not null;index" json:"appointment_id"`
	ExecuteAt     time.Time         `gorm:"not null;index" json:"execute_at"`
	ExpiresAt     *time.Time        `json:"expires_at,omitempty"`
	Status        DelayedTaskStatus `gorm:"type:varchar(16);not null;default:'pending';index" json:"status"`
	CreatedAt     time.Time         `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time         `gorm:"autoUpdateTime" json:"updated_at"`
}

func (DelayedTask) TableName() string {
	return "delayed_tasks"
}

func (t *DelayedTask) BeforeCreate(*gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
