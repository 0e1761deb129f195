package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NotificationStatus represents the delivery state of a user notification
type NotificationStatus string

const (
	NotificationPending  NotificationStatus = "pending"
	NotificationSent     NotificationStatus = "sent"
	NotificationCanceled NotificationStatus = "canceled"
)

// UserNotification is a persisted notice addressed to one user about one
// appointment. Notices still pending when the negotiation finalizes against
// their addressee are flipped to canceled instead of delivered.
type UserNotification struct {
	ID            uuid.UUID          `gorm:"type:uuid;primaryKey" json:"id"`
	UserID        uuid.UUID          `gorm:"type:uuid;not null;index" json:"user_id"`
	AppointmentID uuid.UUID          `gorm:"type:uuid;not null;index" json:"appointment_id"`
	Action        string             `gorm:"type:varchar(64);not null" json:"action"`
	Payload       string             `gorm:"type:text" json:"payload,omitempty"`
	Status        NotificationStatus `gorm:"type:varchar(16);not null;default:'pending';index" json:"status"`
	CreatedAt     time.Time          `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time          `gorm:"autoUpdateTime" json:"updated_at"`

	// Relationships
	User        User        `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Appointment Appointment `gorm:"foreignKey:AppointmentID" json:"appointment,omitempty"`
}

func (UserNotification) TableName() string {
	return "user_notifications"
}

func (n *UserNotification) BeforeCreate(*gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}
