package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AppointmentReminder is the patient's chosen pre-appointment reminder.
// One per appointment; changing the lead time revokes the previously scheduled
// task before a new one is created.
type AppointmentReminder struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	AppointmentID uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex" json:"appointment_id"`
	BeforeMinutes int        `gorm:"not null" json:"before_minutes"`
	AlreadySent   bool       `gorm:"not null;default:false" json:"already_sent"`
	TaskID        *uuid.UUID `gorm:"type:uuid" json:"task_id,omitempty"`
	CreatedAt     time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	// Relationships
	Appointment Appointment `gorm:"foreignKey:AppointmentID" json:"appointment,omitempty"`
}

func (AppointmentReminder) TableName() string {
	return "appointment_reminders"
}

func (r *AppointmentReminder) BeforeCreate(*gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// ExecuteAt returns when the reminder should fire for the given appointment time.
func (r *AppointmentReminder) ExecuteAt(appointmentAt time.Time) time.Time {
	return appointmentAt.Add(-time.Duration(r.BeforeMinutes) * time.Minute)
}
