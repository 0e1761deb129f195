package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AppointmentRating is the patient's rating for a completed appointment.
// The clinic's sum/cnt aggregate is adjusted explicitly by the rating usecase
// in the same transaction as the write.
type AppointmentRating struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	AppointmentID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"appointment_id"`
	Rate          int       `gorm:"not null" json:"rate"`
	Comment       string    `gorm:"type:varchar(1023)" json:"comment,omitempty"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// Relationships
	Appointment Appointment `gorm:"foreignKey:AppointmentID" json:"appointment,omitempty"`
}

func (AppointmentRating) TableName() string {
	return "appointment_ratings"
}

func (r *AppointmentRating) BeforeCreate(*gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
