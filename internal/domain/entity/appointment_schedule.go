package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AppointmentSchedule is the committed calendar block derived 1:1 from a
// reserved appointment. The interval is half-open: [StartsAt, EndsAt).
// It exists only while the appointment is reserved or confirmed.
type AppointmentSchedule struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	AppointmentID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"appointment_id"`
	DoctorID      uuid.UUID `gorm:"type:uuid;not null;index" json:"doctor_id"`
	StartsAt      time.Time `gorm:"not null;index" json:"starts_at"`
	EndsAt        time.Time `gorm:"not null;index" json:"ends_at"`

	// Relationships
	Appointment Appointment   `gorm:"foreignKey:AppointmentID" json:"appointment,omitempty"`
	Doctor      DoctorProfile `gorm:"foreignKey:DoctorID" json:"doctor,omitempty"`
}

func (AppointmentSchedule) TableName() string {
	return "appointment_schedules"
}

func (s *AppointmentSchedule) BeforeCreate(*gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// Overlaps reports whether the committed block intersects [start, end).
func (s *AppointmentSchedule) Overlaps(start, end time.Time) bool {
	return s.StartsAt.Before(end) && start.Before(s.EndsAt)
}
