package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Suggestion is a clinic-proposed alternative date/time/doctor for an
// appointment. Chosen is tri-state: nil until the patient decides.
type Suggestion struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ClinicEventID uuid.UUID `gorm:"type:uuid;not null;index" json:"clinic_event_id"`
	DoctorID      uuid.UUID `gorm:"type:uuid;not null" json:"doctor_id"`
	DateTime      time.Time `gorm:"not null" json:"date_time"`
	Adjust30Min   bool      `gorm:"column:adjust_30_min;not null;default:false" json:"adjust_30_min"`
	Chosen        *bool     `json:"chosen,omitempty"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`

	// Relationships
	ClinicEvent ClinicEvent   `gorm:"foreignKey:ClinicEventID" json:"clinic_event,omitempty"`
	Doctor      DoctorProfile `gorm:"foreignKey:DoctorID" json:"doctor,omitempty"`
}

func (Suggestion) TableName() string {
	return "appointment_suggestions"
}

func (s *Suggestion) BeforeCreate(*gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// Key identifies a suggestion's proposal content, used to enforce pairwise
// distinct suggestions within one submit.
func (s *Suggestion) Key() string {
	adjust := "0"
	if s.Adjust30Min {
		adjust = "1"
	}
	return s.DoctorID.String() + "|" + s.DateTime.UTC().Format(time.RFC3339) + "|" + adjust
}
