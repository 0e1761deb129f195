package entity

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DoctorShift is one weekly working window of a doctor.
// WorkFrom/WorkTo use "15:04" wall-clock strings; Weekday follows time.Weekday
// numbering (Sunday = 0).
type DoctorShift struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	DoctorID uuid.UUID `gorm:"type:uuid;not null;index" json:"doctor_id"`
	Weekday  int       `gorm:"not null" json:"weekday"`
	WorkFrom string    `gorm:"type:time;not null" json:"work_from"`
	WorkTo   string    `gorm:"type:time;not null" json:"work_to"`

	// Relationships
	Doctor DoctorProfile `gorm:"foreignKey:DoctorID" json:"doctor,omitempty"`
}

func (DoctorShift) TableName() string {
	return "doctor_shifts"
}

func (s *DoctorShift) BeforeCreate(*gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
