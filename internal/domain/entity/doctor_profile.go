package entity

import "github.com/google/uuid"

// DoctorProfile represents doctor-specific profile data for a clinic's doctor
type DoctorProfile struct {
	UserID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"user_id"`
	ClinicID       *uuid.UUID `gorm:"type:uuid;index" json:"clinic_id,omitempty"`
	STRNumber      string     `gorm:"column:str_number;type:varchar(50);uniqueIndex;not null" json:"str_number"`
	Specialization string     `gorm:"type:varchar(100);not null;index" json:"specialization"`
	Biography      string     `gorm:"type:text" json:"biography,omitempty"`

	// Relationships
	User   User          `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Clinic *Clinic       `gorm:"foreignKey:ClinicID" json:"clinic,omitempty"`
	Shifts []DoctorShift `gorm:"foreignKey:DoctorID" json:"shifts,omitempty"`
}

func (DoctorProfile) TableName() string {
	return "doctor_profiles"
}
