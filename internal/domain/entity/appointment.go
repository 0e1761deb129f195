package entity

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AppointmentStatus represents the lifecycle state of an appointment request
type AppointmentStatus string

const (
	AppointmentOpened                AppointmentStatus = "opened"
	AppointmentWaitingForUserDecide  AppointmentStatus = "waiting_for_user_decide"
	AppointmentUserRejectSuggestions AppointmentStatus = "user_reject_suggestions"
	AppointmentReserved              AppointmentStatus = "reserved"
	AppointmentTimeOut               AppointmentStatus = "timeout"
	AppointmentConfirmed             AppointmentStatus = "confirmed"
	AppointmentCanceled              AppointmentStatus = "canceled"
)

// Appointment represents a patient's request for treatment. It starts opened,
// fans out to candidate clinics and ends bound to exactly one clinic (confirmed)
// or canceled/timed out. Status mutation goes through the guarded setters below;
// persistence is the orchestrator's job.
type Appointment struct {
	ID          uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	PatientID   uuid.UUID         `gorm:"type:uuid;not null;index" json:"patient_id"`
	BasketID    *uuid.UUID        `gorm:"type:uuid" json:"basket_id,omitempty"`
	Latitude    *float64          `json:"latitude,omitempty"`
	Longitude   *float64          `json:"longitude,omitempty"`
	DateTime    time.Time         `gorm:"not null;index" json:"date_time"`
	DoctorID    *uuid.UUID        `gorm:"type:uuid" json:"doctor_id,omitempty"`
	ClinicID    *uuid.UUID        `gorm:"type:uuid;index" json:"clinic_id,omitempty"`
	Adjust30Min bool              `gorm:"column:adjust_30_min;not null;default:false" json:"adjust_30_min"`
	Status      AppointmentStatus `gorm:"type:varchar(32);not null;default:'opened';index" json:"status"`
	CreatedAt   time.Time         `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time         `gorm:"autoUpdateTime" json:"updated_at"`

	// Relationships
	Patient User          `gorm:"foreignKey:PatientID" json:"patient,omitempty"`
	Basket  *Basket       `gorm:"foreignKey:BasketID" json:"basket,omitempty"`
	Clinic  *Clinic       `gorm:"foreignKey:ClinicID" json:"clinic,omitempty"`
	Events  []ClinicEvent `gorm:"foreignKey:AppointmentID" json:"events,omitempty"`
}

func (Appointment) TableName() string {
	return "appointments"
}

func (a *Appointment) BeforeCreate(*gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

func (a *Appointment) IsOpened() bool {
	return a.Status == AppointmentOpened
}

func (a *Appointment) IsReserved() bool {
	return a.Status == AppointmentReserved
}

func (a *Appointment) IsWaitingForUser() bool {
	return a.Status == AppointmentWaitingForUserDecide
}

func (a *Appointment) IsTerminal() bool {
	return a.Status == AppointmentConfirmed || a.Status == AppointmentCanceled
}

// HasLocation reports whether the patient attached a geo point to the request.
func (a *Appointment) HasLocation() bool {
	return a.Latitude != nil && a.Longitude != nil
}

// SetReserved binds the appointment to the winning clinic. Allowed from opened
// (admin accepted) and waiting_for_user_decide (patient accepted a suggestion).
func (a *Appointment) SetReserved(clinicID uuid.UUID) error {
	if a.Status != AppointmentOpened && a.Status != AppointmentWaitingForUserDecide {
		return fmt.Errorf("cannot reserve appointment in status %s", a.Status)
	}
	a.Status = AppointmentReserved
	a.ClinicID = &clinicID
	return nil
}

func (a *Appointment) SetConfirmed() error {
	if a.Status != AppointmentReserved {
		return fmt.Errorf("cannot confirm appointment in status %s", a.Status)
	}
	a.Status = AppointmentConfirmed
	return nil
}

func (a *Appointment) SetWaitingForUser() error {
	if a.Status != AppointmentOpened {
		return fmt.Errorf("cannot add suggestions to appointment in status %s", a.Status)
	}
	a.Status = AppointmentWaitingForUserDecide
	return nil
}

func (a *Appointment) SetUserRejectSuggestions() error {
	if a.Status != AppointmentWaitingForUserDecide {
		return fmt.Errorf("cannot reject suggestions for appointment in status %s", a.Status)
	}
	a.Status = AppointmentUserRejectSuggestions
	return nil
}

func (a *Appointment) SetTimeOut() error {
	if a.Status != AppointmentOpened {
		return fmt.Errorf("cannot time out appointment in status %s", a.Status)
	}
	a.Status = AppointmentTimeOut
	return nil
}

// SetOpened reopens an appointment that nobody took or whose suggestions the
// patient turned down.
func (a *Appointment) SetOpened() error {
	if a.Status != AppointmentTimeOut && a.Status != AppointmentUserRejectSuggestions {
		return fmt.Errorf("cannot reopen appointment in status %s", a.Status)
	}
	a.Status = AppointmentOpened
	return nil
}

// SetCanceled is the redundant safety net below the orchestrator's own
// already-canceled / already-confirmed checks.
func (a *Appointment) SetCanceled() error {
	if a.Status == AppointmentCanceled {
		return fmt.Errorf("cannot cancel appointment in status %s", a.Status)
	}
	a.Status = AppointmentCanceled
	return nil
}
