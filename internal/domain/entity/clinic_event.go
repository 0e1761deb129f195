package entity

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ClinicEventStatus represents one clinic's standing in the negotiation
type ClinicEventStatus string

const (
	ClinicEventActive              ClinicEventStatus = "active"
	ClinicEventAccepted            ClinicEventStatus = "accepted"
	ClinicEventSuggested           ClinicEventStatus = "suggested"
	ClinicEventRejected            ClinicEventStatus = "rejected"
	ClinicEventInactive            ClinicEventStatus = "inactive"
	ClinicEventRejectedSuggestions ClinicEventStatus = "rejected_suggestions"
)

// ClinicEvent is the negotiation record between one appointment and one
// candidate clinic. Exactly one row ever exists per (appointment, clinic) pair;
// reopen reactivates existing rows instead of creating duplicates.
type ClinicEvent struct {
	ID            uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	AppointmentID uuid.UUID         `gorm:"type:uuid;not null;index;uniqueIndex:idx_appointment_clinic" json:"appointment_id"`
	ClinicID      uuid.UUID         `gorm:"type:uuid;not null;index;uniqueIndex:idx_appointment_clinic" json:"clinic_id"`
	Status        ClinicEventStatus `gorm:"type:varchar(32);not null;default:'active';index" json:"status"`
	CreatedAt     time.Time         `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time         `gorm:"autoUpdateTime" json:"updated_at"`

	// Relationships
	Appointment Appointment  `gorm:"foreignKey:AppointmentID" json:"appointment,omitempty"`
	Clinic      Clinic       `gorm:"foreignKey:ClinicID" json:"clinic,omitempty"`
	Suggestions []Suggestion `gorm:"foreignKey:ClinicEventID" json:"suggestions,omitempty"`
}

func (ClinicEvent) TableName() string {
	return "appointment_clinic_events"
}

func (e *ClinicEvent) BeforeCreate(*gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

func (e *ClinicEvent) IsActive() bool {
	return e.Status == ClinicEventActive
}

func (e *ClinicEvent) IsSuggested() bool {
	return e.Status == ClinicEventSuggested
}

// IsSettled reports whether the clinic is out of the running for good:
// it rejected, its suggestions were rejected, or a sibling won.
func (e *ClinicEvent) IsSettled() bool {
	switch e.Status {
	case ClinicEventRejected, ClinicEventInactive, ClinicEventRejectedSuggestions:
		return true
	}
	return false
}

// PreWinStatuses are the states a clinic can hold before the negotiation is
// decided against it. Cancel forces all of these to inactive.
func PreWinStatuses() []ClinicEventStatus {
	return []ClinicEventStatus{ClinicEventActive, ClinicEventAccepted, ClinicEventSuggested}
}

// SettledStatuses are the terminal per-clinic states. Pending notices addressed
// to admins of clinics in these states get canceled.
func SettledStatuses() []ClinicEventStatus {
	return []ClinicEventStatus{ClinicEventRejected, ClinicEventInactive, ClinicEventRejectedSuggestions}
}

func (e *ClinicEvent) setFrom(from, to ClinicEventStatus) error {
	if e.Status != from {
		return fmt.Errorf("cannot move clinic event from status %s to %s", e.Status, to)
	}
	e.Status = to
	return nil
}

func (e *ClinicEvent) SetAccepted() error {
	return e.setFrom(ClinicEventActive, ClinicEventAccepted)
}

func (e *ClinicEvent) SetSuggested() error {
	return e.setFrom(ClinicEventActive, ClinicEventSuggested)
}

func (e *ClinicEvent) SetRejected() error {
	return e.setFrom(ClinicEventActive, ClinicEventRejected)
}

func (e *ClinicEvent) SetRejectedSuggestions() error {
	return e.setFrom(ClinicEventSuggested, ClinicEventRejectedSuggestions)
}

// SetInactive is the forced deactivation used when a sibling wins or the
// appointment cancels/times out. Unguarded and idempotent.
func (e *ClinicEvent) SetInactive() {
	e.Status = ClinicEventInactive
}

// SetActive is the forced reactivation used by reopen.
func (e *ClinicEvent) SetActive() {
	e.Status = ClinicEventActive
}
