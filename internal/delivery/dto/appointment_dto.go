package dto

import (
	"time"

	"github.com/google/uuid"
)

// Request DTOs

// CreateAppointmentRequest opens a negotiation for the requested treatments.
// Location is optional; without it the radius filter is skipped.
type CreateAppointmentRequest struct {
	TreatmentIDs []uuid.UUID `json:"treatment_ids" validate:"required,min=1"`
	DateTime     time.Time   `json:"date_time" validate:"required"`
	Latitude     *float64    `json:"latitude" validate:"omitempty,latitude"`
	Longitude    *float64    `json:"longitude" validate:"omitempty,longitude"`
	Adjust30Min  bool        `json:"adjust_30_min"`
}

type CancelAppointmentRequest struct {
	RaiseIfNoRefund bool `json:"raise_if_no_refund"`
}

type SetReminderRequest struct {
	BeforeMinutes int `json:"before_minutes" validate:"required,min=5,max=10080"`
}

type RateAppointmentRequest struct {
	Rate    int    `json:"rate" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"omitempty,max=1000"`
}

// Response DTOs

type AppointmentResponse struct {
	ID          uuid.UUID  `json:"id"`
	Status      string     `json:"status"`
	DateTime    time.Time  `json:"date_time"`
	Adjust30Min bool       `json:"adjust_30_min"`
	Latitude    *float64   `json:"latitude,omitempty"`
	Longitude   *float64   `json:"longitude,omitempty"`
	ClinicID    *uuid.UUID `json:"clinic_id,omitempty"`
	DoctorID    *uuid.UUID `json:"doctor_id,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`

	Clinic     *ClinicResponse     `json:"clinic,omitempty"`
	Treatments []TreatmentResponse `json:"treatments,omitempty"`
}

type SuggestionResponse struct {
	ID            uuid.UUID `json:"id"`
	ClinicEventID uuid.UUID `json:"clinic_event_id"`
	DoctorID      uuid.UUID `json:"doctor_id"`
	DateTime      time.Time `json:"date_time"`
	Adjust30Min   bool      `json:"adjust_30_min"`
	Chosen        *bool     `json:"chosen,omitempty"`
}

type ReminderResponse struct {
	AppointmentID uuid.UUID `json:"appointment_id"`
	BeforeMinutes int       `json:"before_minutes"`
	AlreadySent   bool      `json:"already_sent"`
}

type RatingResponse struct {
	AppointmentID uuid.UUID `json:"appointment_id"`
	Rate          int       `json:"rate"`
	Comment       string    `json:"comment,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}
