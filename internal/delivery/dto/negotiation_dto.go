package dto

import (
	"time"

	"github.com/google/uuid"
)

// Request DTOs

// AcceptEventRequest is the clinic admin taking the appointment as requested,
// assigning one of the clinic's doctors to it.
type AcceptEventRequest struct {
	DoctorID uuid.UUID `json:"doctor_id" validate:"required"`
}

// SuggestionProposal is one alternative slot inside a SuggestRequest.
type SuggestionProposal struct {
	DoctorID    uuid.UUID `json:"doctor_id" validate:"required"`
	DateTime    time.Time `json:"date_time" validate:"required"`
	Adjust30Min bool      `json:"adjust_30_min"`
}

// SuggestRequest submits the clinic's counter-proposals. At least three
// pairwise distinct proposals are required.
type SuggestRequest struct {
	Suggestions []SuggestionProposal `json:"suggestions" validate:"required,min=3,dive"`
}

// Response DTOs

type ClinicEventResponse struct {
	ID            uuid.UUID `json:"id"`
	AppointmentID uuid.UUID `json:"appointment_id"`
	ClinicID      uuid.UUID `json:"clinic_id"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`

	Appointment *AppointmentResponse `json:"appointment,omitempty"`
	Suggestions []SuggestionResponse `json:"suggestions,omitempty"`
}

type NotificationResponse struct {
	ID            uuid.UUID `json:"id"`
	AppointmentID uuid.UUID `json:"appointment_id"`
	Action        string    `json:"action"`
	Payload       string    `json:"payload,omitempty"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
}
