package dto

import (
	"time"

	"github.com/google/uuid"
)

// Request DTOs

// DoctorShiftRequest is one weekly working window, times in "15:04" format.
type DoctorShiftRequest struct {
	Weekday  int    `json:"weekday" validate:"min=0,max=6"`
	WorkFrom string `json:"work_from" validate:"required"`
	WorkTo   string `json:"work_to" validate:"required"`
}

// AddDoctorRequest creates a doctor account under the admin's clinic.
type AddDoctorRequest struct {
	Email          string               `json:"email" validate:"required,email"`
	Password       string               `json:"password" validate:"required,min=6"`
	FullName       string               `json:"full_name" validate:"required,min=2"`
	STRNumber      string               `json:"str_number" validate:"required"`
	Specialization string               `json:"specialization" validate:"required"`
	Biography      string               `json:"biography" validate:"omitempty"`
	Shifts         []DoctorShiftRequest `json:"shifts" validate:"omitempty,dive"`
}

// SetTreatmentsRequest replaces the clinic's offered treatment set.
type SetTreatmentsRequest struct {
	TreatmentIDs []uuid.UUID `json:"treatment_ids" validate:"required,min=1"`
}

// Response DTOs

type ClinicResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Status    string    `json:"status"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Rating    float64   `json:"rating"`
	CntRating int       `json:"cnt_rating"`
	CreatedAt time.Time `json:"created_at"`

	Treatments []TreatmentResponse `json:"treatments,omitempty"`
}

type DoctorShiftResponse struct {
	Weekday  int    `json:"weekday"`
	WorkFrom string `json:"work_from"`
	WorkTo   string `json:"work_to"`
}

type DoctorResponse struct {
	UserID         uuid.UUID             `json:"user_id"`
	FullName       string                `json:"full_name"`
	STRNumber      string                `json:"str_number"`
	Specialization string                `json:"specialization"`
	Biography      string                `json:"biography,omitempty"`
	Shifts         []DoctorShiftResponse `json:"shifts,omitempty"`
}
