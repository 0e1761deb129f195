package repository

import (
	"time"

	"go-clinic-negotiation/internal/domain/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AppointmentRepository interface {
	Create(db *gorm.DB, appointment *entity.Appointment) error
	// FindByID loads the appointment with its basket (and treatments) attached.
	FindByID(db *gorm.DB, id uuid.UUID) (*entity.Appointment, error)
	// UpdateStatusIf moves the status only when the row still holds one of the
	// from statuses. Zero affected rows means a concurrent writer won.
	UpdateStatusIf(db *gorm.DB, id uuid.UUID, from []entity.AppointmentStatus, to entity.AppointmentStatus) (int64, error)
	// Reserve flips to reserved while binding the winning clinic, the doctor
	// taking the appointment and the final date-time, same CAS semantics.
	// Accept passes the appointment's own date-time; acceptSuggestion copies
	// the chosen suggestion's.
	Reserve(db *gorm.DB, id uuid.UUID, from []entity.AppointmentStatus, clinicID, doctorID uuid.UUID, dateTime time.Time, adjust30Min bool) (int64, error)
	FindConfirmedUpcoming(db *gorm.DB, patientID uuid.UUID, now time.Time) ([]entity.Appointment, error)
	FindConfirmedPassed(db *gorm.DB, patientID uuid.UUID, now time.Time) ([]entity.Appointment, error)
}
