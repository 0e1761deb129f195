package repository

import (
	"go-clinic-negotiation/internal/domain/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ClinicEventRepository interface {
	BulkCreate(db *gorm.DB, events []entity.ClinicEvent) error
	// FindByID loads the event with its clinic and the clinic's admin.
	FindByID(db *gorm.DB, id uuid.UUID) (*entity.ClinicEvent, error)
	FindByAppointment(db *gorm.DB, appointmentID uuid.UUID) ([]entity.ClinicEvent, error)
	FindByAppointmentInStatus(db *gorm.DB, appointmentID uuid.UUID, statuses []entity.ClinicEventStatus) ([]entity.ClinicEvent, error)
	FindByAppointmentAndClinics(db *gorm.DB, appointmentID uuid.UUID, clinicIDs []uuid.UUID) ([]entity.ClinicEvent, error)
	// FindByClinicInStatus is the clinic admin's inbox: the clinic's events in
	// the given states, newest first, with appointments preloaded.
	FindByClinicInStatus(db *gorm.DB, clinicID uuid.UUID, statuses []entity.ClinicEventStatus) ([]entity.ClinicEvent, error)
	// UpdateStatusIf is the per-event CAS write.
	UpdateStatusIf(db *gorm.DB, id uuid.UUID, from []entity.ClinicEventStatus, to entity.ClinicEventStatus) (int64, error)
	// DeactivateSiblings forces every event of the appointment currently in one
	// of the given statuses to inactive, excluding the winner when given.
	DeactivateSiblings(db *gorm.DB, appointmentID uuid.UUID, exclude *uuid.UUID, from []entity.ClinicEventStatus) (int64, error)
	ActivateByIDs(db *gorm.DB, ids []uuid.UUID) error
}
