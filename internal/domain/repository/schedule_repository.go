package repository

import (
	"time"

	"go-clinic-negotiation/internal/domain/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ScheduleRepository interface {
	// Upsert recomputes the single committed block for the appointment,
	// creating or replacing it.
	Upsert(db *gorm.DB, schedule *entity.AppointmentSchedule) error
	DeleteByAppointment(db *gorm.DB, appointmentID uuid.UUID) error
	// FindForDoctorsBetween returns committed blocks intersecting [from, to)
	// for the given doctors, used by the slot recommender's workload scoring.
	FindForDoctorsBetween(db *gorm.DB, doctorIDs []uuid.UUID, from, to time.Time) ([]entity.AppointmentSchedule, error)
	FindBetween(db *gorm.DB, from, to *time.Time) ([]entity.AppointmentSchedule, error)
}
