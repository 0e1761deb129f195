package repository

import (
	"go-clinic-negotiation/internal/domain/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ReminderRepository interface {
	Create(db *gorm.DB, reminder *entity.AppointmentReminder) error
	Update(db *gorm.DB, reminder *entity.AppointmentReminder) error
	Delete(db *gorm.DB, id uuid.UUID) (int64, error)
	FindByID(db *gorm.DB, id uuid.UUID) (*entity.AppointmentReminder, error)
	FindByAppointment(db *gorm.DB, appointmentID uuid.UUID) (*entity.AppointmentReminder, error)
	// FindUnsent returns reminders not yet delivered, appointment preloaded,
	// for the hourly scheduling sweep.
	FindUnsent(db *gorm.DB) ([]entity.AppointmentReminder, error)
}
