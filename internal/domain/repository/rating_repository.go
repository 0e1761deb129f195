package repository

import (
	"go-clinic-negotiation/internal/domain/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RatingRepository interface {
	Create(db *gorm.DB, rating *entity.AppointmentRating) error
	Update(db *gorm.DB, rating *entity.AppointmentRating) error
	Delete(db *gorm.DB, id uuid.UUID) error
	FindByAppointment(db *gorm.DB, appointmentID uuid.UUID) (*entity.AppointmentRating, error)
	FindByClinic(db *gorm.DB, clinicID uuid.UUID) ([]entity.AppointmentRating, error)
}
