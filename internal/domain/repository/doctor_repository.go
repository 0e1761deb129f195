package repository

import (
	"go-clinic-negotiation/internal/domain/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DoctorRepository interface {
	Create(db *gorm.DB, doctor *entity.DoctorProfile) error
	FindByUserID(db *gorm.DB, userID uuid.UUID) (*entity.DoctorProfile, error)
	// FindByClinics returns the doctors of the given clinics with their weekly
	// shifts preloaded.
	FindByClinics(db *gorm.DB, clinicIDs []uuid.UUID) ([]entity.DoctorProfile, error)
}
