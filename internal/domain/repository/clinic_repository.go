package repository

import (
	"go-clinic-negotiation/internal/domain/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ClinicRepository interface {
	Create(db *gorm.DB, clinic *entity.Clinic) error
	FindByID(db *gorm.DB, id uuid.UUID) (*entity.Clinic, error)
	FindByAdminID(db *gorm.DB, adminID uuid.UUID) (*entity.Clinic, error)
	// FindApproved returns approved clinics with active admins, with treatments
	// and admin preloaded. This is the matcher pipeline's input set.
	FindApproved(db *gorm.DB) ([]entity.Clinic, error)
	UpdateStatus(db *gorm.DB, clinicID uuid.UUID, status entity.ClinicStatus) error
	// ReplaceTreatments swaps the clinic's offered treatment set wholesale.
	ReplaceTreatments(db *gorm.DB, clinic *entity.Clinic, treatments []entity.Treatment) error
	// ApplyRatingDelta adjusts the denormalized rating aggregate in place.
	ApplyRatingDelta(db *gorm.DB, clinicID uuid.UUID, sumDelta, cntDelta int) error
}
