package repository

import (
	"go-clinic-negotiation/internal/domain/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TreatmentRepository interface {
	Create(db *gorm.DB, treatment *entity.Treatment) error
	FindAll(db *gorm.DB) ([]entity.Treatment, error)
	FindByIDs(db *gorm.DB, ids []uuid.UUID) ([]entity.Treatment, error)
}
