package repository

import (
	"go-clinic-negotiation/internal/domain/entity"
	domainRepo "go-clinic-negotiation/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type treatmentRepository struct{}

func NewTreatmentRepository() domainRepo.TreatmentRepository {
	return &treatmentRepository{}
}

func (r *treatmentRepository) Create(db *gorm.DB, treatment *entity.Treatment) error {
	return db.Create(treatment).Error
}

func (r *treatmentRepository) FindAll(db *gorm.DB) ([]entity.Treatment, error) {
	var treatments []entity.Treatment
	err := db.Order("name ASC").Find(&treatments).Error
	if err != nil {
		return nil, err
	}
	return treatments, nil
}

func (r *treatmentRepository) FindByIDs(db *gorm.DB, ids []uuid.UUID) ([]entity.Treatment, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var treatments []entity.Treatment
	err := db.Where("id IN ?", ids).Find(&treatments).Error
	if err != nil {
		return nil, err
	}
	return treatments, nil
}
