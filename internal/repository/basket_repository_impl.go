package repository

import (
	"errors"

	"go-clinic-negotiation/internal/domain/entity"
	domainRepo "go-clinic-negotiation/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type basketRepository struct{}

func NewBasketRepository() domainRepo.BasketRepository {
	return &basketRepository{}
}

func (r *basketRepository) Create(db *gorm.DB, basket *entity.Basket) error {
	return db.Create(basket).Error
}

func (r *basketRepository) FindByID(db *gorm.DB, id uuid.UUID) (*entity.Basket, error) {
	var basket entity.Basket
	err := db.Preload("Treatments").Where("id = ?", id).First(&basket).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &basket, nil
}

func (r *basketRepository) UpdateStatus(db *gorm.DB, id uuid.UUID, status entity.BasketStatus) error {
	return db.Model(&entity.Basket{}).
		Where("id = ?", id).
		Update("status", status).Error
}
