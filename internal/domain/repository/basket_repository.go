package repository

import (
	"go-clinic-negotiation/internal/domain/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BasketRepository interface {
	Create(db *gorm.DB, basket *entity.Basket) error
	// FindByID loads the basket with its treatments.
	FindByID(db *gorm.DB, id uuid.UUID) (*entity.Basket, error)
	UpdateStatus(db *gorm.DB, id uuid.UUID, status entity.BasketStatus) error
}
