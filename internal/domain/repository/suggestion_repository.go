package repository

import (
	"go-clinic-negotiation/internal/domain/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SuggestionRepository interface {
	BulkCreate(db *gorm.DB, suggestions []entity.Suggestion) error
	FindByID(db *gorm.DB, id uuid.UUID) (*entity.Suggestion, error)
	FindByEvent(db *gorm.DB, eventID uuid.UUID) ([]entity.Suggestion, error)
	FindByAppointment(db *gorm.DB, appointmentID uuid.UUID) ([]entity.Suggestion, error)
	MarkChosen(db *gorm.DB, id uuid.UUID) error
	MarkAllNotChosen(db *gorm.DB, eventID uuid.UUID) error
}
