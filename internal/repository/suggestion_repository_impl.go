package repository

import (
	"errors"

	"go-clinic-negotiation/internal/domain/entity"
	domainRepo "go-clinic-negotiation/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type suggestionRepository struct{}

func NewSuggestionRepository() domainRepo.SuggestionRepository {
	return &suggestionRepository{}
}

func (r *suggestionRepository) BulkCreate(db *gorm.DB, suggestions []entity.Suggestion) error {
	if len(suggestions) == 0 {
		return nil
	}
	return db.Create(&suggestions).Error
}

func (r *suggestionRepository) FindByID(db *gorm.DB, id uuid.UUID) (*entity.Suggestion, error) {
	var suggestion entity.Suggestion
	err := db.Where("id = ?", id).First(&suggestion).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &suggestion, nil
}

func (r *suggestionRepository) FindByEvent(db *gorm.DB, eventID uuid.UUID) ([]entity.Suggestion, error) {
	var suggestions []entity.Suggestion
	err := db.Where("clinic_event_id = ?", eventID).
		Order("date_time ASC").
		Find(&suggestions).Error
	if err != nil {
		return nil, err
	}
	return suggestions, nil
}

func (r *suggestionRepository) FindByAppointment(db *gorm.DB, appointmentID uuid.UUID) ([]entity.Suggestion, error) {
	var suggestions []entity.Suggestion
	err := db.Joins("JOIN appointment_clinic_events ON appointment_clinic_events.id = appointment_suggestions.clinic_event_id").
		Where("appointment_clinic_events.appointment_id = ?", appointmentID).
		Order("appointment_suggestions.date_time ASC").
		Find(&suggestions).Error
	if err != nil {
		return nil, err
	}
	return suggestions, nil
}

func (r *suggestionRepository) MarkChosen(db *gorm.DB, id uuid.UUID) error {
	return db.Model(&entity.Suggestion{}).
		Where("id = ?", id).
		Update("chosen", true).Error
}

func (r *suggestionRepository) MarkAllNotChosen(db *gorm.DB, eventID uuid.UUID) error {
	return db.Model(&entity.Suggestion{}).
		Where("clinic_event_id = ?", eventID).
		Update("chosen", false).Error
}
