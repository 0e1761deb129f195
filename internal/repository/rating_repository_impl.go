package repository

import (
	"errors"

	"go-clinic-negotiation/internal/domain/entity"
	domainRepo "go-clinic-negotiation/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ratingRepository struct{}

func NewRatingRepository() domainRepo.RatingRepository {
	return &ratingRepository{}
}

func (r *ratingRepository) Create(db *gorm.DB, rating *entity.AppointmentRating) error {
	return db.Create(rating).Error
}

func (r *ratingRepository) Update(db *gorm.DB, rating *entity.AppointmentRating) error {
	return db.Save(rating).Error
}

func (r *ratingRepository) Delete(db *gorm.DB, id uuid.UUID) error {
	return db.Where("id = ?", id).Delete(&entity.AppointmentRating{}).Error
}

func (r *ratingRepository) FindByAppointment(db *gorm.DB, appointmentID uuid.UUID) (*entity.AppointmentRating, error) {
	var rating entity.AppointmentRating
	err := db.Where("appointment_id = ?", appointmentID).First(&rating).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rating, nil
}

func (r *ratingRepository) FindByClinic(db *gorm.DB, clinicID uuid.UUID) ([]entity.AppointmentRating, error) {
	var ratings []entity.AppointmentRating
	err := db.Joins("JOIN appointments ON appointments.id = appointment_ratings.appointment_id").
		Where("appointments.clinic_id = ?", clinicID).
		Order("appointment_ratings.created_at DESC").
		Find(&ratings).Error
	if err != nil {
		return nil, err
	}
	return ratings, nil
}
