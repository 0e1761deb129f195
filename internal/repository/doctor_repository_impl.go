package repository

import (
	"errors"

	"go-clinic-negotiation/internal/domain/entity"
	domainRepo "go-clinic-negotiation/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type doctorRepository struct{}

func NewDoctorRepository() domainRepo.DoctorRepository {
	return &doctorRepository{}
}

func (r *doctorRepository) Create(db *gorm.DB, doctor *entity.DoctorProfile) error {
	return db.Create(doctor).Error
}

func (r *doctorRepository) FindByUserID(db *gorm.DB, userID uuid.UUID) (*entity.DoctorProfile, error) {
	var doctor entity.DoctorProfile
	err := db.Preload("User").Where("user_id = ?", userID).First(&doctor).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &doctor, nil
}

func (r *doctorRepository) FindByClinics(db *gorm.DB, clinicIDs []uuid.UUID) ([]entity.DoctorProfile, error) {
	if len(clinicIDs) == 0 {
		return nil, nil
	}
	var doctors []entity.DoctorProfile
	err := db.Preload("Shifts").
		Where("clinic_id IN ?", clinicIDs).
		Find(&doctors).Error
	if err != nil {
		return nil, err
	}
	return doctors, nil
}
