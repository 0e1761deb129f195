package repository

import (
	"errors"

	"go-clinic-negotiation/internal/domain/entity"
	domainRepo "go-clinic-negotiation/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type clinicRepository struct{}

func NewClinicRepository() domainRepo.ClinicRepository {
	return &clinicRepository{}
}

func (r *clinicRepository) Create(db *gorm.DB, clinic *entity.Clinic) error {
	return db.Create(clinic).Error
}

func (r *clinicRepository) FindByID(db *gorm.DB, id uuid.UUID) (*entity.Clinic, error) {
	var clinic entity.Clinic
	err := db.Preload("Admin").Preload("Treatments").Where("id = ?", id).First(&clinic).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &clinic, nil
}

func (r *clinicRepository) FindByAdminID(db *gorm.DB, adminID uuid.UUID) (*entity.Clinic, error) {
	var clinic entity.Clinic
	err := db.Where("admin_id = ?", adminID).First(&clinic).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &clinic, nil
}

func (r *clinicRepository) FindApproved(db *gorm.DB) ([]entity.Clinic, error) {
	var clinics []entity.Clinic
	err := db.Preload("Treatments").
		Joins("Admin").
		Where("clinics.status = ? AND \"Admin\".is_active = ?", entity.ClinicApproved, true).
		Find(&clinics).Error
	if err != nil {
		return nil, err
	}
	return clinics, nil
}

func (r *clinicRepository) UpdateStatus(db *gorm.DB, clinicID uuid.UUID, status entity.ClinicStatus) error {
	return db.Model(&entity.Clinic{}).
		Where("id = ?", clinicID).
		Update("status", status).Error
}

func (r *clinicRepository) ReplaceTreatments(db *gorm.DB, clinic *entity.Clinic, treatments []entity.Treatment) error {
	return db.Model(clinic).Association("Treatments").Replace(treatments)
}

func (r *clinicRepository) ApplyRatingDelta(db *gorm.DB, clinicID uuid.UUID, sumDelta, cntDelta int) error {
	return db.Model(&entity.Clinic{}).
		Where("id = ?", clinicID).
		Updates(map[string]interface{}{
			"sum_rating": gorm.Expr("sum_rating + ?", sumDelta),
			"cnt_rating": gorm.Expr("cnt_rating + ?", cntDelta),
		}).Error
}
