package repository

import (
	"errors"

	"go-clinic-negotiation/internal/domain/entity"
	domainRepo "go-clinic-negotiation/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type clinicEventRepository struct{}

func NewClinicEventRepository() domainRepo.ClinicEventRepository {
	return &clinicEventRepository{}
}

func (r *clinicEventRepository) BulkCreate(db *gorm.DB, events []entity.ClinicEvent) error {
	if len(events) == 0 {
		return nil
	}
	return db.Create(&events).Error
}

func (r *clinicEventRepository) FindByID(db *gorm.DB, id uuid.UUID) (*entity.ClinicEvent, error) {
	var event entity.ClinicEvent
	err := db.Preload("Clinic.Admin").Where("id = ?", id).First(&event).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &event, nil
}

func (r *clinicEventRepository) FindByAppointment(db *gorm.DB, appointmentID uuid.UUID) ([]entity.ClinicEvent, error) {
	var events []entity.ClinicEvent
	err := db.Preload("Clinic.Admin").
		Where("appointment_id = ?", appointmentID).
		Order("created_at ASC").
		Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}

func (r *clinicEventRepository) FindByClinicInStatus(db *gorm.DB, clinicID uuid.UUID, statuses []entity.ClinicEventStatus) ([]entity.ClinicEvent, error) {
	var events []entity.ClinicEvent
	err := db.Preload("Appointment.Basket.Treatments").
		Preload("Suggestions").
		Where("clinic_id = ? AND status IN ?", clinicID, statuses).
		Order("created_at DESC").
		Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}

func (r *clinicEventRepository) FindByAppointmentInStatus(db *gorm.DB, appointmentID uuid.UUID, statuses []entity.ClinicEventStatus) ([]entity.ClinicEvent, error) {
	var events []entity.ClinicEvent
	err := db.Preload("Clinic.Admin").
		Where("appointment_id = ? AND status IN ?", appointmentID, statuses).
		Order("created_at ASC").
		Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}

func (r *clinicEventRepository) FindByAppointmentAndClinics(db *gorm.DB, appointmentID uuid.UUID, clinicIDs []uuid.UUID) ([]entity.ClinicEvent, error) {
	if len(clinicIDs) == 0 {
		return nil, nil
	}
	var events []entity.ClinicEvent
	err := db.Where("appointment_id = ? AND clinic_id IN ?", appointmentID, clinicIDs).
		Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}

func (r *clinicEventRepository) UpdateStatusIf(db *gorm.DB, id uuid.UUID, from []entity.ClinicEventStatus, to entity.ClinicEventStatus) (int64, error) {
	result := db.Model(&entity.ClinicEvent{}).
		Where("id = ? AND status IN ?", id, from).
		Update("status", to)
	return result.RowsAffected, result.Error
}

func (r *clinicEventRepository) DeactivateSiblings(db *gorm.DB, appointmentID uuid.UUID, exclude *uuid.UUID, from []entity.ClinicEventStatus) (int64, error) {
	query := db.Model(&entity.ClinicEvent{}).
		Where("appointment_id = ? AND status IN ?", appointmentID, from)
	if exclude != nil {
		query = query.Where("id <> ?", *exclude)
	}
	result := query.Update("status", entity.ClinicEventInactive)
	return result.RowsAffected, result.Error
}

func (r *clinicEventRepository) ActivateByIDs(db *gorm.DB, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return db.Model(&entity.ClinicEvent{}).
		Where("id IN ?", ids).
		Update("status", entity.ClinicEventActive).Error
}
