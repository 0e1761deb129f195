package repository

import (
	"errors"

	"go-clinic-negotiation/internal/domain/entity"
	domainRepo "go-clinic-negotiation/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type reminderRepository struct{}

func NewReminderRepository() domainRepo.ReminderRepository {
	return &reminderRepository{}
}

func (r *reminderRepository) Create(db *gorm.DB, reminder *entity.AppointmentReminder) error {
	return db.Create(reminder).Error
}

func (r *reminderRepository) Update(db *gorm.DB, reminder *entity.AppointmentReminder) error {
	return db.Save(reminder).Error
}

func (r *reminderRepository) Delete(db *gorm.DB, id uuid.UUID) (int64, error) {
	result := db.Where("id = ?", id).Delete(&entity.AppointmentReminder{})
	return result.RowsAffected, result.Error
}

func (r *reminderRepository) FindByID(db *gorm.DB, id uuid.UUID) (*entity.AppointmentReminder, error) {
	var reminder entity.AppointmentReminder
	err := db.Preload("Appointment").Where("id = ?", id).First(&reminder).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &reminder, nil
}

func (r *reminderRepository) FindByAppointment(db *gorm.DB, appointmentID uuid.UUID) (*entity.AppointmentReminder, error) {
	var reminder entity.AppointmentReminder
	err := db.Preload("Appointment").Where("appointment_id = ?", appointmentID).First(&reminder).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &reminder, nil
}

func (r *reminderRepository) FindUnsent(db *gorm.DB) ([]entity.AppointmentReminder, error) {
	var reminders []entity.AppointmentReminder
	err := db.Preload("Appointment").
		Where("already_sent = ?", false).
		Find(&reminders).Error
	if err != nil {
		return nil, err
	}
	return reminders, nil
}
