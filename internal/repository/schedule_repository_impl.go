package repository

import (
	"errors"
	"time"

	"go-clinic-negotiation/internal/domain/entity"
	domainRepo "go-clinic-negotiation/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type scheduleRepository struct{}

func NewScheduleRepository() domainRepo.ScheduleRepository {
	return &scheduleRepository{}
}

// Upsert keeps the 1:1 invariant: a re-reservation replaces the existing block
// instead of stacking a second one.
func (r *scheduleRepository) Upsert(db *gorm.DB, schedule *entity.AppointmentSchedule) error {
	var existing entity.AppointmentSchedule
	err := db.Where("appointment_id = ?", schedule.AppointmentID).First(&existing).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return db.Create(schedule).Error
		}
		return err
	}
	return db.Model(&existing).Updates(map[string]interface{}{
		"doctor_id": schedule.DoctorID,
		"starts_at": schedule.StartsAt,
		"ends_at":   schedule.EndsAt,
	}).Error
}

func (r *scheduleRepository) DeleteByAppointment(db *gorm.DB, appointmentID uuid.UUID) error {
	return db.Where("appointment_id = ?", appointmentID).
		Delete(&entity.AppointmentSchedule{}).Error
}

func (r *scheduleRepository) FindForDoctorsBetween(db *gorm.DB, doctorIDs []uuid.UUID, from, to time.Time) ([]entity.AppointmentSchedule, error) {
	if len(doctorIDs) == 0 {
		return nil, nil
	}
	var schedules []entity.AppointmentSchedule
	err := db.Where("doctor_id IN ? AND starts_at < ? AND ends_at > ?", doctorIDs, to, from).
		Find(&schedules).Error
	if err != nil {
		return nil, err
	}
	return schedules, nil
}

func (r *scheduleRepository) FindBetween(db *gorm.DB, from, to *time.Time) ([]entity.AppointmentSchedule, error) {
	query := db.Preload("Doctor.User").Order("starts_at ASC")
	if from != nil {
		query = query.Where("starts_at >= ?", *from)
	}
	if to != nil {
		query = query.Where("ends_at <= ?", *to)
	}
	var schedules []entity.AppointmentSchedule
	if err := query.Find(&schedules).Error; err != nil {
		return nil, err
	}
	return schedules, nil
}
