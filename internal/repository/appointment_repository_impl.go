package repository

import (
	"errors"
	"time"

	"go-clinic-negotiation/internal/domain/entity"
	domainRepo "go-clinic-negotiation/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type appointmentRepository struct{}

func NewAppointmentRepository() domainRepo.AppointmentRepository {
	return &appointmentRepository{}
}

func (r *appointmentRepository) Create(db *gorm.DB, appointment *entity.Appointment) error {
	return db.Create(appointment).Error
}

func (r *appointmentRepository) FindByID(db *gorm.DB, id uuid.UUID) (*entity.Appointment, error) {
	var appointment entity.Appointment
	err := db.Preload("Basket.Treatments").Preload("Clinic").Where("id = ?", id).First(&appointment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &appointment, nil
}

// UpdateStatusIf performs the guarded status write. The WHERE clause carries the
// precondition, so a racing writer that got there first leaves this call with
// zero affected rows instead of clobbering the newer status.
func (r *appointmentRepository) UpdateStatusIf(db *gorm.DB, id uuid.UUID, from []entity.AppointmentStatus, to entity.AppointmentStatus) (int64, error) {
	result := db.Model(&entity.Appointment{}).
		Where("id = ? AND status IN ?", id, from).
		Update("status", to)
	return result.RowsAffected, result.Error
}

func (r *appointmentRepository) Reserve(db *gorm.DB, id uuid.UUID, from []entity.AppointmentStatus, clinicID, doctorID uuid.UUID, dateTime time.Time, adjust30Min bool) (int64, error) {
	result := db.Model(&entity.Appointment{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(map[string]interface{}{
			"status":        entity.AppointmentReserved,
			"clinic_id":     clinicID,
			"doctor_id":     doctorID,
			"date_time":     dateTime,
			"adjust_30_min": adjust30Min,
		})
	return result.RowsAffected, result.Error
}

func (r *appointmentRepository) FindConfirmedUpcoming(db *gorm.DB, patientID uuid.UUID, now time.Time) ([]entity.Appointment, error) {
	var appointments []entity.Appointment
	err := db.Preload("Basket.Treatments").Preload("Clinic").
		Where("patient_id = ? AND status = ? AND date_time > ?", patientID, entity.AppointmentConfirmed, now).
		Order("date_time ASC").
		Find(&appointments).Error
	if err != nil {
		return nil, err
	}
	return appointments, nil
}

func (r *appointmentRepository) FindConfirmedPassed(db *gorm.DB, patientID uuid.UUID, now time.Time) ([]entity.Appointment, error) {
	var appointments []entity.Appointment
	err := db.Preload("Basket.Treatments").Preload("Clinic").
		Where("patient_id = ? AND status = ? AND date_time <= ?", patientID, entity.AppointmentConfirmed, now).
		Order("date_time DESC").
		Find(&appointments).Error
	if err != nil {
		return nil, err
	}
	return appointments, nil
}
