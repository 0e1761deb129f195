package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ClinicStatus represents the moderation state of a clinic
type ClinicStatus string

const (
	ClinicPending  ClinicStatus = "pending"
	ClinicApproved ClinicStatus = "approved"
	ClinicBlocked  ClinicStatus = "blocked"
)

// Clinic represents a treatment provider run by one admin user.
// SumRating/CntRating hold the denormalized rating aggregate; the rating
// usecase applies deltas explicitly on every create/update/delete.
type Clinic struct {
	ID        uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	AdminID   uuid.UUID    `gorm:"type:uuid;not null;uniqueIndex" json:"admin_id"`
	Name      string       `gorm:"type:varchar(255);not null" json:"name"`
	Status    ClinicStatus `gorm:"type:varchar(16);not null;default:'pending';index" json:"status"`
	Latitude  float64      `gorm:"not null" json:"latitude"`
	Longitude float64      `gorm:"not null" json:"longitude"`
	SumRating int          `gorm:"not null;default:0" json:"sum_rating"`
	CntRating int          `gorm:"not null;default:0" json:"cnt_rating"`
	CreatedAt time.Time    `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time    `gorm:"autoUpdateTime" json:"updated_at"`

	// Relationships
	Admin      User            `gorm:"foreignKey:AdminID" json:"admin,omitempty"`
	Treatments []Treatment     `gorm:"many2many:clinic_treatments" json:"treatments,omitempty"`
	Doctors    []DoctorProfile `gorm:"foreignKey:ClinicID" json:"doctors,omitempty"`
}

func (Clinic) TableName() string {
	return "clinics"
}

func (c *Clinic) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// OffersAll reports whether the clinic covers every requested treatment.
func (c *Clinic) OffersAll(treatmentIDs []uuid.UUID) bool {
	offered := make(map[uuid.UUID]struct{}, len(c.Treatments))
	for _, t := range c.Treatments {
		offered[t.ID] = struct{}{}
	}
	for _, id := range treatmentIDs {
		if _, ok := offered[id]; !ok {
			return false
		}
	}
	return true
}

// Rating returns the averaged rating, 0 when nobody rated yet.
func (c *Clinic) Rating() float64 {
	if c.CntRating == 0 {
		return 0
	}
	return float64(c.SumRating) / float64(c.CntRating)
}
