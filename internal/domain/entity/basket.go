package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// BasketStatus represents the payment state of an appointment's basket
type BasketStatus string

const (
	BasketBooked   BasketStatus = "booked"
	BasketPaid     BasketStatus = "paid"
	BasketCanceled BasketStatus = "canceled"
)

// Basket groups the treatments a patient requested together with the payment
// state. Marked paid on confirm, canceled on cancel.
type Basket struct {
	ID        uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	PatientID uuid.UUID    `gorm:"type:uuid;not null;index" json:"patient_id"`
	Status    BasketStatus `gorm:"type:varchar(16);not null;default:'booked';index" json:"status"`
	CreatedAt time.Time    `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time    `gorm:"autoUpdateTime" json:"updated_at"`

	// Relationships
	Patient    User        `gorm:"foreignKey:PatientID" json:"patient,omitempty"`
	Treatments []Treatment `gorm:"many2many:basket_treatments" json:"treatments,omitempty"`
}

func (Basket) TableName() string {
	return "baskets"
}

func (b *Basket) BeforeCreate(*gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// TotalDurationMinutes sums the treatment durations for schedule derivation.
func (b *Basket) TotalDurationMinutes() int {
	total := 0
	for _, t := range b.Treatments {
		total += t.DurationMinutes
	}
	return total
}

// TotalPrice sums the treatment prices for payment capture.
func (b *Basket) TotalPrice() decimal.Decimal {
	total := decimal.Zero
	for _, t := range b.Treatments {
		total = total.Add(t.Price)
	}
	return total
}
