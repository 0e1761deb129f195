package service

import (
	"time"

	"go-clinic-negotiation/internal/domain/apperr"
	"go-clinic-negotiation/internal/domain/entity"
	"go-clinic-negotiation/internal/domain/repository"
	"go-clinic-negotiation/pkg/clock"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/paymentintent"
	"gorm.io/gorm"
)

// Cancellations closer than this to the appointment get no refund.
const refundWindow = 3 * 24 * time.Hour

// PaymentService moves the appointment's basket through its payment states
// and captures the charge on confirmation. Refunds are a policy stub.
type PaymentService interface {
	SetBooked(db *gorm.DB, basketID uuid.UUID) error
	// SetPaid marks the basket paid and, when a Stripe key is configured,
	// captures the basket total.
	SetPaid(db *gorm.DB, basket *entity.Basket) error
	SetCanceled(db *gorm.DB, basketID uuid.UUID) error
	// CheckRefund applies the refund policy for a cancellation. Outside the
	// no-refund window the refund flow itself is not implemented yet; inside
	// it the call fails unless the caller tolerates losing the payment.
	CheckRefund(appointmentAt time.Time, raiseIfNoRefund bool) error
}

type paymentService struct {
	log        *logrus.Logger
	basketRepo repository.BasketRepository
	clock      clock.Clock
	stripeKey  string
}

func NewPaymentService(log *logrus.Logger, basketRepo repository.BasketRepository, clk clock.Clock, stripeKey string) PaymentService {
	if stripeKey != "" {
		stripe.Key = stripeKey
	}
	return &paymentService{
		log:        log,
		basketRepo: basketRepo,
		clock:      clk,
		stripeKey:  stripeKey,
	}
}

func (s *paymentService) SetBooked(db *gorm.DB, basketID uuid.UUID) error {
	return s.basketRepo.UpdateStatus(db, basketID, entity.BasketBooked)
}

func (s *paymentService) SetPaid(db *gorm.DB, basket *entity.Basket) error {
	if err := s.basketRepo.UpdateStatus(db, basket.ID, entity.BasketPaid); err != nil {
		return err
	}

	if s.stripeKey == "" {
		s.log.Debugf("Stripe not configured, skipping capture for basket %s", basket.ID)
		return nil
	}

	// Capture is best-effort after the status write; a provider failure is
	// reconciled out-of-band, not rolled back.
	amount := basket.TotalPrice().Mul(decimal.NewFromInt(100)).IntPart()
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amount),
		Currency: stripe.String(string(stripe.CurrencyUSD)),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.AddMetadata("basket_id", basket.ID.String())

	pi, err := paymentintent.New(params)
	if err != nil {
		s.log.Errorf("Stripe capture failed for basket %s: %+v", basket.ID, err)
		return nil
	}

	s.log.Infof("Captured basket %s via payment intent %s", basket.ID, pi.ID)
	return nil
}

func (s *paymentService) SetCanceled(db *gorm.DB, basketID uuid.UUID) error {
	return s.basketRepo.UpdateStatus(db, basketID, entity.BasketCanceled)
}

func (s *paymentService) CheckRefund(appointmentAt time.Time, raiseIfNoRefund bool) error {
	if appointmentAt.Sub(s.clock.Now()) > refundWindow {
		return apperr.ErrRefundNotImplemented
	}
	if raiseIfNoRefund {
		return apperr.ErrNoRefundWindow
	}
	return nil
}
