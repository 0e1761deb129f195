package service

import (
	"time"

	"go-clinic-negotiation/config"
	"go-clinic-negotiation/pkg/clock"
)

// SupportWindow decides whether the staffed support desk currently absorbs
// clinic notifications. Inside the window open() and reopen() send one grouped
// notice to the support admins instead of per-clinic notices, and a shorter
// open-timeout countdown applies.
type SupportWindow struct {
	fromHour       int
	toHour         int
	supportTimeout time.Duration
	clinicTimeout  time.Duration
	clock          clock.Clock
}

func NewSupportWindow(cfg config.NegotiationConfig, clk clock.Clock) *SupportWindow {
	return &SupportWindow{
		fromHour:       cfg.SupportWindowFrom,
		toHour:         cfg.SupportWindowTo,
		supportTimeout: cfg.OpenTimeoutSupport,
		clinicTimeout:  cfg.OpenTimeout,
		clock:          clk,
	}
}

// Active reports whether the desk window covers the current hour, [from, to).
func (w *SupportWindow) Active() bool {
	hour := w.clock.Now().Hour()
	if w.fromHour <= w.toHour {
		return hour >= w.fromHour && hour < w.toHour
	}
	// window wrapping midnight
	return hour >= w.fromHour || hour < w.toHour
}

// OpenCountdown returns the open-timeout duration for the active regime.
func (w *SupportWindow) OpenCountdown() time.Duration {
	if w.Active() {
		return w.supportTimeout
	}
	return w.clinicTimeout
}
