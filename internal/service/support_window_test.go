package service

import (
	"testing"
	"time"

	"go-clinic-negotiation/config"
	"go-clinic-negotiation/pkg/clock"
)

func windowAt(t *testing.T, from, to, hour int) *SupportWindow {
	t.Helper()
	cfg := config.NegotiationConfig{
		SupportWindowFrom:  from,
		SupportWindowTo:    to,
		OpenTimeout:        2 * time.Hour,
		OpenTimeoutSupport: 30 * time.Minute,
	}
	now := time.Date(2026, 3, 10, hour, 15, 0, 0, time.UTC)
	return NewSupportWindow(cfg, clock.Fixed{T: now})
}

func TestSupportWindowActive(t *testing.T) {
	cases := []struct {
		from, to, hour int
		want           bool
	}{
		{9, 18, 9, true},
		{9, 18, 17, true},
		{9, 18, 18, false}, // [from, to)
		{9, 18, 8, false},
		{9, 18, 23, false},
	}
	for _, c := range cases {
		w := windowAt(t, c.from, c.to, c.hour)
		if got := w.Active(); got != c.want {
			t.Fatalf("Active() at hour %d in [%d, %d) = %v, want %v", c.hour, c.from, c.to, got, c.want)
		}
	}
}

func TestSupportWindowWrappingMidnight(t *testing.T) {
	cases := []struct {
		hour int
		want bool
	}{
		{23, true},
		{2, true},
		{6, false},
		{12, false},
	}
	for _, c := range cases {
		w := windowAt(t, 22, 6, c.hour)
		if got := w.Active(); got != c.want {
			t.Fatalf("Active() at hour %d in wrapping [22, 6) = %v, want %v", c.hour, got, c.want)
		}
	}
}

func TestSupportWindowOpenCountdown(t *testing.T) {
	inside := windowAt(t, 9, 18, 12)
	if got := inside.OpenCountdown(); got != 30*time.Minute {
		t.Fatalf("inside window countdown = %v, want 30m", got)
	}

	outside := windowAt(t, 9, 18, 20)
	if got := outside.OpenCountdown(); got != 2*time.Hour {
		t.Fatalf("outside window countdown = %v, want 2h", got)
	}
}
