package service

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"go-clinic-negotiation/internal/domain/entity"
	"go-clinic-negotiation/internal/domain/repository"
	"go-clinic-negotiation/pkg/clock"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	// Days scanned around the requested date, alternating after/before.
	recommendDayScan = 10

	// Hour buckets per scanned day.
	slotsPerDay = 24

	// A slot qualifies when fewer than a fifth of the day's doctors are busy.
	busyRatioLimitNum = 1
	busyRatioLimitDen = 5

	maxSlotsPerDay = 3
	maxSlotsTotal  = 5
)

// SlotSuggestion is one recommended {date, time} pair for the patient's
// timeout payload.
type SlotSuggestion struct {
	Date  string  `json:"date"`
	Time  string  `json:"time"`
	Ratio float64 `json:"ratio"`
}

// SlotRecommender scores one-hour slots on the days around a request's
// original date-time by doctor workload and returns the least-loaded ones.
// Used to build the "we found nothing, but here are alternatives" payload
// when an open negotiation times out.
type SlotRecommender struct {
	log          *logrus.Logger
	doctorRepo   repository.DoctorRepository
	scheduleRepo repository.ScheduleRepository
	clock        clock.Clock
}

func NewSlotRecommender(
	log *logrus.Logger,
	doctorRepo repository.DoctorRepository,
	scheduleRepo repository.ScheduleRepository,
	clk clock.Clock,
) *SlotRecommender {
	return &SlotRecommender{
		log:          log,
		doctorRepo:   doctorRepo,
		scheduleRepo: scheduleRepo,
		clock:        clk,
	}
}

type scoredSlot struct {
	day   time.Time
	hour  int
	busy  int
	total int
}

func (s scoredSlot) ratio() float64 {
	return float64(s.busy) / float64(s.total)
}

// Recommend scans up to ten days around originalAt: the original day first,
// then +1, -1, +2, -2 and so on, skipping days not strictly in the future.
// Per day it keeps the three best slots under the busy-ratio limit; across
// days the five earliest survive, ordered by (date, time).
func (s *SlotRecommender) Recommend(db *gorm.DB, originalAt time.Time, clinicIDs []uuid.UUID) ([]SlotSuggestion, error) {
	if len(clinicIDs) == 0 {
		return nil, nil
	}

	doctors, err := s.doctorRepo.FindByClinics(db, clinicIDs)
	if err != nil {
		s.log.Warnf("Failed to load doctors for slot scan: %+v", err)
		return nil, err
	}
	if len(doctors) == 0 {
		return nil, nil
	}

	now := s.clock.Now().In(originalAt.Location())
	today := startOfDay(now)

	var picked []scoredSlot
	for i := 0; i < recommendDayScan; i++ {
		day := startOfDay(originalAt).AddDate(0, 0, dayOffset(i))
		if !day.After(today) {
			continue
		}

		daySlots, err := s.scanDay(db, day, originalAt, doctors)
		if err != nil {
			return nil, err
		}
		picked = append(picked, daySlots...)
	}

	sort.Slice(picked, func(i, j int) bool {
		if !picked[i].day.Equal(picked[j].day) {
			return picked[i].day.Before(picked[j].day)
		}
		return picked[i].hour < picked[j].hour
	})
	if len(picked) > maxSlotsTotal {
		picked = picked[:maxSlotsTotal]
	}

	out := make([]SlotSuggestion, 0, len(picked))
	for _, slot := range picked {
		out = append(out, SlotSuggestion{
			Date:  slot.day.Format("2006-01-02"),
			Time:  formatHour(slot.hour),
			Ratio: slot.ratio(),
		})
	}
	return out, nil
}

// dayOffset yields the alternating scan sequence 0, +1, -1, +2, -2, ...
func dayOffset(i int) int {
	if i%2 == 1 {
		return (i + 1) / 2
	}
	return -(i / 2)
}

func (s *SlotRecommender) scanDay(db *gorm.DB, day, originalAt time.Time, doctors []entity.DoctorProfile) ([]scoredSlot, error) {
	weekday := int(day.Weekday())

	var onDuty []entity.DoctorProfile
	for _, d := range doctors {
		if shiftsForWeekday(d.Shifts, weekday) != nil {
			onDuty = append(onDuty, d)
		}
	}
	if len(onDuty) == 0 {
		return nil, nil
	}

	doctorIDs := make([]uuid.UUID, 0, len(onDuty))
	for _, d := range onDuty {
		doctorIDs = append(doctorIDs, d.UserID)
	}

	dayEnd := day.AddDate(0, 0, 1)
	blocks, err := s.scheduleRepo.FindForDoctorsBetween(db, doctorIDs, day, dayEnd)
	if err != nil {
		s.log.Warnf("Failed to load schedules for %s: %+v", day.Format("2006-01-02"), err)
		return nil, err
	}

	blocksByDoctor := make(map[uuid.UUID][]entity.AppointmentSchedule)
	for _, b := range blocks {
		blocksByDoctor[b.DoctorID] = append(blocksByDoctor[b.DoctorID], b)
	}

	var slots []scoredSlot
	for hour := 0; hour < slotsPerDay; hour++ {
		slotStart := day.Add(time.Duration(hour) * time.Hour)
		slotEnd := slotStart.Add(time.Hour)

		busy := 0
		for _, d := range onDuty {
			if s.doctorBusy(&d, slotStart, slotEnd, originalAt, weekday, blocksByDoctor[d.UserID]) {
				busy++
			}
		}

		if busy*busyRatioLimitDen < len(onDuty)*busyRatioLimitNum {
			slots = append(slots, scoredSlot{day: day, hour: hour, busy: busy, total: len(onDuty)})
		}
	}

	// All slots of one day share the doctor count, so busy count orders ratios.
	sort.Slice(slots, func(i, j int) bool {
		if slots[i].busy != slots[j].busy {
			return slots[i].busy < slots[j].busy
		}
		return slots[i].hour < slots[j].hour
	})
	if len(slots) > maxSlotsPerDay {
		slots = slots[:maxSlotsPerDay]
	}
	return slots, nil
}

// doctorBusy marks a doctor unavailable for a slot when a committed block
// overlaps it, the shift does not cover it, or the slot holds the originally
// requested time itself.
func (s *SlotRecommender) doctorBusy(
	d *entity.DoctorProfile,
	slotStart, slotEnd, originalAt time.Time,
	weekday int,
	blocks []entity.AppointmentSchedule,
) bool {
	if !slotStart.After(originalAt) && originalAt.Before(slotEnd) {
		return true
	}

	covered := false
	for _, shift := range shiftsForWeekday(d.Shifts, weekday) {
		if shiftCoversSlot(shift, slotStart) {
			covered = true
			break
		}
	}
	if !covered {
		return true
	}

	for _, b := range blocks {
		if b.Overlaps(slotStart, slotEnd) {
			return true
		}
	}
	return false
}

func shiftsForWeekday(shifts []entity.DoctorShift, weekday int) []entity.DoctorShift {
	var out []entity.DoctorShift
	for _, s := range shifts {
		if s.Weekday == weekday {
			out = append(out, s)
		}
	}
	return out
}

// shiftCoversSlot checks the wall-clock shift window against the slot hour:
// the shift misses the slot when it starts at or after the slot's end, or
// ends at or before the slot's start.
func shiftCoversSlot(shift entity.DoctorShift, slotStart time.Time) bool {
	slotFromMin := slotStart.Hour() * 60
	slotToMin := slotFromMin + 60

	fromMin, okFrom := parseClockMinutes(shift.WorkFrom)
	toMin, okTo := parseClockMinutes(shift.WorkTo)
	if !okFrom || !okTo {
		return false
	}

	return fromMin < slotToMin && toMin > slotFromMin
}

// parseClockMinutes reads "15:04" (or "15:04:05") into minutes since midnight.
func parseClockMinutes(s string) (int, bool) {
	parts := strings.Split(s, ":")
	if len(parts) < 2 {
		return 0, false
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, false
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, false
	}
	return h*60 + m, true
}

func formatHour(hour int) string {
	return time.Date(0, 1, 1, hour, 0, 0, 0, time.UTC).Format("15:04")
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
