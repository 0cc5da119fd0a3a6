package domain

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the wire format for delivery dates.
const DateLayout = "2006-01-02"

const slotLayout = "15:04"

// SchedulePolicy describes the delivery slot grid and same-day rules.
// Offsets are measured from local midnight in Location.
type SchedulePolicy struct {
	FirstSlot     time.Duration
	LastSlot      time.Duration
	Interval      time.Duration
	LeadTime      time.Duration
	SameDayCutoff time.Duration
	Location      *time.Location
}

// DefaultSchedulePolicy serves 09:00 to 23:30 every 30 minutes with a 2h lead
// time and no same-day orders after 18:15.
func DefaultSchedulePolicy(loc *time.Location) SchedulePolicy {
	if loc == nil {
		loc = time.UTC
	}
	return SchedulePolicy{
		FirstSlot:     9 * time.Hour,
		LastSlot:      23*time.Hour + 30*time.Minute,
		Interval:      30 * time.Minute,
		LeadTime:      2 * time.Hour,
		SameDayCutoff: 18*time.Hour + 15*time.Minute,
		Location:      loc,
	}
}

// Validate checks a requested slot against the policy at time now.
func (p SchedulePolicy) Validate(now time.Time, date time.Time, slot string) (*Schedule, error) {
	today, nowOffset := p.split(now)
	day := p.day(date)
	if day.Before(today) {
		return nil, &SchedulingError{Reason: "delivery date is in the past"}
	}
	offset, err := parseSlot(slot)
	if err != nil {
		return nil, &SchedulingError{Reason: err.Error()}
	}
	if !p.onGrid(offset) {
		return nil, &SchedulingError{Reason: fmt.Sprintf("slot %s is not offered, choose between %s and %s every %s",
			slot, formatOffset(p.FirstSlot), formatOffset(p.LastSlot), p.Interval)}
	}
	if day.Equal(today) {
		if reason := p.sameDayRefusal(nowOffset); reason != "" {
			return nil, &SchedulingError{Reason: reason}
		}
		if offset < nowOffset+p.LeadTime {
			return nil, &SchedulingError{Reason: fmt.Sprintf("slot %s is less than %s from now", slot, p.LeadTime)}
		}
	}
	return &Schedule{Date: day, Slot: formatOffset(offset)}, nil
}

// AvailableSlots lists the slots still bookable for date as HH:MM strings.
func (p SchedulePolicy) AvailableSlots(now time.Time, date time.Time) []string {
	today, nowOffset := p.split(now)
	day := p.day(date)
	if day.Before(today) {
		return nil
	}
	earliest := p.FirstSlot
	if day.Equal(today) {
		if p.sameDayRefusal(nowOffset) != "" {
			return nil
		}
		if lead := nowOffset + p.LeadTime; lead > earliest {
			earliest = lead
		}
	}
	var slots []string
	for offset := p.FirstSlot; offset <= p.LastSlot; offset += p.Interval {
		if offset < earliest {
			continue
		}
		slots = append(slots, formatOffset(offset))
	}
	return slots
}

func (p SchedulePolicy) sameDayRefusal(nowOffset time.Duration) string {
	if nowOffset > p.SameDayCutoff {
		return fmt.Sprintf("same-day delivery closes at %s", formatOffset(p.SameDayCutoff))
	}
	if nowOffset+p.LeadTime > p.LastSlot {
		return "no same-day slots remain"
	}
	return ""
}

func (p SchedulePolicy) onGrid(offset time.Duration) bool {
	if offset < p.FirstSlot || offset > p.LastSlot {
		return false
	}
	if p.Interval <= 0 {
		return true
	}
	return (offset-p.FirstSlot)%p.Interval == 0
}

func (p SchedulePolicy) location() *time.Location {
	if p.Location == nil {
		return time.UTC
	}
	return p.Location
}

// split returns local midnight for now and the wall-clock offset since it.
func (p SchedulePolicy) split(now time.Time) (time.Time, time.Duration) {
	local := now.In(p.location())
	midnight := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, p.location())
	offset := time.Duration(local.Hour())*time.Hour +
		time.Duration(local.Minute())*time.Minute +
		time.Duration(local.Second())*time.Second
	return midnight, offset
}

func (p SchedulePolicy) day(date time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, p.location())
}

// ParseDate reads a YYYY-MM-DD delivery date.
func ParseDate(value string) (time.Time, error) {
	return time.Parse(DateLayout, strings.TrimSpace(value))
}

func parseSlot(slot string) (time.Duration, error) {
	t, err := time.Parse(slotLayout, strings.TrimSpace(slot))
	if err != nil {
		return 0, fmt.Errorf("slot %q must use HH:MM", slot)
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}

func formatOffset(offset time.Duration) string {
	hours := int(offset / time.Hour)
	minutes := int((offset % time.Hour) / time.Minute)
	return fmt.Sprintf("%02d:%02d", hours, minutes)
}
