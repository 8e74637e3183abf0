package appointment

import (
	"errors"
	"fmt"
	"time"
)

const (
	slotLayout = "15:04"
	slotStep   = time.Hour
)

var (
	ErrInvalidSlot         = errors.New("time slot must be HH:MM")
	ErrInvalidWorkingHours = errors.New("invalid working hours")
)

// GenerateSlots lists the slot labels of a working day: one per hour from
// start up to, but excluding, end. start >= end yields no slots.
func GenerateSlots(start, end string) ([]string, error) {
	from, err := parseClock(start)
	if err != nil {
		return nil, fmt.Errorf("%w: start %q", ErrInvalidWorkingHours, start)
	}
	to, err := parseClock(end)
	if err != nil {
		return nil, fmt.Errorf("%w: end %q", ErrInvalidWorkingHours, end)
	}

	slots := []string{}
	for cur := from; cur < to; cur += slotStep {
		slots = append(slots, formatClock(cur))
	}
	return slots, nil
}

// ValidSlotLabel reports whether s is a zero-padded 24h HH:MM label.
func ValidSlotLabel(s string) bool {
	_, err := parseClock(s)
	return err == nil && len(s) == len(slotLayout)
}

// parseClock returns the offset of an HH:MM label from midnight.
func parseClock(s string) (time.Duration, error) {
	t, err := time.Parse(slotLayout, s)
	if err != nil {
		return 0, err
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}

func formatClock(d time.Duration) string {
	h := int(d / time.Hour)
	m := int((d % time.Hour) / time.Minute)
	return fmt.Sprintf("%02d:%02d", h, m)
}
