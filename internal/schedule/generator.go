package schedule

import "time"

const (
	// WindowDays is the rolling booking horizon, today included.
	WindowDays = 7

	openingHour = 10
	closingHour = 21

	slotInterval = 30 * time.Minute

	// TimeLayout is the display and storage form of a slot time ("02:30 PM").
	TimeLayout = "03:04 PM"
)

// Slot is a bookable candidate produced by Generate. It is transient; only its
// Display string and the owning DateKey are ever persisted.
type Slot struct {
	Time    time.Time
	Display string
}

// Generate computes the open slots for the next WindowDays days, today first.
// It is a pure function of its inputs: booked maps DateKey wire strings to the
// time strings already taken, and now is the reference instant (injected for
// testability, never read from the environment here).
//
// Each day runs 10:00 to 21:00 in 30-minute steps. Today's window instead opens
// at the next slot strictly after now: hour max(now.hour+1, 10), minute snapped
// to :30 when now.minute is past :30, else :00. A day whose start has already
// reached the closing time yields an empty sequence, which is valid.
func Generate(booked map[string][]string, now time.Time) [][]Slot {
	days := make([][]Slot, 0, WindowDays)

	for i := 0; i < WindowDays; i++ {
		day := now.AddDate(0, 0, i)
		key := NewDateKey(day).String()
		taken := booked[key]

		start := dayStart(day, now, i == 0)
		end := time.Date(day.Year(), day.Month(), day.Day(), closingHour, 0, 0, 0, day.Location())

		slots := []Slot{}
		for t := start; t.Before(end); t = t.Add(slotInterval) {
			display := t.Format(TimeLayout)
			if !contains(taken, display) {
				slots = append(slots, Slot{Time: t, Display: display})
			}
		}
		days = append(days, slots)
	}

	return days
}

func dayStart(day, now time.Time, today bool) time.Time {
	hour, minute := openingHour, 0
	if today {
		if h := now.Hour() + 1; h > hour {
			hour = h
		}
		if now.Minute() > 30 {
			minute = 30
		}
	}
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, day.Location())
}

func contains(taken []string, display string) bool {
	for _, t := range taken {
		if t == display {
			return true
		}
	}
	return false
}
