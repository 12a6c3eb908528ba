package schedule

import (
	"testing"
	"time"
)

func at(t *testing.T, value string) time.Time {
	t.Helper()
	ts, err := time.Parse("2006-01-02 15:04", value)
	if err != nil {
		t.Fatalf("bad test time %q: %v", value, err)
	}
	return ts
}

func TestGenerateWindowShape(t *testing.T) {
	days := Generate(nil, at(t, "2025-03-05 09:00"))

	if len(days) != WindowDays {
		t.Fatalf("got %d day sequences, want %d", len(days), WindowDays)
	}
	for i, slots := range days {
		for j := 1; j < len(slots); j++ {
			if !slots[j-1].Time.Before(slots[j].Time) {
				t.Errorf("day %d: slot %d (%s) not after slot %d (%s)",
					i, j, slots[j].Display, j-1, slots[j-1].Display)
			}
		}
		for _, s := range slots {
			if s.Time.Minute() != 0 && s.Time.Minute() != 30 {
				t.Errorf("day %d: slot %s not on a half-hour boundary", i, s.Display)
			}
		}
	}
}

func TestGenerateTodayStart(t *testing.T) {
	tests := []struct {
		name      string
		now       string
		wantFirst string
		wantLast  string
	}{
		{"before opening", "2025-03-05 09:00", "10:00 AM", "08:30 PM"},
		{"minute past half hour", "2025-03-05 14:45", "03:30 PM", "08:30 PM"},
		{"minute before half hour", "2025-03-05 14:15", "03:00 PM", "08:30 PM"},
		{"exactly on the hour", "2025-03-05 14:00", "03:00 PM", "08:30 PM"},
		{"exactly half past", "2025-03-05 14:30", "03:00 PM", "08:30 PM"},
		{"midnight", "2025-03-05 00:00", "10:00 AM", "08:30 PM"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			days := Generate(nil, at(t, tc.now))
			today := days[0]
			if len(today) == 0 {
				t.Fatal("expected non-empty first day")
			}
			if got := today[0].Display; got != tc.wantFirst {
				t.Errorf("first slot = %s, want %s", got, tc.wantFirst)
			}
			if got := today[len(today)-1].Display; got != tc.wantLast {
				t.Errorf("last slot = %s, want %s", got, tc.wantLast)
			}
		})
	}
}

func TestGenerateLateDayEmpty(t *testing.T) {
	days := Generate(nil, at(t, "2025-03-05 20:40"))

	if len(days[0]) != 0 {
		t.Errorf("expected empty first day at 20:40, got %d slots starting %s",
			len(days[0]), days[0][0].Display)
	}
	// Later days must be unaffected by today's cutoff.
	if len(days[1]) != 22 {
		t.Errorf("second day has %d slots, want 22", len(days[1]))
	}
	if days[1][0].Display != "10:00 AM" {
		t.Errorf("second day opens at %s, want 10:00 AM", days[1][0].Display)
	}
}

func TestGenerateExcludesBooked(t *testing.T) {
	now := at(t, "2025-03-05 09:00")
	booked := map[string][]string{
		"5_3_2025": {"10:00 AM", "02:30 PM"},
		"6_3_2025": {"10:30 AM"},
	}

	days := Generate(booked, now)

	for i, taken := range []map[string]bool{
		{"10:00 AM": true, "02:30 PM": true},
		{"10:30 AM": true},
	} {
		for _, s := range days[i] {
			if taken[s.Display] {
				t.Errorf("day %d: booked slot %s offered", i, s.Display)
			}
		}
	}
	if len(days[0]) != 20 {
		t.Errorf("first day has %d slots, want 20", len(days[0]))
	}
}

func TestGenerateBookedKeyFormatIsUnpadded(t *testing.T) {
	// A zero-padded key must not match; only the unpadded form does.
	now := at(t, "2025-03-05 09:00")
	days := Generate(map[string][]string{"05_03_2025": {"10:00 AM"}}, now)

	if days[0][0].Display != "10:00 AM" {
		t.Errorf("padded key excluded a slot: first slot = %s", days[0][0].Display)
	}
}

func TestGenerateCrossesMonthBoundary(t *testing.T) {
	days := Generate(nil, at(t, "2025-03-29 09:00"))

	// Day index 3 is April 1st; its slots must carry that date.
	want := time.Date(2025, time.April, 1, 10, 0, 0, 0, time.UTC)
	if got := days[3][0].Time; !got.Equal(want) {
		t.Errorf("fourth day first slot at %v, want %v", got, want)
	}
}
