package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateKey identifies a calendar day in a doctor's booked-slot map. The wire form
// "{day}_{month}_{year}" (unpadded, month 1-12) is the storage key format and must
// not change: a formatting mismatch makes every slot silently look available.
type DateKey struct {
	Day   int
	Month int
	Year  int
}

func NewDateKey(t time.Time) DateKey {
	return DateKey{Day: t.Day(), Month: int(t.Month()), Year: t.Year()}
}

// ParseDateKey parses the wire form and rejects keys that do not name a real
// calendar date (e.g. "31_2_2025").
func ParseDateKey(s string) (DateKey, error) {
	parts := strings.Split(s, "_")
	if len(parts) != 3 {
		return DateKey{}, fmt.Errorf("invalid date key %q", s)
	}

	nums := make([]int, 3)
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || strconv.Itoa(n) != p {
			return DateKey{}, fmt.Errorf("invalid date key %q", s)
		}
		nums[i] = n
	}

	k := DateKey{Day: nums[0], Month: nums[1], Year: nums[2]}
	if !k.valid() {
		return DateKey{}, fmt.Errorf("invalid date key %q: no such date", s)
	}
	return k, nil
}

func (k DateKey) valid() bool {
	if k.Month < 1 || k.Month > 12 || k.Day < 1 || k.Year < 1 {
		return false
	}
	t := time.Date(k.Year, time.Month(k.Month), k.Day, 0, 0, 0, 0, time.UTC)
	return t.Day() == k.Day && int(t.Month()) == k.Month && t.Year() == k.Year
}

func (k DateKey) String() string {
	return fmt.Sprintf("%d_%d_%d", k.Day, k.Month, k.Year)
}

// Date returns midnight of the keyed day in the given location.
func (k DateKey) Date(loc *time.Location) time.Time {
	return time.Date(k.Year, time.Month(k.Month), k.Day, 0, 0, 0, 0, loc)
}
