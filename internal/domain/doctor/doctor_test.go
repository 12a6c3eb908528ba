package doctor

import "testing"

func TestBookedSlotsReserve(t *testing.T) {
	b := BookedSlots{}

	if !b.Reserve("5_3_2026", "10:30 AM") {
		t.Fatal("first reservation rejected")
	}
	if b.Reserve("5_3_2026", "10:30 AM") {
		t.Fatal("duplicate reservation accepted")
	}
	if !b.Reserve("5_3_2026", "11:00 AM") {
		t.Fatal("different slot on same day rejected")
	}
	if !b.Reserve("6_3_2026", "10:30 AM") {
		t.Fatal("same slot on different day rejected")
	}

	if !b.Has("5_3_2026", "10:30 AM") {
		t.Error("Has misses reserved slot")
	}
	if b.Has("5_3_2026", "09:00 AM") {
		t.Error("Has reports unreserved slot")
	}
}

func TestBookedSlotsRelease(t *testing.T) {
	b := BookedSlots{}
	b.Reserve("5_3_2026", "10:30 AM")
	b.Reserve("5_3_2026", "11:00 AM")

	b.Release("5_3_2026", "10:30 AM")
	if b.Has("5_3_2026", "10:30 AM") {
		t.Error("released slot still held")
	}
	if !b.Has("5_3_2026", "11:00 AM") {
		t.Error("release removed the wrong slot")
	}

	// Releasing what is not held changes nothing.
	b.Release("5_3_2026", "10:30 AM")
	b.Release("9_9_2030", "10:30 AM")

	if !b.Reserve("5_3_2026", "10:30 AM") {
		t.Error("cannot rebook a released slot")
	}
}

func TestBookedSlotsEmptyDayResidue(t *testing.T) {
	b := BookedSlots{}
	b.Reserve("5_3_2026", "10:30 AM")
	b.Release("5_3_2026", "10:30 AM")

	// The emptied date entry may remain; membership is what matters.
	if b.Has("5_3_2026", "10:30 AM") {
		t.Error("empty day entry reports a held slot")
	}
}
