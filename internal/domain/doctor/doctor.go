package doctor

import (
	"time"

	"github.com/google/uuid"
)

// BookedSlots maps a schedule.DateKey wire string ("5_3_2025") to the slot time
// strings ("02:30 PM") already taken on that day. Membership in this map is the
// authoritative double-booking guard; it is mutated only through the repository's
// ReserveSlot and ReleaseSlot so the check and the write stay in one critical
// section per doctor.
type BookedSlots map[string][]string

// Has reports whether the slot is taken. Order within a day is irrelevant.
func (b BookedSlots) Has(dateKey, timeStr string) bool {
	for _, t := range b[dateKey] {
		if t == timeStr {
			return true
		}
	}
	return false
}

// Reserve adds the slot, creating the date entry on first booking for that day.
// Returns false without mutating when the slot is already taken.
func (b BookedSlots) Reserve(dateKey, timeStr string) bool {
	if b.Has(dateKey, timeStr) {
		return false
	}
	b[dateKey] = append(b[dateKey], timeStr)
	return true
}

// Release filters the slot out. Releasing an absent slot is a no-op, and an
// emptied date entry is kept: membership tests are unaffected by the residue.
func (b BookedSlots) Release(dateKey, timeStr string) {
	taken := b[dateKey]
	if taken == nil {
		return
	}
	kept := make([]string, 0, len(taken))
	for _, t := range taken {
		if t != timeStr {
			kept = append(kept, t)
		}
	}
	b[dateKey] = kept
}

type Doctor struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time  `gorm:"autoCreateTime;index"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime"`
	DeletedAt *time.Time `gorm:"index"`

	Name       string `gorm:"column:name;type:varchar(200);not null"`
	Email      string `gorm:"column:email;type:varchar(255);uniqueIndex;not null"`
	Speciality string `gorm:"column:speciality;type:varchar(100);not null;index"`
	Degree     string `gorm:"column:degree;type:varchar(100)"`
	Experience string `gorm:"column:experience;type:varchar(50)"`
	About      string `gorm:"column:about;type:text"`
	Fees       int64  `gorm:"column:fees;not null"`
	Address    string `gorm:"column:address;type:text"`
	ImageURL   string `gorm:"column:image_url;type:text"`

	// Available gates new bookings; existing appointments are unaffected.
	Available bool `gorm:"column:available;default:true;index"`

	BookedSlots BookedSlots `gorm:"column:booked_slots;type:jsonb;serializer:json"`
}

func (Doctor) TableName() string {
	return "clinical.doctors"
}

type CreateDoctorCommand struct {
	Name       string
	Email      string
	Password   string
	Speciality string
	Degree     string
	Experience string
	About      string
	Fees       int64
	Address    string
	ImageURL   string
	CreatedBy  uuid.UUID
}

type UpdateDoctorCommand struct {
	Fees      *int64
	Address   *string
	About     *string
	Available *bool
	UpdatedBy uuid.UUID
}

type ListDoctorsQuery struct {
	Speciality    string
	OnlyAvailable bool
}
