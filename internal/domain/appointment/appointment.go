package appointment

import (
	"time"

	"github.com/google/uuid"
)

// State transitions possibilities:
//
//	pending → completed
//	pending → cancelled
//
// Both outcomes are terminal. A single tagged status replaces independent
// cancelled/completed flags so the contradictory pair is unrepresentable.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// DoctorSnapshot is the doctor's data frozen at booking time. The appointment
// is an audit record: later edits to the doctor row must not change it.
type DoctorSnapshot struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Speciality string `json:"speciality"`
	Degree     string `json:"degree"`
	Fees       int64  `json:"fees"`
	Address    string `json:"address"`
	ImageURL   string `json:"image_url"`
}

// PatientSnapshot is the patient's data frozen at booking time.
type PatientSnapshot struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	ImageURL string `json:"image_url"`
}

type Appointment struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time  `gorm:"autoCreateTime;index"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime"`
	DeletedAt *time.Time `gorm:"index"`

	PatientID uuid.UUID `gorm:"column:patient_id;type:uuid;not null;index"`
	DoctorID  uuid.UUID `gorm:"column:doctor_id;type:uuid;not null;index"`

	// DateKey is the schedule.DateKey wire string, TimeSlot the "02:30 PM"
	// display form. Together with DoctorID they name the reserved slot.
	DateKey  string `gorm:"column:date_key;type:varchar(12);not null;index"`
	TimeSlot string `gorm:"column:time_slot;type:varchar(10);not null"`

	Doctor  DoctorSnapshot  `gorm:"column:doctor_data;type:jsonb;serializer:json"`
	Patient PatientSnapshot `gorm:"column:patient_data;type:jsonb;serializer:json"`

	// Amount is the fee owed, copied from the doctor's fees at booking time.
	Amount int64  `gorm:"column:amount;not null"`
	Status Status `gorm:"column:status;type:varchar(20);not null;default:'pending';index"`
	Paid   bool   `gorm:"column:paid;default:false"`

	CancelledAt *time.Time `gorm:"column:cancelled_at"`
	CancelledBy *uuid.UUID `gorm:"column:cancelled_by;type:uuid"`
	CompletedAt *time.Time `gorm:"column:completed_at"`

	PaymentOrderID string `gorm:"column:payment_order_id;type:varchar(100)"`

	ReminderSent bool `gorm:"column:reminder_sent;default:false"`

	// ScheduledAt is the slot instant in UTC, derived from DateKey and TimeSlot
	// at booking time so range queries need no string parsing.
	ScheduledAt time.Time `gorm:"column:scheduled_at;not null;index"`
}

func (Appointment) TableName() string {
	return "clinical.appointments"
}

func (a *Appointment) CanTransitionTo(next Status) bool {
	return a.Status == StatusPending && (next == StatusCompleted || next == StatusCancelled)
}

func (a *Appointment) Cancel(cancelledBy uuid.UUID) error {
	if !a.CanTransitionTo(StatusCancelled) {
		return ErrInvalidStatusTransition
	}
	now := time.Now()
	a.Status = StatusCancelled
	a.CancelledAt = &now
	a.CancelledBy = &cancelledBy
	return nil
}

func (a *Appointment) Complete() error {
	if !a.CanTransitionTo(StatusCompleted) {
		return ErrInvalidStatusTransition
	}
	now := time.Now()
	a.Status = StatusCompleted
	a.CompletedAt = &now
	return nil
}

type ListAppointmentsQuery struct {
	PatientID *uuid.UUID
	DoctorID  *uuid.UUID
	Status    *Status
	Page      int
	PageSize  int
}

type PagedAppointments struct {
	Appointments []*Appointment
	TotalCount   int64
	Page         int
	PageSize     int
	TotalPages   int
}
