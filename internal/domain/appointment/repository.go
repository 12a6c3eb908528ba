package appointment

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	List(ctx context.Context, q *ListAppointmentsQuery) (*PagedAppointments, error)

	// UpdateStatus persists a status transition already applied to a.
	UpdateStatus(ctx context.Context, a *Appointment) error

	// MarkPaid records a verified payment against the appointment.
	MarkPaid(ctx context.Context, id uuid.UUID, orderID string) error

	// GetUpcoming returns pending appointments starting within the horizon
	// that have not been reminded yet. Used by the reminder job.
	GetUpcoming(ctx context.Context, from time.Time, horizon time.Duration) ([]*Appointment, error)

	// MarkReminded flags an appointment so the reminder job does not repeat itself.
	MarkReminded(ctx context.Context, id uuid.UUID) error

	// CountByStatus returns totals per status for the admin dashboard.
	CountByStatus(ctx context.Context) (map[Status]int64, error)
}
