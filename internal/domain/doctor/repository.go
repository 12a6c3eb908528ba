package doctor

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	// Create persists a new doctor. Returns ErrDoctorAlreadyExists on duplicate email.
	Create(ctx context.Context, d *Doctor) error

	// GetByID retrieves a doctor by primary key. Returns ErrDoctorNotFound if not found.
	GetByID(ctx context.Context, id uuid.UUID) (*Doctor, error)

	// List returns doctors matching the query, ordered by name.
	List(ctx context.Context, q *ListDoctorsQuery) ([]*Doctor, error)

	// Update applies partial updates to a doctor's profile.
	Update(ctx context.Context, id uuid.UUID, cmd *UpdateDoctorCommand) (*Doctor, error)

	// SetAvailability toggles whether the doctor accepts new bookings.
	SetAvailability(ctx context.Context, id uuid.UUID, available bool) error

	// ReserveSlot atomically re-checks and records a slot reservation. The
	// membership test and the write happen inside one storage-side critical
	// section per doctor, so two concurrent reservations for the same
	// (doctor, dateKey, timeStr) cannot both succeed: the loser gets
	// ErrSlotConflict. Returns the doctor as of the reservation for
	// snapshotting. ErrDoctorUnavailable when bookings are switched off.
	ReserveSlot(ctx context.Context, id uuid.UUID, dateKey, timeStr string) (*Doctor, error)

	// ReleaseSlot removes a reservation. Releasing a slot that is not held
	// is a no-op, not an error.
	ReleaseSlot(ctx context.Context, id uuid.UUID, dateKey, timeStr string) error
}
