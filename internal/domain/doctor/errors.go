package doctor

import "errors"

var (
	ErrDoctorNotFound      = errors.New("doctor not found")
	ErrDoctorAlreadyExists = errors.New("doctor with this email already exists")
	ErrDoctorUnavailable   = errors.New("doctor is not accepting bookings")
	ErrSlotConflict        = errors.New("slot is already booked")
)
