package appointment

import "errors"

var (
	ErrAppointmentNotFound     = errors.New("appointment not found")
	ErrInvalidStatusTransition = errors.New("invalid appointment status transition")
	ErrAlreadyPaid             = errors.New("appointment is already paid")
	ErrNotPayable              = errors.New("appointment is cancelled or not found for payment")
)
