package service

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/swiftcare-health/swiftcare-api/internal/domain/appointment"
	"github.com/swiftcare-health/swiftcare-api/pkg/mailer"
)

// NotificationService sends appointment email. Delivery is best effort: a
// failed mail never fails the booking that triggered it.
type NotificationService struct {
	sender mailer.Sender
	log    *zap.Logger
}

func NewNotificationService(sender mailer.Sender, log *zap.Logger) *NotificationService {
	return &NotificationService{sender: sender, log: log}
}

func (s *NotificationService) BookingConfirmed(a *appointment.Appointment) {
	doctorBody := fmt.Sprintf(
		`<p>Hello Dr. %s,</p>
<p>A new appointment has been booked by <strong>%s</strong>.</p>
<p><b>Date:</b> %s<br><b>Time:</b> %s</p>
<p>Please log in to your SwiftCare dashboard to view the details.</p>`,
		a.Doctor.Name, a.Patient.Name, a.DateKey, a.TimeSlot,
	)
	s.deliver(a.Doctor.Email, "New Appointment Booked", doctorBody)

	patientBody := fmt.Sprintf(
		`<p>Hello %s,</p>
<p>Your appointment with <strong>Dr. %s</strong> is confirmed.</p>
<p><b>Date:</b> %s<br><b>Time:</b> %s</p>`,
		a.Patient.Name, a.Doctor.Name, a.DateKey, a.TimeSlot,
	)
	s.deliver(a.Patient.Email, "Appointment Confirmed", patientBody)
}

func (s *NotificationService) BookingCancelled(a *appointment.Appointment) {
	body := fmt.Sprintf(
		`<p>Hello Dr. %s,</p>
<p>The appointment with <strong>%s</strong> on %s at %s has been cancelled.</p>`,
		a.Doctor.Name, a.Patient.Name, a.DateKey, a.TimeSlot,
	)
	s.deliver(a.Doctor.Email, "Appointment Cancelled", body)
}

func (s *NotificationService) Reminder(a *appointment.Appointment) {
	body := fmt.Sprintf(
		`<p>Hello %s,</p>
<p>This is a reminder for your appointment with <strong>Dr. %s</strong> on %s at %s.</p>`,
		a.Patient.Name, a.Doctor.Name, a.DateKey, a.TimeSlot,
	)
	s.deliver(a.Patient.Email, "Appointment Reminder", body)
}

func (s *NotificationService) deliver(to, subject, body string) {
	if to == "" {
		return
	}
	if err := s.sender.Send(to, subject, body); err != nil {
		s.log.Warn("notification email failed",
			zap.String("to", to),
			zap.String("subject", subject),
			zap.Error(err),
		)
	}
}
