package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/swiftcare-health/swiftcare-api/internal/cache"
	"github.com/swiftcare-health/swiftcare-api/internal/domain"
	"github.com/swiftcare-health/swiftcare-api/internal/domain/appointment"
	"github.com/swiftcare-health/swiftcare-api/internal/domain/doctor"
	"github.com/swiftcare-health/swiftcare-api/internal/domain/patient"
	"github.com/swiftcare-health/swiftcare-api/internal/schedule"
	"github.com/swiftcare-health/swiftcare-api/pkg/metrics"
)

// BookingService coordinates slot reservation and the appointment lifecycle.
// The double-booking guard itself lives in doctor.Repository.ReserveSlot; this
// service orders the side effects around it: reserve first, then snapshot the
// appointment, releasing the slot again if the snapshot cannot be persisted.
type BookingService struct {
	doctorRepo  doctor.Repository
	patientRepo patient.Repository
	apptRepo    appointment.Repository
	slotCache   cache.SlotCache
	notifier    *NotificationService
	auditSvc    *AuditService
	metrics     *metrics.Collector
	log         *zap.Logger
}

func NewBookingService(
	doctorRepo doctor.Repository,
	patientRepo patient.Repository,
	apptRepo appointment.Repository,
	slotCache cache.SlotCache,
	notifier *NotificationService,
	auditSvc *AuditService,
	collector *metrics.Collector,
	log *zap.Logger,
) *BookingService {
	return &BookingService{
		doctorRepo:  doctorRepo,
		patientRepo: patientRepo,
		apptRepo:    apptRepo,
		slotCache:   slotCache,
		notifier:    notifier,
		auditSvc:    auditSvc,
		metrics:     collector,
		log:         log,
	}
}

const releaseAttempts = 3

type BookSlotCommand struct {
	DoctorID  uuid.UUID
	PatientID uuid.UUID
	DateKey   string
	TimeSlot  string
}

// Book reserves the slot and records the appointment. A conflict is a normal,
// user-facing outcome (doctor.ErrSlotConflict), never retried here.
func (s *BookingService) Book(ctx context.Context, cmd *BookSlotCommand, callerID uuid.UUID, callerRole string, ip string) (*appointment.Appointment, error) {
	key, err := schedule.ParseDateKey(cmd.DateKey)
	if err != nil {
		return nil, &ValidationError{Fields: []string{"date_key: " + err.Error()}}
	}
	slotTime, err := time.Parse(schedule.TimeLayout, cmd.TimeSlot)
	if err != nil {
		return nil, &ValidationError{Fields: []string{"time_slot: must look like \"02:30 PM\""}}
	}

	p, err := s.patientRepo.GetByID(ctx, cmd.PatientID)
	if err != nil {
		return nil, fmt.Errorf("verifying patient: %w", err)
	}

	// The availability check, the conflict check, and the reservation write all
	// happen inside the repository's per-doctor critical section; concurrent
	// calls for the same slot cannot both pass.
	d, err := s.doctorRepo.ReserveSlot(ctx, cmd.DoctorID, key.String(), cmd.TimeSlot)
	if err != nil {
		s.recordOutcome(err)
		return nil, err
	}

	day := key.Date(time.UTC)
	a := &appointment.Appointment{
		PatientID: p.ID,
		DoctorID:  d.ID,
		DateKey:   key.String(),
		TimeSlot:  cmd.TimeSlot,
		Doctor: appointment.DoctorSnapshot{
			Name:       d.Name,
			Email:      d.Email,
			Speciality: d.Speciality,
			Degree:     d.Degree,
			Fees:       d.Fees,
			Address:    d.Address,
			ImageURL:   d.ImageURL,
		},
		Patient: appointment.PatientSnapshot{
			Name:     p.Name,
			Email:    p.Email,
			Phone:    p.Phone,
			ImageURL: p.ImageURL,
		},
		Amount: d.Fees,
		Status: appointment.StatusPending,
		ScheduledAt: time.Date(day.Year(), day.Month(), day.Day(),
			slotTime.Hour(), slotTime.Minute(), 0, 0, time.UTC),
	}

	if err := s.apptRepo.Create(ctx, a); err != nil {
		// The slot is held but the appointment could not be recorded; give the
		// slot back so the doctor's map and the appointment table stay in sync.
		if relErr := s.doctorRepo.ReleaseSlot(ctx, cmd.DoctorID, key.String(), cmd.TimeSlot); relErr != nil {
			s.log.Error("failed to release slot after create failure",
				zap.String("doctor_id", cmd.DoctorID.String()),
				zap.String("date_key", key.String()),
				zap.String("time_slot", cmd.TimeSlot),
				zap.Error(relErr),
			)
		}
		s.metrics.BookingsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("creating appointment: %w", err)
	}

	s.slotCache.Invalidate(ctx, d.ID)
	s.metrics.BookingsTotal.WithLabelValues("booked").Inc()

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID:       callerID,
		UserRole:     callerRole,
		Action:       "create",
		ResourceType: "appointment",
		ResourceID:   a.ID.String(),
		IPAddress:    ip,
	})

	go s.notifier.BookingConfirmed(a)

	return a, nil
}

// Cancel transitions the appointment to cancelled and releases its slot.
// Patients may only cancel their own appointments.
func (s *BookingService) Cancel(ctx context.Context, id uuid.UUID, callerID uuid.UUID, callerRole string, callerPatientID *uuid.UUID, ip string) (*appointment.Appointment, error) {
	a, err := s.apptRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if callerRole == string(domain.RolePatient) {
		if callerPatientID == nil || *callerPatientID != a.PatientID {
			return nil, ErrForbidden
		}
	}

	if err := a.Cancel(callerID); err != nil {
		return nil, err
	}

	if err := s.apptRepo.UpdateStatus(ctx, a); err != nil {
		return nil, fmt.Errorf("updating appointment status: %w", err)
	}

	// Releasing an already-released slot is a no-op, so a crash between the
	// status write and this call is safe to re-run. Retry transient failures:
	// a release that never lands leaves the slot permanently booked with no
	// appointment behind it.
	var relErr error
	for attempt := 0; attempt < releaseAttempts; attempt++ {
		if relErr = s.doctorRepo.ReleaseSlot(ctx, a.DoctorID, a.DateKey, a.TimeSlot); relErr == nil {
			break
		}
		s.log.Warn("release of cancelled slot failed, retrying",
			zap.String("appointment_id", a.ID.String()),
			zap.Int("attempt", attempt+1),
			zap.Error(relErr),
		)
	}
	if relErr != nil {
		s.log.Error("cancelled appointment still holds its slot",
			zap.String("appointment_id", a.ID.String()),
			zap.String("doctor_id", a.DoctorID.String()),
			zap.String("date_key", a.DateKey),
			zap.String("time_slot", a.TimeSlot),
			zap.Error(relErr),
		)
	}

	s.slotCache.Invalidate(ctx, a.DoctorID)

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID:       callerID,
		UserRole:     callerRole,
		Action:       "update",
		ResourceType: "appointment",
		ResourceID:   a.ID.String(),
		IPAddress:    ip,
		Changes:      `{"status":"cancelled"}`,
	})

	go s.notifier.BookingCancelled(a)

	return a, nil
}

// Complete marks the appointment done. The booked slot is left in place: it
// was consumed, not freed. Only the appointment's doctor or an admin may
// complete it.
func (s *BookingService) Complete(ctx context.Context, id uuid.UUID, callerID uuid.UUID, callerRole string, callerDoctorID *uuid.UUID, ip string) (*appointment.Appointment, error) {
	a, err := s.apptRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if callerRole == string(domain.RoleDoctor) {
		if callerDoctorID == nil || *callerDoctorID != a.DoctorID {
			return nil, ErrForbidden
		}
	} else if callerRole != string(domain.RoleAdmin) {
		return nil, ErrForbidden
	}

	if err := a.Complete(); err != nil {
		return nil, err
	}

	if err := s.apptRepo.UpdateStatus(ctx, a); err != nil {
		return nil, fmt.Errorf("updating appointment status: %w", err)
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID:       callerID,
		UserRole:     callerRole,
		Action:       "update",
		ResourceType: "appointment",
		ResourceID:   a.ID.String(),
		IPAddress:    ip,
		Changes:      `{"status":"completed"}`,
	})

	return a, nil
}

// AvailableSlots returns the doctor's open slots for the next seven days,
// today first. now is injected by the caller so the window is deterministic
// under test. Snapshots are cached briefly; bookings invalidate the entry.
func (s *BookingService) AvailableSlots(ctx context.Context, doctorID uuid.UUID, now time.Time) ([][]schedule.Slot, error) {
	if days, ok := s.slotCache.Get(ctx, doctorID); ok {
		s.metrics.SlotCacheHits.Inc()
		return days, nil
	}
	s.metrics.SlotCacheMisses.Inc()

	d, err := s.doctorRepo.GetByID(ctx, doctorID)
	if err != nil {
		return nil, err
	}

	days := schedule.Generate(d.BookedSlots, now)
	s.metrics.SlotsGeneratedTotal.Inc()
	s.slotCache.Set(ctx, doctorID, days)
	return days, nil
}

// List returns appointments with patient-scoped access: a patient caller only
// ever sees their own.
func (s *BookingService) List(ctx context.Context, q *appointment.ListAppointmentsQuery, callerRole string, callerPatientID *uuid.UUID) (*appointment.PagedAppointments, error) {
	if callerRole == string(domain.RolePatient) && callerPatientID != nil {
		q.PatientID = callerPatientID
	}
	if q.PageSize <= 0 || q.PageSize > 100 {
		q.PageSize = 20
	}
	if q.Page <= 0 {
		q.Page = 1
	}
	return s.apptRepo.List(ctx, q)
}

// Get fetches one appointment with the same patient scoping as List.
func (s *BookingService) Get(ctx context.Context, id uuid.UUID, callerRole string, callerPatientID *uuid.UUID) (*appointment.Appointment, error) {
	a, err := s.apptRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if callerRole == string(domain.RolePatient) {
		if callerPatientID == nil || *callerPatientID != a.PatientID {
			return nil, ErrForbidden
		}
	}
	return a, nil
}

// DashboardCounts returns appointment totals per status for the admin view.
func (s *BookingService) DashboardCounts(ctx context.Context) (map[appointment.Status]int64, error) {
	return s.apptRepo.CountByStatus(ctx)
}

func (s *BookingService) recordOutcome(err error) {
	switch {
	case errors.Is(err, doctor.ErrSlotConflict):
		s.metrics.BookingsTotal.WithLabelValues("conflict").Inc()
		s.metrics.SlotConflictsTotal.Inc()
	case errors.Is(err, doctor.ErrDoctorUnavailable):
		s.metrics.BookingsTotal.WithLabelValues("rejected").Inc()
	case errors.Is(err, doctor.ErrDoctorNotFound):
		s.metrics.BookingsTotal.WithLabelValues("rejected").Inc()
	default:
		s.metrics.BookingsTotal.WithLabelValues("error").Inc()
	}
}
