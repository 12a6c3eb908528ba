package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/swiftcare-health/swiftcare-api/internal/cache"
	"github.com/swiftcare-health/swiftcare-api/internal/domain"
	"github.com/swiftcare-health/swiftcare-api/internal/domain/appointment"
	"github.com/swiftcare-health/swiftcare-api/internal/domain/doctor"
	"github.com/swiftcare-health/swiftcare-api/internal/domain/patient"
	"github.com/swiftcare-health/swiftcare-api/pkg/mailer"
	"github.com/swiftcare-health/swiftcare-api/pkg/metrics"
)

// One collector for the whole test binary; prometheus panics on duplicate
// registration.
var testCollector = metrics.NewCollector("swiftcare_test")

type fakeDoctorRepo struct {
	mu      sync.Mutex
	doctors map[uuid.UUID]*doctor.Doctor

	// releaseFailures makes the next N ReleaseSlot calls fail.
	releaseFailures int
}

func newFakeDoctorRepo(docs ...*doctor.Doctor) *fakeDoctorRepo {
	r := &fakeDoctorRepo{doctors: make(map[uuid.UUID]*doctor.Doctor)}
	for _, d := range docs {
		r.doctors[d.ID] = d
	}
	return r
}

func (r *fakeDoctorRepo) Create(_ context.Context, d *doctor.Doctor) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	r.doctors[d.ID] = d
	return nil
}

func (r *fakeDoctorRepo) GetByID(_ context.Context, id uuid.UUID) (*doctor.Doctor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.doctors[id]
	if !ok {
		return nil, doctor.ErrDoctorNotFound
	}
	cp := *d
	return &cp, nil
}

func (r *fakeDoctorRepo) List(_ context.Context, _ *doctor.ListDoctorsQuery) ([]*doctor.Doctor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*doctor.Doctor, 0, len(r.doctors))
	for _, d := range r.doctors {
		cp := *d
		out = append(out, &cp)
	}
	return out, nil
}

func (r *fakeDoctorRepo) Update(_ context.Context, id uuid.UUID, cmd *doctor.UpdateDoctorCommand) (*doctor.Doctor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.doctors[id]
	if !ok {
		return nil, doctor.ErrDoctorNotFound
	}
	if cmd.Fees != nil {
		d.Fees = *cmd.Fees
	}
	if cmd.Address != nil {
		d.Address = *cmd.Address
	}
	cp := *d
	return &cp, nil
}

func (r *fakeDoctorRepo) SetAvailability(_ context.Context, id uuid.UUID, available bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.doctors[id]
	if !ok {
		return doctor.ErrDoctorNotFound
	}
	d.Available = available
	return nil
}

// ReserveSlot mirrors the production contract: check and write under one lock.
func (r *fakeDoctorRepo) ReserveSlot(_ context.Context, id uuid.UUID, dateKey, timeStr string) (*doctor.Doctor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.doctors[id]
	if !ok {
		return nil, doctor.ErrDoctorNotFound
	}
	if !d.Available {
		return nil, doctor.ErrDoctorUnavailable
	}
	if !d.BookedSlots.Reserve(dateKey, timeStr) {
		return nil, doctor.ErrSlotConflict
	}
	cp := *d
	return &cp, nil
}

func (r *fakeDoctorRepo) ReleaseSlot(_ context.Context, id uuid.UUID, dateKey, timeStr string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.releaseFailures > 0 {
		r.releaseFailures--
		return errors.New("storage unavailable")
	}
	d, ok := r.doctors[id]
	if !ok {
		return doctor.ErrDoctorNotFound
	}
	d.BookedSlots.Release(dateKey, timeStr)
	return nil
}

type fakePatientRepo struct {
	mu       sync.Mutex
	patients map[uuid.UUID]*patient.Patient
}

func newFakePatientRepo(pats ...*patient.Patient) *fakePatientRepo {
	r := &fakePatientRepo{patients: make(map[uuid.UUID]*patient.Patient)}
	for _, p := range pats {
		r.patients[p.ID] = p
	}
	return r
}

func (r *fakePatientRepo) Create(_ context.Context, p *patient.Patient) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	r.patients[p.ID] = p
	return nil
}

func (r *fakePatientRepo) GetByID(_ context.Context, id uuid.UUID) (*patient.Patient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.patients[id]
	if !ok {
		return nil, patient.ErrPatientNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *fakePatientRepo) GetByEmail(_ context.Context, email string) (*patient.Patient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.patients {
		if p.Email == email {
			cp := *p
			return &cp, nil
		}
	}
	return nil, patient.ErrPatientNotFound
}

func (r *fakePatientRepo) Update(_ context.Context, id uuid.UUID, cmd *patient.UpdatePatientCommand) (*patient.Patient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.patients[id]
	if !ok {
		return nil, patient.ErrPatientNotFound
	}
	if cmd.Name != nil {
		p.Name = *cmd.Name
	}
	cp := *p
	return &cp, nil
}

type fakeApptRepo struct {
	mu           sync.Mutex
	appointments map[uuid.UUID]*appointment.Appointment
	failCreate   bool
}

func newFakeApptRepo() *fakeApptRepo {
	return &fakeApptRepo{appointments: make(map[uuid.UUID]*appointment.Appointment)}
}

func (r *fakeApptRepo) Create(_ context.Context, a *appointment.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failCreate {
		return errors.New("storage unavailable")
	}
	a.ID = uuid.New()
	a.CreatedAt = time.Now()
	cp := *a
	r.appointments[a.ID] = &cp
	return nil
}

func (r *fakeApptRepo) GetByID(_ context.Context, id uuid.UUID) (*appointment.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.appointments[id]
	if !ok {
		return nil, appointment.ErrAppointmentNotFound
	}
	cp := *a
	return &cp, nil
}

func (r *fakeApptRepo) List(_ context.Context, q *appointment.ListAppointmentsQuery) (*appointment.PagedAppointments, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*appointment.Appointment{}
	for _, a := range r.appointments {
		if q.PatientID != nil && a.PatientID != *q.PatientID {
			continue
		}
		if q.DoctorID != nil && a.DoctorID != *q.DoctorID {
			continue
		}
		cp := *a
		out = append(out, &cp)
	}
	return &appointment.PagedAppointments{
		Appointments: out,
		TotalCount:   int64(len(out)),
		Page:         q.Page,
		PageSize:     q.PageSize,
		TotalPages:   1,
	}, nil
}

func (r *fakeApptRepo) UpdateStatus(_ context.Context, a *appointment.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.appointments[a.ID]
	if !ok {
		return appointment.ErrAppointmentNotFound
	}
	stored.Status = a.Status
	stored.CancelledAt = a.CancelledAt
	stored.CancelledBy = a.CancelledBy
	stored.CompletedAt = a.CompletedAt
	return nil
}

func (r *fakeApptRepo) MarkPaid(_ context.Context, id uuid.UUID, orderID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.appointments[id]
	if !ok {
		return appointment.ErrAppointmentNotFound
	}
	a.Paid = true
	a.PaymentOrderID = orderID
	return nil
}

func (r *fakeApptRepo) GetUpcoming(_ context.Context, from time.Time, horizon time.Duration) ([]*appointment.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*appointment.Appointment{}
	for _, a := range r.appointments {
		if a.Status != appointment.StatusPending || a.ReminderSent {
			continue
		}
		if a.ScheduledAt.After(from) && a.ScheduledAt.Before(from.Add(horizon)) {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeApptRepo) MarkReminded(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.appointments[id]
	if !ok {
		return appointment.ErrAppointmentNotFound
	}
	a.ReminderSent = true
	return nil
}

func (r *fakeApptRepo) CountByStatus(_ context.Context) (map[appointment.Status]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[appointment.Status]int64)
	for _, a := range r.appointments {
		counts[a.Status]++
	}
	return counts, nil
}

type fakeAuditRepo struct {
	mu      sync.Mutex
	entries []*domain.AuditLog
}

func (r *fakeAuditRepo) Create(_ context.Context, entry *domain.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry)
	return nil
}

type bookingFixture struct {
	svc        *BookingService
	doctorRepo *fakeDoctorRepo
	apptRepo   *fakeApptRepo
	doc        *doctor.Doctor
	pat        *patient.Patient
	user       uuid.UUID
}

func newBookingFixture(t *testing.T) *bookingFixture {
	t.Helper()

	doc := &doctor.Doctor{
		ID:          uuid.New(),
		Name:        "Dr. Asha Rao",
		Email:       "asha@example.com",
		Speciality:  "Dermatology",
		Fees:        500,
		Available:   true,
		BookedSlots: doctor.BookedSlots{},
	}
	pat := &patient.Patient{
		ID:    uuid.New(),
		Name:  "Ravi Kumar",
		Email: "ravi@example.com",
		Phone: "9876543210",
	}

	doctorRepo := newFakeDoctorRepo(doc)
	apptRepo := newFakeApptRepo()
	log := zap.NewNop()
	auditSvc := NewAuditService(&fakeAuditRepo{}, log, testCollector)
	t.Cleanup(auditSvc.Shutdown)
	notifier := NewNotificationService(mailer.NopSender{}, log)

	svc := NewBookingService(doctorRepo, newFakePatientRepo(pat), apptRepo,
		cache.NopSlotCache{}, notifier, auditSvc, testCollector, log)

	return &bookingFixture{
		svc:        svc,
		doctorRepo: doctorRepo,
		apptRepo:   apptRepo,
		doc:        doc,
		pat:        pat,
		user:       uuid.New(),
	}
}

func (f *bookingFixture) book(t *testing.T, dateKey, timeSlot string) (*appointment.Appointment, error) {
	t.Helper()
	return f.svc.Book(context.Background(), &BookSlotCommand{
		DoctorID:  f.doc.ID,
		PatientID: f.pat.ID,
		DateKey:   dateKey,
		TimeSlot:  timeSlot,
	}, f.user, string(domain.RolePatient), "127.0.0.1")
}

func TestBookReservesSlot(t *testing.T) {
	f := newBookingFixture(t)

	a, err := f.book(t, "5_3_2026", "10:30 AM")
	if err != nil {
		t.Fatalf("Book: %v", err)
	}

	if a.Status != appointment.StatusPending {
		t.Errorf("status = %s, want pending", a.Status)
	}
	if a.Amount != f.doc.Fees {
		t.Errorf("amount = %d, want %d", a.Amount, f.doc.Fees)
	}
	if a.Doctor.Name != f.doc.Name || a.Patient.Name != f.pat.Name {
		t.Errorf("snapshots not populated: %+v / %+v", a.Doctor, a.Patient)
	}
	want := time.Date(2026, time.March, 5, 10, 30, 0, 0, time.UTC)
	if !a.ScheduledAt.Equal(want) {
		t.Errorf("scheduled at %v, want %v", a.ScheduledAt, want)
	}

	d, _ := f.doctorRepo.GetByID(context.Background(), f.doc.ID)
	if !d.BookedSlots.Has("5_3_2026", "10:30 AM") {
		t.Error("slot not recorded in doctor's booked map")
	}
}

func TestBookRejectsTakenSlot(t *testing.T) {
	f := newBookingFixture(t)

	if _, err := f.book(t, "5_3_2026", "10:30 AM"); err != nil {
		t.Fatalf("first booking: %v", err)
	}
	if _, err := f.book(t, "5_3_2026", "10:30 AM"); !errors.Is(err, doctor.ErrSlotConflict) {
		t.Fatalf("second booking err = %v, want ErrSlotConflict", err)
	}

	// Adjacent slot on the same day stays bookable.
	if _, err := f.book(t, "5_3_2026", "11:00 AM"); err != nil {
		t.Fatalf("adjacent slot: %v", err)
	}
}

func TestBookRejectsUnavailableDoctor(t *testing.T) {
	f := newBookingFixture(t)
	f.doctorRepo.SetAvailability(context.Background(), f.doc.ID, false)

	if _, err := f.book(t, "5_3_2026", "10:30 AM"); !errors.Is(err, doctor.ErrDoctorUnavailable) {
		t.Fatalf("err = %v, want ErrDoctorUnavailable", err)
	}
}

func TestBookValidatesInput(t *testing.T) {
	f := newBookingFixture(t)

	tests := []struct {
		name     string
		dateKey  string
		timeSlot string
	}{
		{"malformed date key", "2026-03-05", "10:30 AM"},
		{"padded date key", "05_03_2026", "10:30 AM"},
		{"impossible date", "31_2_2026", "10:30 AM"},
		{"malformed time", "5_3_2026", "25:00"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.book(t, tc.dateKey, tc.timeSlot)
			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("err = %v, want ValidationError", err)
			}
		})
	}
}

func TestBookConcurrentSameSlot(t *testing.T) {
	f := newBookingFixture(t)

	const attempts = 8
	errs := make(chan error, attempts)
	var start sync.WaitGroup
	start.Add(1)
	for i := 0; i < attempts; i++ {
		go func() {
			start.Wait()
			_, err := f.book(t, "5_3_2026", "10:30 AM")
			errs <- err
		}()
	}
	start.Done()

	var booked, conflicts int
	for i := 0; i < attempts; i++ {
		switch err := <-errs; {
		case err == nil:
			booked++
		case errors.Is(err, doctor.ErrSlotConflict):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if booked != 1 || conflicts != attempts-1 {
		t.Fatalf("booked=%d conflicts=%d, want 1 and %d", booked, conflicts, attempts-1)
	}
}

func TestCancelFreesSlotForRebooking(t *testing.T) {
	f := newBookingFixture(t)

	a, err := f.book(t, "5_3_2026", "10:30 AM")
	if err != nil {
		t.Fatalf("Book: %v", err)
	}

	cancelled, err := f.svc.Cancel(context.Background(), a.ID, f.user,
		string(domain.RolePatient), &f.pat.ID, "127.0.0.1")
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if cancelled.Status != appointment.StatusCancelled {
		t.Errorf("status = %s, want cancelled", cancelled.Status)
	}
	if cancelled.CancelledAt == nil || cancelled.CancelledBy == nil {
		t.Error("cancellation metadata not recorded")
	}

	if _, err := f.book(t, "5_3_2026", "10:30 AM"); err != nil {
		t.Fatalf("rebooking freed slot: %v", err)
	}
}

func TestCancelRetriesSlotRelease(t *testing.T) {
	f := newBookingFixture(t)

	a, err := f.book(t, "5_3_2026", "10:30 AM")
	if err != nil {
		t.Fatalf("Book: %v", err)
	}

	// Two transient failures must not leave the slot leaked.
	f.doctorRepo.releaseFailures = 2
	if _, err := f.svc.Cancel(context.Background(), a.ID, f.user,
		string(domain.RolePatient), &f.pat.ID, "127.0.0.1"); err != nil {
		t.Fatalf("Cancel: %v", err)
	}

	d, _ := f.doctorRepo.GetByID(context.Background(), f.doc.ID)
	if d.BookedSlots.Has("5_3_2026", "10:30 AM") {
		t.Error("slot still held after cancel with transient release failures")
	}
	if _, err := f.book(t, "5_3_2026", "10:30 AM"); err != nil {
		t.Fatalf("rebooking after retried release: %v", err)
	}
}

func TestCancelForbiddenForOtherPatient(t *testing.T) {
	f := newBookingFixture(t)

	a, err := f.book(t, "5_3_2026", "10:30 AM")
	if err != nil {
		t.Fatalf("Book: %v", err)
	}

	stranger := uuid.New()
	_, err = f.svc.Cancel(context.Background(), a.ID, uuid.New(),
		string(domain.RolePatient), &stranger, "127.0.0.1")
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("err = %v, want ErrForbidden", err)
	}
}

func TestCancelIsTerminal(t *testing.T) {
	f := newBookingFixture(t)

	a, err := f.book(t, "5_3_2026", "10:30 AM")
	if err != nil {
		t.Fatalf("Book: %v", err)
	}
	if _, err := f.svc.Cancel(context.Background(), a.ID, f.user,
		string(domain.RolePatient), &f.pat.ID, "127.0.0.1"); err != nil {
		t.Fatalf("first cancel: %v", err)
	}

	_, err = f.svc.Cancel(context.Background(), a.ID, f.user,
		string(domain.RolePatient), &f.pat.ID, "127.0.0.1")
	if !errors.Is(err, appointment.ErrInvalidStatusTransition) {
		t.Fatalf("second cancel err = %v, want ErrInvalidStatusTransition", err)
	}
}

func TestCompleteKeepsSlotConsumed(t *testing.T) {
	f := newBookingFixture(t)

	a, err := f.book(t, "5_3_2026", "10:30 AM")
	if err != nil {
		t.Fatalf("Book: %v", err)
	}

	done, err := f.svc.Complete(context.Background(), a.ID, uuid.New(),
		string(domain.RoleDoctor), &f.doc.ID, "127.0.0.1")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if done.Status != appointment.StatusCompleted {
		t.Errorf("status = %s, want completed", done.Status)
	}

	// The slot was consumed, not freed.
	if _, err := f.book(t, "5_3_2026", "10:30 AM"); !errors.Is(err, doctor.ErrSlotConflict) {
		t.Fatalf("rebooking completed slot err = %v, want ErrSlotConflict", err)
	}

	// Completed is terminal.
	_, err = f.svc.Cancel(context.Background(), a.ID, f.user,
		string(domain.RolePatient), &f.pat.ID, "127.0.0.1")
	if !errors.Is(err, appointment.ErrInvalidStatusTransition) {
		t.Fatalf("cancel after complete err = %v, want ErrInvalidStatusTransition", err)
	}
}

func TestCompleteForbiddenForOtherDoctor(t *testing.T) {
	f := newBookingFixture(t)

	a, err := f.book(t, "5_3_2026", "10:30 AM")
	if err != nil {
		t.Fatalf("Book: %v", err)
	}

	other := uuid.New()
	_, err = f.svc.Complete(context.Background(), a.ID, uuid.New(),
		string(domain.RoleDoctor), &other, "127.0.0.1")
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("err = %v, want ErrForbidden", err)
	}
}

func TestBookReleasesSlotWhenCreateFails(t *testing.T) {
	f := newBookingFixture(t)
	f.apptRepo.failCreate = true

	if _, err := f.book(t, "5_3_2026", "10:30 AM"); err == nil {
		t.Fatal("expected error when appointment create fails")
	}

	d, _ := f.doctorRepo.GetByID(context.Background(), f.doc.ID)
	if d.BookedSlots.Has("5_3_2026", "10:30 AM") {
		t.Error("slot still held after failed booking")
	}

	f.apptRepo.failCreate = false
	if _, err := f.book(t, "5_3_2026", "10:30 AM"); err != nil {
		t.Fatalf("rebooking after failure: %v", err)
	}
}

func TestSnapshotUnaffectedByDoctorEdits(t *testing.T) {
	f := newBookingFixture(t)

	a, err := f.book(t, "5_3_2026", "10:30 AM")
	if err != nil {
		t.Fatalf("Book: %v", err)
	}

	newFees := int64(900)
	if _, err := f.doctorRepo.Update(context.Background(), f.doc.ID,
		&doctor.UpdateDoctorCommand{Fees: &newFees}); err != nil {
		t.Fatalf("Update: %v", err)
	}

	got, err := f.svc.Get(context.Background(), a.ID, string(domain.RolePatient), &f.pat.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Amount != 500 || got.Doctor.Fees != 500 {
		t.Errorf("snapshot changed after doctor edit: amount=%d fees=%d", got.Amount, got.Doctor.Fees)
	}
}

func TestAvailableSlotsExcludesBooked(t *testing.T) {
	f := newBookingFixture(t)

	now := time.Date(2026, time.March, 5, 9, 0, 0, 0, time.UTC)
	if _, err := f.book(t, "5_3_2026", "10:30 AM"); err != nil {
		t.Fatalf("Book: %v", err)
	}

	days, err := f.svc.AvailableSlots(context.Background(), f.doc.ID, now)
	if err != nil {
		t.Fatalf("AvailableSlots: %v", err)
	}
	if len(days) != 7 {
		t.Fatalf("got %d days, want 7", len(days))
	}
	for _, s := range days[0] {
		if s.Display == "10:30 AM" {
			t.Error("booked slot offered as available")
		}
	}
}

func TestListScopesPatientToOwnAppointments(t *testing.T) {
	f := newBookingFixture(t)

	if _, err := f.book(t, "5_3_2026", "10:30 AM"); err != nil {
		t.Fatalf("Book: %v", err)
	}

	other := uuid.New()
	page, err := f.svc.List(context.Background(), &appointment.ListAppointmentsQuery{},
		string(domain.RolePatient), &other)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if page.TotalCount != 0 {
		t.Errorf("stranger sees %d appointments, want 0", page.TotalCount)
	}

	page, err = f.svc.List(context.Background(), &appointment.ListAppointmentsQuery{},
		string(domain.RolePatient), &f.pat.ID)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if page.TotalCount != 1 {
		t.Errorf("owner sees %d appointments, want 1", page.TotalCount)
	}
}
