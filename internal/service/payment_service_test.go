package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/swiftcare-health/swiftcare-api/internal/domain/appointment"
)

type fakeOrder struct {
	receipt string
	paid    bool
}

type fakeGateway struct {
	mu     sync.Mutex
	orders map[string]*fakeOrder
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{orders: make(map[string]*fakeOrder)}
}

func (g *fakeGateway) CreateOrder(_ int64, receipt string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	orderID := fmt.Sprintf("order_%d", len(g.orders)+1)
	g.orders[orderID] = &fakeOrder{receipt: receipt}
	return orderID, nil
}

func (g *fakeGateway) FetchOrderStatus(orderID string) (bool, string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	o, ok := g.orders[orderID]
	if !ok {
		return false, "", errors.New("order not found")
	}
	return o.paid, o.receipt, nil
}

func (g *fakeGateway) settle(orderID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.orders[orderID].paid = true
}

type paymentFixture struct {
	svc      *PaymentService
	gateway  *fakeGateway
	apptRepo *fakeApptRepo
}

func newPaymentFixture(t *testing.T) *paymentFixture {
	t.Helper()
	gateway := newFakeGateway()
	apptRepo := newFakeApptRepo()
	auditSvc := NewAuditService(&fakeAuditRepo{}, zap.NewNop(), testCollector)
	t.Cleanup(auditSvc.Shutdown)
	return &paymentFixture{
		svc:      NewPaymentService(apptRepo, gateway, auditSvc, zap.NewNop()),
		gateway:  gateway,
		apptRepo: apptRepo,
	}
}

func (f *paymentFixture) appointment(t *testing.T, patientID uuid.UUID, amount int64) *appointment.Appointment {
	t.Helper()
	a := &appointment.Appointment{
		PatientID: patientID,
		DoctorID:  uuid.New(),
		DateKey:   "5_3_2026",
		TimeSlot:  "10:30 AM",
		Amount:    amount,
		Status:    appointment.StatusPending,
	}
	if err := f.apptRepo.Create(context.Background(), a); err != nil {
		t.Fatalf("creating appointment: %v", err)
	}
	return a
}

func TestCreateOrderOwnerOnly(t *testing.T) {
	f := newPaymentFixture(t)
	owner := uuid.New()
	a := f.appointment(t, owner, 500)

	stranger := uuid.New()
	if _, err := f.svc.CreateOrder(context.Background(), a.ID, &stranger); !errors.Is(err, ErrForbidden) {
		t.Fatalf("stranger err = %v, want ErrForbidden", err)
	}
	if _, err := f.svc.CreateOrder(context.Background(), a.ID, nil); !errors.Is(err, ErrForbidden) {
		t.Fatalf("nil patient err = %v, want ErrForbidden", err)
	}

	orderID, err := f.svc.CreateOrder(context.Background(), a.ID, &owner)
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	if orderID == "" {
		t.Fatal("empty order id")
	}
}

func TestCreateOrderRejectsCancelledAndPaid(t *testing.T) {
	f := newPaymentFixture(t)
	owner := uuid.New()

	cancelled := f.appointment(t, owner, 500)
	cancelled.Status = appointment.StatusCancelled
	if err := f.apptRepo.UpdateStatus(context.Background(), cancelled); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if _, err := f.svc.CreateOrder(context.Background(), cancelled.ID, &owner); !errors.Is(err, appointment.ErrNotPayable) {
		t.Fatalf("cancelled err = %v, want ErrNotPayable", err)
	}

	paid := f.appointment(t, owner, 500)
	if err := f.apptRepo.MarkPaid(context.Background(), paid.ID, "order_x"); err != nil {
		t.Fatalf("MarkPaid: %v", err)
	}
	if _, err := f.svc.CreateOrder(context.Background(), paid.ID, &owner); !errors.Is(err, appointment.ErrAlreadyPaid) {
		t.Fatalf("paid err = %v, want ErrAlreadyPaid", err)
	}
}

func TestVerifyOrderMarksPaid(t *testing.T) {
	f := newPaymentFixture(t)
	owner := uuid.New()
	a := f.appointment(t, owner, 500)

	orderID, err := f.svc.CreateOrder(context.Background(), a.ID, &owner)
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}

	// Verification before the gateway settles must not mark anything paid.
	if err := f.svc.VerifyOrder(context.Background(), a.ID, orderID, uuid.New(), &owner, "127.0.0.1"); err == nil {
		t.Fatal("unpaid order verified")
	}

	f.gateway.settle(orderID)
	if err := f.svc.VerifyOrder(context.Background(), a.ID, orderID, uuid.New(), &owner, "127.0.0.1"); err != nil {
		t.Fatalf("VerifyOrder: %v", err)
	}

	got, _ := f.apptRepo.GetByID(context.Background(), a.ID)
	if !got.Paid || got.PaymentOrderID != orderID {
		t.Errorf("paid=%t order=%q after verify", got.Paid, got.PaymentOrderID)
	}

	// A second verify of the same appointment is rejected.
	if err := f.svc.VerifyOrder(context.Background(), a.ID, orderID, uuid.New(), &owner, "127.0.0.1"); !errors.Is(err, appointment.ErrAlreadyPaid) {
		t.Errorf("re-verify err = %v, want ErrAlreadyPaid", err)
	}
}

func TestVerifyOrderRejectsForeignOrder(t *testing.T) {
	f := newPaymentFixture(t)

	cheapOwner := uuid.New()
	cheap := f.appointment(t, cheapOwner, 100)
	expensiveOwner := uuid.New()
	expensive := f.appointment(t, expensiveOwner, 5000)

	orderID, err := f.svc.CreateOrder(context.Background(), cheap.ID, &cheapOwner)
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	f.gateway.settle(orderID)

	// An order settled for one appointment cannot settle another.
	err = f.svc.VerifyOrder(context.Background(), expensive.ID, orderID, uuid.New(), &expensiveOwner, "127.0.0.1")
	if !errors.Is(err, ErrPaymentMismatch) {
		t.Fatalf("err = %v, want ErrPaymentMismatch", err)
	}

	got, _ := f.apptRepo.GetByID(context.Background(), expensive.ID)
	if got.Paid {
		t.Error("appointment marked paid by an order created for another appointment")
	}
}

func TestVerifyOrderOwnerOnly(t *testing.T) {
	f := newPaymentFixture(t)
	owner := uuid.New()
	a := f.appointment(t, owner, 500)

	orderID, err := f.svc.CreateOrder(context.Background(), a.ID, &owner)
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	f.gateway.settle(orderID)

	stranger := uuid.New()
	if err := f.svc.VerifyOrder(context.Background(), a.ID, orderID, uuid.New(), &stranger, "127.0.0.1"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("stranger err = %v, want ErrForbidden", err)
	}

	got, _ := f.apptRepo.GetByID(context.Background(), a.ID)
	if got.Paid {
		t.Error("appointment marked paid by a caller who does not own it")
	}
}
