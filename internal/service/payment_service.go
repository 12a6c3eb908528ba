package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/swiftcare-health/swiftcare-api/internal/domain"
	"github.com/swiftcare-health/swiftcare-api/internal/domain/appointment"
	"github.com/swiftcare-health/swiftcare-api/pkg/payment"
)

// ErrPaymentMismatch means the gateway order was created for a different
// appointment than the one being verified.
var ErrPaymentMismatch = errors.New("payment order does not belong to this appointment")

// PaymentService drives the narrow payment flow: create a gateway order for a
// pending appointment, then verify and record the payment. Gateway mechanics
// stay behind payment.Gateway.
type PaymentService struct {
	apptRepo appointment.Repository
	gateway  payment.Gateway
	auditSvc *AuditService
	log      *zap.Logger
}

func NewPaymentService(apptRepo appointment.Repository, gateway payment.Gateway, auditSvc *AuditService, log *zap.Logger) *PaymentService {
	return &PaymentService{apptRepo: apptRepo, gateway: gateway, auditSvc: auditSvc, log: log}
}

// CreateOrder starts payment for an appointment owned by the caller.
func (s *PaymentService) CreateOrder(ctx context.Context, appointmentID uuid.UUID, callerPatientID *uuid.UUID) (string, error) {
	a, err := s.apptRepo.GetByID(ctx, appointmentID)
	if err != nil {
		return "", err
	}
	if callerPatientID == nil || *callerPatientID != a.PatientID {
		return "", ErrForbidden
	}
	if a.Status == appointment.StatusCancelled {
		return "", appointment.ErrNotPayable
	}
	if a.Paid {
		return "", appointment.ErrAlreadyPaid
	}

	orderID, err := s.gateway.CreateOrder(a.Amount, a.ID.String())
	if err != nil {
		return "", fmt.Errorf("creating payment order: %w", err)
	}

	s.log.Info("payment order created",
		zap.String("appointment_id", a.ID.String()),
		zap.String("order_id", orderID),
	)
	return orderID, nil
}

// VerifyOrder confirms payment with the gateway and marks the appointment paid.
// The order's receipt must name this appointment: a paid order created for one
// appointment cannot be replayed to settle another.
func (s *PaymentService) VerifyOrder(ctx context.Context, appointmentID uuid.UUID, orderID string, callerID uuid.UUID, callerPatientID *uuid.UUID, ip string) error {
	a, err := s.apptRepo.GetByID(ctx, appointmentID)
	if err != nil {
		return err
	}
	if callerPatientID == nil || *callerPatientID != a.PatientID {
		return ErrForbidden
	}
	if a.Paid {
		return appointment.ErrAlreadyPaid
	}

	paid, receipt, err := s.gateway.FetchOrderStatus(orderID)
	if err != nil {
		return fmt.Errorf("verifying payment order: %w", err)
	}
	if !paid {
		return fmt.Errorf("payment order %s is not paid", orderID)
	}
	if receipt != a.ID.String() {
		return ErrPaymentMismatch
	}

	if err := s.apptRepo.MarkPaid(ctx, appointmentID, orderID); err != nil {
		return fmt.Errorf("recording payment: %w", err)
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID:       callerID,
		UserRole:     string(domain.RolePatient),
		Action:       "update",
		ResourceType: "appointment",
		ResourceID:   appointmentID.String(),
		IPAddress:    ip,
		Changes:      fmt.Sprintf(`{"paid":true,"order_id":"%s"}`, orderID),
	})

	return nil
}
