package service

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/swiftcare-health/swiftcare-api/internal/domain"
	"github.com/swiftcare-health/swiftcare-api/internal/domain/patient"
)

type PatientService struct {
	repo patient.Repository
	log  *zap.Logger
}

func NewPatientService(repo patient.Repository, log *zap.Logger) *PatientService {
	return &PatientService{repo: repo, log: log}
}

// GetProfile returns a patient record. Patients may only read their own.
func (s *PatientService) GetProfile(ctx context.Context, id uuid.UUID, callerRole string, callerPatientID *uuid.UUID) (*patient.Patient, error) {
	if callerRole == string(domain.RolePatient) {
		if callerPatientID == nil || *callerPatientID != id {
			return nil, ErrForbidden
		}
	}
	return s.repo.GetByID(ctx, id)
}

// UpdateProfile applies partial edits to the caller's own record.
func (s *PatientService) UpdateProfile(ctx context.Context, id uuid.UUID, cmd *patient.UpdatePatientCommand, callerPatientID *uuid.UUID) (*patient.Patient, error) {
	if callerPatientID == nil || *callerPatientID != id {
		return nil, ErrForbidden
	}
	if cmd.Gender != nil && !cmd.Gender.IsValid() {
		return nil, patient.ErrInvalidGender
	}
	return s.repo.Update(ctx, id, cmd)
}
