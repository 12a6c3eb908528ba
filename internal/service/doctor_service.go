package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/swiftcare-health/swiftcare-api/internal/domain"
	"github.com/swiftcare-health/swiftcare-api/internal/domain/doctor"
)

type DoctorService struct {
	repo     doctor.Repository
	userRepo UserRepository
	auditSvc *AuditService
	log      *zap.Logger
}

func NewDoctorService(repo doctor.Repository, userRepo UserRepository, auditSvc *AuditService, log *zap.Logger) *DoctorService {
	return &DoctorService{repo: repo, userRepo: userRepo, auditSvc: auditSvc, log: log}
}

// AddDoctor creates the doctor record and its login. Admin only; the handler
// enforces the role, the audit entry records who did it.
func (s *DoctorService) AddDoctor(ctx context.Context, cmd *doctor.CreateDoctorCommand, callerID uuid.UUID, ip string) (*doctor.Doctor, error) {
	var fields []string
	if cmd.Name == "" {
		fields = append(fields, "name is required")
	}
	if cmd.Email == "" {
		fields = append(fields, "email is required")
	}
	if cmd.Speciality == "" {
		fields = append(fields, "speciality is required")
	}
	if cmd.Fees <= 0 {
		fields = append(fields, "fees must be positive")
	}
	if len(cmd.Password) < 8 {
		fields = append(fields, "password must be at least 8 characters")
	}
	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cmd.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	d := &doctor.Doctor{
		Name:        cmd.Name,
		Email:       cmd.Email,
		Speciality:  cmd.Speciality,
		Degree:      cmd.Degree,
		Experience:  cmd.Experience,
		About:       cmd.About,
		Fees:        cmd.Fees,
		Address:     cmd.Address,
		ImageURL:    cmd.ImageURL,
		Available:   true,
		BookedSlots: doctor.BookedSlots{},
	}
	if err := s.repo.Create(ctx, d); err != nil {
		return nil, err
	}

	u := &domain.User{
		Email:        cmd.Email,
		PasswordHash: string(hash),
		Name:         cmd.Name,
		Role:         domain.RoleDoctor,
		DoctorID:     &d.ID,
		IsActive:     true,
	}
	if err := s.userRepo.Create(ctx, u); err != nil {
		if errors.Is(err, domain.ErrDuplicateEmail) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("creating doctor login: %w", err)
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID:       callerID,
		UserRole:     string(domain.RoleAdmin),
		Action:       "create",
		ResourceType: "doctor",
		ResourceID:   d.ID.String(),
		IPAddress:    ip,
	})

	s.log.Info("doctor added", zap.String("doctor_id", d.ID.String()))
	return d, nil
}

func (s *DoctorService) GetDoctor(ctx context.Context, id uuid.UUID) (*doctor.Doctor, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *DoctorService) ListDoctors(ctx context.Context, q *doctor.ListDoctorsQuery) ([]*doctor.Doctor, error) {
	return s.repo.List(ctx, q)
}

// ChangeAvailability flips whether the doctor accepts new bookings. Doctors
// may only change their own flag; admins may change anyone's.
func (s *DoctorService) ChangeAvailability(ctx context.Context, id uuid.UUID, available bool, callerRole string, callerDoctorID *uuid.UUID, callerID uuid.UUID, ip string) error {
	if callerRole == string(domain.RoleDoctor) {
		if callerDoctorID == nil || *callerDoctorID != id {
			return ErrForbidden
		}
	} else if callerRole != string(domain.RoleAdmin) {
		return ErrForbidden
	}

	if err := s.repo.SetAvailability(ctx, id, available); err != nil {
		return err
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID:       callerID,
		UserRole:     callerRole,
		Action:       "update",
		ResourceType: "doctor",
		ResourceID:   id.String(),
		IPAddress:    ip,
		Changes:      fmt.Sprintf(`{"available":%t}`, available),
	})

	return nil
}

// UpdateProfile applies partial edits to a doctor's own profile.
func (s *DoctorService) UpdateProfile(ctx context.Context, id uuid.UUID, cmd *doctor.UpdateDoctorCommand, callerRole string, callerDoctorID *uuid.UUID) (*doctor.Doctor, error) {
	if callerRole == string(domain.RoleDoctor) {
		if callerDoctorID == nil || *callerDoctorID != id {
			return nil, ErrForbidden
		}
	} else if callerRole != string(domain.RoleAdmin) {
		return nil, ErrForbidden
	}
	return s.repo.Update(ctx, id, cmd)
}
