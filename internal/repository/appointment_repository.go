package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/swiftcare-health/swiftcare-api/internal/domain/appointment"
)

type AppointmentRepository struct {
	db *gorm.DB
}

func NewAppointmentRepository(db *gorm.DB) *AppointmentRepository {
	return &AppointmentRepository{db: db}
}

func (r *AppointmentRepository) Create(ctx context.Context, a *appointment.Appointment) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *AppointmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*appointment.Appointment, error) {
	var a appointment.Appointment
	if err := r.db.WithContext(ctx).First(&a, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, appointment.ErrAppointmentNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (r *AppointmentRepository) List(ctx context.Context, q *appointment.ListAppointmentsQuery) (*appointment.PagedAppointments, error) {
	tx := r.db.WithContext(ctx).Model(&appointment.Appointment{})
	if q.PatientID != nil {
		tx = tx.Where("patient_id = ?", *q.PatientID)
	}
	if q.DoctorID != nil {
		tx = tx.Where("doctor_id = ?", *q.DoctorID)
	}
	if q.Status != nil {
		tx = tx.Where("status = ?", *q.Status)
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, err
	}

	var appts []*appointment.Appointment
	offset := (q.Page - 1) * q.PageSize
	if err := tx.Order("scheduled_at DESC").Offset(offset).Limit(q.PageSize).Find(&appts).Error; err != nil {
		return nil, err
	}

	totalPages := int((total + int64(q.PageSize) - 1) / int64(q.PageSize))
	return &appointment.PagedAppointments{
		Appointments: appts,
		TotalCount:   total,
		Page:         q.Page,
		PageSize:     q.PageSize,
		TotalPages:   totalPages,
	}, nil
}

func (r *AppointmentRepository) UpdateStatus(ctx context.Context, a *appointment.Appointment) error {
	return r.db.WithContext(ctx).Model(a).
		Select("status", "cancelled_at", "cancelled_by", "completed_at").
		Updates(map[string]any{
			"status":       a.Status,
			"cancelled_at": a.CancelledAt,
			"cancelled_by": a.CancelledBy,
			"completed_at": a.CompletedAt,
		}).Error
}

func (r *AppointmentRepository) MarkPaid(ctx context.Context, id uuid.UUID, orderID string) error {
	res := r.db.WithContext(ctx).Model(&appointment.Appointment{}).Where("id = ?", id).
		Updates(map[string]any{"paid": true, "payment_order_id": orderID})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return appointment.ErrAppointmentNotFound
	}
	return nil
}

func (r *AppointmentRepository) GetUpcoming(ctx context.Context, from time.Time, horizon time.Duration) ([]*appointment.Appointment, error) {
	var appts []*appointment.Appointment
	err := r.db.WithContext(ctx).
		Where("status = ?", appointment.StatusPending).
		Where("reminder_sent = ?", false).
		Where("scheduled_at BETWEEN ? AND ?", from, from.Add(horizon)).
		Order("scheduled_at").
		Find(&appts).Error
	if err != nil {
		return nil, err
	}
	return appts, nil
}

func (r *AppointmentRepository) MarkReminded(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&appointment.Appointment{}).Where("id = ?", id).
		Update("reminder_sent", true).Error
}

func (r *AppointmentRepository) CountByStatus(ctx context.Context) (map[appointment.Status]int64, error) {
	type row struct {
		Status appointment.Status
		Count  int64
	}
	var rows []row
	err := r.db.WithContext(ctx).Model(&appointment.Appointment{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[appointment.Status]int64, len(rows))
	for _, r := range rows {
		counts[r.Status] = r.Count
	}
	return counts, nil
}
