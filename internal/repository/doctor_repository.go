package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/swiftcare-health/swiftcare-api/internal/domain/doctor"
)

type DoctorRepository struct {
	db *gorm.DB
}

func NewDoctorRepository(db *gorm.DB) *DoctorRepository {
	return &DoctorRepository{db: db}
}

func (r *DoctorRepository) Create(ctx context.Context, d *doctor.Doctor) error {
	if d.BookedSlots == nil {
		d.BookedSlots = doctor.BookedSlots{}
	}
	if err := r.db.WithContext(ctx).Create(d).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return doctor.ErrDoctorAlreadyExists
		}
		return err
	}
	return nil
}

func (r *DoctorRepository) GetByID(ctx context.Context, id uuid.UUID) (*doctor.Doctor, error) {
	var d doctor.Doctor
	if err := r.db.WithContext(ctx).First(&d, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, doctor.ErrDoctorNotFound
		}
		return nil, err
	}
	return &d, nil
}

func (r *DoctorRepository) List(ctx context.Context, q *doctor.ListDoctorsQuery) ([]*doctor.Doctor, error) {
	tx := r.db.WithContext(ctx).Model(&doctor.Doctor{})
	if q.Speciality != "" {
		tx = tx.Where("speciality = ?", q.Speciality)
	}
	if q.OnlyAvailable {
		tx = tx.Where("available = ?", true)
	}

	var doctors []*doctor.Doctor
	if err := tx.Order("name").Find(&doctors).Error; err != nil {
		return nil, err
	}
	return doctors, nil
}

func (r *DoctorRepository) Update(ctx context.Context, id uuid.UUID, cmd *doctor.UpdateDoctorCommand) (*doctor.Doctor, error) {
	updates := map[string]any{}
	if cmd.Fees != nil {
		updates["fees"] = *cmd.Fees
	}
	if cmd.Address != nil {
		updates["address"] = *cmd.Address
	}
	if cmd.About != nil {
		updates["about"] = *cmd.About
	}
	if cmd.Available != nil {
		updates["available"] = *cmd.Available
	}

	if len(updates) > 0 {
		res := r.db.WithContext(ctx).Model(&doctor.Doctor{}).Where("id = ?", id).Updates(updates)
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected == 0 {
			return nil, doctor.ErrDoctorNotFound
		}
	}
	return r.GetByID(ctx, id)
}

func (r *DoctorRepository) SetAvailability(ctx context.Context, id uuid.UUID, available bool) error {
	res := r.db.WithContext(ctx).Model(&doctor.Doctor{}).Where("id = ?", id).Update("available", available)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return doctor.ErrDoctorNotFound
	}
	return nil
}

// ReserveSlot runs the conflict check and the reservation write in one
// transaction holding a row lock on the doctor. The lock serializes concurrent
// reservations per doctor across all serving processes, so at most one caller
// ever sees the slot as free.
func (r *DoctorRepository) ReserveSlot(ctx context.Context, id uuid.UUID, dateKey, timeStr string) (*doctor.Doctor, error) {
	var d doctor.Doctor
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&d, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return doctor.ErrDoctorNotFound
			}
			return err
		}

		if !d.Available {
			return doctor.ErrDoctorUnavailable
		}

		if d.BookedSlots == nil {
			d.BookedSlots = doctor.BookedSlots{}
		}
		if !d.BookedSlots.Reserve(dateKey, timeStr) {
			return doctor.ErrSlotConflict
		}

		return tx.Model(&doctor.Doctor{}).Where("id = ?", id).
			Update("booked_slots", d.BookedSlots).Error
	})
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *DoctorRepository) ReleaseSlot(ctx context.Context, id uuid.UUID, dateKey, timeStr string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var d doctor.Doctor
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&d, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return doctor.ErrDoctorNotFound
			}
			return err
		}

		if !d.BookedSlots.Has(dateKey, timeStr) {
			return nil
		}
		d.BookedSlots.Release(dateKey, timeStr)

		return tx.Model(&doctor.Doctor{}).Where("id = ?", id).
			Update("booked_slots", d.BookedSlots).Error
	})
}
