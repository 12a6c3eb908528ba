package patient

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Gender string

const (
	GenderMale        Gender = "male"
	GenderFemale      Gender = "female"
	GenderOther       Gender = "other"
	GenderNotSelected Gender = "not_selected"
)

func (g Gender) IsValid() bool {
	switch g {
	case GenderMale, GenderFemale, GenderOther, GenderNotSelected:
		return true
	}
	return false
}

type Patient struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time  `gorm:"autoCreateTime;index"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime"`
	DeletedAt *time.Time `gorm:"index"`

	Name        string     `gorm:"column:name;type:varchar(200);not null"`
	Email       string     `gorm:"column:email;type:varchar(255);uniqueIndex;not null"`
	Phone       string     `gorm:"column:phone;type:varchar(20)"`
	AddressLine string     `gorm:"column:address_line;type:text"`
	DateOfBirth *time.Time `gorm:"column:date_of_birth"`
	Gender      Gender     `gorm:"column:gender;type:varchar(20);default:'not_selected'"`
	ImageURL    string     `gorm:"column:image_url;type:text"`
}

func (Patient) TableName() string {
	return "clinical.patients"
}

func (p *Patient) DisplayName() string {
	return strings.TrimSpace(p.Name)
}

type UpdatePatientCommand struct {
	Name        *string
	Phone       *string
	AddressLine *string
	DateOfBirth *time.Time
	Gender      *Gender
	ImageURL    *string
}
