package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Profile marks a user as a resident.
type Profile struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID      uuid.UUID `gorm:"column:user_id;type:uuid;not null;uniqueIndex"`
	PhoneNumber *string   `gorm:"column:phone_number"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Profile) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// ProfileSociety is one row of a resident's society set.
type ProfileSociety struct {
	ProfileID uuid.UUID `gorm:"column:profile_id;type:uuid;primaryKey"`
	SocietyID uuid.UUID `gorm:"column:society_id;type:uuid;primaryKey"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (ProfileSociety) TableName() string { return "profile_societies" }
