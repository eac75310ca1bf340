package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ServiceProvider is a business owned by a user that can be listed in societies.
type ServiceProvider struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID      uuid.UUID `gorm:"column:user_id;type:uuid;not null;uniqueIndex"`
	Name        string    `gorm:"column:name;not null"`
	ContactInfo *string   `gorm:"column:contact_info"`
	BriefNote   *string   `gorm:"column:brief_note"`
	IsApproved  bool      `gorm:"column:is_approved;not null;default:false"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *ServiceProvider) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// ServiceProviderSociety is one row of a provider's listing set.
type ServiceProviderSociety struct {
	ServiceProviderID uuid.UUID `gorm:"column:service_provider_id;type:uuid;primaryKey"`
	SocietyID         uuid.UUID `gorm:"column:society_id;type:uuid;primaryKey"`
	CreatedAt         time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (ServiceProviderSociety) TableName() string { return "service_provider_societies" }
