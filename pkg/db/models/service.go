package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Service is one entry of the catalogue providers offer, such as plumbing.
type Service struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name        string    `gorm:"column:name;not null;uniqueIndex"`
	Description *string   `gorm:"column:description"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (s *Service) BeforeCreate(*gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// ServiceProviderService links a provider to a service it offers.
type ServiceProviderService struct {
	ServiceProviderID uuid.UUID `gorm:"column:service_provider_id;type:uuid;primaryKey"`
	ServiceID         uuid.UUID `gorm:"column:service_id;type:uuid;primaryKey"`
}

func (ServiceProviderService) TableName() string { return "service_provider_services" }
