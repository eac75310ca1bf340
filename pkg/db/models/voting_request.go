package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/societyhub-backend/pkg/enums"
)

// VotingRequest tracks a resident join or provider listing through community voting.
type VotingRequest struct {
	ID                uuid.UUID                 `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	RequestType       enums.VotingRequestType   `gorm:"column:request_type;type:voting_request_type;not null"`
	SocietyID         uuid.UUID                 `gorm:"column:society_id;type:uuid;not null"`
	InitiatedByID     uuid.UUID                 `gorm:"column:initiated_by_id;type:uuid;not null"`
	ResidentUserID    *uuid.UUID                `gorm:"column:resident_user_id;type:uuid"`
	ServiceProviderID *uuid.UUID                `gorm:"column:service_provider_id;type:uuid"`
	Status            enums.VotingRequestStatus `gorm:"column:status;type:voting_request_status;not null;default:'pending'"`
	CreatedAt         time.Time                 `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time                 `gorm:"column:updated_at;autoUpdateTime"`
	ExpiryTime        time.Time                 `gorm:"column:expiry_time;not null"`
}

func (r *VotingRequest) BeforeCreate(*gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// IsPastExpiry reports whether now is strictly after the request's expiry time.
func (r *VotingRequest) IsPastExpiry(now time.Time) bool {
	return now.After(r.ExpiryTime)
}
