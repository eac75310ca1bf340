package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/societyhub-backend/pkg/enums"
)

// Vote is a single immutable ballot. (request_id, voter_id) is unique.
type Vote struct {
	ID        uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	RequestID uuid.UUID      `gorm:"column:request_id;type:uuid;not null"`
	VoterID   uuid.UUID      `gorm:"column:voter_id;type:uuid;not null"`
	VoteType  enums.VoteType `gorm:"column:vote_type;type:vote_type;not null"`
	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime"`
}

func (v *Vote) BeforeCreate(*gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}
