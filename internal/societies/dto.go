package societies

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/societyhub-backend/pkg/db/models"
)

type SocietyItem struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	Address       string    `json:"address"`
	ResidentCount int64     `json:"resident_count"`
	CreatedAt     time.Time `json:"created_at"`
}

// ProviderItem is the public card of an approved provider.
type ProviderItem struct {
	ID          uuid.UUID     `json:"id"`
	Name        string        `json:"name"`
	ContactInfo *string       `json:"contact_info,omitempty"`
	BriefNote   *string       `json:"brief_note,omitempty"`
	Services    []ServiceItem `json:"services"`
}

type ServiceItem struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
}

// ServiceCategoryItem is a service with the number of approved providers
// offering it in one society.
type ServiceCategoryItem struct {
	ID                    uuid.UUID `json:"id"`
	Name                  string    `json:"name"`
	ApprovedProviderCount int64     `json:"approved_provider_count"`
}

type societyRow struct {
	ID            uuid.UUID
	Name          string
	Address       string
	ResidentCount int64
	CreatedAt     time.Time
}

func toSocietyItem(row societyRow) SocietyItem {
	return SocietyItem(row)
}

func toProviderItem(m models.ServiceProvider) ProviderItem {
	return ProviderItem{
		ID:          m.ID,
		Name:        m.Name,
		ContactInfo: m.ContactInfo,
		BriefNote:   m.BriefNote,
		Services:    []ServiceItem{},
	}
}

func toServiceItem(m models.Service) ServiceItem {
	return ServiceItem{ID: m.ID, Name: m.Name, Description: m.Description}
}
