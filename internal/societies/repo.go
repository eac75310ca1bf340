package societies

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/societyhub-backend/internal/repo"
	"github.com/angelmondragon/societyhub-backend/pkg/db/models"
	"github.com/angelmondragon/societyhub-backend/pkg/enums"
	"github.com/angelmondragon/societyhub-backend/pkg/pagination"
)

const residentCountSelect = "societies.id, societies.name, societies.address, societies.created_at, " +
	"(SELECT COUNT(*) FROM profile_societies ps WHERE ps.society_id = societies.id) AS resident_count"

type Repository struct {
	base repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{base: repo.NewBase(db)}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{base: r.base.Bind(tx)}
}

// Get returns gorm.ErrRecordNotFound for unknown ids.
func (r *Repository) Get(ctx context.Context, id uuid.UUID) (*models.Society, error) {
	var society models.Society
	if err := r.base.DB(ctx).Where("id = ?", id).Take(&society).Error; err != nil {
		return nil, err
	}
	return &society, nil
}

func (r *Repository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	err := r.base.DB(ctx).Model(&models.Society{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

type listQuery struct {
	limit  int
	cursor *pagination.Cursor
}

// List pages through societies newest first.
func (r *Repository) List(ctx context.Context, opts listQuery) ([]societyRow, error) {
	query := r.base.DB(ctx).Model(&models.Society{}).Select(residentCountSelect)
	if opts.cursor != nil {
		query = query.Where("(societies.created_at < ?) OR (societies.created_at = ? AND societies.id < ?)",
			opts.cursor.CreatedAt, opts.cursor.CreatedAt, opts.cursor.ID)
	}

	var rows []societyRow
	err := query.Order("societies.created_at DESC").Order("societies.id DESC").Limit(opts.limit).Scan(&rows).Error
	return rows, err
}

// ListExcludingProfile returns societies the profile is not a member of.
func (r *Repository) ListExcludingProfile(ctx context.Context, profileID uuid.UUID) ([]societyRow, error) {
	db := r.base.DB(ctx)
	joined := db.Session(&gorm.Session{NewDB: true}).
		Model(&models.ProfileSociety{}).
		Select("society_id").
		Where("profile_id = ?", profileID)

	var rows []societyRow
	err := db.Model(&models.Society{}).
		Select(residentCountSelect).
		Where("societies.id NOT IN (?)", joined).
		Order("societies.name ASC").
		Scan(&rows).Error
	return rows, err
}

// ListOpenToProvider returns societies where the provider is neither listed nor
// waiting on a pending listing vote.
func (r *Repository) ListOpenToProvider(ctx context.Context, providerID uuid.UUID) ([]societyRow, error) {
	db := r.base.DB(ctx)
	listed := db.Session(&gorm.Session{NewDB: true}).
		Model(&models.ServiceProviderSociety{}).
		Select("society_id").
		Where("service_provider_id = ?", providerID)
	pending := db.Session(&gorm.Session{NewDB: true}).
		Model(&models.VotingRequest{}).
		Select("society_id").
		Where("service_provider_id = ? AND request_type = ? AND status = ?",
			providerID, enums.VotingRequestTypeProviderList, enums.VotingRequestStatusPending)

	var rows []societyRow
	err := db.Model(&models.Society{}).
		Select(residentCountSelect).
		Where("societies.id NOT IN (?)", listed).
		Where("societies.id NOT IN (?)", pending).
		Order("societies.name ASC").
		Scan(&rows).Error
	return rows, err
}

// ApprovedProviders lists approved providers listed in the society, by name.
// A non-nil serviceID keeps only providers offering that service.
func (r *Repository) ApprovedProviders(ctx context.Context, societyID uuid.UUID, serviceID *uuid.UUID) ([]models.ServiceProvider, error) {
	query := r.base.DB(ctx).
		Model(&models.ServiceProvider{}).
		Joins("JOIN service_provider_societies sps ON sps.service_provider_id = service_providers.id").
		Where("sps.society_id = ? AND service_providers.is_approved = ?", societyID, true)
	if serviceID != nil {
		query = query.
			Joins("JOIN service_provider_services sv ON sv.service_provider_id = service_providers.id").
			Where("sv.service_id = ?", *serviceID)
	}

	var providers []models.ServiceProvider
	err := query.Order("service_providers.name ASC").Find(&providers).Error
	return providers, err
}

type providerServiceRow struct {
	ServiceProviderID uuid.UUID
	ID                uuid.UUID
	Name              string
}

// ProviderServices returns the catalogue entries offered by the given providers.
func (r *Repository) ProviderServices(ctx context.Context, providerIDs []uuid.UUID) ([]providerServiceRow, error) {
	if len(providerIDs) == 0 {
		return nil, nil
	}
	var rows []providerServiceRow
	err := r.base.DB(ctx).
		Model(&models.Service{}).
		Select("sv.service_provider_id, services.id, services.name").
		Joins("JOIN service_provider_services sv ON sv.service_id = services.id").
		Where("sv.service_provider_id IN ?", providerIDs).
		Order("services.name ASC").
		Scan(&rows).Error
	return rows, err
}

// ListServices returns the whole catalogue by name.
func (r *Repository) ListServices(ctx context.Context) ([]models.Service, error) {
	var services []models.Service
	err := r.base.DB(ctx).Order("name ASC").Find(&services).Error
	return services, err
}

type serviceCountRow struct {
	ID                    uuid.UUID
	Name                  string
	ApprovedProviderCount int64
}

// ServiceCategoriesWithCounts counts, per service, the approved providers
// listed in the society. Services nobody there offers are left out.
func (r *Repository) ServiceCategoriesWithCounts(ctx context.Context, societyID uuid.UUID) ([]serviceCountRow, error) {
	var rows []serviceCountRow
	err := r.base.DB(ctx).
		Model(&models.Service{}).
		Select("services.id, services.name, COUNT(DISTINCT service_providers.id) AS approved_provider_count").
		Joins("JOIN service_provider_services sv ON sv.service_id = services.id").
		Joins("JOIN service_providers ON service_providers.id = sv.service_provider_id").
		Joins("JOIN service_provider_societies sps ON sps.service_provider_id = service_providers.id").
		Where("sps.society_id = ? AND service_providers.is_approved = ?", societyID, true).
		Group("services.id, services.name").
		Having("COUNT(DISTINCT service_providers.id) > 0").
		Order("services.name ASC").
		Scan(&rows).Error
	return rows, err
}
