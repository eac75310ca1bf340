package voting

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/societyhub-backend/internal/repo"
	"github.com/angelmondragon/societyhub-backend/pkg/db/models"
	"github.com/angelmondragon/societyhub-backend/pkg/enums"
)

// Repository persists voting requests.
type Repository struct {
	base repo.Base
}

// NewRepository returns the voting_requests store bound to db.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{base: repo.NewBase(db)}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{base: r.base.Bind(tx)}
}

// Create inserts req. A second pending request for the same subject fails
// with a unique violation from the partial indexes.
func (r *Repository) Create(ctx context.Context, req *models.VotingRequest) error {
	return r.base.DB(ctx).Create(req).Error
}

// FindByID returns gorm.ErrRecordNotFound for unknown ids.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.VotingRequest, error) {
	var req models.VotingRequest
	if err := r.base.DB(ctx).Where("id = ?", id).Take(&req).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

// CompareAndSetStatus moves a pending request to status. It reports false when
// another writer already moved the request out of pending.
func (r *Repository) CompareAndSetStatus(ctx context.Context, id uuid.UUID, status enums.VotingRequestStatus, at time.Time) (bool, error) {
	res := r.base.DB(ctx).
		Model(&models.VotingRequest{}).
		Where("id = ? AND status = ?", id, enums.VotingRequestStatusPending).
		Updates(map[string]any{
			"status":     status,
			"updated_at": at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// ListPendingInSocieties returns pending requests of the given societies that
// someone other than excludeInitiator created, newest first.
func (r *Repository) ListPendingInSocieties(ctx context.Context, societyIDs []uuid.UUID, excludeInitiator uuid.UUID) ([]models.VotingRequest, error) {
	if len(societyIDs) == 0 {
		return []models.VotingRequest{}, nil
	}
	var rows []models.VotingRequest
	err := r.base.DB(ctx).
		Where("society_id IN ? AND status = ? AND initiated_by_id <> ?",
			societyIDs, enums.VotingRequestStatusPending, excludeInitiator).
		Order("created_at DESC").
		Order("id DESC").
		Find(&rows).Error
	return rows, err
}

// ListByInitiator returns every request the user opened, newest first.
func (r *Repository) ListByInitiator(ctx context.Context, userID uuid.UUID) ([]models.VotingRequest, error) {
	var rows []models.VotingRequest
	err := r.base.DB(ctx).
		Where("initiated_by_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&rows).Error
	return rows, err
}

// ListPendingByInitiator returns the user's requests still marked pending,
// including ones whose window has lapsed but were not yet evaluated.
func (r *Repository) ListPendingByInitiator(ctx context.Context, userID uuid.UUID) ([]models.VotingRequest, error) {
	var rows []models.VotingRequest
	err := r.base.DB(ctx).
		Where("initiated_by_id = ? AND status = ?", userID, enums.VotingRequestStatusPending).
		Find(&rows).Error
	return rows, err
}

// HasPendingResidentJoin checks system-wide: a resident may hold one open join request.
func (r *Repository) HasPendingResidentJoin(ctx context.Context, userID uuid.UUID) (bool, error) {
	var count int64
	err := r.base.DB(ctx).
		Model(&models.VotingRequest{}).
		Where("request_type = ? AND resident_user_id = ? AND status = ?",
			enums.VotingRequestTypeResidentJoin, userID, enums.VotingRequestStatusPending).
		Count(&count).Error
	return count > 0, err
}

// HasPendingProviderList checks per society.
func (r *Repository) HasPendingProviderList(ctx context.Context, providerID, societyID uuid.UUID) (bool, error) {
	var count int64
	err := r.base.DB(ctx).
		Model(&models.VotingRequest{}).
		Where("request_type = ? AND service_provider_id = ? AND society_id = ? AND status = ?",
			enums.VotingRequestTypeProviderList, providerID, societyID, enums.VotingRequestStatusPending).
		Count(&count).Error
	return count > 0, err
}

// ListStalePending returns pending requests whose window closed before now, oldest first.
func (r *Repository) ListStalePending(ctx context.Context, now time.Time, limit int) ([]models.VotingRequest, error) {
	var rows []models.VotingRequest
	query := r.base.DB(ctx).
		Where("status = ? AND expiry_time < ?", enums.VotingRequestStatusPending, now).
		Order("expiry_time ASC").
		Order("id ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&rows).Error
	return rows, err
}
