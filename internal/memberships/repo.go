package memberships

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/societyhub-backend/internal/repo"
	"github.com/angelmondragon/societyhub-backend/pkg/db/models"
)

// Repository reads resident profiles and service providers and mutates their
// society sets.
type Repository struct {
	base repo.Base
}

// NewRepository binds the repo to the provided GORM connection.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{base: repo.NewBase(db)}
}

// WithTx returns a repository running on tx.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{base: r.base.Bind(tx)}
}

// FindProfileByUserID returns gorm.ErrRecordNotFound when the user is not a resident.
func (r *Repository) FindProfileByUserID(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	var profile models.Profile
	if err := r.base.DB(ctx).Where("user_id = ?", userID).Take(&profile).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

// FindProviderByUserID returns gorm.ErrRecordNotFound when the user owns no provider.
func (r *Repository) FindProviderByUserID(ctx context.Context, userID uuid.UUID) (*models.ServiceProvider, error) {
	var provider models.ServiceProvider
	if err := r.base.DB(ctx).Where("user_id = ?", userID).Take(&provider).Error; err != nil {
		return nil, err
	}
	return &provider, nil
}

// FindProviderByID returns gorm.ErrRecordNotFound for unknown ids.
func (r *Repository) FindProviderByID(ctx context.Context, id uuid.UUID) (*models.ServiceProvider, error) {
	var provider models.ServiceProvider
	if err := r.base.DB(ctx).Where("id = ?", id).Take(&provider).Error; err != nil {
		return nil, err
	}
	return &provider, nil
}

// IsProfileMember reports whether the profile belongs to the society.
func (r *Repository) IsProfileMember(ctx context.Context, profileID, societyID uuid.UUID) (bool, error) {
	var count int64
	err := r.base.DB(ctx).
		Model(&models.ProfileSociety{}).
		Where("profile_id = ? AND society_id = ?", profileID, societyID).
		Count(&count).Error
	return count > 0, err
}

// IsResidentOf reports whether the user has a profile that belongs to the society.
func (r *Repository) IsResidentOf(ctx context.Context, userID, societyID uuid.UUID) (bool, error) {
	var count int64
	err := r.base.DB(ctx).
		Model(&models.ProfileSociety{}).
		Joins("JOIN profiles ON profiles.id = profile_societies.profile_id").
		Where("profiles.user_id = ? AND profile_societies.society_id = ?", userID, societyID).
		Count(&count).Error
	return count > 0, err
}

// IsProviderListed reports whether the provider is in the society's listing set.
func (r *Repository) IsProviderListed(ctx context.Context, providerID, societyID uuid.UUID) (bool, error) {
	var count int64
	err := r.base.DB(ctx).
		Model(&models.ServiceProviderSociety{}).
		Where("service_provider_id = ? AND society_id = ?", providerID, societyID).
		Count(&count).Error
	return count > 0, err
}

// ListProfileSocietyIDs returns the ids of every society the profile belongs to.
func (r *Repository) ListProfileSocietyIDs(ctx context.Context, profileID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.base.DB(ctx).
		Model(&models.ProfileSociety{}).
		Where("profile_id = ?", profileID).
		Pluck("society_id", &ids).Error
	return ids, err
}

// AddProfileSociety is idempotent: an existing membership is left untouched.
func (r *Repository) AddProfileSociety(ctx context.Context, profileID, societyID uuid.UUID) error {
	row := models.ProfileSociety{ProfileID: profileID, SocietyID: societyID}
	return r.base.DB(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error
}

// AddProviderSociety is idempotent: an existing listing is left untouched.
func (r *Repository) AddProviderSociety(ctx context.Context, providerID, societyID uuid.UUID) error {
	row := models.ServiceProviderSociety{ServiceProviderID: providerID, SocietyID: societyID}
	return r.base.DB(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error
}

// MarkProviderApproved sets the sticky is_approved flag.
func (r *Repository) MarkProviderApproved(ctx context.Context, providerID uuid.UUID) error {
	res := r.base.DB(ctx).
		Model(&models.ServiceProvider{}).
		Where("id = ?", providerID).
		Update("is_approved", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
