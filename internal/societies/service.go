package societies

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/societyhub-backend/internal/memberships"
	pkgerrors "github.com/angelmondragon/societyhub-backend/pkg/errors"
	"github.com/angelmondragon/societyhub-backend/pkg/pagination"
)

type actorResolver interface {
	ResolveActor(ctx context.Context, userID uuid.UUID) (memberships.Actor, error)
}

// Service answers the read-only society queries.
type Service interface {
	Get(ctx context.Context, id uuid.UUID) (*SocietyItem, error)
	List(ctx context.Context, params pagination.Params) (*pagination.Page[SocietyItem], error)
	AvailableForResident(ctx context.Context, userID uuid.UUID) ([]SocietyItem, error)
	AvailableForProvider(ctx context.Context, userID uuid.UUID) ([]SocietyItem, error)
	ApprovedProviders(ctx context.Context, societyID uuid.UUID, serviceID *uuid.UUID) ([]ProviderItem, error)
	ServiceCategoriesWithCounts(ctx context.Context, societyID uuid.UUID) ([]ServiceCategoryItem, error)
	ListServices(ctx context.Context) ([]ServiceItem, error)
}

type service struct {
	repo   *Repository
	actors actorResolver
}

func NewService(repo *Repository, actors actorResolver) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("societies repository required")
	}
	if actors == nil {
		return nil, fmt.Errorf("actor resolver required")
	}
	return &service{repo: repo, actors: actors}, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*SocietyItem, error) {
	society, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "society not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load society")
	}
	return &SocietyItem{
		ID:        society.ID,
		Name:      society.Name,
		Address:   society.Address,
		CreatedAt: society.CreatedAt,
	}, nil
}

func (s *service) List(ctx context.Context, params pagination.Params) (*pagination.Page[SocietyItem], error) {
	query := listQuery{limit: pagination.LimitWithBuffer(params.Limit)}
	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.cursor = cursor
	}

	rows, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list societies")
	}

	page := pagination.Trim(toSocietyItems(rows), params.Limit, func(item SocietyItem) pagination.Cursor {
		return pagination.Cursor{CreatedAt: item.CreatedAt, ID: item.ID}
	})
	return &page, nil
}

// AvailableForResident is empty for callers without a resident profile.
func (s *service) AvailableForResident(ctx context.Context, userID uuid.UUID) ([]SocietyItem, error) {
	actor, err := s.actors.ResolveActor(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "resolve caller")
	}
	if !actor.IsResident() {
		return []SocietyItem{}, nil
	}
	rows, err := s.repo.ListExcludingProfile(ctx, actor.ProfileID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list societies for resident")
	}
	return toSocietyItems(rows), nil
}

// AvailableForProvider is empty for callers that do not own a provider.
func (s *service) AvailableForProvider(ctx context.Context, userID uuid.UUID) ([]SocietyItem, error) {
	actor, err := s.actors.ResolveActor(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "resolve caller")
	}
	if !actor.IsProvider() {
		return []SocietyItem{}, nil
	}
	rows, err := s.repo.ListOpenToProvider(ctx, actor.ProviderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list societies for provider")
	}
	return toSocietyItems(rows), nil
}

// ApprovedProviders lists the society's approved providers with the services
// each offers, optionally narrowed to one service.
func (s *service) ApprovedProviders(ctx context.Context, societyID uuid.UUID, serviceID *uuid.UUID) ([]ProviderItem, error) {
	if err := s.requireSociety(ctx, societyID); err != nil {
		return nil, err
	}
	providers, err := s.repo.ApprovedProviders(ctx, societyID, serviceID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list approved providers")
	}

	items := make([]ProviderItem, len(providers))
	ids := make([]uuid.UUID, len(providers))
	index := make(map[uuid.UUID]int, len(providers))
	for i, provider := range providers {
		items[i] = toProviderItem(provider)
		ids[i] = provider.ID
		index[provider.ID] = i
	}

	offered, err := s.repo.ProviderServices(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list provider services")
	}
	for _, row := range offered {
		i := index[row.ServiceProviderID]
		items[i].Services = append(items[i].Services, ServiceItem{ID: row.ID, Name: row.Name})
	}
	return items, nil
}

func (s *service) ServiceCategoriesWithCounts(ctx context.Context, societyID uuid.UUID) ([]ServiceCategoryItem, error) {
	if err := s.requireSociety(ctx, societyID); err != nil {
		return nil, err
	}
	rows, err := s.repo.ServiceCategoriesWithCounts(ctx, societyID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count service categories")
	}
	items := make([]ServiceCategoryItem, len(rows))
	for i, row := range rows {
		items[i] = ServiceCategoryItem(row)
	}
	return items, nil
}

func (s *service) ListServices(ctx context.Context) ([]ServiceItem, error) {
	services, err := s.repo.ListServices(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list services")
	}
	items := make([]ServiceItem, len(services))
	for i, entry := range services {
		items[i] = toServiceItem(entry)
	}
	return items, nil
}

func (s *service) requireSociety(ctx context.Context, societyID uuid.UUID) error {
	exists, err := s.repo.Exists(ctx, societyID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load society")
	}
	if !exists {
		return pkgerrors.New(pkgerrors.CodeNotFound, "society not found")
	}
	return nil
}

func toSocietyItems(rows []societyRow) []SocietyItem {
	items := make([]SocietyItem, len(rows))
	for i, row := range rows {
		items[i] = toSocietyItem(row)
	}
	return items
}
