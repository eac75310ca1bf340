package memberships

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/angelmondragon/societyhub-backend/pkg/enums"
)

// Service resolves callers into Actors.
type Service struct {
	repo *Repository
}

func NewService(repo *Repository) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("memberships repository required")
	}
	return &Service{repo: repo}, nil
}

// ResolveActor looks up the user's profile and provider records. A profile wins
// when both exist.
func (s *Service) ResolveActor(ctx context.Context, userID uuid.UUID) (Actor, error) {
	actor := Actor{UserID: userID, Role: enums.ActorRoleNone}

	profile, err := s.repo.FindProfileByUserID(ctx, userID)
	switch {
	case err == nil:
		actor.Role = enums.ActorRoleResident
		actor.ProfileID = profile.ID
		return actor, nil
	case !isNotFound(err):
		return Actor{}, fmt.Errorf("lookup profile: %w", err)
	}

	provider, err := s.repo.FindProviderByUserID(ctx, userID)
	switch {
	case err == nil:
		actor.Role = enums.ActorRoleProvider
		actor.ProviderID = provider.ID
	case !isNotFound(err):
		return Actor{}, fmt.Errorf("lookup provider: %w", err)
	}
	return actor, nil
}

// Repository exposes the registry for callers that need to join it into a transaction.
func (s *Service) Repository() *Repository {
	return s.repo
}
