package memberships

import (
	"github.com/google/uuid"

	"github.com/angelmondragon/societyhub-backend/pkg/enums"
)

// Actor is the caller's role in the community, resolved once per request.
// Exactly one of ProfileID and ProviderID is set unless Role is none.
type Actor struct {
	UserID     uuid.UUID
	Role       enums.ActorRole
	ProfileID  uuid.UUID
	ProviderID uuid.UUID
}

func (a Actor) IsResident() bool { return a.Role == enums.ActorRoleResident }

func (a Actor) IsProvider() bool { return a.Role == enums.ActorRoleProvider }
