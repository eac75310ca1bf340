package enums

// ActorRole is the caller's role resolved from the profile/provider registry.
// It is derived per request and never persisted.
type ActorRole string

const (
	ActorRoleResident ActorRole = "resident"
	ActorRoleProvider ActorRole = "provider"
	ActorRoleNone     ActorRole = "none"
)

func (r ActorRole) String() string {
	return string(r)
}
