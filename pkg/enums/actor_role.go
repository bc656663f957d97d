package enums

// ActorRole identifies who performed an order-timeline action.
type ActorRole string

const (
	ActorRoleAdmin  ActorRole = "admin"
	ActorRoleAgent  ActorRole = "agent"
	ActorRoleSystem ActorRole = "system"
)

var validActorRoles = []ActorRole{
	ActorRoleAdmin,
	ActorRoleAgent,
	ActorRoleSystem,
}

// String implements fmt.Stringer.
func (a ActorRole) String() string {
	return string(a)
}

// IsValid reports whether the value is a known ActorRole.
func (a ActorRole) IsValid() bool {
	for _, candidate := range validActorRoles {
		if candidate == a {
			return true
		}
	}
	return false
}
