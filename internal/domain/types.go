package domain

import "github.com/google/uuid"

type AccountID = uuid.UUID

// Role decides which side of a hand-off an account can take.
type Role string

const (
	RoleBuyer    Role = "buyer"
	RoleReceiver Role = "receiver"
	RoleBoth     Role = "both"
)

func (r Role) Valid() bool {
	switch r {
	case RoleBuyer, RoleReceiver, RoleBoth:
		return true
	}
	return false
}

// CanReceive reports whether accounts with this role show up in receiver searches.
func (r Role) CanReceive() bool { return r == RoleReceiver || r == RoleBoth }

// ReceiverRoles lists the roles eligible for receiver searches.
func ReceiverRoles() []Role { return []Role{RoleReceiver, RoleBoth} }
