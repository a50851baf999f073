package user

import "strings"

type Role string

const (
	RoleOperator  Role = "operator"
	RoleSpectator Role = "spectator"
)

// Principal is the identity resolved from a bearer token.
type Principal struct {
	UserID string
	Email  string
	Role   Role
}

func ParseRole(value string) Role {
	switch Role(strings.ToLower(strings.TrimSpace(value))) {
	case RoleOperator, "admin", "scorekeeper":
		return RoleOperator
	default:
		return RoleSpectator
	}
}

func (p Principal) CanOperate() bool {
	return p.Role == RoleOperator
}
