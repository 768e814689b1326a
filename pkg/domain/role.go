package domain

import dErrors "gatepass/pkg/domain-errors"

// Role controls what an authenticated actor may do. Attendees hold RoleUser;
// gate staff and organizers hold RoleAdmin. Both roles may operate a scanner.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleUser, RoleAdmin:
		return Role(s), nil
	default:
		return "", dErrors.New(dErrors.CodeInvalidInput, "unknown role: "+s)
	}
}

func (r Role) IsAdmin() bool { return r == RoleAdmin }

// CanScan reports whether the role may operate the entry scanner.
func (r Role) CanScan() bool { return r == RoleAdmin || r == RoleUser }
