package enums

import "fmt"

// Role is the canonical role name stored on employee accounts.
type Role string

const (
	RoleAdmin        Role = "admin"
	RoleShopLead     Role = "shop_lead"
	RoleMechanic     Role = "mechanic"
	RoleReceptionist Role = "receptionist"
)

var validRoles = []Role{
	RoleAdmin,
	RoleShopLead,
	RoleMechanic,
	RoleReceptionist,
}

func (r Role) String() string {
	return string(r)
}

// IsValid reports whether the value matches the canonical role enum.
func (r Role) IsValid() bool {
	for _, candidate := range validRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseRole converts the raw string to Role.
func ParseRole(value string) (Role, error) {
	for _, candidate := range validRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid role %q", value)
}
