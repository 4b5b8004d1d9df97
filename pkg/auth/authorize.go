package auth

import "github.com/garagelabs/taller-backend/pkg/enums"

// Authorize reports whether role may perform an operation restricted to the
// allowed set. Admin always passes; an empty allowed set means any
// authenticated role.
func Authorize(role enums.Role, allowed ...enums.Role) bool {
	if !role.IsValid() {
		return false
	}
	if role == enums.RoleAdmin || len(allowed) == 0 {
		return true
	}
	for _, candidate := range allowed {
		if candidate == role {
			return true
		}
	}
	return false
}
