package enums

import (
	"fmt"
	"strings"
)

// Role is an account capability. A user may hold several roles at once;
// precedence when resolving a landing surface is admin > vendor >
// delivery_person > buyer.
type Role string

const (
	RoleBuyer          Role = "buyer"
	RoleVendor         Role = "vendor"
	RoleDeliveryPerson Role = "delivery_person"
	RoleAdmin          Role = "admin"
)

var validRoles = []Role{
	RoleBuyer,
	RoleVendor,
	RoleDeliveryPerson,
	RoleAdmin,
}

// rolePrecedence orders roles from most to least privileged.
var rolePrecedence = []Role{
	RoleAdmin,
	RoleVendor,
	RoleDeliveryPerson,
	RoleBuyer,
}

// roleAliases maps legacy spellings seen in older records to canonical
// roles. Parsing is case-insensitive on top of these.
var roleAliases = map[string]Role{
	"customer":        RoleBuyer,
	"shopper":         RoleBuyer,
	"seller":          RoleVendor,
	"merchant":        RoleVendor,
	"rider":           RoleDeliveryPerson,
	"delivery":        RoleDeliveryPerson,
	"deliveryperson":  RoleDeliveryPerson,
	"delivery-person": RoleDeliveryPerson,
	"courier":         RoleDeliveryPerson,
	"administrator":   RoleAdmin,
	"superadmin":      RoleAdmin,
}

// String implements fmt.Stringer.
func (r Role) String() string {
	return string(r)
}

// IsValid reports whether the value is a known Role.
func (r Role) IsValid() bool {
	for _, candidate := range validRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// Precedence returns the rank of the role, lower meaning more
// privileged. Unknown roles rank last.
func (r Role) Precedence() int {
	for i, candidate := range rolePrecedence {
		if candidate == r {
			return i
		}
	}
	return len(rolePrecedence)
}

// ParseRole converts raw input into a Role. Input is lowercased and
// legacy aliases are accepted.
func ParseRole(value string) (Role, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validRoles {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	if alias, ok := roleAliases[normalized]; ok {
		return alias, nil
	}
	return "", fmt.Errorf("invalid role %q", value)
}

// HighestRole returns the most privileged role present in the slice,
// or RoleBuyer when none are recognized.
func HighestRole(roles []Role) Role {
	best := RoleBuyer
	bestRank := best.Precedence()
	for _, role := range roles {
		if rank := role.Precedence(); rank < bestRank {
			best, bestRank = role, rank
		}
	}
	return best
}
