package domain

import "sort"

// Role identifies a role capability a player can hold.
type Role string

const (
	// RoleMafia marks a mafia-aligned killer.
	RoleMafia Role = "mafia"
	// RoleDoctor marks a protector.
	RoleDoctor Role = "doctor"
	// RoleSheriff marks an investigator.
	RoleSheriff Role = "sheriff"
	// RoleVigilante marks a shooter with a limited shot budget.
	RoleVigilante Role = "vigilante"
	// RoleVillager marks a player with no night capability.
	RoleVillager Role = "villager"
)

// Roles lists every valid role in canonical order.
var Roles = []Role{RoleMafia, RoleDoctor, RoleSheriff, RoleVigilante, RoleVillager}

// IsValid reports whether the role is one of the closed set.
func (r Role) IsValid() bool {
	switch r {
	case RoleMafia, RoleDoctor, RoleSheriff, RoleVigilante, RoleVillager:
		return true
	default:
		return false
	}
}

// MafiaAligned reports whether the role counts toward the mafia faction.
func (r Role) MafiaAligned() bool {
	return r == RoleMafia
}

// RoleSet is the set of role capabilities a player holds. Under the default
// configuration a player holds exactly one role; under multi-role
// configurations a player may hold several, and all role-gated logic checks
// membership rather than equality.
//
// The slice is kept sorted and de-duplicated so that serialized state and
// event payloads are byte-stable.
type RoleSet []Role

// NewRoleSet builds a normalized role set from the given roles.
func NewRoleSet(roles ...Role) RoleSet {
	set := RoleSet(nil)
	for _, role := range roles {
		set = set.Add(role)
	}
	return set
}

// Has reports whether the set contains the given capability.
func (s RoleSet) Has(role Role) bool {
	for _, held := range s {
		if held == role {
			return true
		}
	}
	return false
}

// Add returns a set containing the given role, preserving canonical order.
func (s RoleSet) Add(role Role) RoleSet {
	if s.Has(role) {
		return s
	}
	out := make(RoleSet, 0, len(s)+1)
	out = append(out, s...)
	out = append(out, role)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// MafiaAligned reports whether any held capability is mafia-aligned.
func (s RoleSet) MafiaAligned() bool {
	for _, role := range s {
		if role.MafiaAligned() {
			return true
		}
	}
	return false
}

// Strings returns the set as plain strings for payload encoding.
func (s RoleSet) Strings() []string {
	out := make([]string, len(s))
	for i, role := range s {
		out[i] = string(role)
	}
	return out
}
