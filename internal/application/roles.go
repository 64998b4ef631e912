package application

import "strings"

// RoleDefinition describes one entry of the static role catalog: the
// display name, team affiliation, and optional population cap applied at
// resident creation time.
type RoleDefinition struct {
	Kind     RoleKind
	Name     string
	Team     Team
	MaxCount *int
}

func capOf(n int) *int { return &n }

// roleCatalog is the authoritative registry of role definitions. Villagers
// and werewolves are uncapped; every special role is limited to one copy.
var roleCatalog = []RoleDefinition{
	{Kind: RoleApprenticeSeer, Team: TeamVillager, MaxCount: capOf(1)},
	{Kind: RoleBodyguard, Team: TeamVillager, MaxCount: capOf(1)},
	{Kind: RoleCursed, Team: TeamVillager, MaxCount: capOf(1)},
	{Kind: RoleHunter, Team: TeamVillager, MaxCount: capOf(1)},
	{Kind: RoleMason, Team: TeamVillager, MaxCount: capOf(1)},
	{Kind: RoleMayor, Team: TeamVillager, MaxCount: capOf(1)},
	{Kind: RoleMinion, Team: TeamWerewolf, MaxCount: capOf(1)},
	{Kind: RolePrince, Team: TeamVillager, MaxCount: capOf(1)},
	{Kind: RoleSeer, Team: TeamVillager, MaxCount: capOf(1)},
	{Kind: RoleSorcerer, Team: TeamWerewolf, MaxCount: capOf(1)},
	{Kind: RoleTroublemaker, Team: TeamVillager, MaxCount: capOf(1)},
	{Kind: RoleVillager, Team: TeamVillager},
	{Kind: RoleWerewolf, Team: TeamWerewolf},
	{Kind: RoleWitch, Team: TeamVillager, MaxCount: capOf(1)},
	{Kind: RoleWolfCub, Team: TeamWerewolf, MaxCount: capOf(1)},
}

// RoleCatalog returns the registry of role definitions with display names
// derived from the role kind.
func RoleCatalog() []RoleDefinition {
	defs := make([]RoleDefinition, len(roleCatalog))
	copy(defs, roleCatalog)
	for i := range defs {
		if defs[i].Name == "" {
			defs[i].Name = roleDisplayName(defs[i].Kind)
		}
	}
	return defs
}

// LookupRoleDefinition finds a catalog entry by kind.
func LookupRoleDefinition(kind RoleKind) (RoleDefinition, bool) {
	for _, def := range RoleCatalog() {
		if def.Kind == kind {
			return def, true
		}
	}
	return RoleDefinition{}, false
}

func roleDisplayName(kind RoleKind) string {
	parts := strings.Split(string(kind), "_")
	for i, part := range parts {
		if part == "" {
			continue
		}
		parts[i] = strings.ToUpper(part[:1]) + part[1:]
	}
	return strings.Join(parts, " ")
}
