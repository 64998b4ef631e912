package application

import "testing"

func TestRoleCatalog(t *testing.T) {
	t.Parallel()

	catalog := RoleCatalog()
	if len(catalog) == 0 {
		t.Fatal("expected a non-empty role catalog")
	}

	byKind := make(map[RoleKind]RoleDefinition, len(catalog))
	for _, def := range catalog {
		if _, ok := byKind[def.Kind]; ok {
			t.Fatalf("duplicate role kind %q in catalog", def.Kind)
		}
		byKind[def.Kind] = def
	}

	t.Run("baseline roles are uncapped", func(t *testing.T) {
		for _, kind := range []RoleKind{RoleVillager, RoleWerewolf} {
			def, ok := byKind[kind]
			if !ok {
				t.Fatalf("catalog is missing %q", kind)
			}
			if def.MaxCount != nil {
				t.Errorf("%q should have no population cap, got %d", kind, *def.MaxCount)
			}
		}
	})

	t.Run("special roles are capped at one", func(t *testing.T) {
		for _, kind := range []RoleKind{RoleSeer, RoleWitch, RoleHunter, RoleMayor} {
			def, ok := byKind[kind]
			if !ok {
				t.Fatalf("catalog is missing %q", kind)
			}
			if def.MaxCount == nil || *def.MaxCount != 1 {
				t.Errorf("%q should be capped at one", kind)
			}
		}
	})

	t.Run("werewolf-aligned roles carry the werewolf team", func(t *testing.T) {
		for _, kind := range []RoleKind{RoleWerewolf, RoleMinion, RoleSorcerer, RoleWolfCub} {
			def, ok := byKind[kind]
			if !ok {
				t.Fatalf("catalog is missing %q", kind)
			}
			if def.Team != TeamWerewolf {
				t.Errorf("%q should fight for the werewolves, got %q", kind, def.Team)
			}
		}
	})
}

func TestLookupRoleDefinition(t *testing.T) {
	t.Parallel()

	if _, ok := LookupRoleDefinition(RoleSeer); !ok {
		t.Fatal("expected the seer to be defined")
	}
	if _, ok := LookupRoleDefinition(RoleKind("astrologer")); ok {
		t.Fatal("unknown kinds must not resolve")
	}
}
