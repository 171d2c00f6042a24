package enums

import "testing"

func TestParseRole(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want Role
	}{
		{"buyer", RoleBuyer},
		{" Vendor ", RoleVendor},
		{"DELIVERY_PERSON", RoleDeliveryPerson},
		{"admin", RoleAdmin},
		{"customer", RoleBuyer},
		{"seller", RoleVendor},
		{"merchant", RoleVendor},
		{"rider", RoleDeliveryPerson},
		{"courier", RoleDeliveryPerson},
		{"delivery-person", RoleDeliveryPerson},
		{"Administrator", RoleAdmin},
	}
	for _, tt := range tests {
		got, err := ParseRole(tt.in)
		if err != nil {
			t.Fatalf("ParseRole(%q): %v", tt.in, err)
		}
		if got != tt.want {
			t.Fatalf("ParseRole(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}

	if _, err := ParseRole("wizard"); err == nil {
		t.Fatalf("expected unknown role to fail")
	}
	if _, err := ParseRole(""); err == nil {
		t.Fatalf("expected empty role to fail")
	}
}

func TestRolePrecedence(t *testing.T) {
	t.Parallel()

	if !(RoleAdmin.Precedence() < RoleVendor.Precedence()) {
		t.Fatalf("admin must outrank vendor")
	}
	if !(RoleVendor.Precedence() < RoleDeliveryPerson.Precedence()) {
		t.Fatalf("vendor must outrank delivery person")
	}
	if !(RoleDeliveryPerson.Precedence() < RoleBuyer.Precedence()) {
		t.Fatalf("delivery person must outrank buyer")
	}
	if Role("wizard").Precedence() <= RoleBuyer.Precedence() {
		t.Fatalf("unknown roles must rank last")
	}
}

func TestHighestRole(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		roles []Role
		want  Role
	}{
		{"admin among many", []Role{RoleBuyer, RoleVendor, RoleAdmin}, RoleAdmin},
		{"vendor over rider", []Role{RoleDeliveryPerson, RoleVendor}, RoleVendor},
		{"single buyer", []Role{RoleBuyer}, RoleBuyer},
		{"empty defaults to buyer", nil, RoleBuyer},
		{"unknown only defaults to buyer", []Role{"wizard"}, RoleBuyer},
	}
	for _, tt := range tests {
		if got := HighestRole(tt.roles); got != tt.want {
			t.Fatalf("%s: HighestRole = %s, want %s", tt.name, got, tt.want)
		}
	}
}
