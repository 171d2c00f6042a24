package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/GyabaahFelix/lynqed-backend/pkg/enums"
)

func identityRequest(role enums.Role, isGuest bool) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/vendors/me", nil)
	ctx := WithIdentity(req.Context(), newTestUserID(), role, []enums.Role{role}, isGuest)
	return req.WithContext(ctx)
}

func TestRequireRoleAdmitsMatchingRole(t *testing.T) {
	t.Parallel()

	called := false
	handler := RequireRole(enums.RoleVendor, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	handler.ServeHTTP(httptest.NewRecorder(), identityRequest(enums.RoleVendor, false))
	if !called {
		t.Fatalf("expected vendor session to pass")
	}
}

func TestRequireRoleRejectsOtherRoles(t *testing.T) {
	t.Parallel()

	handler := RequireRole(enums.RoleAdmin, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("handler must not run for a buyer session")
	}))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, identityRequest(enums.RoleBuyer, false))
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", resp.Code)
	}
}

func TestRequireRoleRejectsHeldButInactiveRole(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/vendors/me/products", nil)
	ctx := WithIdentity(req.Context(), newTestUserID(), enums.RoleBuyer, []enums.Role{enums.RoleBuyer, enums.RoleVendor}, false)
	req = req.WithContext(ctx)

	handler := RequireRole(enums.RoleVendor, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("holding a role is not enough, the session must act as it")
	}))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", resp.Code)
	}
}

func TestRequireAnyRole(t *testing.T) {
	t.Parallel()

	handler := RequireAnyRole(nil, enums.RoleVendor, enums.RoleAdmin)

	admitted := false
	handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		admitted = true
	})).ServeHTTP(httptest.NewRecorder(), identityRequest(enums.RoleAdmin, false))
	if !admitted {
		t.Fatalf("expected admin session to pass")
	}

	resp := httptest.NewRecorder()
	handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("buyer must be rejected")
	})).ServeHTTP(resp, identityRequest(enums.RoleBuyer, false))
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", resp.Code)
	}
}

func TestRejectGuests(t *testing.T) {
	t.Parallel()

	handler := RejectGuests(nil)

	resp := httptest.NewRecorder()
	handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("guest session must be rejected")
	})).ServeHTTP(resp, identityRequest(enums.RoleBuyer, true))
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", resp.Code)
	}

	admitted := false
	handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		admitted = true
	})).ServeHTTP(httptest.NewRecorder(), identityRequest(enums.RoleBuyer, false))
	if !admitted {
		t.Fatalf("expected full account to pass")
	}
}
