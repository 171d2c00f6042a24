package validators

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	pkgerrors "github.com/GyabaahFelix/lynqed-backend/pkg/errors"
)

type samplePayload struct {
	Email    string `json:"email" validate:"required,email"`
	Quantity int    `json:"quantity" validate:"gte=1,lte=99"`
}

func jsonRequest(body string) *http.Request {
	return httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", strings.NewReader(body))
}

func TestDecodeJSONBodyValid(t *testing.T) {
	t.Parallel()

	var payload samplePayload
	err := DecodeJSONBody(jsonRequest(`{"email":"ama@knust.edu.gh","quantity":3}`), &payload)
	if err != nil {
		t.Fatalf("DecodeJSONBody: %v", err)
	}
	if payload.Email != "ama@knust.edu.gh" || payload.Quantity != 3 {
		t.Fatalf("unexpected payload %+v", payload)
	}
}

func TestDecodeJSONBodyRejectsUnknownFields(t *testing.T) {
	t.Parallel()

	var payload samplePayload
	err := DecodeJSONBody(jsonRequest(`{"email":"ama@knust.edu.gh","quantity":3,"extra":true}`), &payload)
	if pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestDecodeJSONBodyRejectsMalformedJSON(t *testing.T) {
	t.Parallel()

	var payload samplePayload
	err := DecodeJSONBody(jsonRequest(`{"email":`), &payload)
	if pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestDecodeJSONBodyReportsFieldErrors(t *testing.T) {
	t.Parallel()

	var payload samplePayload
	err := DecodeJSONBody(jsonRequest(`{"email":"not-an-email","quantity":500}`), &payload)
	typed := pkgerrors.As(err)
	if typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	details, ok := typed.Details().(map[string]string)
	if !ok {
		t.Fatalf("expected field details, got %T", typed.Details())
	}
	if details["email"] != "must be a valid email" {
		t.Fatalf("unexpected email message %q", details["email"])
	}
	if details["quantity"] != "must be at most 99" {
		t.Fatalf("unexpected quantity message %q", details["quantity"])
	}
}

func TestParseQueryInt(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders?limit=25", nil)
	got, err := ParseQueryInt(req, "limit", 20, 1, 100)
	if err != nil || got != 25 {
		t.Fatalf("expected 25, got %d (%v)", got, err)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
	got, err = ParseQueryInt(req, "limit", 20, 1, 100)
	if err != nil || got != 20 {
		t.Fatalf("expected default 20, got %d (%v)", got, err)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/orders?limit=500", nil)
	if _, err = ParseQueryInt(req, "limit", 20, 1, 100); pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected out-of-range error, got %v", err)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/orders?limit=abc", nil)
	if _, err = ParseQueryInt(req, "limit", 20, 1, 100); pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected numeric error, got %v", err)
	}
}

func TestParseQueryFloat(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/feed?lat=6.6745", nil)
	value, supplied, err := ParseQueryFloat(req, "lat")
	if err != nil || !supplied || value != 6.6745 {
		t.Fatalf("expected supplied 6.6745, got %v supplied=%v err=%v", value, supplied, err)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/feed", nil)
	if _, supplied, err = ParseQueryFloat(req, "lat"); supplied || err != nil {
		t.Fatalf("missing parameter must report not supplied")
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/feed?lat=north", nil)
	if _, _, err = ParseQueryFloat(req, "lat"); pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestParseQueryBool(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/notifications?unread_only=true", nil)
	if !ParseQueryBool(req, "unread_only") {
		t.Fatalf("expected true")
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/notifications?unread_only=banana", nil)
	if ParseQueryBool(req, "unread_only") {
		t.Fatalf("expected malformed value to read as false")
	}
}

func TestPathUUID(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	rc := chi.NewRouteContext()
	rc.URLParams.Add("orderID", id.String())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/"+id.String(), nil)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rc))

	got, err := PathUUID(req, "orderID")
	if err != nil || got != id {
		t.Fatalf("expected %s, got %s (%v)", id, got, err)
	}

	rc = chi.NewRouteContext()
	rc.URLParams.Add("orderID", "not-a-uuid")
	req = httptest.NewRequest(http.MethodGet, "/api/v1/orders/not-a-uuid", nil)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rc))

	if _, err = PathUUID(req, "orderID"); pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSanitizeString(t *testing.T) {
	t.Parallel()

	if got := SanitizeString("  waakye special  ", 0); got != "waakye special" {
		t.Fatalf("expected trimmed string, got %q", got)
	}
	if got := SanitizeString("abcdefgh", 5); got != "abcde" {
		t.Fatalf("expected truncation, got %q", got)
	}
}
