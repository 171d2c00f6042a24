package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/GyabaahFelix/lynqed-backend/api/middleware"
	"github.com/GyabaahFelix/lynqed-backend/internal/notifications"
	pkgerrors "github.com/GyabaahFelix/lynqed-backend/pkg/errors"
	"github.com/GyabaahFelix/lynqed-backend/pkg/logger"
)

type testNotificationsService struct {
	feed       notifications.FeedDTO
	feedErr    error
	markErr    error
	unreadOnly bool
	limit      int
	offset     int
	markedID   uuid.UUID
	markedAll  bool
}

func (s *testNotificationsService) GetFeed(_ context.Context, _ uuid.UUID, unreadOnly bool, limit, offset int) (notifications.FeedDTO, error) {
	s.unreadOnly = unreadOnly
	s.limit = limit
	s.offset = offset
	return s.feed, s.feedErr
}

func (s *testNotificationsService) MarkRead(_ context.Context, _ uuid.UUID, notificationID uuid.UUID) error {
	s.markedID = notificationID
	return s.markErr
}

func (s *testNotificationsService) MarkAllRead(_ context.Context, _ uuid.UUID) error {
	s.markedAll = true
	return s.markErr
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func authedRequest(method, url string) *http.Request {
	req := httptest.NewRequest(method, url, nil)
	ctx := middleware.WithIdentity(req.Context(), uuid.New(), "buyer", nil, false)
	return req.WithContext(ctx)
}

func withURLParam(req *http.Request, key, value string) *http.Request {
	rc := chi.NewRouteContext()
	rc.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rc))
}

func TestNotificationFeedPassesQueryFilters(t *testing.T) {
	svc := &testNotificationsService{feed: notifications.FeedDTO{UnreadCount: 3}}
	handler := NotificationFeed(svc, testLogger())

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, authedRequest(http.MethodGet, "/api/v1/notifications?unread_only=true&limit=5&offset=10"))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if !svc.unreadOnly || svc.limit != 5 || svc.offset != 10 {
		t.Fatalf("filters not forwarded: unread=%v limit=%d offset=%d", svc.unreadOnly, svc.limit, svc.offset)
	}

	var payload struct {
		Success bool `json:"success"`
		Data    struct {
			UnreadCount int64 `json:"unread_count"`
		} `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("parse response: %v", err)
	}
	if !payload.Success || payload.Data.UnreadCount != 3 {
		t.Fatalf("unexpected envelope %s", resp.Body.String())
	}
}

func TestNotificationFeedRejectsBadLimit(t *testing.T) {
	svc := &testNotificationsService{}
	handler := NotificationFeed(svc, testLogger())

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, authedRequest(http.MethodGet, "/api/v1/notifications?limit=5000"))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestMarkNotificationRead(t *testing.T) {
	svc := &testNotificationsService{}
	handler := MarkNotificationRead(svc, testLogger())
	notificationID := uuid.New()

	req := authedRequest(http.MethodPost, "/api/v1/notifications/"+notificationID.String()+"/read")
	req = withURLParam(req, "id", notificationID.String())
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.markedID != notificationID {
		t.Fatalf("expected %s marked, got %s", notificationID, svc.markedID)
	}
}

func TestMarkNotificationReadInvalidID(t *testing.T) {
	handler := MarkNotificationRead(&testNotificationsService{}, testLogger())

	req := authedRequest(http.MethodPost, "/api/v1/notifications/nope/read")
	req = withURLParam(req, "id", "nope")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestMarkNotificationReadNotFound(t *testing.T) {
	svc := &testNotificationsService{markErr: pkgerrors.New(pkgerrors.CodeNotFound, "notification not found")}
	handler := MarkNotificationRead(svc, testLogger())
	notificationID := uuid.New()

	req := authedRequest(http.MethodPost, "/api/v1/notifications/"+notificationID.String()+"/read")
	req = withURLParam(req, "id", notificationID.String())
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}

func TestMarkAllNotificationsRead(t *testing.T) {
	svc := &testNotificationsService{}
	handler := MarkAllNotificationsRead(svc, testLogger())

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, authedRequest(http.MethodPost, "/api/v1/notifications/read-all"))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if !svc.markedAll {
		t.Fatalf("expected mark-all forwarded to the service")
	}
}

func TestNotificationFeedNilService(t *testing.T) {
	handler := NotificationFeed(nil, testLogger())
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, authedRequest(http.MethodGet, "/api/v1/notifications"))

	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 got %d", resp.Code)
	}
}
