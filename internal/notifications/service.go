package notifications

import (
	"context"

	"github.com/google/uuid"

	pkgerrors "github.com/GyabaahFelix/lynqed-backend/pkg/errors"
)

// ServiceParams groups dependencies for the notification service.
type ServiceParams struct {
	Repo *Repository
}

// Service exposes the user-facing notification feed. Entries are
// written by the change-feed consumer, never by request handlers.
type Service interface {
	GetFeed(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit, offset int) (FeedDTO, error)
	MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) error
}

type service struct {
	repo *Repository
}

// NewService builds a notification service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "notification repo is required")
	}
	return &service{repo: params.Repo}, nil
}

func (s *service) GetFeed(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit, offset int) (FeedDTO, error) {
	if userID == uuid.Nil {
		return FeedDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := s.repo.ListByUser(ctx, userID, unreadOnly, limit, offset)
	if err != nil {
		return FeedDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list notifications")
	}
	unread, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		return FeedDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count unread notifications")
	}

	feed := FeedDTO{
		Items:       make([]NotificationDTO, 0, len(rows)),
		UnreadCount: unread,
	}
	for i := range rows {
		feed.Items = append(feed.Items, FromModel(&rows[i]))
	}
	return feed, nil
}

func (s *service) MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error {
	if notificationID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "notification id is required")
	}
	marked, err := s.repo.MarkRead(ctx, userID, notificationID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notification read")
	}
	if !marked {
		return pkgerrors.New(pkgerrors.CodeNotFound, "notification not found")
	}
	return nil
}

func (s *service) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	if err := s.repo.MarkAllRead(ctx, userID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notifications read")
	}
	return nil
}
