package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/go-commerce-api/internal/domain"
	"github.com/go-commerce-api/internal/pkg/id"
)

const defaultPageSize = 20

// Service is the in-app notification store: one record per recipient per
// send, mutated only to flip the read flag. Ownership is enforced here, not
// in the transport layer.
type Service interface {
	Create(ctx context.Context, userID, title, body string, data map[string]string, status, notifType string) (*domain.Notification, error)
	ListForRecipient(ctx context.Context, userID string, page, limit int, sortDescending bool) ([]domain.Notification, int, error)
	MarkRead(ctx context.Context, userID, notificationID string) (*domain.Notification, error)
	MarkAllRead(ctx context.Context, userID string) (int, error)
	DeleteAll(ctx context.Context, userID string) (int, error)
	DeleteSelected(ctx context.Context, userID string, ids []string) (int, error)
}

type store interface {
	Put(ctx context.Context, n *domain.Notification) error
	Get(ctx context.Context, notificationID string) (*domain.Notification, error)
	ListByRecipient(ctx context.Context, userID string, descending bool) ([]domain.Notification, error)
	SetRead(ctx context.Context, notificationID string) error
	MarkAllRead(ctx context.Context, userID string) (int, error)
	DeleteAllByRecipient(ctx context.Context, userID string) (int, error)
	DeleteOwned(ctx context.Context, userID string, ids []string) (int, error)
}

type service struct {
	repo store
}

func NewService(repo store) Service {
	return &service{repo: repo}
}

func (s *service) Create(ctx context.Context, userID, title, body string, data map[string]string, status, notifType string) (*domain.Notification, error) {
	if userID == "" {
		return nil, fmt.Errorf("recipient required: %w", domain.ErrBadRequest)
	}
	if status == "" {
		status = domain.NotificationStatusActive
	}
	if notifType == "" {
		notifType = domain.NotificationTypeInfo
	}
	now := time.Now().UTC()
	n := &domain.Notification{
		NotificationID: id.New(),
		UserID:         userID,
		Title:          title,
		Body:           body,
		Data:           data,
		Status:         status,
		Type:           notifType,
		IsRead:         false,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.repo.Put(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

// ListForRecipient returns the requested page plus the total record count.
// The total comes from the same recipient query, independent of the page
// window, so page-count metadata stays correct.
func (s *service) ListForRecipient(ctx context.Context, userID string, page, limit int, sortDescending bool) ([]domain.Notification, int, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageSize
	}
	all, err := s.repo.ListByRecipient(ctx, userID, sortDescending)
	if err != nil {
		return nil, 0, err
	}
	total := len(all)
	start := (page - 1) * limit
	if start >= total {
		return []domain.Notification{}, total, nil
	}
	end := start + limit
	if end > total {
		end = total
	}
	return all[start:end], total, nil
}

func (s *service) MarkRead(ctx context.Context, userID, notificationID string) (*domain.Notification, error) {
	n, err := s.repo.Get(ctx, notificationID)
	if err != nil {
		return nil, err
	}
	// A recipient may only mutate their own records. Report someone else's
	// record as absent rather than forbidden.
	if n.UserID != userID {
		return nil, fmt.Errorf("notification not found: %w", domain.ErrNotFound)
	}
	if n.IsRead {
		return n, nil
	}
	if err := s.repo.SetRead(ctx, notificationID); err != nil {
		return nil, err
	}
	n.IsRead = true
	return n, nil
}

func (s *service) MarkAllRead(ctx context.Context, userID string) (int, error) {
	return s.repo.MarkAllRead(ctx, userID)
}

func (s *service) DeleteAll(ctx context.Context, userID string) (int, error) {
	return s.repo.DeleteAllByRecipient(ctx, userID)
}

func (s *service) DeleteSelected(ctx context.Context, userID string, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	return s.repo.DeleteOwned(ctx, userID, ids)
}
