package device

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-commerce-api/internal/domain"
)

// Service maps a user identity to zero-or-one current push delivery token.
type Service interface {
	// Register overwrites any prior token for the user. Idempotent for the
	// same (user, token) pair.
	Register(ctx context.Context, userID, token string) error
	// Invalidate clears the token from every user currently holding it and
	// returns the number of users affected. Never an error when nobody holds
	// the token.
	Invalidate(ctx context.Context, token string) (int, error)
	// TokenFor returns the user's current token, empty when none is set.
	TokenFor(ctx context.Context, userID string) (string, error)
}

type userStore interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
	Update(ctx context.Context, userID string, updates map[string]interface{}) error
	ListIDsByPushToken(ctx context.Context, token string) ([]string, error)
}

type notificationCreator interface {
	Create(ctx context.Context, userID, title, body string, data map[string]string, status, notifType string) (*domain.Notification, error)
}

type service struct {
	users         userStore
	notifications notificationCreator
}

func NewService(users userStore, notifications notificationCreator) Service {
	return &service{users: users, notifications: notifications}
}

func (s *service) Register(ctx context.Context, userID, token string) error {
	if userID == "" || token == "" {
		return fmt.Errorf("user and token required: %w", domain.ErrBadRequest)
	}
	if err := s.users.Update(ctx, userID, map[string]interface{}{"push_token": token}); err != nil {
		return err
	}
	// Audit trail of registration events. Best effort: a failed side record
	// must not fail the registration itself.
	_, err := s.notifications.Create(ctx, userID,
		"Device Registered",
		"A new device was registered for push notifications.",
		nil,
		domain.NotificationStatusNone,
		domain.NotificationTypeInfo,
	)
	if err != nil {
		slog.Warn("could not record device registration", "user_id", userID, "err", err)
	}
	return nil
}

func (s *service) Invalidate(ctx context.Context, token string) (int, error) {
	if token == "" {
		return 0, nil
	}
	ids, err := s.users.ListIDsByPushToken(ctx, token)
	if err != nil {
		return 0, err
	}
	affected := 0
	for _, uid := range ids {
		if err := s.users.Update(ctx, uid, map[string]interface{}{"push_token": ""}); err != nil {
			slog.Warn("could not clear stale push token", "user_id", uid, "err", err)
			continue
		}
		affected++
	}
	return affected, nil
}

func (s *service) TokenFor(ctx context.Context, userID string) (string, error) {
	u, err := s.users.Get(ctx, userID)
	if err != nil {
		return "", err
	}
	return u.PushToken, nil
}
