package user

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-commerce-api/internal/domain"
	"github.com/go-commerce-api/internal/pkg/id"
	"github.com/go-commerce-api/internal/pkg/validate"
	"golang.org/x/crypto/bcrypt"
)

type Service interface {
	Register(ctx context.Context, req domain.CreateUserRequest) (*domain.User, error)
	Get(ctx context.Context, userID string) (*domain.User, error)
	Update(ctx context.Context, userID string, req domain.UpdateUserRequest) (*domain.User, error)
	Delete(ctx context.Context, userID string) error
}

type userStore interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Put(ctx context.Context, u *domain.User) error
	Update(ctx context.Context, userID string, updates map[string]interface{}) error
	SoftDelete(ctx context.Context, userID string) error
}

type service struct {
	users userStore
}

func NewService(users userStore) Service {
	return &service{users: users}
}

func (s *service) Register(ctx context.Context, req domain.CreateUserRequest) (*domain.User, error) {
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%v: %w", err, domain.ErrBadRequest)
	}
	if _, err := s.users.GetByUsername(ctx, req.Username); err == nil {
		return nil, fmt.Errorf("username taken: %w", domain.ErrConflict)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	if _, err := s.users.GetByEmail(ctx, req.Email); err == nil {
		return nil, fmt.Errorf("email taken: %w", domain.ErrConflict)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	u := &domain.User{
		UserID:       id.New(),
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         domain.RoleUser,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Enable:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Put(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *service) Get(ctx context.Context, userID string) (*domain.User, error) {
	return s.users.Get(ctx, userID)
}

// Delete disables the account. A disabled user can no longer log in and is
// excluded from broadcast recipient resolution; their inbox records remain.
func (s *service) Delete(ctx context.Context, userID string) error {
	if _, err := s.users.Get(ctx, userID); err != nil {
		return err
	}
	return s.users.SoftDelete(ctx, userID)
}

func (s *service) Update(ctx context.Context, userID string, req domain.UpdateUserRequest) (*domain.User, error) {
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%v: %w", err, domain.ErrBadRequest)
	}
	updates := map[string]interface{}{}
	if req.Username != nil {
		updates["username"] = *req.Username
	}
	if req.Email != nil {
		updates["email"] = *req.Email
	}
	if req.FirstName != nil {
		updates["first_name"] = *req.FirstName
	}
	if req.LastName != nil {
		updates["last_name"] = *req.LastName
	}
	if req.PushOptOut != nil {
		updates["push_opt_out"] = *req.PushOptOut
	}
	if len(updates) == 0 {
		return s.users.Get(ctx, userID)
	}
	if err := s.users.Update(ctx, userID, updates); err != nil {
		return nil, err
	}
	return s.users.Get(ctx, userID)
}
