package user

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/go-commerce-api/internal/domain"
)

// --- mocks ---

type mockUserStore struct{ mock.Mock }

func (m *mockUserStore) Get(ctx context.Context, userID string) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserStore) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	args := m.Called(ctx, username)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserStore) Put(ctx context.Context, u *domain.User) error {
	return m.Called(ctx, u).Error(0)
}
func (m *mockUserStore) Update(ctx context.Context, userID string, updates map[string]interface{}) error {
	return m.Called(ctx, userID, updates).Error(0)
}
func (m *mockUserStore) SoftDelete(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}

func validRegister() domain.CreateUserRequest {
	return domain.CreateUserRequest{
		Username:  "alice",
		Email:     "alice@example.com",
		Password:  "s3cret-pass",
		FirstName: "Alice",
		LastName:  "Smith",
	}
}

// --- Register tests ---

func TestRegister_Success(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByUsername", mock.Anything, "alice").Return(nil, domain.ErrNotFound)
	us.On("GetByEmail", mock.Anything, "alice@example.com").Return(nil, domain.ErrNotFound)
	var put *domain.User
	us.On("Put", mock.Anything, mock.AnythingOfType("*domain.User")).
		Run(func(args mock.Arguments) { put = args.Get(1).(*domain.User) }).
		Return(nil)

	u, err := NewService(us).Register(context.Background(), validRegister())

	require.NoError(t, err)
	require.NotNil(t, put)
	assert.NotEmpty(t, u.UserID)
	assert.Equal(t, domain.RoleUser, u.Role)
	assert.True(t, u.Enable)
	assert.False(t, u.PushOptOut)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("s3cret-pass")))
}

func TestRegister_UsernameTaken(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByUsername", mock.Anything, "alice").Return(&domain.User{UserID: "u1"}, nil)

	_, err := NewService(us).Register(context.Background(), validRegister())

	assert.ErrorIs(t, err, domain.ErrConflict)
	us.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
}

func TestRegister_EmailTaken(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByUsername", mock.Anything, "alice").Return(nil, domain.ErrNotFound)
	us.On("GetByEmail", mock.Anything, "alice@example.com").Return(&domain.User{UserID: "u2"}, nil)

	_, err := NewService(us).Register(context.Background(), validRegister())

	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestRegister_InvalidRequest(t *testing.T) {
	us := &mockUserStore{}

	req := validRegister()
	req.Email = "not-an-email"
	_, err := NewService(us).Register(context.Background(), req)

	assert.ErrorIs(t, err, domain.ErrBadRequest)
	us.AssertNotCalled(t, "GetByUsername", mock.Anything, mock.Anything)
}

// --- Update tests ---

func TestUpdate_OnlyProvidedFields(t *testing.T) {
	us := &mockUserStore{}
	optOut := true
	first := "Alicia"
	us.On("Update", mock.Anything, "u1", map[string]interface{}{
		"first_name":   "Alicia",
		"push_opt_out": true,
	}).Return(nil)
	us.On("Get", mock.Anything, "u1").Return(&domain.User{UserID: "u1", FirstName: "Alicia", PushOptOut: true}, nil)

	u, err := NewService(us).Update(context.Background(), "u1", domain.UpdateUserRequest{
		FirstName:  &first,
		PushOptOut: &optOut,
	})

	require.NoError(t, err)
	assert.True(t, u.PushOptOut)
	us.AssertExpectations(t)
}

// --- Delete tests ---

func TestDelete_DisablesAccount(t *testing.T) {
	us := &mockUserStore{}
	us.On("Get", mock.Anything, "u1").Return(&domain.User{UserID: "u1", Enable: true}, nil)
	us.On("SoftDelete", mock.Anything, "u1").Return(nil)

	require.NoError(t, NewService(us).Delete(context.Background(), "u1"))
	us.AssertExpectations(t)
}

func TestDelete_UnknownUser(t *testing.T) {
	us := &mockUserStore{}
	us.On("Get", mock.Anything, "ghost").Return(nil, domain.ErrNotFound)

	err := NewService(us).Delete(context.Background(), "ghost")

	assert.ErrorIs(t, err, domain.ErrNotFound)
	us.AssertNotCalled(t, "SoftDelete", mock.Anything, mock.Anything)
}

func TestUpdate_NoFieldsIsRead(t *testing.T) {
	us := &mockUserStore{}
	us.On("Get", mock.Anything, "u1").Return(&domain.User{UserID: "u1"}, nil)

	_, err := NewService(us).Update(context.Background(), "u1", domain.UpdateUserRequest{})

	require.NoError(t, err)
	us.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}
