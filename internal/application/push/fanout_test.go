package push

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/go-commerce-api/internal/domain"
)

// --- mocks ---

type mockCreator struct{ mock.Mock }

func (m *mockCreator) Create(ctx context.Context, userID, title, body string, data map[string]string, status, notifType string) (*domain.Notification, error) {
	args := m.Called(ctx, userID, title, body, data, status, notifType)
	if n, _ := args.Get(0).(*domain.Notification); n != nil {
		return n, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockRegistry struct{ mock.Mock }

func (m *mockRegistry) TokenFor(ctx context.Context, userID string) (string, error) {
	args := m.Called(ctx, userID)
	return args.String(0), args.Error(1)
}
func (m *mockRegistry) Invalidate(ctx context.Context, token string) (int, error) {
	args := m.Called(ctx, token)
	return args.Int(0), args.Error(1)
}

type mockResolver struct{ mock.Mock }

func (m *mockResolver) Resolve(ctx context.Context, filter map[string]interface{}) ([]string, error) {
	args := m.Called(ctx, filter)
	if ids, _ := args.Get(0).([]string); ids != nil {
		return ids, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockSender struct{ mock.Mock }

func (m *mockSender) Send(ctx context.Context, token, title, body string, data map[string]interface{}, priority string, ttlSeconds int) Outcome {
	args := m.Called(ctx, token, title, body, data, priority, ttlSeconds)
	return args.Get(0).(Outcome)
}

// --- helpers ---

func stubNotification(userID string) *domain.Notification {
	return &domain.Notification{NotificationID: "n-" + userID, UserID: userID}
}

func validReq(ids ...string) SendRequest {
	return SendRequest{
		RecipientIDs: ids,
		Title:        "Title",
		Body:         "Body",
		SendPush:     true,
	}
}

// --- SendBatch tests ---

func TestSendBatch_EmptyRecipientsRejected(t *testing.T) {
	cr, reg, snd := &mockCreator{}, &mockRegistry{}, &mockSender{}
	o := NewOrchestrator(cr, reg, &mockResolver{}, snd)

	_, err := o.SendBatch(context.Background(), validReq())

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrBadRequest)
	cr.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	snd.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSendBatch_MissingTitleRejected(t *testing.T) {
	o := NewOrchestrator(&mockCreator{}, &mockRegistry{}, &mockResolver{}, &mockSender{})

	req := validReq("u1")
	req.Title = ""
	_, err := o.SendBatch(context.Background(), req)

	assert.ErrorIs(t, err, domain.ErrBadRequest)
}

func TestSendBatch_PersistsForEveryRecipientAndCountsDeliveries(t *testing.T) {
	cr, reg, snd := &mockCreator{}, &mockRegistry{}, &mockSender{}

	ids := []string{"u1", "u2", "u3", "u4", "u5"}
	for _, id := range ids {
		cr.On("Create", mock.Anything, id, "Title", "Body", mock.Anything, domain.NotificationStatusActive, domain.NotificationTypeInfo).
			Return(stubNotification(id), nil)
		reg.On("TokenFor", mock.Anything, id).Return("token-for-"+id, nil)
	}
	// u3's delivery fails transiently, the other four land
	snd.On("Send", mock.Anything, "token-for-u3", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(OutcomeTransientFailure)
	snd.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(OutcomeDelivered)

	o := NewOrchestrator(cr, reg, &mockResolver{}, snd)
	result, err := o.SendBatch(context.Background(), validReq(ids...))

	require.NoError(t, err)
	require.Len(t, result.Notifications, 5)
	for i, n := range result.Notifications {
		require.NotNil(t, n, "recipient %d", i)
	}
	assert.Equal(t, 5, result.Attempted)
	assert.Equal(t, 4, result.Delivered)
}

func TestSendBatch_PersistFailureLeavesNilHole(t *testing.T) {
	cr, reg, snd := &mockCreator{}, &mockRegistry{}, &mockSender{}

	cr.On("Create", mock.Anything, "u1", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(stubNotification("u1"), nil)
	cr.On("Create", mock.Anything, "u2", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("throughput exceeded"))
	reg.On("TokenFor", mock.Anything, mock.Anything).Return("a-long-enough-token", nil)
	snd.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(OutcomeDelivered)

	o := NewOrchestrator(cr, reg, &mockResolver{}, snd)
	result, err := o.SendBatch(context.Background(), validReq("u1", "u2"))

	require.NoError(t, err)
	require.Len(t, result.Notifications, 2)
	assert.NotNil(t, result.Notifications[0])
	assert.Nil(t, result.Notifications[1])
	// persistence failure does not suppress the push attempt
	assert.Equal(t, 2, result.Attempted)
	assert.Equal(t, 2, result.Delivered)
}

func TestSendBatch_TokenlessRecipientNotAttempted(t *testing.T) {
	cr, reg, snd := &mockCreator{}, &mockRegistry{}, &mockSender{}

	cr.On("Create", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(stubNotification("u"), nil)
	reg.On("TokenFor", mock.Anything, "u1").Return("a-long-enough-token", nil)
	reg.On("TokenFor", mock.Anything, "u2").Return("", nil)
	snd.On("Send", mock.Anything, "a-long-enough-token", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(OutcomeDelivered)

	o := NewOrchestrator(cr, reg, &mockResolver{}, snd)
	result, err := o.SendBatch(context.Background(), validReq("u1", "u2"))

	require.NoError(t, err)
	assert.Equal(t, 1, result.Attempted)
	assert.Equal(t, 1, result.Delivered)
	snd.AssertNumberOfCalls(t, "Send", 1)
}

func TestSendBatch_SendPushFalseSkipsDelivery(t *testing.T) {
	cr, reg, snd := &mockCreator{}, &mockRegistry{}, &mockSender{}
	cr.On("Create", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(stubNotification("u1"), nil)

	o := NewOrchestrator(cr, reg, &mockResolver{}, snd)
	req := validReq("u1")
	req.SendPush = false
	result, err := o.SendBatch(context.Background(), req)

	require.NoError(t, err)
	assert.Equal(t, 0, result.Attempted)
	assert.Equal(t, 0, result.Delivered)
	reg.AssertNotCalled(t, "TokenFor", mock.Anything, mock.Anything)
	snd.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSendBatch_InvalidRegistrationTriggersInvalidation(t *testing.T) {
	cr, reg, snd := &mockCreator{}, &mockRegistry{}, &mockSender{}

	cr.On("Create", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(stubNotification("u1"), nil)
	reg.On("TokenFor", mock.Anything, "u1").Return("stale-device-token", nil)
	reg.On("Invalidate", mock.Anything, "stale-device-token").Return(1, nil)
	snd.On("Send", mock.Anything, "stale-device-token", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(OutcomeInvalidRegistration)

	o := NewOrchestrator(cr, reg, &mockResolver{}, snd)
	result, err := o.SendBatch(context.Background(), validReq("u1"))

	require.NoError(t, err)
	assert.Equal(t, 1, result.Attempted)
	assert.Equal(t, 0, result.Delivered)

	// cleanup runs off the batch's critical path
	o.Drain()
	reg.AssertCalled(t, "Invalidate", mock.Anything, "stale-device-token")
}

// --- Broadcast tests ---

func TestBroadcast_DelegatesResolvedIDs(t *testing.T) {
	cr, reg, res, snd := &mockCreator{}, &mockRegistry{}, &mockResolver{}, &mockSender{}

	filter := map[string]interface{}{"role": "user"}
	res.On("Resolve", mock.Anything, filter).Return([]string{"u1", "u2"}, nil)
	cr.On("Create", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(stubNotification("u"), nil)
	reg.On("TokenFor", mock.Anything, mock.Anything).Return("", nil)

	o := NewOrchestrator(cr, reg, res, snd)
	req := validReq()
	req.RecipientIDs = nil
	result, err := o.Broadcast(context.Background(), filter, req)

	require.NoError(t, err)
	assert.Len(t, result.Notifications, 2)
	cr.AssertNumberOfCalls(t, "Create", 2)
}

func TestBroadcast_ZeroMatchesIsEmptySuccess(t *testing.T) {
	cr, res := &mockCreator{}, &mockResolver{}
	res.On("Resolve", mock.Anything, mock.Anything).Return([]string{}, nil)

	o := NewOrchestrator(cr, &mockRegistry{}, res, &mockSender{})
	result, err := o.Broadcast(context.Background(), nil, validReq())

	require.NoError(t, err)
	assert.Empty(t, result.Notifications)
	assert.Zero(t, result.Attempted)
	assert.Zero(t, result.Delivered)
	cr.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestBroadcast_ResolverErrorPropagates(t *testing.T) {
	res := &mockResolver{}
	res.On("Resolve", mock.Anything, mock.Anything).Return(nil, errors.New("scan failed"))

	o := NewOrchestrator(&mockCreator{}, &mockRegistry{}, res, &mockSender{})
	_, err := o.Broadcast(context.Background(), nil, validReq())

	assert.Error(t, err)
}
