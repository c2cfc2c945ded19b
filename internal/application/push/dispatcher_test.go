package push

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"firebase.google.com/go/v4/messaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/go-commerce-api/internal/domain"
)

// --- mocks ---

type mockGateway struct{ mock.Mock }

func (m *mockGateway) Send(ctx context.Context, msg *messaging.Message) (string, error) {
	args := m.Called(ctx, msg)
	return args.String(0), args.Error(1)
}

const testToken = "fcm-token-long-enough-to-pass"

// --- tests ---

func TestDispatcherSend_ShortTokenSkipped(t *testing.T) {
	gw := &mockGateway{}
	d := NewDispatcher(gw)

	out := d.Send(context.Background(), "short", "t", "b", nil, "", 0)

	assert.Equal(t, OutcomeSkipped, out)
	gw.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestDispatcherSend_NoGatewayIsTransient(t *testing.T) {
	d := NewDispatcher(nil)

	out := d.Send(context.Background(), testToken, "t", "b", nil, "", 0)

	assert.Equal(t, OutcomeTransientFailure, out)
}

func TestDispatcherSend_BuildsProviderMessage(t *testing.T) {
	gw := &mockGateway{}
	var sent *messaging.Message
	gw.On("Send", mock.Anything, mock.AnythingOfType("*messaging.Message")).
		Run(func(args mock.Arguments) { sent = args.Get(1).(*messaging.Message) }).
		Return("msg-id", nil)

	d := NewDispatcher(gw)
	data := map[string]interface{}{
		"type":     "order",
		"order_id": 42,
		"note":     nil,
	}
	out := d.Send(context.Background(), testToken, "Order shipped", "On its way", data, "", 600)

	require.Equal(t, OutcomeDelivered, out)
	require.NotNil(t, sent)
	assert.Equal(t, testToken, sent.Token)
	assert.Equal(t, "Order shipped", sent.Notification.Title)
	assert.Equal(t, "On its way", sent.Notification.Body)

	// non-string values flattened, channel routing injected
	assert.Equal(t, "42", sent.Data["order_id"])
	assert.Equal(t, "", sent.Data["note"])
	assert.Equal(t, ChannelOrders, sent.Data["channel_id"])
	assert.Equal(t, clickAction, sent.Data["click_action"])
	assert.Equal(t, defaultScreen, sent.Data["screen"])

	// order type defaults to high priority on both platforms
	require.NotNil(t, sent.Android)
	assert.Equal(t, PriorityHigh, sent.Android.Priority)
	require.NotNil(t, sent.Android.TTL)
	assert.Equal(t, 600*time.Second, *sent.Android.TTL)
	assert.Equal(t, ChannelOrders, sent.Android.Notification.ChannelID)
	require.NotNil(t, sent.APNS)
	assert.Equal(t, "10", sent.APNS.Headers["apns-priority"])
	assert.NotEmpty(t, sent.APNS.Headers["apns-expiration"])
	assert.True(t, sent.APNS.Payload.Aps.ContentAvailable)
}

func TestDispatcherSend_ExplicitPriorityWins(t *testing.T) {
	gw := &mockGateway{}
	var sent *messaging.Message
	gw.On("Send", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { sent = args.Get(1).(*messaging.Message) }).
		Return("msg-id", nil)

	d := NewDispatcher(gw)
	data := map[string]interface{}{"type": "order"}
	d.Send(context.Background(), testToken, "t", "b", data, PriorityNormal, 0)

	require.NotNil(t, sent)
	assert.Equal(t, PriorityNormal, sent.Android.Priority)
	assert.Equal(t, "5", sent.APNS.Headers["apns-priority"])
}

func TestDispatcherSend_UnregisteredToken(t *testing.T) {
	gw := &mockGateway{}
	gw.On("Send", mock.Anything, mock.Anything).
		Return("", fmt.Errorf("fcm rejected token: %w", domain.ErrTokenUnregistered))

	d := NewDispatcher(gw)
	out := d.Send(context.Background(), testToken, "t", "b", nil, "", 0)

	assert.Equal(t, OutcomeInvalidRegistration, out)
}

func TestDispatcherSend_OtherErrorsTransient(t *testing.T) {
	gw := &mockGateway{}
	gw.On("Send", mock.Anything, mock.Anything).Return("", errors.New("503 unavailable"))

	d := NewDispatcher(gw)
	out := d.Send(context.Background(), testToken, "t", "b", nil, "", 0)

	assert.Equal(t, OutcomeTransientFailure, out)
}

func TestStringifyValues(t *testing.T) {
	out := stringifyValues(map[string]interface{}{
		"s": "str",
		"i": 7,
		"f": 1.5,
		"b": true,
		"n": nil,
	})

	assert.Equal(t, map[string]string{
		"s": "str",
		"i": "7",
		"f": "1.5",
		"b": "true",
		"n": "",
	}, out)
}
