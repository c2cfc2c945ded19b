package fcm

import (
	"context"
	"errors"
	"testing"

	"firebase.google.com/go/v4/messaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/go-commerce-api/internal/domain"
)

type mockMessagingClient struct{ mock.Mock }

func (m *mockMessagingClient) Send(ctx context.Context, message *messaging.Message) (string, error) {
	args := m.Called(ctx, message)
	return args.String(0), args.Error(1)
}

func TestGatewaySend_ReturnsMessageID(t *testing.T) {
	client := &mockMessagingClient{}
	client.On("Send", mock.Anything, mock.Anything).Return("projects/p/messages/1", nil)

	id, err := NewGatewayWithClient(client).Send(context.Background(), &messaging.Message{Token: "tok"})

	require.NoError(t, err)
	assert.Equal(t, "projects/p/messages/1", id)
}

func TestGatewaySend_GenericErrorPassesThrough(t *testing.T) {
	client := &mockMessagingClient{}
	sendErr := errors.New("quota exceeded")
	client.On("Send", mock.Anything, mock.Anything).Return("", sendErr)

	_, err := NewGatewayWithClient(client).Send(context.Background(), &messaging.Message{Token: "tok"})

	require.Error(t, err)
	assert.ErrorIs(t, err, sendErr)
	assert.NotErrorIs(t, err, domain.ErrTokenUnregistered)
}
