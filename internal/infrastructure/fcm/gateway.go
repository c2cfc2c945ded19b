package fcm

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"github.com/go-commerce-api/internal/config"
	"github.com/go-commerce-api/internal/domain"
	"google.golang.org/api/option"
)

// MessagingClient is the subset of the Firebase Messaging API the gateway
// uses. *messaging.Client satisfies it; tests substitute a fake.
type MessagingClient interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// Gateway submits push messages to FCM and normalizes its error taxonomy:
// a token the provider reports as unregistered comes back wrapped in
// domain.ErrTokenUnregistered so callers can discriminate with errors.Is.
type Gateway struct {
	client MessagingClient
}

// NewGateway initialises the Firebase app from the configured service-account
// file and returns a Gateway over its messaging client.
func NewGateway(ctx context.Context, cfg *config.Config) (*Gateway, error) {
	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(cfg.FirebaseCredentialsFile))
	if err != nil {
		return nil, fmt.Errorf("init firebase app: %w", err)
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("init fcm client: %w", err)
	}
	return &Gateway{client: client}, nil
}

// NewGatewayWithClient wraps an existing messaging client (used in tests).
func NewGatewayWithClient(client MessagingClient) *Gateway {
	return &Gateway{client: client}
}

func (g *Gateway) Send(ctx context.Context, msg *messaging.Message) (string, error) {
	id, err := g.client.Send(ctx, msg)
	if err != nil {
		if messaging.IsRegistrationTokenNotRegistered(err) {
			return "", fmt.Errorf("fcm rejected token: %w", domain.ErrTokenUnregistered)
		}
		return "", err
	}
	return id, nil
}
