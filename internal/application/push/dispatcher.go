package push

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"firebase.google.com/go/v4/messaging"
	"github.com/go-commerce-api/internal/domain"
)

// Outcome is the closed result set for a single delivery attempt. Delivery
// problems are values, never errors: a send is always one leaf of a larger
// fan-out, and sibling recipients must not be affected by one bad token.
type Outcome int

const (
	OutcomeDelivered Outcome = iota
	// OutcomeSkipped means the token was obviously malformed and no gateway
	// call was made.
	OutcomeSkipped
	// OutcomeInvalidRegistration means the gateway reported the token as
	// permanently unregistered. The caller should invalidate it.
	OutcomeInvalidRegistration
	// OutcomeTransientFailure covers every other gateway problem, timeouts
	// included. Logged, not retried here.
	OutcomeTransientFailure
)

func (o Outcome) String() string {
	switch o {
	case OutcomeDelivered:
		return "delivered"
	case OutcomeSkipped:
		return "skipped"
	case OutcomeInvalidRegistration:
		return "invalid_registration"
	case OutcomeTransientFailure:
		return "transient_failure"
	default:
		return "unknown"
	}
}

const (
	// minTokenLength guards against wasting a gateway round-trip on tokens
	// that cannot possibly be valid. Real FCM tokens are far longer.
	minTokenLength = 10

	// sendTimeout bounds a single gateway call so a hung request cannot
	// stall an entire batch.
	sendTimeout = 10 * time.Second

	defaultTTL = 24 * time.Hour
)

const (
	PriorityHigh   = "high"
	PriorityNormal = "normal"
)

// Gateway is the push provider boundary. Implementations must wrap
// permanently-unregistered-token errors in domain.ErrTokenUnregistered.
type Gateway interface {
	Send(ctx context.Context, msg *messaging.Message) (string, error)
}

// Dispatcher builds provider-ready payloads and interprets gateway errors.
type Dispatcher struct {
	gateway Gateway
}

func NewDispatcher(gateway Gateway) *Dispatcher {
	return &Dispatcher{gateway: gateway}
}

// Send delivers one push message. The data map is flattened to strings at
// this edge, classified into a channel, and sent with platform hints derived
// from priority and ttlSeconds: Android gets a relative-duration TTL, APNS an
// absolute expiry timestamp.
func (d *Dispatcher) Send(ctx context.Context, token, title, body string, data map[string]interface{}, priority string, ttlSeconds int) Outcome {
	if len(token) < minTokenLength {
		return OutcomeSkipped
	}
	if d.gateway == nil {
		slog.Warn("push gateway not configured, dropping delivery")
		return OutcomeTransientFailure
	}

	payload := stringifyValues(data)
	channel, highDefault := Classify(payload["type"])
	payload = enrich(payload, channel)

	if priority == "" {
		priority = PriorityNormal
		if highDefault {
			priority = PriorityHigh
		}
	}
	apnsPriority := "5"
	if priority == PriorityHigh {
		apnsPriority = "10"
	}

	ttl := defaultTTL
	if ttlSeconds > 0 {
		ttl = time.Duration(ttlSeconds) * time.Second
	}
	badge := 1

	msg := &messaging.Message{
		Token: token,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: payload,
		Android: &messaging.AndroidConfig{
			Priority: priority,
			TTL:      &ttl,
			Notification: &messaging.AndroidNotification{
				ChannelID:   channel,
				Sound:       "default",
				ClickAction: clickAction,
			},
		},
		APNS: &messaging.APNSConfig{
			Headers: map[string]string{
				"apns-priority":   apnsPriority,
				"apns-expiration": strconv.FormatInt(time.Now().Add(ttl).Unix(), 10),
			},
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{
					Sound:            "default",
					Badge:            &badge,
					ContentAvailable: true,
				},
			},
		},
	}

	sctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	_, err := d.gateway.Send(sctx, msg)
	switch {
	case err == nil:
		return OutcomeDelivered
	case errors.Is(err, domain.ErrTokenUnregistered):
		return OutcomeInvalidRegistration
	default:
		slog.Warn("push delivery failed", "channel", channel, "err", err)
		return OutcomeTransientFailure
	}
}

// stringifyValues flattens an arbitrarily-typed data map into the flat
// string-to-string map the delivery protocol requires.
func stringifyValues(in map[string]interface{}) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		switch t := v.(type) {
		case string:
			out[k] = t
		case nil:
			out[k] = ""
		default:
			out[k] = fmt.Sprint(v)
		}
	}
	return out
}
