package push

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-commerce-api/internal/domain"
)

// invalidateTimeout bounds the background token cleanup triggered by an
// invalid-registration outcome.
const invalidateTimeout = 30 * time.Second

// SendRequest describes one batch send. Data may carry arbitrarily-typed
// values; they are flattened to strings at the dispatcher edge.
type SendRequest struct {
	RecipientIDs []string
	Title        string
	Body         string
	Data         map[string]interface{}
	Status       string
	Type         string
	SendPush     bool
	Priority     string
	TTLSeconds   int
}

// BatchResult is the aggregate outcome of one batch or broadcast send.
// Notifications is index-aligned with the recipient list; an entry is nil
// when persistence failed for that recipient. Delivery is best-effort, the
// persisted in-app record is authoritative.
type BatchResult struct {
	Notifications []*domain.Notification
	Attempted     int
	Delivered     int
}

type notificationCreator interface {
	Create(ctx context.Context, userID, title, body string, data map[string]string, status, notifType string) (*domain.Notification, error)
}

type tokenRegistry interface {
	TokenFor(ctx context.Context, userID string) (string, error)
	Invalidate(ctx context.Context, token string) (int, error)
}

type recipientResolver interface {
	Resolve(ctx context.Context, filter map[string]interface{}) ([]string, error)
}

type sender interface {
	Send(ctx context.Context, token, title, body string, data map[string]interface{}, priority string, ttlSeconds int) Outcome
}

// Orchestrator is the entry point for batch and broadcast sends: it persists
// one record per recipient, resolves device tokens, fans deliveries out
// concurrently, and feeds invalid registrations back into the registry.
type Orchestrator struct {
	store      notificationCreator
	registry   tokenRegistry
	resolver   recipientResolver
	dispatcher sender

	// bg tracks fire-and-forget invalidations so shutdown can drain them.
	// Batch results never wait on it.
	bg sync.WaitGroup
}

func NewOrchestrator(store notificationCreator, registry tokenRegistry, resolver recipientResolver, dispatcher sender) *Orchestrator {
	return &Orchestrator{
		store:      store,
		registry:   registry,
		resolver:   resolver,
		dispatcher: dispatcher,
	}
}

// SendBatch persists one notification per recipient and, when requested,
// dispatches pushes to every recipient that has a registered token.
//
// Only upfront validation aborts the operation. Once recipient ids are known
// everything degrades per recipient: a persistence failure leaves a nil hole
// in the records list, a delivery failure is absorbed into the counts, and
// neither touches sibling recipients.
func (o *Orchestrator) SendBatch(ctx context.Context, req SendRequest) (*BatchResult, error) {
	if len(req.RecipientIDs) == 0 {
		return nil, fmt.Errorf("recipients required: %w", domain.ErrBadRequest)
	}
	if req.Title == "" || req.Body == "" {
		return nil, fmt.Errorf("title and body required: %w", domain.ErrBadRequest)
	}
	if req.Status == "" {
		req.Status = domain.NotificationStatusActive
	}
	if req.Type == "" {
		req.Type = domain.NotificationTypeInfo
	}

	recordData := stringifyValues(req.Data)
	result := &BatchResult{
		Notifications: make([]*domain.Notification, len(req.RecipientIDs)),
	}
	for i, rid := range req.RecipientIDs {
		n, err := o.store.Create(ctx, rid, req.Title, req.Body, recordData, req.Status, req.Type)
		if err != nil {
			slog.Warn("could not persist notification", "user_id", rid, "err", err)
			continue
		}
		result.Notifications[i] = n
	}

	if !req.SendPush {
		return result, nil
	}

	type target struct {
		userID string
		token  string
	}
	var targets []target
	for _, rid := range req.RecipientIDs {
		token, err := o.registry.TokenFor(ctx, rid)
		if err != nil {
			slog.Warn("could not resolve push token", "user_id", rid, "err", err)
			continue
		}
		if token == "" {
			// No device registered: the in-app record is all they get.
			continue
		}
		targets = append(targets, target{userID: rid, token: token})
	}

	result.Attempted = len(targets)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		delivered int
	)
	for _, t := range targets {
		wg.Add(1)
		go func(t target) {
			defer wg.Done()
			data := make(map[string]interface{}, len(req.Data)+3)
			for k, v := range req.Data {
				data[k] = v
			}
			data["type"] = req.Type
			data["sent_at"] = time.Now().UTC().Format(time.RFC3339)
			data["recipient_id"] = t.userID

			switch o.dispatcher.Send(ctx, t.token, req.Title, req.Body, data, req.Priority, req.TTLSeconds) {
			case OutcomeDelivered:
				mu.Lock()
				delivered++
				mu.Unlock()
			case OutcomeInvalidRegistration:
				o.invalidateAsync(t.token)
			}
		}(t)
	}
	// Wait for all deliveries to settle, success or not, before summarizing.
	wg.Wait()

	result.Delivered = delivered
	return result, nil
}

// Broadcast resolves filter into a recipient list and delegates to SendBatch.
// A filter matching nobody is a valid, empty, successful result.
func (o *Orchestrator) Broadcast(ctx context.Context, filter map[string]interface{}, req SendRequest) (*BatchResult, error) {
	ids, err := o.resolver.Resolve(ctx, filter)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return &BatchResult{Notifications: []*domain.Notification{}}, nil
	}
	req.RecipientIDs = ids
	return o.SendBatch(ctx, req)
}

// invalidateAsync purges a dead token from the registry without blocking the
// batch that discovered it. The registry call is idempotent under concurrent
// invocation, so the same stale token surfacing in two batches is harmless.
func (o *Orchestrator) invalidateAsync(token string) {
	o.bg.Add(1)
	go func() {
		defer o.bg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), invalidateTimeout)
		defer cancel()
		n, err := o.registry.Invalidate(ctx, token)
		if err != nil {
			slog.Error("could not invalidate stale push token", "err", err)
			return
		}
		if n > 0 {
			slog.Info("cleared stale push token", "users_affected", n)
		}
	}()
}

// Drain blocks until all background invalidations have finished. Called on
// shutdown; tests use it to observe invalidation side effects.
func (o *Orchestrator) Drain() {
	o.bg.Wait()
}
