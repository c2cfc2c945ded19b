package push

import "context"

// recipientSource is the recipient/user store boundary. The filter structure
// is opaque here; it is passed straight through to the store's query layer.
type recipientSource interface {
	ScanRecipientIDs(ctx context.Context, filter map[string]interface{}) ([]string, error)
}

// Resolver turns a broadcast filter into a concrete recipient-id list.
type Resolver struct {
	users recipientSource
}

func NewResolver(users recipientSource) *Resolver {
	return &Resolver{users: users}
}

// Resolve returns the ids matching filter, order unspecified. A nil or empty
// filter selects all recipients; callers rely on that for true broadcast.
func (r *Resolver) Resolve(ctx context.Context, filter map[string]interface{}) ([]string, error) {
	return r.users.ScanRecipientIDs(ctx, filter)
}
