package port

import (
	"context"

	"github.com/theranjitkumar/blogger/internal/core/domain"
)

// SessionStore persists server-side sessions keyed by opaque identifier.
// The store owns expiry; a fetched session is guaranteed unexpired.
type SessionStore interface {
	Create(ctx context.Context, session domain.Session) error
	Get(ctx context.Context, id string) (*domain.Session, error)
	Delete(ctx context.Context, id string) error
}
