package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	red "github.com/redis/go-redis/v9"

	"github.com/theranjitkumar/blogger/internal/core/domain"
	"github.com/theranjitkumar/blogger/internal/core/port"
	"github.com/theranjitkumar/blogger/internal/repository"
)

const defaultSessionPrefix = "blogger:session"

// SessionRepository implements port.SessionStore backed by Redis. Expiry is
// delegated to Redis key TTLs, so a readable session is always live.
type SessionRepository struct {
	client *red.Client
	prefix string
	now    port.Clock
}

// NewSessionRepository wires Redis storage for server-side sessions.
func NewSessionRepository(client *red.Client, prefix string) *SessionRepository {
	trimmed := strings.TrimSpace(prefix)
	if trimmed == "" {
		trimmed = defaultSessionPrefix
	}

	return &SessionRepository{client: client, prefix: trimmed, now: port.SystemClock()}
}

// WithClock overrides the repository clock. Intended for tests.
func (r *SessionRepository) WithClock(clock port.Clock) *SessionRepository {
	r.now = clock
	return r
}

type sessionEnvelope struct {
	Identity  domain.SessionIdentity `json:"identity"`
	CreatedAt time.Time              `json:"created_at"`
	ExpiresAt time.Time              `json:"expires_at"`
}

// Create stores the session with a TTL derived from its expiry.
func (r *SessionRepository) Create(ctx context.Context, session domain.Session) error {
	if session.ID == "" {
		return fmt.Errorf("session id required")
	}

	ttl := session.ExpiresAt.Sub(r.now())
	if ttl <= 0 {
		return fmt.Errorf("session already expired")
	}

	data, err := json.Marshal(sessionEnvelope{
		Identity:  session.Identity,
		CreatedAt: session.CreatedAt.UTC(),
		ExpiresAt: session.ExpiresAt.UTC(),
	})
	if err != nil {
		return fmt.Errorf("encode session envelope: %w", err)
	}

	if err := r.client.Set(ctx, r.key(session.ID), data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set session: %w", err)
	}

	return nil
}

// Get retrieves a live session. Missing or expired sessions surface as
// repository.ErrNotFound.
func (r *SessionRepository) Get(ctx context.Context, id string) (*domain.Session, error) {
	data, err := r.client.Get(ctx, r.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, red.Nil) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("redis get session: %w", err)
	}

	var envelope sessionEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("decode session envelope: %w", err)
	}

	session := &domain.Session{
		ID:        id,
		Identity:  envelope.Identity,
		CreatedAt: envelope.CreatedAt,
		ExpiresAt: envelope.ExpiresAt,
	}

	if session.IsExpired(r.now()) {
		return nil, repository.ErrNotFound
	}

	return session, nil
}

// Delete removes the session. Deleting an absent session is not an error.
func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, r.key(id)).Err(); err != nil {
		return fmt.Errorf("redis del session: %w", err)
	}
	return nil
}

func (r *SessionRepository) key(id string) string {
	return fmt.Sprintf("%s:%s", r.prefix, id)
}

var _ port.SessionStore = (*SessionRepository)(nil)
