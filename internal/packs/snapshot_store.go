package packs

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/packlane/packlane-backend/internal/bundle"
	"github.com/packlane/packlane-backend/pkg/redis"
)

type snapshotDocument struct {
	Entries []bundle.SelectionEntry `json:"entries"`
	SavedAt time.Time               `json:"saved_at"`
}

// SnapshotStore persists builder selections in Redis so a session survives
// page reloads. Each write refreshes the TTL.
type SnapshotStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSnapshotStore builds the store over the shared Redis client.
func NewSnapshotStore(client *redis.Client, ttl time.Duration) (*SnapshotStore, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("snapshot ttl must be positive")
	}
	return &SnapshotStore{client: client, ttl: ttl}, nil
}

// Save writes the selection snapshot for the session.
func (s *SnapshotStore) Save(ctx context.Context, sessionID uuid.UUID, entries []bundle.SelectionEntry) error {
	doc := snapshotDocument{Entries: entries, SavedAt: time.Now().UTC()}
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	return s.client.Set(ctx, s.client.SnapshotKey(sessionID.String()), raw, s.ttl)
}

// Load returns the stored snapshot. The second result is false when the
// session has no snapshot, which callers treat as an empty selection.
func (s *SnapshotStore) Load(ctx context.Context, sessionID uuid.UUID) ([]bundle.SelectionEntry, bool, error) {
	raw, err := s.client.Get(ctx, s.client.SnapshotKey(sessionID.String()))
	if err != nil {
		if redis.IsNil(err) {
			return nil, false, nil
		}
		return nil, false, err
	}

	var doc snapshotDocument
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, false, fmt.Errorf("decode snapshot: %w", err)
	}
	return doc.Entries, true, nil
}

// Delete drops the snapshot for the session.
func (s *SnapshotStore) Delete(ctx context.Context, sessionID uuid.UUID) error {
	return s.client.Del(ctx, s.client.SnapshotKey(sessionID.String()))
}
