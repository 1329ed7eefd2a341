// Package persist saves and loads platform snapshots.
//
// Every backend implements [Store]. A snapshot is a complete copy of the platform,
// counters included, so a restored platform continues issuing IDs where the saved
// one stopped.
//
// Available backends:
//
//   - [FileStore] - JSON file on local disk, replaced atomically
//   - [RedisStore] - JSON blob under one Redis key, optionally expiring
//   - [DynamoStore] - one DynamoDB item per entity plus a generation marker
//   - [PostgresStore] - one JSONB row per platform name
package persist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jacentio/socialmedia/platform"
)

var (
	// ErrNoSnapshot is returned by Load when nothing has been saved yet.
	ErrNoSnapshot = errors.New("socialmedia: no snapshot saved")

	// ErrConcurrentSave is returned when another writer replaced the snapshot
	// between this writer's read and its commit.
	ErrConcurrentSave = errors.New("socialmedia: snapshot changed by a concurrent save")
)

// Store saves and loads complete platform snapshots.
type Store interface {
	Save(ctx context.Context, s *platform.Snapshot) error
	Load(ctx context.Context) (*platform.Snapshot, error)
}

// Marshal encodes a snapshot as JSON.
func Marshal(s *platform.Snapshot) ([]byte, error) {
	if s == nil {
		return nil, errors.New("marshal snapshot: nil snapshot")
	}
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot: %w", err)
	}
	return data, nil
}

// Unmarshal decodes a snapshot produced by Marshal. References are checked later,
// by platform.Platform.Restore.
func Unmarshal(data []byte) (*platform.Snapshot, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty snapshot", platform.ErrCorruptSnapshot)
	}
	var s platform.Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%w: %v", platform.ErrCorruptSnapshot, err)
	}
	return &s, nil
}

// SavePlatform saves the platform's current state to st.
func SavePlatform(ctx context.Context, st Store, p *platform.Platform) error {
	return st.Save(ctx, p.Snapshot())
}

// LoadPlatform replaces the platform's state with the snapshot held by st.
// It returns ErrNoSnapshot, leaving p untouched, when st is empty.
func LoadPlatform(ctx context.Context, st Store, p *platform.Platform) error {
	s, err := st.Load(ctx)
	if err != nil {
		return err
	}
	return p.Restore(s)
}
