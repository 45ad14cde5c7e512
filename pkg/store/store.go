// Package store persists route state snapshots under a name.
//
// Three backends are provided: MemoryStore for tests and single-process
// use, FileStore for a local directory of JSON files, and S3Store for an
// S3-compatible bucket. All of them are safe for concurrent use.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/vango-dev/routestate/pkg/route"
)

// ErrNotFound is returned when no snapshot exists under a name.
var ErrNotFound = errors.New("store: snapshot not found")

// ErrInvalidName is returned for names that are empty, start with ".",
// or contain characters outside [A-Za-z0-9._-].
var ErrInvalidName = errors.New("store: invalid snapshot name")

// Store is the interface for snapshot backends.
type Store interface {
	// Save stores state under name, replacing any previous snapshot.
	Save(ctx context.Context, name string, state *route.State) error

	// Load returns the snapshot stored under name, or ErrNotFound.
	Load(ctx context.Context, name string) (*route.State, error)

	// Delete removes a snapshot. Deleting a missing snapshot is not an error.
	Delete(ctx context.Context, name string) error

	// List returns all snapshot names in lexical order.
	List(ctx context.Context) ([]string, error)
}

// NewName returns a fresh random snapshot name.
func NewName() string {
	return uuid.NewString()
}

// ValidateName checks that name is usable as a snapshot name in every
// backend (it becomes a file name or an object key suffix).
func ValidateName(name string) error {
	if name == "" || strings.HasPrefix(name, ".") || len(name) > 200 {
		return ErrInvalidName
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		case c == '-' || c == '_' || c == '.':
		default:
			return ErrInvalidName
		}
	}
	return nil
}

func encode(state *route.State) ([]byte, error) {
	if state == nil {
		return nil, errors.New("store: nil state")
	}
	return json.Marshal(state)
}

func decode(data []byte) (*route.State, error) {
	var state route.State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, err
	}
	return &state, nil
}
