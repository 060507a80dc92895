package ports

import (
	"context"
	"encoding/json"

	"github.com/wilhelmsk/core/internal/domain/entities"
)

// DocumentStore persists a single JSON document. Every call goes to disk;
// Update serializes writers so read-modify-write cycles never interleave.
type DocumentStore interface {
	// Load returns the current document, or the store's empty default when
	// the file does not exist yet.
	Load(ctx context.Context) ([]byte, error)
	// Update loads the document, applies fn and atomically writes the result.
	// When fn returns an error nothing is written.
	Update(ctx context.Context, fn func(doc []byte) ([]byte, error)) error
	// Location names the backing file for logs and health output.
	Location() string
}

// GaugeRepository defines the interface for gauge record operations
type GaugeRepository interface {
	List(ctx context.Context) (map[string]json.RawMessage, error)
	Get(ctx context.Context, title string) (*entities.Gauge, error)
	Save(ctx context.Context, gauge *entities.Gauge) error
	Delete(ctx context.Context, title string) error
}

// DefaultsRepository defines the interface for path-addressed default values
type DefaultsRepository interface {
	Get(ctx context.Context, path string) (json.RawMessage, error)
	Set(ctx context.Context, path string, value json.RawMessage) error
	Unset(ctx context.Context, path string) error
	Document(ctx context.Context) (json.RawMessage, error)
}

// DeltaPublisher hands deltas to the data bus. Delivery is best effort.
type DeltaPublisher interface {
	Publish(ctx context.Context, delta entities.Delta)
}

// DeltaSubscriber receives every published delta.
type DeltaSubscriber interface {
	HandleDelta(delta entities.Delta)
}

// PathRegistry answers questions about the paths the server knows of.
type PathRegistry interface {
	Paths() []string
	AllPaths() []string
	PutPaths() []string
	Switches() []entities.PathInfo
	MultiSwitches() []entities.PathInfo
	Meta(path string) (entities.PathMeta, bool)
}

// DeltaEmitter publishes a changed defaults value when the path belongs on
// the data bus. It reports whether anything was sent.
type DeltaEmitter interface {
	Emit(ctx context.Context, path string, value json.RawMessage) bool
}
