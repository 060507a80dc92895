package repository

import (
	"context"
	"encoding/json"

	"github.com/wilhelmsk/core/internal/domain/docpath"
	"github.com/wilhelmsk/core/internal/domain/entities"
	"github.com/wilhelmsk/core/internal/ports"
)

// EmptyDefaultsDocument is the defaults document before anything has been saved
var EmptyDefaultsDocument = []byte(`{}`)

// DefaultsRepositoryImpl implements the DefaultsRepository interface over a
// nested document addressed by dotted paths.
type DefaultsRepositoryImpl struct {
	doc ports.DocumentStore
}

// NewDefaultsRepository creates a new defaults repository
func NewDefaultsRepository(doc ports.DocumentStore) ports.DefaultsRepository {
	return &DefaultsRepositoryImpl{doc: doc}
}

func (r *DefaultsRepositoryImpl) Get(ctx context.Context, path string) (json.RawMessage, error) {
	if err := docpath.Validate(path); err != nil {
		return nil, err
	}

	raw, err := r.doc.Load(ctx)
	if err != nil {
		return nil, err
	}

	value, ok := docpath.Get(raw, path)
	if !ok {
		return nil, entities.ErrNotFound
	}
	return value, nil
}

func (r *DefaultsRepositoryImpl) Set(ctx context.Context, path string, value json.RawMessage) error {
	if err := docpath.Validate(path); err != nil {
		return err
	}

	return r.doc.Update(ctx, func(raw []byte) ([]byte, error) {
		return docpath.Set(raw, path, value)
	})
}

func (r *DefaultsRepositoryImpl) Unset(ctx context.Context, path string) error {
	if err := docpath.Validate(path); err != nil {
		return err
	}

	return r.doc.Update(ctx, func(raw []byte) ([]byte, error) {
		return docpath.Unset(raw, path)
	})
}

func (r *DefaultsRepositoryImpl) Document(ctx context.Context) (json.RawMessage, error) {
	raw, err := r.doc.Load(ctx)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(raw), nil
}
