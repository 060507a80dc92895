package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/wilhelmsk/core/internal/domain/entities"
	"github.com/wilhelmsk/core/internal/ports"
)

// EmptyGaugeDocument is the gauge document before anything has been saved
var EmptyGaugeDocument = []byte(`{"gauges":{}}`)

const gaugesKey = "gauges"

// GaugeRepositoryImpl implements the GaugeRepository interface. Gauges live
// under the "gauges" key of the document, keyed by title; any other root
// keys are carried through untouched.
type GaugeRepositoryImpl struct {
	doc ports.DocumentStore
}

// NewGaugeRepository creates a new gauge repository
func NewGaugeRepository(doc ports.DocumentStore) ports.GaugeRepository {
	return &GaugeRepositoryImpl{doc: doc}
}

func (r *GaugeRepositoryImpl) List(ctx context.Context) (map[string]json.RawMessage, error) {
	raw, err := r.doc.Load(ctx)
	if err != nil {
		return nil, err
	}

	_, gauges, err := decodeGaugeDocument(raw, r.doc.Location())
	if err != nil {
		return nil, err
	}
	return gauges, nil
}

func (r *GaugeRepositoryImpl) Get(ctx context.Context, title string) (*entities.Gauge, error) {
	gauges, err := r.List(ctx)
	if err != nil {
		return nil, err
	}

	record, ok := gauges[title]
	if !ok {
		return nil, entities.ErrNotFound
	}
	return &entities.Gauge{Title: title, Record: record}, nil
}

func (r *GaugeRepositoryImpl) Save(ctx context.Context, gauge *entities.Gauge) error {
	if gauge == nil || gauge.Title == "" {
		return fmt.Errorf("%w: gauge title is required", entities.ErrInvalidRequest)
	}

	return r.doc.Update(ctx, func(raw []byte) ([]byte, error) {
		root, gauges, err := decodeGaugeDocument(raw, r.doc.Location())
		if err != nil {
			return nil, err
		}
		gauges[gauge.Title] = gauge.Record
		return encodeGaugeDocument(root, gauges)
	})
}

func (r *GaugeRepositoryImpl) Delete(ctx context.Context, title string) error {
	return r.doc.Update(ctx, func(raw []byte) ([]byte, error) {
		root, gauges, err := decodeGaugeDocument(raw, r.doc.Location())
		if err != nil {
			return nil, err
		}
		if _, ok := gauges[title]; !ok {
			return nil, entities.ErrNotFound
		}
		delete(gauges, title)
		return encodeGaugeDocument(root, gauges)
	})
}

func decodeGaugeDocument(raw []byte, file string) (map[string]json.RawMessage, map[string]json.RawMessage, error) {
	root := map[string]json.RawMessage{}
	if err := json.Unmarshal(raw, &root); err != nil {
		return nil, nil, &entities.ParseError{File: file, Err: err}
	}

	gauges := map[string]json.RawMessage{}
	if section, ok := root[gaugesKey]; ok && !bytes.Equal(bytes.TrimSpace(section), []byte("null")) {
		if err := json.Unmarshal(section, &gauges); err != nil {
			return nil, nil, &entities.ParseError{File: file, Err: fmt.Errorf("gauges section: %w", err)}
		}
	}
	return root, gauges, nil
}

func encodeGaugeDocument(root, gauges map[string]json.RawMessage) ([]byte, error) {
	section, err := marshal(gauges)
	if err != nil {
		return nil, fmt.Errorf("encode gauges: %w", err)
	}
	root[gaugesKey] = section
	return marshal(root)
}

// marshal encodes without HTML escaping so records are stored as sent.
func marshal(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
