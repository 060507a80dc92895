package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/wilhelmsk/core/internal/domain/entities"
	"github.com/wilhelmsk/core/internal/infrastructure/logger"
	"github.com/wilhelmsk/core/internal/ports"
)

// DefaultsService handles path-addressed default values. Changes under the
// local vessel are re-published on the data bus.
type DefaultsService struct {
	defaultsRepo ports.DefaultsRepository
	emitter      ports.DeltaEmitter
	logger       *logger.Logger
}

// NewDefaultsService creates a new defaults service. emitter may be nil, in
// which case no deltas are sent.
func NewDefaultsService(defaultsRepo ports.DefaultsRepository, emitter ports.DeltaEmitter, logger *logger.Logger) *DefaultsService {
	return &DefaultsService{
		defaultsRepo: defaultsRepo,
		emitter:      emitter,
		logger:       logger.WithComponent("defaults"),
	}
}

// GetDefault returns the value stored at path
func (s *DefaultsService) GetDefault(ctx context.Context, path string) (json.RawMessage, error) {
	value, err := s.defaultsRepo.Get(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("default %s: %w", path, err)
	}
	return value, nil
}

// SaveDefault stores value at path and publishes it
func (s *DefaultsService) SaveDefault(ctx context.Context, path string, value json.RawMessage) error {
	value = bytes.TrimSpace(value)
	if len(value) == 0 || !json.Valid(value) {
		return fmt.Errorf("%w: value must be JSON", entities.ErrInvalidRequest)
	}

	s.logger.Debugw("Saving default", "path", path, "value", string(value))

	if err := s.defaultsRepo.Set(ctx, path, value); err != nil {
		return fmt.Errorf("failed to save default %s: %w", path, err)
	}

	s.emit(ctx, path, value)
	s.logger.Infow("Defaults saved", "path", path)
	return nil
}

// DeleteDefault removes the value at path and publishes a null value
func (s *DefaultsService) DeleteDefault(ctx context.Context, path string) error {
	s.logger.Debugw("Deleting default", "path", path)

	if err := s.defaultsRepo.Unset(ctx, path); err != nil {
		return fmt.Errorf("failed to delete default %s: %w", path, err)
	}

	s.emit(ctx, path, nil)
	s.logger.Infow("Default removed", "path", path)
	return nil
}

// Document returns the whole defaults document
func (s *DefaultsService) Document(ctx context.Context) (json.RawMessage, error) {
	doc, err := s.defaultsRepo.Document(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}
	return doc, nil
}

func (s *DefaultsService) emit(ctx context.Context, path string, value json.RawMessage) {
	if s.emitter == nil {
		return
	}
	if s.emitter.Emit(ctx, path, value) {
		s.logger.Debugw("Delta sent", "path", path)
	}
}
