package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/wilhelmsk/core/internal/domain/entities"
	"github.com/wilhelmsk/core/internal/infrastructure/logger"
	"github.com/wilhelmsk/core/internal/ports"
)

// GaugeService handles gauge record operations
type GaugeService struct {
	gaugeRepo ports.GaugeRepository
	logger    *logger.Logger
}

// NewGaugeService creates a new gauge service
func NewGaugeService(gaugeRepo ports.GaugeRepository, logger *logger.Logger) *GaugeService {
	return &GaugeService{
		gaugeRepo: gaugeRepo,
		logger:    logger.WithComponent("gauges"),
	}
}

// ListGauges returns every gauge keyed by title
func (s *GaugeService) ListGauges(ctx context.Context) (map[string]json.RawMessage, error) {
	gauges, err := s.gaugeRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list gauges: %w", err)
	}
	return gauges, nil
}

// GetGauge retrieves a gauge by title
func (s *GaugeService) GetGauge(ctx context.Context, title string) (*entities.Gauge, error) {
	if title == "" {
		return nil, fmt.Errorf("%w: gauge title is required", entities.ErrInvalidRequest)
	}

	gauge, err := s.gaugeRepo.Get(ctx, title)
	if err != nil {
		return nil, fmt.Errorf("gauge %q: %w", title, err)
	}
	return gauge, nil
}

// SaveGauge stores a raw gauge record under its title, replacing any
// previous record with the same title
func (s *GaugeService) SaveGauge(ctx context.Context, raw []byte) (*entities.Gauge, error) {
	gauge, err := entities.NewGauge(raw)
	if err != nil {
		return nil, err
	}

	s.logger.Debugw("Saving gauge", "title", gauge.Title, "gauge", string(gauge.Record))

	if err := s.gaugeRepo.Save(ctx, gauge); err != nil {
		return nil, fmt.Errorf("failed to save gauge %q: %w", gauge.Title, err)
	}

	s.logger.Infow("Gauge saved", "title", gauge.Title)
	return gauge, nil
}

// DeleteGauge removes a gauge by title
func (s *GaugeService) DeleteGauge(ctx context.Context, title string) error {
	if title == "" {
		return fmt.Errorf("%w: gauge title is required", entities.ErrInvalidRequest)
	}

	s.logger.Debugw("Deleting gauge", "title", title)

	if err := s.gaugeRepo.Delete(ctx, title); err != nil {
		return fmt.Errorf("failed to delete gauge %q: %w", title, err)
	}

	s.logger.Infow("Gauge removed", "title", title)
	return nil
}
