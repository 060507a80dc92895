package services

import (
	"fmt"

	"github.com/wilhelmsk/core/internal/domain/docpath"
	"github.com/wilhelmsk/core/internal/domain/entities"
	"github.com/wilhelmsk/core/internal/ports"
)

// MetadataService answers read-only questions about known paths
type MetadataService struct {
	registry ports.PathRegistry
}

// NewMetadataService creates a new metadata service
func NewMetadataService(registry ports.PathRegistry) *MetadataService {
	return &MetadataService{registry: registry}
}

func (s *MetadataService) Paths() []string                    { return s.registry.Paths() }
func (s *MetadataService) AllPaths() []string                 { return s.registry.AllPaths() }
func (s *MetadataService) PutPaths() []string                 { return s.registry.PutPaths() }
func (s *MetadataService) Switches() []entities.PathInfo      { return s.registry.Switches() }
func (s *MetadataService) MultiSwitches() []entities.PathInfo { return s.registry.MultiSwitches() }

// Meta returns the metadata of a dotted path
func (s *MetadataService) Meta(path string) (entities.PathMeta, error) {
	if err := docpath.Validate(path); err != nil {
		return nil, err
	}

	meta, ok := s.registry.Meta(path)
	if !ok {
		return nil, fmt.Errorf("meta %s: %w", path, entities.ErrNotFound)
	}
	return meta, nil
}
