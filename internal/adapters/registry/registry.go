package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/goccy/go-yaml"
	"github.com/spf13/afero"

	"github.com/wilhelmsk/core/internal/domain/entities"
	"github.com/wilhelmsk/core/internal/infrastructure/logger"
	"github.com/wilhelmsk/core/internal/ports"
)

// seedFile is the on-disk description of known paths. JSON is accepted as
// well since it is valid YAML.
type seedFile struct {
	Paths map[string]seedEntry `yaml:"paths"`
}

type seedEntry struct {
	Value interface{}            `yaml:"value"`
	Meta  map[string]interface{} `yaml:"meta"`
}

type liveValue struct {
	value     json.RawMessage
	timestamp string
}

// Registry tracks the paths the server knows of: those declared in the seed
// file and those seen on the data bus.
type Registry struct {
	mu   sync.RWMutex
	seed map[string]entities.PathInfo
	live map[string]liveValue

	fs       afero.Fs
	seedPath string
	logger   *logger.Logger
}

// New creates a registry. seedPath may be empty.
func New(fs afero.Fs, seedPath string, log *logger.Logger) *Registry {
	return &Registry{
		seed:     make(map[string]entities.PathInfo),
		live:     make(map[string]liveValue),
		fs:       fs,
		seedPath: seedPath,
		logger:   log.WithComponent("registry"),
	}
}

var (
	_ ports.PathRegistry    = (*Registry)(nil)
	_ ports.DeltaSubscriber = (*Registry)(nil)
)

// Load reads the seed file. A missing seed file leaves the registry empty.
func (r *Registry) Load() error {
	if r.seedPath == "" {
		return nil
	}

	data, err := afero.ReadFile(r.fs, r.seedPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			r.logger.Warnw("Registry seed file not found", "file", r.seedPath)
			return nil
		}
		return &entities.IOError{Op: "read", File: r.seedPath, Err: err}
	}

	var sf seedFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return &entities.ParseError{File: r.seedPath, Err: err}
	}

	seed := make(map[string]entities.PathInfo, len(sf.Paths))
	for path, e := range sf.Paths {
		info := entities.PathInfo{Path: path, Meta: entities.PathMeta(e.Meta)}
		if e.Value != nil {
			raw, err := json.Marshal(e.Value)
			if err != nil {
				return &entities.ParseError{File: r.seedPath, Err: fmt.Errorf("value of %s: %w", path, err)}
			}
			info.Value = raw
			info.HasValue = true
		}
		seed[path] = info
	}

	r.mu.Lock()
	r.seed = seed
	r.mu.Unlock()

	r.logger.Infow("Registry seed loaded", "file", r.seedPath, "paths", len(seed))
	return nil
}

// HandleDelta records every value on the bus as an available path
func (r *Registry) HandleDelta(delta entities.Delta) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range delta.Updates {
		for _, v := range u.Values {
			r.live[v.Path] = liveValue{value: v.Value, timestamp: u.Timestamp}
		}
	}
}

// Paths returns the paths that currently carry a value
func (r *Registry) Paths() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	set := make(map[string]struct{}, len(r.live)+len(r.seed))
	for p := range r.live {
		set[p] = struct{}{}
	}
	for p, info := range r.seed {
		if info.HasValue {
			set[p] = struct{}{}
		}
	}
	return sortedKeys(set)
}

// AllPaths returns every known path, with or without a value
func (r *Registry) AllPaths() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	set := make(map[string]struct{}, len(r.live)+len(r.seed))
	for p := range r.live {
		set[p] = struct{}{}
	}
	for p := range r.seed {
		set[p] = struct{}{}
	}
	return sortedKeys(set)
}

// PutPaths returns the paths whose metadata declares PUT support
func (r *Registry) PutPaths() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []string
	for p, info := range r.seed {
		if info.Meta.SupportsPut() {
			out = append(out, p)
		}
	}
	sort.Strings(out)
	return nonNil(out)
}

// Switches returns on/off switch state paths
func (r *Registry) Switches() []entities.PathInfo {
	return r.switches(false)
}

// MultiSwitches returns switch state paths that declare possible values
func (r *Registry) MultiSwitches() []entities.PathInfo {
	return r.switches(true)
}

func (r *Registry) switches(multi bool) []entities.PathInfo {
	paths := r.AllPaths()

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []entities.PathInfo{}
	for _, p := range paths {
		if !entities.IsSwitchState(p) {
			continue
		}
		info := r.infoLocked(p)
		if (len(info.Meta.PossibleValues()) > 0) != multi {
			continue
		}
		out = append(out, info)
	}
	return out
}

// Meta returns the metadata declared for path
func (r *Registry) Meta(path string) (entities.PathMeta, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	info, ok := r.seed[strings.TrimPrefix(path, entities.SelfPrefix)]
	if !ok || len(info.Meta) == 0 {
		return nil, false
	}
	return info.Meta, true
}

func (r *Registry) infoLocked(path string) entities.PathInfo {
	info, ok := r.seed[path]
	if !ok {
		info = entities.PathInfo{Path: path}
	}
	if v, ok := r.live[path]; ok {
		info.Value = v.value
		info.Timestamp = v.timestamp
		info.HasValue = true
	}
	return info
}

// Watch reloads the seed file whenever it changes until ctx is done. The
// directory is watched rather than the file so editors that replace the
// file are noticed.
func (r *Registry) Watch(ctx context.Context) error {
	if r.seedPath == "" {
		<-ctx.Done()
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(r.seedPath)
	if err := watcher.Add(dir); err != nil {
		r.logger.Warnw("Registry seed directory cannot be watched, reload disabled", "dir", dir, "error", err)
		<-ctx.Done()
		return nil
	}

	target := filepath.Clean(r.seedPath)
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if err := r.Load(); err != nil {
				r.logger.Errorw("Registry reload failed", "file", r.seedPath, "error", err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			r.logger.Warnw("Registry watcher error", "error", err)
		}
	}
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
