package entities

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Common errors
var (
	ErrNotFound       = errors.New("not found")
	ErrInvalidRequest = errors.New("invalid request")
	ErrInvalidPath    = fmt.Errorf("%w: invalid path", ErrInvalidRequest)
	ErrUnauthorized   = errors.New("unauthorized")
)

// ParseError reports a persisted document that is not valid JSON.
type ParseError struct {
	File string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("malformed document %s: %v", e.File, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// IOError reports a failed read or write of a persisted document.
type IOError struct {
	Op   string
	File string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.File, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// Gauge is a client-defined display configuration. Only the title is
// interpreted; the rest of the record is stored as sent.
type Gauge struct {
	Title  string
	Record json.RawMessage
}

type gaugeTitle struct {
	Title *string `json:"title"`
}

// NewGauge parses a raw record and extracts its title.
func NewGauge(raw []byte) (*Gauge, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return nil, fmt.Errorf("%w: gauge must be a JSON object", ErrInvalidRequest)
	}

	var head gaugeTitle
	if err := json.Unmarshal(raw, &head); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if head.Title == nil || *head.Title == "" {
		return nil, fmt.Errorf("%w: gauge title is required", ErrInvalidRequest)
	}

	return &Gauge{Title: *head.Title, Record: json.RawMessage(raw)}, nil
}

// MarshalJSON writes the record exactly as it was stored.
func (g Gauge) MarshalJSON() ([]byte, error) {
	if len(g.Record) == 0 {
		return []byte("null"), nil
	}
	return g.Record, nil
}

// SelfPrefix is the namespace of the local vessel in defaults paths.
const SelfPrefix = "vessels.self."

// IsSelfPath reports whether a dotted path lies under the local vessel.
func IsSelfPath(path string) bool {
	return strings.HasPrefix(path, SelfPrefix) && len(path) > len(SelfPrefix)
}

// Delta is an update notification for the data bus.
type Delta struct {
	Context string   `json:"context,omitempty"`
	Updates []Update `json:"updates"`
}

// Update groups values reported by one source at one instant.
type Update struct {
	Source    Source      `json:"source"`
	Timestamp string      `json:"timestamp"`
	Values    []PathValue `json:"values"`
}

// Source identifies the producer of an update.
type Source struct {
	Label string `json:"label"`
}

// PathValue is a single changed value.
type PathValue struct {
	Path  string          `json:"path"`
	Value json.RawMessage `json:"value"`
}

// DeltaTimestamp formats t the way the data bus expects: UTC, millisecond
// precision.
func DeltaTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}

// NewDelta builds a single-value delta for a defaults path. The vessel
// namespace prefix is stripped from the published path.
func NewDelta(label, path string, value json.RawMessage, at time.Time) Delta {
	if len(value) == 0 {
		value = json.RawMessage("null")
	}
	return Delta{
		Updates: []Update{
			{
				Source:    Source{Label: label},
				Timestamp: DeltaTimestamp(at),
				Values: []PathValue{
					{Path: strings.TrimPrefix(path, SelfPrefix), Value: value},
				},
			},
		},
	}
}

// PathMeta is the metadata attached to a path (units, display name, zones
// and so on). It is passed through untouched apart from the keys below.
type PathMeta map[string]interface{}

// SupportsPut reports whether the path accepts PUT requests.
func (m PathMeta) SupportsPut() bool {
	v, ok := m["supportsPut"].(bool)
	return ok && v
}

// PossibleValues returns the declared states of a multi-state switch.
func (m PathMeta) PossibleValues() []interface{} {
	v, _ := m["possibleValues"].([]interface{})
	return v
}

// PathInfo describes a path known to the registry.
type PathInfo struct {
	Path      string          `json:"path"`
	Meta      PathMeta        `json:"meta,omitempty"`
	Value     json.RawMessage `json:"value,omitempty"`
	Timestamp string          `json:"timestamp,omitempty"`
	HasValue  bool            `json:"-"`
}

const switchesPrefix = "electrical.switches."

// IsSwitchState reports whether the path is the state leaf of a switch,
// i.e. electrical.switches.<id>.state.
func IsSwitchState(path string) bool {
	if !strings.HasPrefix(path, switchesPrefix) || !strings.HasSuffix(path, ".state") {
		return false
	}
	id := strings.TrimSuffix(strings.TrimPrefix(path, switchesPrefix), ".state")
	return id != ""
}
