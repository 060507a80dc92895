// Package docpath addresses values inside a JSON document by dotted path.
//
// Paths follow the same rules as the data bus: segments are separated by
// dots, numeric segments index arrays (and create them when the parent does
// not exist yet), anything else is an object key. Segments that would be
// read as path-language syntax by the underlying JSON libraries are
// rejected rather than escaped.
package docpath

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/wilhelmsk/core/internal/domain/entities"
)

const reserved = `*?#|@\`

// Normalize splits raw on sep, validates every segment and returns the
// dotted form. A trailing separator is tolerated; empty segments anywhere
// else are not.
func Normalize(raw, sep string) (string, error) {
	raw = strings.TrimSuffix(raw, sep)
	if raw == "" {
		return "", fmt.Errorf("%w: empty path", entities.ErrInvalidPath)
	}

	segments := strings.Split(raw, sep)
	for _, seg := range segments {
		if err := checkSegment(seg); err != nil {
			return "", fmt.Errorf("%w: %q", err, raw)
		}
	}
	return strings.Join(segments, "."), nil
}

// Validate checks an already dotted path.
func Validate(path string) error {
	if path == "" {
		return fmt.Errorf("%w: empty path", entities.ErrInvalidPath)
	}
	for _, seg := range strings.Split(path, ".") {
		if err := checkSegment(seg); err != nil {
			return fmt.Errorf("%w: %q", err, path)
		}
	}
	return nil
}

func checkSegment(seg string) error {
	switch {
	case seg == "":
		return fmt.Errorf("%w: empty segment", entities.ErrInvalidPath)
	case strings.ContainsAny(seg, reserved):
		return fmt.Errorf("%w: reserved character in segment", entities.ErrInvalidPath)
	case seg[0] == ':' || seg[0] == '!':
		return fmt.Errorf("%w: segment starts with %q", entities.ErrInvalidPath, seg[0])
	case seg[0] == '-' && isDigits(seg[1:]):
		return fmt.Errorf("%w: negative index %q", entities.ErrInvalidPath, seg)
	}
	return nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// checkIndexes rejects numeric segments that would pad an array with nulls.
// An index may address an existing element or append one past the end; a
// missing parent counts as an empty array.
func checkIndexes(doc []byte, path string) error {
	segments := strings.Split(path, ".")
	for i := 1; i < len(segments); i++ {
		if !isDigits(segments[i]) {
			continue
		}
		parent := gjson.GetBytes(doc, strings.Join(segments[:i], "."))
		if parent.IsObject() {
			continue
		}
		length := 0
		if parent.IsArray() {
			length = len(parent.Array())
		}
		idx, err := strconv.Atoi(segments[i])
		if err != nil || idx > length {
			return fmt.Errorf("%w: index %s out of range at %q", entities.ErrInvalidPath, segments[i], path)
		}
	}
	return nil
}

// Get returns the raw JSON stored at path.
func Get(doc []byte, path string) (json.RawMessage, bool) {
	res := gjson.GetBytes(doc, path)
	if !res.Exists() {
		return nil, false
	}
	return json.RawMessage(res.Raw), true
}

// Set stores value at path, creating intermediate containers.
func Set(doc []byte, path string, value json.RawMessage) ([]byte, error) {
	if !json.Valid(value) {
		return nil, fmt.Errorf("%w: value is not valid JSON", entities.ErrInvalidRequest)
	}
	if err := checkIndexes(doc, path); err != nil {
		return nil, err
	}
	out, err := sjson.SetRawBytes(doc, path, value)
	if err != nil {
		return nil, fmt.Errorf("set %s: %w", path, err)
	}
	return out, nil
}

// Unset removes the value at path. It returns entities.ErrNotFound when
// nothing is stored there; siblings are left untouched. Array elements are
// replaced with null so later indexes keep their position.
func Unset(doc []byte, path string) ([]byte, error) {
	if !gjson.GetBytes(doc, path).Exists() {
		return nil, entities.ErrNotFound
	}
	if i := strings.LastIndexByte(path, '.'); i > 0 && isDigits(path[i+1:]) {
		if gjson.GetBytes(doc, path[:i]).IsArray() {
			out, err := sjson.SetRawBytes(doc, path, []byte("null"))
			if err != nil {
				return nil, fmt.Errorf("delete %s: %w", path, err)
			}
			return out, nil
		}
	}
	out, err := sjson.DeleteBytes(doc, path)
	if err != nil {
		return nil, fmt.Errorf("delete %s: %w", path, err)
	}
	return out, nil
}
