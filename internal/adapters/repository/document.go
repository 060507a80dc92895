package repository

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/afero"
	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"

	"github.com/wilhelmsk/core/internal/domain/entities"
	"github.com/wilhelmsk/core/internal/infrastructure/logger"
	"github.com/wilhelmsk/core/internal/infrastructure/metrics"
	"github.com/wilhelmsk/core/internal/ports"
)

var prettyOptions = &pretty.Options{Width: 80, Prefix: "", Indent: "  ", SortKeys: false}

// FileDocument implements ports.DocumentStore on top of a single JSON file.
// The file is the only copy of the document: every Load reads it and every
// Update rewrites it through a temp file and a rename.
type FileDocument struct {
	fs      afero.Fs
	path    string
	name    string
	empty   []byte
	mu      sync.Mutex
	logger  *logger.Logger
	metrics *metrics.Metrics
}

// NewFileDocument creates a document store. name labels metrics and logs,
// empty is returned by Load while the file does not exist.
func NewFileDocument(fs afero.Fs, path, name string, empty []byte, log *logger.Logger, m *metrics.Metrics) *FileDocument {
	return &FileDocument{
		fs:      fs,
		path:    path,
		name:    name,
		empty:   empty,
		logger:  log.WithComponent("document").WithFields("store", name),
		metrics: m,
	}
}

var _ ports.DocumentStore = (*FileDocument)(nil)

// Location returns the backing file path
func (d *FileDocument) Location() string {
	return d.path
}

// Load reads the current document from disk
func (d *FileDocument) Load(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	doc, err := d.read()
	d.metrics.ObserveDocument(d.name, "load", err)
	return doc, err
}

// Update runs a read-modify-write cycle while holding the writer lock
func (d *FileDocument) Update(ctx context.Context, fn func(doc []byte) ([]byte, error)) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	doc, err := d.read()
	d.metrics.ObserveDocument(d.name, "load", err)
	if err != nil {
		return err
	}

	next, err := fn(doc)
	if err != nil {
		return err
	}

	err = d.write(next)
	d.metrics.ObserveDocument(d.name, "write", err)
	return err
}

func (d *FileDocument) read() ([]byte, error) {
	data, err := afero.ReadFile(d.fs, d.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return append([]byte(nil), d.empty...), nil
		}
		return nil, &entities.IOError{Op: "read", File: d.path, Err: err}
	}

	if len(bytes.TrimSpace(data)) == 0 {
		d.logger.Warnw("Document file is empty, using defaults", "file", d.path)
		return append([]byte(nil), d.empty...), nil
	}
	if !gjson.ValidBytes(data) {
		return nil, &entities.ParseError{File: d.path, Err: errors.New("invalid JSON")}
	}
	if !gjson.ParseBytes(data).IsObject() {
		return nil, &entities.ParseError{File: d.path, Err: errors.New("root is not an object")}
	}

	return data, nil
}

func (d *FileDocument) write(doc []byte) error {
	start := time.Now()
	out := pretty.PrettyOptions(doc, prettyOptions)

	err := d.replace(out)
	d.logger.LogDocumentWrite(d.path, len(out), float64(time.Since(start).Microseconds())/1000, err)
	return err
}

func (d *FileDocument) replace(data []byte) error {
	dir := filepath.Dir(d.path)
	if err := d.fs.MkdirAll(dir, 0o755); err != nil {
		return &entities.IOError{Op: "mkdir", File: dir, Err: err}
	}

	tmp, err := afero.TempFile(d.fs, dir, "."+filepath.Base(d.path)+".*.tmp")
	if err != nil {
		return &entities.IOError{Op: "create", File: d.path, Err: err}
	}
	tmpName := tmp.Name()

	fail := func(op string, err error) error {
		tmp.Close()
		d.fs.Remove(tmpName)
		return &entities.IOError{Op: op, File: d.path, Err: err}
	}

	if _, err := tmp.Write(data); err != nil {
		return fail("write", err)
	}
	if err := tmp.Sync(); err != nil {
		return fail("sync", err)
	}
	if err := tmp.Close(); err != nil {
		d.fs.Remove(tmpName)
		return &entities.IOError{Op: "close", File: d.path, Err: err}
	}
	if err := d.fs.Chmod(tmpName, 0o644); err != nil {
		d.fs.Remove(tmpName)
		return &entities.IOError{Op: "chmod", File: d.path, Err: err}
	}

	// Atomic rename
	if err := d.fs.Rename(tmpName, d.path); err != nil {
		d.fs.Remove(tmpName)
		return &entities.IOError{Op: "rename", File: d.path, Err: err}
	}
	return nil
}

// Check verifies that the document can be loaded. Used by the readiness check.
func (d *FileDocument) Check(ctx context.Context) error {
	_, err := d.Load(ctx)
	if err != nil {
		return fmt.Errorf("%s store: %w", d.name, err)
	}
	return nil
}
