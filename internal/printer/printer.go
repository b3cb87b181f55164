// Package printer hands badge documents to the kiosk's print system.
package printer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"
)

// Document is a badge materialized as a temporary file. Release removes it.
type Document struct {
	path string
	once sync.Once
	err  error
}

// Materialize writes doc to a new badge-*.pdf file in dir (the system temp
// dir when empty).
func Materialize(dir string, doc []byte) (*Document, error) {
	f, err := os.CreateTemp(dir, "badge-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("create badge file: %w", err)
	}
	if _, err := f.Write(doc); err != nil {
		f.Close()
		os.Remove(f.Name()) //nolint:errcheck
		return nil, fmt.Errorf("write badge file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name()) //nolint:errcheck
		return nil, fmt.Errorf("close badge file: %w", err)
	}
	return &Document{path: f.Name()}, nil
}

// Path is the location of the document on disk.
func (d *Document) Path() string { return d.path }

// Release deletes the document. Safe to call more than once.
func (d *Document) Release() error {
	d.once.Do(func() {
		if err := os.Remove(d.path); err != nil && !errors.Is(err, os.ErrNotExist) {
			d.err = err
		}
	})
	return d.err
}

// Backend presents a document to a printer and returns once the job has
// been accepted or refused.
type Backend interface {
	Print(ctx context.Context, doc *Document) error
}

// Service materializes, prints and releases badge documents.
type Service struct {
	backend Backend
	workDir string
	log     *zap.Logger
}

func New(backend Backend, workDir string, log *zap.Logger) *Service {
	return &Service{backend: backend, workDir: workDir, log: log}
}

// PrintDocument prints doc. The temporary document is released whether or
// not printing succeeds.
func (s *Service) PrintDocument(ctx context.Context, doc []byte) error {
	if len(doc) == 0 {
		return errors.New("printer: empty document")
	}
	d, err := Materialize(s.workDir, doc)
	if err != nil {
		return err
	}
	defer func() {
		if err := d.Release(); err != nil {
			s.log.Warn("release badge file", zap.String("path", d.Path()), zap.Error(err))
		}
	}()
	return s.backend.Print(ctx, d)
}
