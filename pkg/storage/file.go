package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/raykavin/pricewatch/pkg/core"
	"github.com/raykavin/pricewatch/pkg/logger"
)

// FileStorage rewrites a small JSON document on every update.
// Writes are not atomic: a reader racing a writer may see a truncated file,
// which is then reported as "no position".
type FileStorage struct {
	path string
	log  logger.Logger
}

// FromFile creates a file-based storage; the file is created on first write
func FromFile(path string, log logger.Logger) *FileStorage {
	return &FileStorage{path: path, log: log}
}

func (f *FileStorage) RecordPosition(_ context.Context, side core.Side, price float64) error {
	p, err := core.NewPosition(side, price, time.Now())
	if err != nil {
		return err
	}

	content, err := json.MarshalIndent(newRecord(p), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal position: %w", err)
	}

	if err := os.WriteFile(f.path, content, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", f.path, err)
	}

	return nil
}

func (f *FileStorage) Position(context.Context) (*core.Position, error) {
	content, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		f.warn(err, "failed to read status file")
		return nil, nil
	}

	var r record
	if err := json.Unmarshal(content, &r); err != nil {
		f.warn(err, "failed to parse status file")
		return nil, nil
	}

	p, err := r.position()
	if err != nil {
		f.warn(err, "status file holds an invalid position")
		return nil, nil
	}

	return p, nil
}

func (f *FileStorage) Close() error {
	return nil
}

func (f *FileStorage) warn(err error, msg string) {
	if f.log != nil {
		f.log.WithError(err).WithField("path", f.path).Warn(msg)
	}
}
