// Package storage keeps the single recorded position in one of several backends
package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/raykavin/pricewatch/pkg/core"
	"github.com/raykavin/pricewatch/pkg/logger"
)

// Backend names a position store implementation
type Backend string

const (
	BackendMemory Backend = "memory"
	BackendFile   Backend = "file"
	BackendBunt   Backend = "buntdb"
	BackendSQL    Backend = "sql"
	BackendRedis  Backend = "redis"
)

// Backends lists every supported backend
var Backends = []Backend{BackendMemory, BackendFile, BackendBunt, BackendSQL, BackendRedis}

// Default locations per backend
var DefaultPaths = map[Backend]string{
	BackendFile: "status.json",
	BackendBunt: "pricewatch.db",
	BackendSQL:  "pricewatch.sqlite",
}

// Config selects and configures a backend
type Config struct {
	Backend Backend
	Path    string // file, buntdb and sqlite location
	Redis   RedisConfig
	Log     logger.Logger
}

// New opens the configured position store
func New(ctx context.Context, cfg Config) (core.PositionStore, error) {
	path := cfg.Path
	if path == "" {
		path = DefaultPaths[cfg.Backend]
	}

	switch cfg.Backend {
	case BackendMemory, "":
		return FromMemory(), nil
	case BackendFile:
		return FromFile(path, cfg.Log), nil
	}

	var (
		store core.PositionStore
		err   error
	)

	switch cfg.Backend {
	case BackendBunt:
		store, err = FromBunt(path)
	case BackendSQL:
		store, err = FromSQLite(path)
	case BackendRedis:
		store, err = FromRedis(ctx, cfg.Redis)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, err
	}

	return store, nil
}

// record is the serialized form shared by the document backends.
// status and price match the flat file written by earlier releases.
type record struct {
	Status     string     `json:"status"`
	Price      float64    `json:"price"`
	RecordedAt *time.Time `json:"recorded_at,omitempty"`
}

func newRecord(p core.Position) record {
	r := record{Status: string(p.Side), Price: p.Price}
	if !p.RecordedAt.IsZero() {
		at := p.RecordedAt.UTC()
		r.RecordedAt = &at
	}
	return r
}

func (r record) position() (*core.Position, error) {
	p := core.Position{Side: core.Side(r.Status), Price: r.Price}
	if r.RecordedAt != nil {
		p.RecordedAt = *r.RecordedAt
	}

	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("stored position: %w", err)
	}

	return &p, nil
}
