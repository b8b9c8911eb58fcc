package storage

import (
	"context"
	"sync"
	"time"

	"github.com/raykavin/pricewatch/pkg/core"
)

// MemoryStorage keeps the position in process memory; it is lost on restart
type MemoryStorage struct {
	mu       sync.RWMutex
	position *core.Position
}

// FromMemory creates an in-memory storage
func FromMemory() *MemoryStorage {
	return &MemoryStorage{}
}

func (m *MemoryStorage) RecordPosition(_ context.Context, side core.Side, price float64) error {
	p, err := core.NewPosition(side, price, time.Now())
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.position = &p
	m.mu.Unlock()
	return nil
}

func (m *MemoryStorage) Position(context.Context) (*core.Position, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.position == nil {
		return nil, nil
	}

	p := *m.position
	return &p, nil
}

func (m *MemoryStorage) Close() error {
	return nil
}
