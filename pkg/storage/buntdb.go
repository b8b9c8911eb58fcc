package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/raykavin/pricewatch/pkg/core"
	"github.com/tidwall/buntdb"
)

const positionKey = "position"

// BuntStorage implements core.PositionStore using BuntDB
type BuntStorage struct {
	db *buntdb.DB
}

// FromBunt opens a BuntDB file, or an in-memory database for ":memory:"
func FromBunt(sourceFile string) (*BuntStorage, error) {
	db, err := buntdb.Open(sourceFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open buntdb: %w", err)
	}

	return &BuntStorage{db: db}, nil
}

func (b *BuntStorage) RecordPosition(_ context.Context, side core.Side, price float64) error {
	p, err := core.NewPosition(side, price, time.Now())
	if err != nil {
		return err
	}

	content, err := json.Marshal(newRecord(p))
	if err != nil {
		return fmt.Errorf("failed to marshal position: %w", err)
	}

	return b.db.Update(func(tx *buntdb.Tx) error {
		if _, _, err := tx.Set(positionKey, string(content), nil); err != nil {
			return fmt.Errorf("failed to store position: %w", err)
		}
		return nil
	})
}

func (b *BuntStorage) Position(context.Context) (*core.Position, error) {
	var value string
	err := b.db.View(func(tx *buntdb.Tx) error {
		var err error
		value, err = tx.Get(positionKey)
		return err
	})
	if errors.Is(err, buntdb.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read position: %w", err)
	}

	var r record
	if err := json.Unmarshal([]byte(value), &r); err != nil {
		return nil, fmt.Errorf("failed to unmarshal position: %w", err)
	}

	return r.position()
}

// Close closes the database
func (b *BuntStorage) Close() error {
	if b.db != nil {
		return b.db.Close()
	}
	return nil
}
