// Package memory keeps the session dataset in process memory.
package memory

import (
	"context"
	"sync"

	"github.com/kirillkom/keyword-intelligence/internal/core/domain"
)

// Dataset is append-only and unbounded; it lives as long as the process.
type Dataset struct {
	mu      sync.RWMutex
	records []domain.ExtractionRecord
}

func NewDataset() *Dataset {
	return &Dataset{records: make([]domain.ExtractionRecord, 0)}
}

func (d *Dataset) Append(ctx context.Context, record domain.ExtractionRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.records = append(d.records, record)
	return nil
}

// List returns a snapshot in insertion order.
func (d *Dataset) List(ctx context.Context) ([]domain.ExtractionRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]domain.ExtractionRecord, len(d.records))
	copy(out, d.records)
	return out, nil
}

func (d *Dataset) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.records)
}
