package cart

import (
	"context"
	"sync"

	"github.com/angelmondragon/shopcart/pkg/cartstate"
)

// MemoryRepository keeps a single cart in process memory, preserving insertion order.
type MemoryRepository struct {
	mu    sync.RWMutex
	order []string
	lines map[string]cartstate.CartLine
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{lines: make(map[string]cartstate.CartLine)}
}

func (r *MemoryRepository) List(ctx context.Context) ([]cartstate.CartLine, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]cartstate.CartLine, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.lines[id])
	}
	return out, nil
}

func (r *MemoryRepository) Find(ctx context.Context, lineID string) (cartstate.CartLine, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	line, ok := r.lines[lineID]
	return line, ok, nil
}

// Save inserts or replaces a line. New lines go to the end.
func (r *MemoryRepository) Save(ctx context.Context, line cartstate.CartLine) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := line.ID()
	if _, ok := r.lines[id]; !ok {
		r.order = append(r.order, id)
	}
	r.lines[id] = line
	return nil
}

func (r *MemoryRepository) Delete(ctx context.Context, lineID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.lines[lineID]; !ok {
		return false, nil
	}
	delete(r.lines, lineID)
	for i, id := range r.order {
		if id == lineID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true, nil
}

func (r *MemoryRepository) Clear(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.order = nil
	r.lines = make(map[string]cartstate.CartLine)
	return nil
}
