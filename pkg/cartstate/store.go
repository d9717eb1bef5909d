package cartstate

import (
	"sync"

	"github.com/shopspring/decimal"
)

// Store holds the authoritative in-memory list of cart lines. Only the Manager mutates it;
// every reader gets copies.
type Store struct {
	mu      sync.RWMutex
	lines   []CartLine
	lastErr error
}

// lineState captures a line's value and position before a mutation so it can be restored.
type lineState struct {
	line    CartLine
	index   int
	present bool
}

func newStore() *Store {
	return &Store{lines: []CartLine{}}
}

// Lines returns a copy of the lines in display order.
func (s *Store) Lines() []CartLine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneLines(s.lines)
}

// Line looks up a line by identity key.
func (s *Store) Line(id string) (CartLine, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := indexOf(s.lines, id); i >= 0 {
		return s.lines[i], true
	}
	return CartLine{}, false
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.lines)
}

// ItemCount is the sum of quantities, recomputed on every call.
func (s *Store) ItemCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, line := range s.lines {
		count += line.Quantity
	}
	return count
}

// Total is the sum of price times quantity, recomputed on every call.
func (s *Store) Total() decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	total := decimal.Zero
	for _, line := range s.lines {
		total = total.Add(line.Subtotal())
	}
	return total
}

// LastError returns the most recent failure, or nil.
func (s *Store) LastError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

func (s *Store) setError(err error) {
	s.mu.Lock()
	s.lastErr = err
	s.mu.Unlock()
}

func (s *Store) replace(lines []CartLine) {
	s.mu.Lock()
	s.lines = cloneLines(lines)
	if s.lines == nil {
		s.lines = []CartLine{}
	}
	s.mu.Unlock()
}

// insert appends line unless its id is already present, in which case the existing line
// is returned and nothing changes.
func (s *Store) insert(line CartLine) (lineState, CartLine, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := line.ID()
	if i := indexOf(s.lines, id); i >= 0 {
		return lineState{}, s.lines[i], false
	}
	prev := lineState{index: len(s.lines)}
	s.lines = append(s.lines, line)
	return prev, line, true
}

func (s *Store) setQuantity(id string, quantity int) (lineState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := indexOf(s.lines, id)
	if i < 0 {
		return lineState{}, false
	}
	prev := lineState{line: s.lines[i], index: i, present: true}
	s.lines[i].Quantity = quantity
	return prev, true
}

func (s *Store) delete(id string) (lineState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := indexOf(s.lines, id)
	if i < 0 {
		return lineState{}, false
	}
	prev := lineState{line: s.lines[i], index: i, present: true}
	next := make([]CartLine, 0, len(s.lines)-1)
	next = append(next, s.lines[:i]...)
	next = append(next, s.lines[i+1:]...)
	s.lines = next
	return prev, true
}

// restore puts a single line back the way it was before a failed mutation. Other lines,
// including ones changed concurrently, are left alone.
func (s *Store) restore(id string, prev lineState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := indexOf(s.lines, id)
	switch {
	case !prev.present && i >= 0:
		next := make([]CartLine, 0, len(s.lines)-1)
		next = append(next, s.lines[:i]...)
		s.lines = append(next, s.lines[i+1:]...)
	case prev.present && i >= 0:
		s.lines[i] = prev.line
	case prev.present:
		at := prev.index
		if at > len(s.lines) {
			at = len(s.lines)
		}
		next := make([]CartLine, 0, len(s.lines)+1)
		next = append(next, s.lines[:at]...)
		next = append(next, prev.line)
		s.lines = append(next, s.lines[at:]...)
	}
}

// clear empties the store and returns what was there.
func (s *Store) clear() []CartLine {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := s.lines
	s.lines = []CartLine{}
	return snapshot
}
