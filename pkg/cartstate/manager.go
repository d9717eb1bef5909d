package cartstate

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/angelmondragon/shopcart/pkg/logger"
	"github.com/shopspring/decimal"
)

// Remote is the cart API the manager writes through to.
type Remote interface {
	FetchCart(ctx context.Context) ([]CartLine, error)
	AddItem(ctx context.Context, line CartLine) (CartLine, error)
	UpdateQuantity(ctx context.Context, lineID string, quantity int) (CartLine, error)
	DeleteItem(ctx context.Context, lineID string) error
	ClearCart(ctx context.Context) error
}

// MutationRecorder observes settled mutations. pkg/metrics.MutationMetrics satisfies it.
type MutationRecorder interface {
	ObserveMutation(op, outcome string, duration time.Duration)
}

const (
	OutcomeCommitted  = "committed"
	OutcomeRolledBack = "rolled_back"
	OutcomeRejected   = "rejected"
)

// Params wires a Manager's collaborators. Remote is required.
type Params struct {
	Remote   Remote
	Notifier Notifier
	Logger   *logger.Logger
	Recorder MutationRecorder
}

// Manager applies cart mutations optimistically and rolls them back when the remote
// API rejects them. It is safe for concurrent use.
type Manager struct {
	remote   Remote
	notifier Notifier
	logg     *logger.Logger
	recorder MutationRecorder

	store   *Store
	tracker *Tracker
	locks   *lineLocks

	// gate is held shared by line mutations and exclusively by Load and ClearCart.
	gate sync.RWMutex
}

// NewManager builds a manager with an empty cart.
func NewManager(p Params) (*Manager, error) {
	if p.Remote == nil {
		return nil, fmt.Errorf("cartstate: remote is required")
	}
	if p.Notifier == nil {
		p.Notifier = discardNotifier{}
	}
	if p.Logger == nil {
		p.Logger = logger.New(logger.Options{ServiceName: "cartstate", Output: io.Discard})
	}
	return &Manager{
		remote:   p.Remote,
		notifier: p.Notifier,
		logg:     p.Logger,
		recorder: p.Recorder,
		store:    newStore(),
		tracker:  &Tracker{},
		locks:    newLineLocks(),
	}, nil
}

// Load replaces the cart with the remote contents. On failure local lines are kept and a
// *FetchError is returned and recorded as the last error.
func (m *Manager) Load(ctx context.Context) error {
	start := time.Now()
	ctx = m.logg.WithOperation(ctx, string(OpLoad))

	m.gate.Lock()
	defer m.gate.Unlock()

	lines, err := m.safeFetch(ctx)
	if err != nil {
		fetchErr := &FetchError{Err: err}
		m.store.setError(fetchErr)
		m.observe(OpLoad, OutcomeRejected, start)
		m.logg.Error(ctx, "cart load failed", err)
		return fetchErr
	}
	m.store.replace(normalizeLines(lines))
	m.store.setError(nil)
	m.observe(OpLoad, OutcomeCommitted, start)
	m.logg.Debug(ctx, "cart loaded")
	return nil
}

// Add inserts line, or merges its quantity into an existing line with the same identity.
func (m *Manager) Add(ctx context.Context, line CartLine) bool {
	start := time.Now()
	ctx = m.logg.WithOperation(ctx, string(OpAdd))
	if err := ValidateLine(line); err != nil {
		m.reject(ctx, OpAdd, err, start)
		return false
	}
	id := line.ID()
	ctx = m.logg.WithLineID(ctx, id)

	m.gate.RLock()
	defer m.gate.RUnlock()
	release, err := m.locks.acquire(ctx, id)
	if err != nil {
		m.reject(ctx, OpAdd, err, start)
		return false
	}
	defer release()

	if existing, ok := m.store.Line(id); ok {
		return m.updateLocked(ctx, id, existing.Quantity+line.Quantity, start)
	}
	prev, _, _ := m.store.insert(line)
	return m.writeThrough(ctx, OpAdd, id, prev, start, func(rctx context.Context) error {
		_, err := m.remote.AddItem(rctx, line)
		return err
	})
}

// UpdateQuantity sets a line's quantity. A quantity below one removes the line.
func (m *Manager) UpdateQuantity(ctx context.Context, lineID string, quantity int) bool {
	if quantity < 1 {
		return m.Remove(ctx, lineID)
	}
	start := time.Now()
	ctx = m.logg.WithLineID(m.logg.WithOperation(ctx, string(OpUpdate)), lineID)

	m.gate.RLock()
	defer m.gate.RUnlock()
	release, err := m.locks.acquire(ctx, lineID)
	if err != nil {
		m.reject(ctx, OpUpdate, err, start)
		return false
	}
	defer release()
	return m.updateLocked(ctx, lineID, quantity, start)
}

func (m *Manager) updateLocked(ctx context.Context, lineID string, quantity int, start time.Time) bool {
	prev, ok := m.store.setQuantity(lineID, quantity)
	if !ok {
		m.reject(ctx, OpUpdate, fmt.Errorf("%w: %s", ErrItemNotFound, lineID), start)
		return false
	}
	return m.writeThrough(ctx, OpUpdate, lineID, prev, start, func(rctx context.Context) error {
		_, err := m.remote.UpdateQuantity(rctx, lineID, quantity)
		return err
	})
}

// Remove deletes a line.
func (m *Manager) Remove(ctx context.Context, lineID string) bool {
	start := time.Now()
	ctx = m.logg.WithLineID(m.logg.WithOperation(ctx, string(OpRemove)), lineID)

	m.gate.RLock()
	defer m.gate.RUnlock()
	release, err := m.locks.acquire(ctx, lineID)
	if err != nil {
		m.reject(ctx, OpRemove, err, start)
		return false
	}
	defer release()

	prev, ok := m.store.delete(lineID)
	if !ok {
		m.reject(ctx, OpRemove, fmt.Errorf("%w: %s", ErrItemNotFound, lineID), start)
		return false
	}
	return m.writeThrough(ctx, OpRemove, lineID, prev, start, func(rctx context.Context) error {
		return m.remote.DeleteItem(rctx, lineID)
	})
}

// ClearCart empties the cart. On failure every line comes back in its original order.
func (m *Manager) ClearCart(ctx context.Context) bool {
	start := time.Now()
	ctx = m.logg.WithOperation(ctx, string(OpClear))

	m.gate.Lock()
	defer m.gate.Unlock()

	snapshot := m.store.clear()
	if err := m.safeCall(ctx, m.remote.ClearCart); err != nil {
		m.store.replace(snapshot)
		m.rollback(ctx, &RemoteMutationError{Op: OpClear, Err: err}, start)
		return false
	}
	m.observe(OpClear, OutcomeCommitted, start)
	return true
}

// writeThrough runs the remote call for an already applied local change and restores the
// line if the call fails. The tracker covers exactly the remote call.
func (m *Manager) writeThrough(ctx context.Context, op Operation, lineID string, prev lineState, start time.Time, call func(context.Context) error) bool {
	m.tracker.begin(lineID)
	err := func() error {
		defer m.tracker.end(lineID)
		return m.safeCall(ctx, call)
	}()
	if err != nil {
		m.store.restore(lineID, prev)
		m.rollback(ctx, &RemoteMutationError{Op: op, LineID: lineID, Err: err}, start)
		return false
	}
	m.observe(op, OutcomeCommitted, start)
	return true
}

// safeCall detaches the remote call from caller cancellation and turns a panicking
// Remote into an error.
func (m *Manager) safeCall(ctx context.Context, call func(context.Context) error) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("remote panic: %v", rec)
		}
	}()
	return call(context.WithoutCancel(ctx))
}

func (m *Manager) safeFetch(ctx context.Context) (lines []CartLine, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("remote panic: %v", rec)
		}
	}()
	return m.remote.FetchCart(ctx)
}

func (m *Manager) reject(ctx context.Context, op Operation, err error, start time.Time) {
	m.store.setError(err)
	m.observe(op, OutcomeRejected, start)
	m.logg.Warn(m.logg.WithField(ctx, "error", err.Error()), "cart mutation rejected")
}

func (m *Manager) rollback(ctx context.Context, err *RemoteMutationError, start time.Time) {
	m.store.setError(err)
	m.observe(err.Op, OutcomeRolledBack, start)
	m.logg.Error(ctx, "cart mutation rolled back", err)

	n := Notification{
		Kind:      KindError,
		Title:     failureTitle(err.Op),
		Message:   userMessage(err),
		Operation: err.Op,
		LineID:    err.LineID,
	}
	if nerr := m.notifier.Notify(context.WithoutCancel(ctx), n); nerr != nil {
		m.logg.Warn(m.logg.WithField(ctx, "error", nerr.Error()), "notification delivery failed")
	}
}

func (m *Manager) observe(op Operation, outcome string, start time.Time) {
	if m.recorder == nil {
		return
	}
	m.recorder.ObserveMutation(string(op), outcome, time.Since(start))
}

// Lines returns a copy of the cart lines in display order.
func (m *Manager) Lines() []CartLine { return m.store.Lines() }

// Line looks up a single line by identity key.
func (m *Manager) Line(lineID string) (CartLine, bool) { return m.store.Line(lineID) }

func (m *Manager) ItemCount() int { return m.store.ItemCount() }

func (m *Manager) Total() decimal.Decimal { return m.store.Total() }

// LastError is the most recent failure. Only a successful Load clears it.
func (m *Manager) LastError() error { return m.store.LastError() }

// MutatingLineID is the line whose remote call started most recently and has not settled,
// or "" when nothing is in flight.
func (m *Manager) MutatingLineID() string { return m.tracker.Current() }

func (m *Manager) IsMutating(lineID string) bool { return m.tracker.IsMutating(lineID) }

// normalizeLines merges duplicate identities and drops lines below the quantity floor so a
// loaded cart satisfies the same invariants as one built through Add.
func normalizeLines(lines []CartLine) []CartLine {
	out := make([]CartLine, 0, len(lines))
	for _, line := range lines {
		if line.Quantity < 1 {
			continue
		}
		if i := indexOf(out, line.ID()); i >= 0 {
			out[i].Quantity += line.Quantity
			continue
		}
		out = append(out, line)
	}
	return out
}
