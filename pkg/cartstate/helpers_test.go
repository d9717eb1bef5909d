package cartstate

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var decimalEqual = cmp.Comparer(func(a, b decimal.Decimal) bool { return a.Equal(b) })

var errRemote = errors.New("remote unavailable")

func fakeLine() CartLine {
	return CartLine{
		ProductID:   gofakeit.UUID(),
		VariantID:   gofakeit.UUID(),
		InventoryID: gofakeit.UUID(),
		SKU:         gofakeit.LetterN(8),
		Name:        gofakeit.ProductName(),
		ColorName:   gofakeit.Color(),
		Size:        gofakeit.RandomString([]string{"S", "M", "L", "XL"}),
		Image:       gofakeit.URL(),
		Price:       decimal.NewFromFloat(gofakeit.Price(1, 200)).Round(2),
		Quantity:    gofakeit.IntRange(1, 5),
		Stock:       gofakeit.IntRange(0, 50),
	}
}

func lineWith(product, variant, inventory string, price string, qty int) CartLine {
	return CartLine{
		ProductID:   product,
		VariantID:   variant,
		InventoryID: inventory,
		Name:        "Item " + product,
		Price:       decimal.RequireFromString(price),
		Quantity:    qty,
	}
}

// stubRemote is an in-memory Remote. Per-operation errors make calls fail; hook runs inside
// every remote call before it returns.
type stubRemote struct {
	mu        sync.Mutex
	lines     []CartLine
	fetchErr  error
	addErr    error
	updateErr error
	deleteErr error
	clearErr  error
	failFor   map[string]error
	calls     []string
	hook      func(op Operation, lineID string)
}

func (s *stubRemote) record(op Operation, lineID string) error {
	s.mu.Lock()
	s.calls = append(s.calls, string(op)+":"+lineID)
	hook := s.hook
	var err error
	if s.failFor != nil {
		err = s.failFor[lineID]
	}
	s.mu.Unlock()
	if hook != nil {
		hook(op, lineID)
	}
	return err
}

func (s *stubRemote) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func (s *stubRemote) FetchCart(ctx context.Context) ([]CartLine, error) {
	if err := s.record(OpLoad, ""); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fetchErr != nil {
		return nil, s.fetchErr
	}
	return cloneLines(s.lines), nil
}

func (s *stubRemote) AddItem(ctx context.Context, line CartLine) (CartLine, error) {
	if err := s.record(OpAdd, line.ID()); err != nil {
		return CartLine{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.addErr != nil {
		return CartLine{}, s.addErr
	}
	s.lines = append(s.lines, line)
	return line, nil
}

func (s *stubRemote) UpdateQuantity(ctx context.Context, lineID string, quantity int) (CartLine, error) {
	if err := s.record(OpUpdate, lineID); err != nil {
		return CartLine{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.updateErr != nil {
		return CartLine{}, s.updateErr
	}
	i := indexOf(s.lines, lineID)
	if i < 0 {
		return CartLine{}, nil
	}
	s.lines[i].Quantity = quantity
	return s.lines[i], nil
}

func (s *stubRemote) DeleteItem(ctx context.Context, lineID string) error {
	if err := s.record(OpRemove, lineID); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.deleteErr != nil {
		return s.deleteErr
	}
	if i := indexOf(s.lines, lineID); i >= 0 {
		s.lines = append(s.lines[:i], s.lines[i+1:]...)
	}
	return nil
}

func (s *stubRemote) ClearCart(ctx context.Context) error {
	if err := s.record(OpClear, ""); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.clearErr != nil {
		return s.clearErr
	}
	s.lines = nil
	return nil
}

type captureNotifier struct {
	mu   sync.Mutex
	sent []Notification
}

func (c *captureNotifier) Notify(ctx context.Context, n Notification) error {
	c.mu.Lock()
	c.sent = append(c.sent, n)
	c.mu.Unlock()
	return nil
}

func (c *captureNotifier) all() []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Notification(nil), c.sent...)
}

type outcomeRecorder struct {
	mu       sync.Mutex
	outcomes []string
}

func (r *outcomeRecorder) ObserveMutation(op, outcome string, _ time.Duration) {
	r.mu.Lock()
	r.outcomes = append(r.outcomes, op+":"+outcome)
	r.mu.Unlock()
}

func (r *outcomeRecorder) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.outcomes...)
}

type harness struct {
	mgr      *Manager
	remote   *stubRemote
	notifier *captureNotifier
	recorder *outcomeRecorder
}

func newHarness(t *testing.T, initial ...CartLine) *harness {
	t.Helper()
	h := &harness{
		remote:   &stubRemote{lines: cloneLines(initial)},
		notifier: &captureNotifier{},
		recorder: &outcomeRecorder{},
	}
	mgr, err := NewManager(Params{Remote: h.remote, Notifier: h.notifier, Recorder: h.recorder})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	if err := mgr.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	h.mgr = mgr
	return h
}
