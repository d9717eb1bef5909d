package cart

import (
	"context"
	"fmt"
	"sync"

	"github.com/angelmondragon/shopcart/pkg/cartstate"
	pkgerrors "github.com/angelmondragon/shopcart/pkg/errors"
)

// Service exposes the cart operations served by the HTTP API.
type Service interface {
	List(ctx context.Context) ([]cartstate.CartLine, error)
	AddItem(ctx context.Context, line cartstate.CartLine) (cartstate.CartLine, error)
	UpdateQuantity(ctx context.Context, lineID string, quantity int) (cartstate.CartLine, error)
	RemoveItem(ctx context.Context, lineID string) error
	Clear(ctx context.Context) error
}

type service struct {
	repo CartRepository
	// mu makes read-modify-write on a line atomic across requests.
	mu sync.Mutex
}

// NewService builds a cart service backed by the provided repository.
func NewService(repo CartRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) List(ctx context.Context) ([]cartstate.CartLine, error) {
	lines, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list cart")
	}
	return lines, nil
}

// AddItem stores a new line or merges the quantity into the line with the same identity.
func (s *service) AddItem(ctx context.Context, line cartstate.CartLine) (cartstate.CartLine, error) {
	if err := cartstate.ValidateLine(line); err != nil {
		return cartstate.CartLine{}, pkgerrors.New(pkgerrors.CodeValidation, err.Error())
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok, err := s.repo.Find(ctx, line.ID())
	if err != nil {
		return cartstate.CartLine{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart item")
	}
	if ok {
		existing.Quantity += line.Quantity
		line = existing
	}
	if err := checkStock(line); err != nil {
		return cartstate.CartLine{}, err
	}
	if err := s.repo.Save(ctx, line); err != nil {
		return cartstate.CartLine{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save cart item")
	}
	return line, nil
}

func (s *service) UpdateQuantity(ctx context.Context, lineID string, quantity int) (cartstate.CartLine, error) {
	if lineID == "" {
		return cartstate.CartLine{}, pkgerrors.New(pkgerrors.CodeValidation, "item id is required")
	}
	if quantity < 1 {
		return cartstate.CartLine{}, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	line, ok, err := s.repo.Find(ctx, lineID)
	if err != nil {
		return cartstate.CartLine{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart item")
	}
	if !ok {
		return cartstate.CartLine{}, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
	}
	line.Quantity = quantity
	if err := checkStock(line); err != nil {
		return cartstate.CartLine{}, err
	}
	if err := s.repo.Save(ctx, line); err != nil {
		return cartstate.CartLine{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save cart item")
	}
	return line, nil
}

func (s *service) RemoveItem(ctx context.Context, lineID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	found, err := s.repo.Delete(ctx, lineID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete cart item")
	}
	if !found {
		return pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
	}
	return nil
}

func (s *service) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.repo.Clear(ctx); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
	}
	return nil
}

// checkStock rejects quantities above the line's known stock. Zero stock means unknown.
func checkStock(line cartstate.CartLine) error {
	if line.Stock > 0 && line.Quantity > line.Stock {
		return pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("only %d left in stock", line.Stock)).
			WithDetails(map[string]any{"stock": line.Stock, "requested": line.Quantity})
	}
	return nil
}
