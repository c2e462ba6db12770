// Package cart holds the shopping cart of a single shopper: it validates
// mutations against the catalog's stock and writes the cart through to a
// storage slot after every successful change.
package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/Skotchmaster/rocketshoes/internal/logging"
	"github.com/Skotchmaster/rocketshoes/internal/models"
)

// StorageKey is the slot the cart is persisted under.
const StorageKey = "@RocketShoes:cart"

const (
	OpAdd    = "add"
	OpRemove = "remove"
	OpUpdate = "update"
)

type Catalog interface {
	GetStock(ctx context.Context, productID int) (models.Stock, error)
	GetProduct(ctx context.Context, productID int) (models.Product, error)
}

type Notifier interface {
	ReportError(message string)
}

type Storage interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

type Deps struct {
	Catalog  Catalog
	Storage  Storage
	Notifier Notifier

	// Optional.
	Publisher Publisher
	Recorder  Recorder
}

// Store is safe for concurrent use. Each operation holds the lock for its
// whole read-validate-write cycle, catalog calls included.
type Store struct {
	mu    sync.Mutex
	items []models.Product

	catalog   Catalog
	storage   Storage
	notifier  Notifier
	publisher Publisher
	recorder  Recorder
}

type Summary struct {
	Items int     `json:"items"`
	Units int     `json:"units"`
	Total float64 `json:"total"`
}

func New(ctx context.Context, d Deps) (*Store, error) {
	if d.Catalog == nil || d.Storage == nil || d.Notifier == nil {
		return nil, errors.New("cart: catalog, storage and notifier are required")
	}

	items, err := load(ctx, d.Storage)
	if err != nil {
		return nil, err
	}

	return &Store{
		items:     items,
		catalog:   d.Catalog,
		storage:   d.Storage,
		notifier:  d.Notifier,
		publisher: d.Publisher,
		recorder:  d.Recorder,
	}, nil
}

func load(ctx context.Context, st Storage) ([]models.Product, error) {
	raw, ok, err := st.Get(ctx, StorageKey)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w: %w", ErrStorage, err)
	}
	if !ok || raw == "" {
		return []models.Product{}, nil
	}

	var items []models.Product
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, fmt.Errorf("load cart: %w: %w", ErrCorruptState, err)
	}

	seen := make(map[int]struct{}, len(items))
	for _, p := range items {
		if p.Amount < 1 {
			return nil, fmt.Errorf("load cart: product %d has amount %d: %w", p.ID, p.Amount, ErrCorruptState)
		}
		if _, dup := seen[p.ID]; dup {
			return nil, fmt.Errorf("load cart: product %d listed twice: %w", p.ID, ErrCorruptState)
		}
		seen[p.ID] = struct{}{}
	}
	if items == nil {
		items = []models.Product{}
	}
	return items, nil
}

// Cart returns a copy of the current cart.
func (s *Store) Cart() []models.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	return clone(s.items)
}

func (s *Store) Summary() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()

	sum := Summary{Items: len(s.items)}
	for _, p := range s.items {
		sum.Units += p.Amount
		sum.Total += p.Price * float64(p.Amount)
	}
	return sum
}

// AddProduct puts one unit of productID in the cart. A product already in the
// cart goes through the same stock check as UpdateProductAmount.
func (s *Store) AddProduct(ctx context.Context, productID int) error {
	return s.mutate(ctx, func() (*Event, error) {
		stock, err := s.catalog.GetStock(ctx, productID)
		if err != nil {
			return nil, s.fail(ctx, OpAdd, MsgAddFailed, Errored, fmt.Errorf("get stock %d: %w: %w", productID, ErrRemote, err))
		}

		if existing, ok := s.find(productID); ok {
			return s.updateAmount(ctx, OpAdd, productID, existing.Amount+1)
		}

		product, err := s.catalog.GetProduct(ctx, productID)
		if err != nil {
			return nil, s.fail(ctx, OpAdd, MsgAddFailed, Errored, fmt.Errorf("get product %d: %w: %w", productID, ErrRemote, err))
		}

		if stock.Amount <= 0 {
			return nil, s.fail(ctx, OpAdd, MsgProductOutOfStock, Rejected, fmt.Errorf("product %d has no stock: %w", productID, ErrStockExceeded))
		}

		product.ID = productID
		product.Amount = 1
		next := append(clone(s.items), product)

		return s.commit(ctx, OpAdd, MsgAddFailed, next, Event{Type: EventProductAdded, ProductID: productID, Amount: 1})
	})
}

func (s *Store) RemoveProduct(ctx context.Context, productID int) error {
	return s.mutate(ctx, func() (*Event, error) {
		if _, ok := s.find(productID); !ok {
			return nil, s.fail(ctx, OpRemove, MsgRemoveFailed, Rejected, fmt.Errorf("product %d: %w", productID, ErrNotInCart))
		}

		next := make([]models.Product, 0, len(s.items)-1)
		for _, p := range s.items {
			if p.ID != productID {
				next = append(next, p)
			}
		}

		return s.commit(ctx, OpRemove, MsgRemoveFailed, next, Event{Type: EventProductRemoved, ProductID: productID})
	})
}

func (s *Store) UpdateProductAmount(ctx context.Context, productID, amount int) error {
	return s.mutate(ctx, func() (*Event, error) {
		return s.updateAmount(ctx, OpUpdate, productID, amount)
	})
}

// mutate runs fn under s.mu and publishes the resulting event once the lock
// is released, so a slow broker never blocks readers or other mutations.
func (s *Store) mutate(ctx context.Context, fn func() (*Event, error)) error {
	ev, err := func() (*Event, error) {
		s.mu.Lock()
		defer s.mu.Unlock()
		return fn()
	}()
	if ev != nil {
		s.publish(ctx, *ev)
	}
	return err
}

// updateAmount expects s.mu to be held.
func (s *Store) updateAmount(ctx context.Context, op string, productID, amount int) (*Event, error) {
	if _, ok := s.find(productID); !ok {
		return nil, s.fail(ctx, op, MsgUpdateFailed, Rejected, fmt.Errorf("product %d: %w", productID, ErrNotInCart))
	}
	if amount < 1 {
		return nil, s.fail(ctx, op, MsgUpdateFailed, Rejected, fmt.Errorf("amount %d below 1: %w", amount, ErrValidation))
	}

	stock, err := s.catalog.GetStock(ctx, productID)
	if err != nil {
		return nil, s.fail(ctx, op, MsgUpdateFailed, Errored, fmt.Errorf("get stock %d: %w: %w", productID, ErrRemote, err))
	}
	if amount > stock.Amount {
		return nil, s.fail(ctx, op, MsgAmountOutOfStock, Rejected, fmt.Errorf("amount %d over stock %d: %w", amount, stock.Amount, ErrStockExceeded))
	}

	next := clone(s.items)
	for i := range next {
		if next[i].ID == productID {
			next[i].Amount = amount
		}
	}

	return s.commit(ctx, op, MsgUpdateFailed, next, Event{Type: EventAmountUpdated, ProductID: productID, Amount: amount})
}

// commit persists next and only then swaps it in, so a failed write leaves
// the in-memory cart untouched. The returned event is published by mutate.
func (s *Store) commit(ctx context.Context, op, msg string, next []models.Product, ev Event) (*Event, error) {
	data, err := json.Marshal(next)
	if err != nil {
		return nil, s.fail(ctx, op, msg, Errored, fmt.Errorf("encode cart: %w: %w", ErrStorage, err))
	}
	if err := s.storage.Set(ctx, StorageKey, string(data)); err != nil {
		return nil, s.fail(ctx, op, msg, Errored, fmt.Errorf("persist cart: %w: %w", ErrStorage, err))
	}

	s.items = next
	s.observe(op, Applied)
	logging.FromContext(ctx).Debug("cart_applied", "op", op, "product_id", ev.ProductID, "items", len(next))

	ev.Cart = clone(next)
	return &ev, nil
}

func (s *Store) fail(ctx context.Context, op, msg string, outcome Outcome, err error) error {
	s.notifier.ReportError(msg)
	s.observe(op, outcome)

	l := logging.FromContext(ctx).With("op", op, "outcome", string(outcome))
	if outcome == Errored {
		l.Error("cart_operation_error", "error", err)
	} else {
		l.Warn("cart_operation_rejected", "error", err)
	}
	return &OpError{Op: op, Message: msg, Err: err}
}

func (s *Store) find(productID int) (models.Product, bool) {
	for _, p := range s.items {
		if p.ID == productID {
			return p, true
		}
	}
	return models.Product{}, false
}

func clone(items []models.Product) []models.Product {
	out := make([]models.Product, len(items))
	copy(out, items)
	return out
}
