// Package memory is an in-process repository.Store used by tests and by
// the memory database driver. Records are deep copied on every read and
// write so callers never share state with the store.
package memory

import (
	"bytes"
	"context"
	"encoding/gob"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/javajoker/marketplace-backend/internal/models"
	"github.com/javajoker/marketplace-backend/internal/repository"
	"github.com/javajoker/marketplace-backend/internal/utils"
)

type tables struct {
	users      map[uuid.UUID]*models.User
	vendors    map[uuid.UUID]*models.Vendor
	categories map[uuid.UUID]*models.Category
	products   map[uuid.UUID]*models.Product
	carts      map[uuid.UUID]*models.Cart
	orders     map[uuid.UUID]*models.Order
	auditLogs  []models.AuditLog
	counters   map[string]int64
}

func newTables() *tables {
	return &tables{
		users:      make(map[uuid.UUID]*models.User),
		vendors:    make(map[uuid.UUID]*models.Vendor),
		categories: make(map[uuid.UUID]*models.Category),
		products:   make(map[uuid.UUID]*models.Product),
		carts:      make(map[uuid.UUID]*models.Cart),
		orders:     make(map[uuid.UUID]*models.Order),
		counters:   make(map[string]int64),
	}
}

// snapshot copies the maps. Stored records are never mutated in place, so
// sharing the pointers is safe.
func (t *tables) snapshot() *tables {
	cp := newTables()
	for k, v := range t.users {
		cp.users[k] = v
	}
	for k, v := range t.vendors {
		cp.vendors[k] = v
	}
	for k, v := range t.categories {
		cp.categories[k] = v
	}
	for k, v := range t.products {
		cp.products[k] = v
	}
	for k, v := range t.carts {
		cp.carts[k] = v
	}
	for k, v := range t.orders {
		cp.orders[k] = v
	}
	for k, v := range t.counters {
		cp.counters[k] = v
	}
	cp.auditLogs = append([]models.AuditLog(nil), t.auditLogs...)
	return cp
}

type state struct {
	// txMu serializes transactions against each other and against
	// writes made outside a transaction.
	txMu sync.Mutex
	mu   sync.RWMutex
	data *tables
}

type Store struct {
	st   *state
	inTx bool
	now  func() time.Time
}

func NewStore() *Store {
	return &Store{st: &state{data: newTables()}, now: time.Now}
}

func (s *Store) Users() repository.UserRepository { return &userRepository{s} }
func (s *Store) Vendors() repository.VendorRepository { return &vendorRepository{s} }
func (s *Store) Categories() repository.CategoryRepository { return &categoryRepository{s} }
func (s *Store) Products() repository.ProductRepository { return &productRepository{s} }
func (s *Store) Carts() repository.CartRepository { return &cartRepository{s} }
func (s *Store) Orders() repository.OrderRepository { return &orderRepository{s} }
func (s *Store) AuditLogs() repository.AuditLogRepository { return &auditLogRepository{s} }
func (s *Store) Sequences() repository.Sequencer { return &sequencer{s} }

// Transaction runs fn with exclusive write access and restores the previous
// contents when fn fails. Calls made on the transactional store join the
// outer transaction instead of nesting.
func (s *Store) Transaction(ctx context.Context, fn func(tx repository.Store) error) error {
	if s.inTx {
		return fn(s)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.st.txMu.Lock()
	defer s.st.txMu.Unlock()

	s.st.mu.RLock()
	saved := s.st.data.snapshot()
	s.st.mu.RUnlock()

	tx := &Store{st: s.st, inTx: true, now: s.now}
	if err := fn(tx); err != nil {
		s.st.mu.Lock()
		s.st.data = saved
		s.st.mu.Unlock()
		return err
	}
	return nil
}

func (s *Store) write(fn func(t *tables) error) error {
	if !s.inTx {
		s.st.txMu.Lock()
		defer s.st.txMu.Unlock()
	}
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	return fn(s.st.data)
}

func (s *Store) read(fn func(t *tables)) {
	s.st.mu.RLock()
	defer s.st.mu.RUnlock()
	fn(s.st.data)
}

func (s *Store) stamp(base *models.BaseModel, creating bool) {
	now := s.now()
	if base.ID == uuid.Nil {
		base.ID = uuid.New()
	}
	if creating || base.CreatedAt.IsZero() {
		base.CreatedAt = now
	}
	base.UpdatedAt = now
}

// clone deep copies v. Every stored type is gob-encodable, so a failure
// here is a programming error.
func clone[T any](v *T) *T {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		panic(fmt.Sprintf("memory: encode %T: %v", v, err))
	}
	out := new(T)
	if err := gob.NewDecoder(&buf).Decode(out); err != nil {
		panic(fmt.Sprintf("memory: decode %T: %v", v, err))
	}
	return out
}

func notFound(what string) error {
	return fmt.Errorf("%s: %w", what, repository.ErrNotFound)
}

func duplicate(what string) error {
	return fmt.Errorf("%s: %w", what, repository.ErrDuplicate)
}

// paginate returns the requested page. A zero limit returns everything.
func paginate[T any](items []T, params utils.PaginationParams) []T {
	if params.Limit < 1 {
		return items
	}
	start := params.Offset()
	if start >= len(items) {
		return []T{}
	}
	end := start + params.Limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

// sortByCreated orders items by creation time, newest first unless order
// is "asc".
func sortByCreated[T any](items []T, createdAt func(T) time.Time, order string) {
	sort.SliceStable(items, func(i, j int) bool {
		if order == "asc" {
			return createdAt(items[i]).Before(createdAt(items[j]))
		}
		return createdAt(items[i]).After(createdAt(items[j]))
	})
}
