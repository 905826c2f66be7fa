// internal/repository/postgres/store.go
package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/javajoker/marketplace-backend/internal/database"
	"github.com/javajoker/marketplace-backend/internal/repository"
)

// Store implements repository.Store on top of GORM and PostgreSQL.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Users() repository.UserRepository { return &userRepository{db: s.db} }
func (s *Store) Vendors() repository.VendorRepository { return &vendorRepository{db: s.db} }
func (s *Store) Categories() repository.CategoryRepository { return &categoryRepository{db: s.db} }
func (s *Store) Products() repository.ProductRepository { return &productRepository{db: s.db} }
func (s *Store) Carts() repository.CartRepository { return &cartRepository{db: s.db} }
func (s *Store) Orders() repository.OrderRepository { return &orderRepository{db: s.db} }
func (s *Store) AuditLogs() repository.AuditLogRepository { return &auditLogRepository{db: s.db} }
func (s *Store) Sequences() repository.Sequencer { return &sequencer{db: s.db} }

func (s *Store) Transaction(ctx context.Context, fn func(tx repository.Store) error) error {
	return database.WithTransaction(s.db.WithContext(ctx), func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}

// translate maps GORM errors onto the repository sentinels.
func translate(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%s: %w", what, repository.ErrNotFound)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%s: %w", what, repository.ErrDuplicate)
	default:
		return fmt.Errorf("%s: %w", what, err)
	}
}
