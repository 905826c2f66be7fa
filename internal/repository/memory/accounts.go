package memory

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/javajoker/marketplace-backend/internal/models"
	"github.com/javajoker/marketplace-backend/internal/repository"
)

type userRepository struct{ s *Store }

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	return r.s.write(func(t *tables) error {
		for _, existing := range t.users {
			if existing.ID == user.ID || strings.EqualFold(existing.Email, user.Email) {
				return duplicate("create user")
			}
		}
		r.s.stamp(&user.BaseModel, true)
		t.users[user.ID] = clone(user)
		return nil
	})
}

func (r *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var found *models.User
	r.s.read(func(t *tables) {
		if u, ok := t.users[id]; ok {
			found = clone(u)
		}
	})
	if found == nil {
		return nil, notFound("find user")
	}
	return found, nil
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var found *models.User
	r.s.read(func(t *tables) {
		for _, u := range t.users {
			if strings.EqualFold(u.Email, email) {
				found = clone(u)
				return
			}
		}
	})
	if found == nil {
		return nil, notFound("find user by email")
	}
	return found, nil
}

func (r *userRepository) Save(ctx context.Context, user *models.User) error {
	return r.s.write(func(t *tables) error {
		for _, existing := range t.users {
			if existing.ID != user.ID && strings.EqualFold(existing.Email, user.Email) {
				return duplicate("save user")
			}
		}
		r.s.stamp(&user.BaseModel, false)
		t.users[user.ID] = clone(user)
		return nil
	})
}

func (r *userRepository) List(ctx context.Context, filter repository.UserFilter) ([]models.User, int64, error) {
	var users []models.User
	term := strings.ToLower(filter.Search)
	r.s.read(func(t *tables) {
		for _, u := range t.users {
			if filter.Role != nil && u.Role != *filter.Role {
				continue
			}
			if filter.IsActive != nil && u.IsActive != *filter.IsActive {
				continue
			}
			if term != "" && !strings.Contains(strings.ToLower(u.FirstName+" "+u.LastName+" "+u.Email), term) {
				continue
			}
			users = append(users, *clone(u))
		}
	})

	sortByCreated(users, func(u models.User) time.Time { return u.CreatedAt }, filter.Order)
	return paginate(users, filter.PaginationParams), int64(len(users)), nil
}

func (r *userRepository) Count(ctx context.Context) (int64, error) {
	var n int
	r.s.read(func(t *tables) { n = len(t.users) })
	return int64(n), nil
}

type vendorRepository struct{ s *Store }

func (r *vendorRepository) Create(ctx context.Context, vendor *models.Vendor) error {
	return r.s.write(func(t *tables) error {
		for _, existing := range t.vendors {
			if existing.ID == vendor.ID || existing.UserID == vendor.UserID {
				return duplicate("create vendor")
			}
		}
		r.s.stamp(&vendor.BaseModel, true)
		t.vendors[vendor.ID] = clone(vendor)
		return nil
	})
}

func (r *vendorRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Vendor, error) {
	var found *models.Vendor
	r.s.read(func(t *tables) {
		if v, ok := t.vendors[id]; ok {
			found = clone(v)
		}
	})
	if found == nil {
		return nil, notFound("find vendor")
	}
	return found, nil
}

func (r *vendorRepository) FindByUserID(ctx context.Context, userID uuid.UUID) (*models.Vendor, error) {
	var found *models.Vendor
	r.s.read(func(t *tables) {
		for _, v := range t.vendors {
			if v.UserID == userID {
				found = clone(v)
				return
			}
		}
	})
	if found == nil {
		return nil, notFound("find vendor by user")
	}
	return found, nil
}

func (r *vendorRepository) Save(ctx context.Context, vendor *models.Vendor) error {
	return r.s.write(func(t *tables) error {
		r.s.stamp(&vendor.BaseModel, false)
		t.vendors[vendor.ID] = clone(vendor)
		return nil
	})
}

func (r *vendorRepository) List(ctx context.Context, filter repository.VendorFilter) ([]models.Vendor, int64, error) {
	var vendors []models.Vendor
	term := strings.ToLower(filter.Search)
	r.s.read(func(t *tables) {
		for _, v := range t.vendors {
			if filter.Status != nil && v.Status != *filter.Status {
				continue
			}
			if term != "" && !strings.Contains(strings.ToLower(v.BusinessName), term) {
				continue
			}
			vendors = append(vendors, *clone(v))
		}
	})

	sortByCreated(vendors, func(v models.Vendor) time.Time { return v.CreatedAt }, filter.Order)
	return paginate(vendors, filter.PaginationParams), int64(len(vendors)), nil
}

func (r *vendorRepository) Count(ctx context.Context, status *models.VendorStatus) (int64, error) {
	var n int64
	r.s.read(func(t *tables) {
		for _, v := range t.vendors {
			if status == nil || v.Status == *status {
				n++
			}
		}
	})
	return n, nil
}

func (r *vendorRepository) AdjustTotals(ctx context.Context, id uuid.UUID, sales float64, orders int) error {
	return r.s.write(func(t *tables) error {
		existing, ok := t.vendors[id]
		if !ok {
			return notFound("adjust vendor totals")
		}
		v := clone(existing)
		v.TotalSales += sales
		v.TotalOrders += orders
		t.vendors[id] = v
		return nil
	})
}

type auditLogRepository struct{ s *Store }

func (r *auditLogRepository) Create(ctx context.Context, log *models.AuditLog) error {
	return r.s.write(func(t *tables) error {
		r.s.stamp(&log.BaseModel, true)
		t.auditLogs = append(t.auditLogs, *log)
		return nil
	})
}

// AuditEntries returns a copy of every recorded audit log.
func (s *Store) AuditEntries() []models.AuditLog {
	var entries []models.AuditLog
	s.read(func(t *tables) {
		entries = append(entries, t.auditLogs...)
	})
	return entries
}

type sequencer struct{ s *Store }

func (q *sequencer) Next(ctx context.Context, name string) (int64, error) {
	var next int64
	err := q.s.write(func(t *tables) error {
		t.counters[name]++
		next = t.counters[name]
		return nil
	})
	return next, err
}
