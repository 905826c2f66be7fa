package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/javajoker/marketplace-backend/internal/models"
	"github.com/javajoker/marketplace-backend/internal/repository"
)

type categoryRepository struct{ s *Store }

func (r *categoryRepository) Create(ctx context.Context, category *models.Category) error {
	return r.s.write(func(t *tables) error {
		for _, existing := range t.categories {
			if existing.ID == category.ID || existing.Slug == category.Slug {
				return duplicate("create category")
			}
		}
		r.s.stamp(&category.BaseModel, true)
		t.categories[category.ID] = clone(category)
		return nil
	})
}

func (r *categoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	var found *models.Category
	r.s.read(func(t *tables) {
		if c, ok := t.categories[id]; ok {
			found = clone(c)
		}
	})
	if found == nil {
		return nil, notFound("find category")
	}
	return found, nil
}

func (r *categoryRepository) FindBySlug(ctx context.Context, slug string) (*models.Category, error) {
	var found *models.Category
	r.s.read(func(t *tables) {
		for _, c := range t.categories {
			if c.Slug == slug {
				found = clone(c)
				return
			}
		}
	})
	if found == nil {
		return nil, notFound("find category by slug")
	}
	return found, nil
}

func (r *categoryRepository) List(ctx context.Context, activeOnly bool) ([]models.Category, error) {
	categories := []models.Category{}
	r.s.read(func(t *tables) {
		for _, c := range t.categories {
			if activeOnly && !c.IsActive {
				continue
			}
			categories = append(categories, *clone(c))
		}
	})

	sort.SliceStable(categories, func(i, j int) bool {
		if categories[i].SortOrder != categories[j].SortOrder {
			return categories[i].SortOrder < categories[j].SortOrder
		}
		return categories[i].Name < categories[j].Name
	})
	return categories, nil
}

func (r *categoryRepository) AdjustProductCount(ctx context.Context, id uuid.UUID, delta int) error {
	return r.s.write(func(t *tables) error {
		existing, ok := t.categories[id]
		if !ok {
			return nil
		}
		c := clone(existing)
		c.ProductCount += delta
		if c.ProductCount < 0 {
			c.ProductCount = 0
		}
		t.categories[id] = c
		return nil
	})
}

type productRepository struct{ s *Store }

func (r *productRepository) Create(ctx context.Context, product *models.Product) error {
	return r.s.write(func(t *tables) error {
		for _, existing := range t.products {
			if existing.ID == product.ID || existing.SKU == product.SKU {
				return duplicate("create product")
			}
		}
		r.s.stamp(&product.BaseModel, true)
		t.products[product.ID] = clone(product)
		return nil
	})
}

func (r *productRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var found *models.Product
	r.s.read(func(t *tables) {
		if p, ok := t.products[id]; ok {
			found = clone(p)
		}
	})
	if found == nil {
		return nil, notFound("find product")
	}
	return found, nil
}

func (r *productRepository) LockByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	return r.FindByID(ctx, id)
}

func (r *productRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*models.Product, error) {
	found := make(map[uuid.UUID]*models.Product, len(ids))
	r.s.read(func(t *tables) {
		for _, id := range ids {
			if p, ok := t.products[id]; ok {
				found[id] = clone(p)
			}
		}
	})
	return found, nil
}

func (r *productRepository) Save(ctx context.Context, product *models.Product) error {
	return r.s.write(func(t *tables) error {
		for _, existing := range t.products {
			if existing.ID != product.ID && existing.SKU == product.SKU {
				return duplicate("save product")
			}
		}
		r.s.stamp(&product.BaseModel, false)
		t.products[product.ID] = clone(product)
		return nil
	})
}

func (r *productRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.s.write(func(t *tables) error {
		if _, ok := t.products[id]; !ok {
			return notFound("delete product")
		}
		delete(t.products, id)
		return nil
	})
}

func matchesProduct(p *models.Product, filter repository.ProductFilter) bool {
	if filter.PublicOnly && !p.IsAvailable() {
		return false
	}
	if filter.Status != nil && p.Status != *filter.Status {
		return false
	}
	if filter.CategoryID != nil && p.CategoryID != *filter.CategoryID {
		return false
	}
	if filter.VendorID != nil && p.VendorID != *filter.VendorID {
		return false
	}
	if filter.PriceMin != nil && p.Price < *filter.PriceMin {
		return false
	}
	if filter.PriceMax != nil && p.Price > *filter.PriceMax {
		return false
	}
	if filter.Brand != "" && !strings.Contains(strings.ToLower(p.Brand), strings.ToLower(filter.Brand)) {
		return false
	}
	if filter.Featured != nil && p.Featured != *filter.Featured {
		return false
	}
	if filter.LowStock && !p.IsLowStock() {
		return false
	}
	if filter.ExcludeID != nil && p.ID == *filter.ExcludeID {
		return false
	}
	if len(filter.Tags) > 0 && !sharesTag(p.Tags, filter.Tags) {
		return false
	}
	if filter.Search != "" {
		text := strings.ToLower(p.Name + " " + p.Description)
		for _, word := range strings.Fields(strings.ToLower(filter.Search)) {
			if !strings.Contains(text, word) {
				return false
			}
		}
	}
	return true
}

func sharesTag(have, want []string) bool {
	for _, w := range want {
		for _, h := range have {
			if h == w {
				return true
			}
		}
	}
	return false
}

func (r *productRepository) collect(filter repository.ProductFilter) []models.Product {
	products := []models.Product{}
	r.s.read(func(t *tables) {
		for _, p := range t.products {
			if matchesProduct(p, filter) {
				products = append(products, *clone(p))
			}
		}
	})
	return products
}

func (r *productRepository) Search(ctx context.Context, filter repository.ProductFilter) ([]models.Product, int64, error) {
	products := r.collect(filter)

	sortByCreated(products, func(p models.Product) time.Time { return p.CreatedAt }, "desc")
	switch filter.Sort {
	case repository.SortPriceLow:
		sort.SliceStable(products, func(i, j int) bool { return products[i].Price < products[j].Price })
	case repository.SortPriceHigh:
		sort.SliceStable(products, func(i, j int) bool { return products[i].Price > products[j].Price })
	case repository.SortRating:
		sort.SliceStable(products, func(i, j int) bool { return products[i].Rating.Average > products[j].Rating.Average })
	case repository.SortPopular:
		sort.SliceStable(products, func(i, j int) bool { return products[i].TotalSales > products[j].TotalSales })
	}

	return paginate(products, filter.PaginationParams), int64(len(products)), nil
}

func (r *productRepository) Count(ctx context.Context, filter repository.ProductFilter) (int64, error) {
	return int64(len(r.collect(filter))), nil
}

func (r *productRepository) AdjustStock(ctx context.Context, id uuid.UUID, delta int) error {
	return r.s.write(func(t *tables) error {
		existing, ok := t.products[id]
		if !ok {
			return notFound("adjust stock")
		}
		if existing.Inventory.Quantity+delta < 0 {
			return repository.ErrInsufficientStock
		}
		p := clone(existing)
		p.Inventory.Quantity += delta
		p.TotalSales -= delta
		t.products[id] = p
		return nil
	})
}

func (r *productRepository) IncrementViewCount(ctx context.Context, id uuid.UUID) error {
	return r.s.write(func(t *tables) error {
		existing, ok := t.products[id]
		if !ok {
			return notFound("increment view count")
		}
		p := clone(existing)
		p.ViewCount++
		t.products[id] = p
		return nil
	})
}
