// internal/repository/postgres/products.go
package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/javajoker/marketplace-backend/internal/models"
	"github.com/javajoker/marketplace-backend/internal/repository"
	"github.com/javajoker/marketplace-backend/internal/utils"
)

var productSortColumns = map[string]string{
	repository.SortNewest:    "created_at DESC",
	repository.SortPriceLow:  "price ASC",
	repository.SortPriceHigh: "price DESC",
	repository.SortRating:    "rating_average DESC",
	repository.SortPopular:   "total_sales DESC",
}

type productRepository struct {
	db *gorm.DB
}

func (r *productRepository) Create(ctx context.Context, product *models.Product) error {
	return translate(r.db.WithContext(ctx).Create(product).Error, "create product")
}

func (r *productRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, translate(err, "find product")
	}
	return &product, nil
}

func (r *productRepository) LockByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).First(&product, "id = ?", id).Error
	if err != nil {
		return nil, translate(err, "lock product")
	}
	return &product, nil
}

func (r *productRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*models.Product, error) {
	found := make(map[uuid.UUID]*models.Product, len(ids))
	if len(ids) == 0 {
		return found, nil
	}

	var products []models.Product
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, translate(err, "find products")
	}
	for i := range products {
		found[products[i].ID] = &products[i]
	}
	return found, nil
}

func (r *productRepository) Save(ctx context.Context, product *models.Product) error {
	return translate(r.db.WithContext(ctx).Save(product).Error, "save product")
}

func (r *productRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.Product{}, "id = ?", id)
	if result.Error != nil {
		return translate(result.Error, "delete product")
	}
	if result.RowsAffected == 0 {
		return translate(gorm.ErrRecordNotFound, "delete product")
	}
	return nil
}

func (r *productRepository) filtered(ctx context.Context, filter repository.ProductFilter) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&models.Product{})

	if filter.PublicOnly {
		query = query.Where("status = ? AND is_active = ?", models.ProductStatusActive, true)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.CategoryID != nil {
		query = query.Where("category_id = ?", *filter.CategoryID)
	}
	if filter.VendorID != nil {
		query = query.Where("vendor_id = ?", *filter.VendorID)
	}
	if filter.Search != "" {
		query = query.Where("to_tsvector('english', name || ' ' || description) @@ plainto_tsquery('english', ?)", filter.Search)
	}
	if filter.PriceMin != nil {
		query = query.Where("price >= ?", *filter.PriceMin)
	}
	if filter.PriceMax != nil {
		query = query.Where("price <= ?", *filter.PriceMax)
	}
	if len(filter.Tags) > 0 {
		query = query.Where("tags && ?", pq.Array(filter.Tags))
	}
	if filter.Brand != "" {
		query = query.Where("brand ILIKE ?", "%"+filter.Brand+"%")
	}
	if filter.Featured != nil {
		query = query.Where("featured = ?", *filter.Featured)
	}
	if filter.LowStock {
		query = query.Where("inventory_quantity <= inventory_low_stock_threshold")
	}
	if filter.ExcludeID != nil {
		query = query.Where("id <> ?", *filter.ExcludeID)
	}
	return query
}

func (r *productRepository) Search(ctx context.Context, filter repository.ProductFilter) ([]models.Product, int64, error) {
	query := r.filtered(ctx, filter)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translate(err, "count products")
	}

	order, ok := productSortColumns[filter.Sort]
	if !ok {
		order = productSortColumns[repository.SortNewest]
	}
	query = utils.ApplyPagination(query.Order(order), filter.PaginationParams)

	var products []models.Product
	if err := query.Find(&products).Error; err != nil {
		return nil, 0, translate(err, "search products")
	}
	return products, total, nil
}

func (r *productRepository) Count(ctx context.Context, filter repository.ProductFilter) (int64, error) {
	var total int64
	err := r.filtered(ctx, filter).Count(&total).Error
	return total, translate(err, "count products")
}

func (r *productRepository) AdjustStock(ctx context.Context, id uuid.UUID, delta int) error {
	query := r.db.WithContext(ctx).Model(&models.Product{}).Where("id = ?", id)
	if delta < 0 {
		query = query.Where("inventory_quantity >= ?", -delta)
	}

	result := query.UpdateColumns(map[string]interface{}{
		"inventory_quantity": gorm.Expr("inventory_quantity + ?", delta),
		"total_sales":        gorm.Expr("total_sales - ?", delta),
	})
	if result.Error != nil {
		return translate(result.Error, "adjust stock")
	}
	if result.RowsAffected > 0 {
		return nil
	}

	// Nothing matched: either the product is gone or the guard rejected it.
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Product{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return translate(err, "adjust stock")
	}
	if count == 0 {
		return translate(gorm.ErrRecordNotFound, "adjust stock")
	}
	return repository.ErrInsufficientStock
}

func (r *productRepository) IncrementViewCount(ctx context.Context, id uuid.UUID) error {
	err := r.db.WithContext(ctx).Model(&models.Product{}).Where("id = ?", id).
		UpdateColumn("view_count", gorm.Expr("view_count + 1")).Error
	return translate(err, "increment view count")
}
