// internal/repository/postgres/vendors.go
package postgres

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/javajoker/marketplace-backend/internal/models"
	"github.com/javajoker/marketplace-backend/internal/repository"
	"github.com/javajoker/marketplace-backend/internal/utils"
)

type vendorRepository struct {
	db *gorm.DB
}

func (r *vendorRepository) Create(ctx context.Context, vendor *models.Vendor) error {
	return translate(r.db.WithContext(ctx).Create(vendor).Error, "create vendor")
}

func (r *vendorRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Vendor, error) {
	var vendor models.Vendor
	if err := r.db.WithContext(ctx).First(&vendor, "id = ?", id).Error; err != nil {
		return nil, translate(err, "find vendor")
	}
	return &vendor, nil
}

func (r *vendorRepository) FindByUserID(ctx context.Context, userID uuid.UUID) (*models.Vendor, error) {
	var vendor models.Vendor
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&vendor).Error; err != nil {
		return nil, translate(err, "find vendor by user")
	}
	return &vendor, nil
}

func (r *vendorRepository) Save(ctx context.Context, vendor *models.Vendor) error {
	return translate(r.db.WithContext(ctx).Save(vendor).Error, "save vendor")
}

func (r *vendorRepository) List(ctx context.Context, filter repository.VendorFilter) ([]models.Vendor, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Vendor{})

	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Search != "" {
		query = query.Where("business_name ILIKE ?", "%"+filter.Search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translate(err, "count vendors")
	}

	query = utils.ApplySort(query, filter.PaginationParams, []string{"created_at", "business_name", "total_sales"})
	query = utils.ApplyPagination(query, filter.PaginationParams)

	var vendors []models.Vendor
	if err := query.Find(&vendors).Error; err != nil {
		return nil, 0, translate(err, "list vendors")
	}
	return vendors, total, nil
}

func (r *vendorRepository) Count(ctx context.Context, status *models.VendorStatus) (int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Vendor{})
	if status != nil {
		query = query.Where("status = ?", *status)
	}

	var total int64
	err := query.Count(&total).Error
	return total, translate(err, "count vendors")
}

func (r *vendorRepository) AdjustTotals(ctx context.Context, id uuid.UUID, sales float64, orders int) error {
	result := r.db.WithContext(ctx).Model(&models.Vendor{}).Where("id = ?", id).UpdateColumns(map[string]interface{}{
		"total_sales":  gorm.Expr("total_sales + ?", sales),
		"total_orders": gorm.Expr("total_orders + ?", orders),
	})
	if result.Error != nil {
		return translate(result.Error, "adjust vendor totals")
	}
	if result.RowsAffected == 0 {
		return translate(gorm.ErrRecordNotFound, "adjust vendor totals")
	}
	return nil
}
