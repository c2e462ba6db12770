package repo

import (
	"context"
	"strings"

	"github.com/Skotchmaster/rocketshoes/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GormRepo struct {
	DB *gorm.DB
}

func (r *GormRepo) Migrate(ctx context.Context) error {
	return r.DB.WithContext(ctx).AutoMigrate(&models.Product{}, &models.Stock{})
}

func (r *GormRepo) GetProduct(ctx context.Context, id int) (*models.Product, error) {
	product := models.Product{}
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *GormRepo) GetProducts(ctx context.Context, offset, limit int) (int64, []models.Product, error) {
	var total int64
	if err := r.DB.WithContext(ctx).Model(&models.Product{}).Count(&total).Error; err != nil {
		return 0, nil, err
	}

	items := make([]models.Product, 0, limit)
	if err := r.DB.WithContext(ctx).Model(&models.Product{}).Order("id ASC").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return 0, nil, err
	}

	return total, items, nil
}

func (r *GormRepo) GetStock(ctx context.Context, id int) (*models.Stock, error) {
	stock := models.Stock{}
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&stock).Error; err != nil {
		return nil, err
	}
	return &stock, nil
}

// SearchProducts matches the title case-insensitively. Used when no search
// cluster is configured.
func (r *GormRepo) SearchProducts(ctx context.Context, q string, offset, limit int) (int64, []models.Product, error) {
	pattern := "%" + strings.ToLower(q) + "%"
	where := "LOWER(title) LIKE ?"

	var total int64
	if err := r.DB.WithContext(ctx).Model(&models.Product{}).Where(where, pattern).Count(&total).Error; err != nil {
		return 0, nil, err
	}

	items := make([]models.Product, 0, limit)
	if err := r.DB.WithContext(ctx).
		Model(&models.Product{}).
		Where(where, pattern).
		Order("id ASC").
		Offset(offset).
		Limit(limit).
		Find(&items).Error; err != nil {
		return 0, nil, err
	}

	return total, items, nil
}

// Seed upserts products and stock levels in one transaction.
func (r *GormRepo) Seed(ctx context.Context, products []models.Product, stock []models.Stock) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(products) > 0 {
			if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&products).Error; err != nil {
				return err
			}
		}
		if len(stock) > 0 {
			if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&stock).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
