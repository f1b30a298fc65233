package repository

import (
	"context"
	"errors"

	"github.com/notofall/finaltalabt-sub001/internal/procurement/entity"
	"gorm.io/gorm"
)

// CatalogRepository 物料目录与预算类别仓库
type CatalogRepository struct {
	db *gorm.DB
}

func NewCatalogRepository(db *gorm.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

func (r *CatalogRepository) CreateItem(ctx context.Context, item *entity.CatalogItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *CatalogRepository) FindItems(ctx context.Context, category, search string) ([]entity.CatalogItem, error) {
	query := r.db.WithContext(ctx)
	if category != "" {
		query = query.Where("category = ?", category)
	}
	if search != "" {
		query = query.Where("name ILIKE ? OR code ILIKE ?", "%"+search+"%", "%"+search+"%")
	}

	var items []entity.CatalogItem
	err := query.Order("code ASC").Find(&items).Error
	return items, err
}

func (r *CatalogRepository) FindItemByID(ctx context.Context, id string) (*entity.CatalogItem, error) {
	var item entity.CatalogItem
	err := r.db.WithContext(ctx).First(&item, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &item, nil
}

// FindItemByName 按名称精确匹配,用于到货行未带目录ID时的回退解析
func (r *CatalogRepository) FindItemByName(ctx context.Context, name string) (*entity.CatalogItem, error) {
	var item entity.CatalogItem
	err := r.db.WithContext(ctx).First(&item, "name = ?", name).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &item, nil
}

func (r *CatalogRepository) CreateCategory(ctx context.Context, category *entity.BudgetCategory) error {
	return r.db.WithContext(ctx).Create(category).Error
}

func (r *CatalogRepository) FindCategories(ctx context.Context) ([]entity.BudgetCategory, error) {
	var categories []entity.BudgetCategory
	err := r.db.WithContext(ctx).Order("name ASC").Find(&categories).Error
	return categories, err
}
