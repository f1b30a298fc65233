package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/notofall/finaltalabt-sub001/internal/procurement/entity"
	"gorm.io/gorm"
)

// SupplyRepository 供应台账仓库
type SupplyRepository struct {
	db *gorm.DB
}

func NewSupplyRepository(db *gorm.DB) *SupplyRepository {
	return &SupplyRepository{db: db}
}

// FindByProject 查询项目全部台账条目
func (r *SupplyRepository) FindByProject(ctx context.Context, projectID string) ([]entity.SupplyTracking, error) {
	var entries []entity.SupplyTracking
	err := r.db.WithContext(ctx).
		Preload("CatalogItem").
		Where("project_id = ?", projectID).
		Order("created_at ASC").
		Find(&entries).Error
	return entries, err
}

// AddReceived 累加实收数量。原子自增,条目不存在时按需求量0新建;
// 本层不保证幂等,调用方须对每次物理到货恰好调用一次。
func (r *SupplyRepository) AddReceived(ctx context.Context, tx *gorm.DB, projectID, catalogItemID string, delta float64) error {
	res := tx.WithContext(ctx).Model(&entity.SupplyTracking{}).
		Where("project_id = ? AND catalog_item_id = ?", projectID, catalogItemID).
		Updates(map[string]interface{}{
			"received_quantity": gorm.Expr("received_quantity + ?", delta),
			"updated_at":        time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}

	entry := &entity.SupplyTracking{
		ID:               uuid.New().String()[:32],
		ProjectID:        projectID,
		CatalogItemID:    catalogItemID,
		ReceivedQuantity: delta,
	}
	return tx.WithContext(ctx).Create(entry).Error
}

// EnsureRequirement 确保台账条目存在;仅在新建时写入需求量,已有条目不动
func (r *SupplyRepository) EnsureRequirement(ctx context.Context, tx *gorm.DB, projectID, catalogItemID string, required float64) error {
	var count int64
	if err := tx.WithContext(ctx).Model(&entity.SupplyTracking{}).
		Where("project_id = ? AND catalog_item_id = ?", projectID, catalogItemID).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	entry := &entity.SupplyTracking{
		ID:               uuid.New().String()[:32],
		ProjectID:        projectID,
		CatalogItemID:    catalogItemID,
		RequiredQuantity: required,
	}
	return tx.WithContext(ctx).Create(entry).Error
}

// SetRequirement 设置需求量(计划侧覆盖),条目不存在时新建
func (r *SupplyRepository) SetRequirement(ctx context.Context, projectID, catalogItemID string, required float64) (*entity.SupplyTracking, error) {
	var entry entity.SupplyTracking
	err := r.db.WithContext(ctx).
		Where("project_id = ? AND catalog_item_id = ?", projectID, catalogItemID).
		First(&entry).Error
	if err != nil {
		if err != gorm.ErrRecordNotFound {
			return nil, err
		}
		entry = entity.SupplyTracking{
			ID:               uuid.New().String()[:32],
			ProjectID:        projectID,
			CatalogItemID:    catalogItemID,
			RequiredQuantity: required,
		}
		if err := r.db.WithContext(ctx).Create(&entry).Error; err != nil {
			return nil, err
		}
		return &entry, nil
	}

	entry.RequiredQuantity = required
	entry.UpdatedAt = time.Now()
	if err := r.db.WithContext(ctx).Save(&entry).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}
