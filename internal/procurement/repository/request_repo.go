package repository

import (
	"context"
	"errors"

	"github.com/notofall/finaltalabt-sub001/internal/procurement/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RequestRepository 物料申请仓库
type RequestRepository struct {
	db *gorm.DB
}

func NewRequestRepository(db *gorm.DB) *RequestRepository {
	return &RequestRepository{db: db}
}

// FindAll 查询物料申请列表
func (r *RequestRepository) FindAll(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.MaterialRequest, int64, error) {
	var items []entity.MaterialRequest
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.MaterialRequest{})

	if projectID := filters["project_id"]; projectID != "" {
		query = query.Where("project_id = ?", projectID)
	}
	if status := filters["status"]; status != "" {
		query = query.Where("status = ?", status)
	}
	if supervisorID := filters["supervisor_id"]; supervisorID != "" {
		query = query.Where("supervisor_id = ?", supervisorID)
	}
	if search := filters["search"]; search != "" {
		query = query.Where("request_number ILIKE ?", "%"+search+"%")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.
		Preload("Items").
		Order("created_at DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&items).Error

	return items, total, err
}

// FindByID 根据ID查找物料申请(含行项)
func (r *RequestRepository) FindByID(ctx context.Context, id string) (*entity.MaterialRequest, error) {
	var req entity.MaterialRequest
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC")
		}).
		Preload("Project").
		Where("id = ?", id).
		First(&req).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &req, nil
}

// Update 更新物料申请,跳过预加载关联仅存本表字段
func (r *RequestRepository) Update(ctx context.Context, req *entity.MaterialRequest) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(req).Error
}
