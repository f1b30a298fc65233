package repository

import (
	"context"
	"errors"

	"github.com/notofall/finaltalabt-sub001/internal/procurement/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RFQRepository 询价/报价仓库
type RFQRepository struct {
	db *gorm.DB
}

func NewRFQRepository(db *gorm.DB) *RFQRepository {
	return &RFQRepository{db: db}
}

// FindAll 询价单列表
func (r *RFQRepository) FindAll(ctx context.Context, projectID, status string, page, pageSize int) ([]entity.RFQ, int64, error) {
	query := r.db.WithContext(ctx).Model(&entity.RFQ{})

	if projectID != "" {
		query = query.Where("project_id = ?", projectID)
	}
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rfqs []entity.RFQ
	err := query.
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&rfqs).Error
	return rfqs, total, err
}

func (r *RFQRepository) FindByID(ctx context.Context, id string) (*entity.RFQ, error) {
	var rfq entity.RFQ
	err := r.db.WithContext(ctx).
		Preload("Quotes", func(db *gorm.DB) *gorm.DB {
			return db.Order("quoted_at ASC")
		}).
		Preload("Quotes.Supplier").
		Preload("Quotes.Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC")
		}).
		First(&rfq, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &rfq, nil
}

func (r *RFQRepository) Update(ctx context.Context, rfq *entity.RFQ) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(rfq).Error
}

func (r *RFQRepository) FindQuoteByID(ctx context.Context, id string) (*entity.Quotation, error) {
	var quote entity.Quotation
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC")
		}).
		First(&quote, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &quote, nil
}
