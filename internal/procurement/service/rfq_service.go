package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/notofall/finaltalabt-sub001/internal/procurement/entity"
	"github.com/notofall/finaltalabt-sub001/internal/procurement/repository"
)

// RFQService 询价比价服务
type RFQService struct {
	db     *gorm.DB
	repos  *repository.Repositories
	logger *zap.Logger
}

func NewRFQService(db *gorm.DB, repos *repository.Repositories, logger *zap.Logger) *RFQService {
	return &RFQService{db: db, repos: repos, logger: logger}
}

// List 询价单列表
func (s *RFQService) List(ctx context.Context, projectID, status string, page, pageSize int) ([]entity.RFQ, int64, error) {
	return s.repos.RFQ.FindAll(ctx, projectID, status, page, pageSize)
}

// Get 询价单详情(含报价)
func (s *RFQService) Get(ctx context.Context, id string) (*entity.RFQ, error) {
	return s.repos.RFQ.FindByID(ctx, id)
}

// CreateRFQInput 创建询价单请求
type CreateRFQInput struct {
	ProjectID string     `json:"project_id" binding:"required"`
	RequestID *string    `json:"request_id"`
	Title     string     `json:"title" binding:"required"`
	Deadline  *time.Time `json:"deadline"`
	Notes     string     `json:"notes"`
}

// Create 创建询价单
func (s *RFQService) Create(ctx context.Context, actor Actor, input *CreateRFQInput) (*entity.RFQ, error) {
	if err := actor.can(OpManageRFQ); err != nil {
		return nil, err
	}
	if _, err := s.repos.Project.FindByID(ctx, input.ProjectID); err != nil {
		return nil, err
	}
	if input.RequestID != nil {
		if _, err := s.repos.Request.FindByID(ctx, *input.RequestID); err != nil {
			return nil, err
		}
	}

	rfq := &entity.RFQ{
		ID:        uuid.New().String()[:32],
		Status:    entity.RFQStatusOpen,
		RequestID: input.RequestID,
		ProjectID: input.ProjectID,
		Title:     input.Title,
		Deadline:  input.Deadline,
		CreatedBy: actor.ID,
		Notes:     input.Notes,
	}

	var lastErr error
	inserted := false
	for attempt := 0; attempt < repository.AllocateRetries; attempt++ {
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			number, _, err := s.repos.Sequence.DocumentNumber(ctx, tx, &entity.RFQ{}, "rfq_number", "RFQ", 4)
			if err != nil {
				return err
			}
			rfq.RFQNumber = number
			return tx.Create(rfq).Error
		})
		if err == nil {
			inserted = true
			break
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, err
		}
		lastErr = err
	}
	if !inserted {
		rfq.RFQNumber = s.repos.Sequence.FallbackNumber(repository.YearScope("RFQ"))
		if err := s.db.WithContext(ctx).Create(rfq).Error; err != nil {
			return nil, errors.Join(lastErr, err)
		}
		s.logger.Warn("询价单编号退化为兜底格式", zap.String("number", rfq.RFQNumber))
	}

	s.repos.Audit.Record(ctx, &entity.AuditLog{
		EntityType: "rfq",
		EntityID:   rfq.ID,
		EntityCode: rfq.RFQNumber,
		Action:     "create",
		ToStatus:   rfq.Status,
		ActorID:    actor.ID,
		ActorName:  actor.Name,
	})
	return rfq, nil
}

// AddQuoteInput 录入报价请求
type AddQuoteInput struct {
	SupplierID   string         `json:"supplier_id" binding:"required"`
	TotalAmount  float64        `json:"total_amount" binding:"required"`
	LeadTimeDays int            `json:"lead_time_days"`
	ValidUntil   *time.Time     `json:"valid_until"`
	Notes        string         `json:"notes"`
	Items        []AddQuoteItem `json:"items"`
}

type AddQuoteItem struct {
	CatalogItemID *string `json:"catalog_item_id"`
	Name          string  `json:"name" binding:"required"`
	Quantity      float64 `json:"quantity" binding:"required"`
	Unit          string  `json:"unit"`
	UnitPrice     float64 `json:"unit_price"`
}

// AddQuote 录入供应商报价,询价单关闭后不再接收
func (s *RFQService) AddQuote(ctx context.Context, actor Actor, rfqID string, input *AddQuoteInput) (*entity.Quotation, error) {
	if err := actor.can(OpManageRFQ); err != nil {
		return nil, err
	}
	if input.TotalAmount <= 0 {
		return nil, newValidationError("total_amount", "total amount must be positive")
	}
	for _, item := range input.Items {
		if item.Quantity <= 0 {
			return nil, newValidationError("items.quantity", "quantity must be positive")
		}
		if item.UnitPrice < 0 {
			return nil, newValidationError("items.unit_price", "unit price must not be negative")
		}
	}

	rfq, err := s.repos.RFQ.FindByID(ctx, rfqID)
	if err != nil {
		return nil, err
	}
	if rfq.Status == entity.RFQStatusClosed {
		return nil, &TransitionError{Entity: "rfq", From: rfq.Status, Action: "add quote"}
	}
	if _, err := s.repos.Supplier.FindByID(ctx, input.SupplierID); err != nil {
		return nil, err
	}

	quote := &entity.Quotation{
		ID:           uuid.New().String()[:32],
		RFQID:        rfq.ID,
		SupplierID:   input.SupplierID,
		TotalAmount:  input.TotalAmount,
		LeadTimeDays: input.LeadTimeDays,
		ValidUntil:   input.ValidUntil,
		QuotedAt:     time.Now(),
		Notes:        input.Notes,
	}
	for i, item := range input.Items {
		unit := item.Unit
		if unit == "" {
			unit = "pcs"
		}
		quote.Items = append(quote.Items, entity.QuotationItem{
			ID:            uuid.New().String()[:32],
			QuoteID:       quote.ID,
			CatalogItemID: item.CatalogItemID,
			Name:          item.Name,
			Quantity:      item.Quantity,
			Unit:          unit,
			UnitPrice:     item.UnitPrice,
			SortOrder:     i + 1,
		})
	}

	var lastErr error
	inserted := false
	for attempt := 0; attempt < repository.AllocateRetries; attempt++ {
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			number, _, err := s.repos.Sequence.DocumentNumber(ctx, tx, &entity.Quotation{}, "quote_number", "SQ", 4)
			if err != nil {
				return err
			}
			quote.QuoteNumber = number
			if err := tx.Create(quote).Error; err != nil {
				return err
			}
			if rfq.Status == entity.RFQStatusOpen {
				return tx.Model(&entity.RFQ{}).
					Where("id = ?", rfq.ID).
					Update("status", entity.RFQStatusQuoted).Error
			}
			return nil
		})
		if err == nil {
			inserted = true
			break
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, err
		}
		lastErr = err
	}
	if !inserted {
		quote.QuoteNumber = s.repos.Sequence.FallbackNumber(repository.YearScope("SQ"))
		if err := s.db.WithContext(ctx).Create(quote).Error; err != nil {
			return nil, errors.Join(lastErr, err)
		}
		s.logger.Warn("报价单编号退化为兜底格式", zap.String("number", quote.QuoteNumber))
	}

	s.repos.Audit.Record(ctx, &entity.AuditLog{
		EntityType: "rfq",
		EntityID:   rfq.ID,
		EntityCode: rfq.RFQNumber,
		Action:     "add_quote",
		Changes:    entity.JSONB{"quote_number": quote.QuoteNumber, "supplier_id": quote.SupplierID, "total_amount": quote.TotalAmount},
		ActorID:    actor.ID,
		ActorName:  actor.Name,
	})
	return quote, nil
}

// SelectQuote 选定中标报价并关闭询价单
func (s *RFQService) SelectQuote(ctx context.Context, actor Actor, rfqID, quoteID string) (*entity.RFQ, error) {
	if err := actor.can(OpManageRFQ); err != nil {
		return nil, err
	}

	rfq, err := s.repos.RFQ.FindByID(ctx, rfqID)
	if err != nil {
		return nil, err
	}
	if rfq.Status == entity.RFQStatusClosed {
		return nil, &TransitionError{Entity: "rfq", From: rfq.Status, Action: "select quote"}
	}

	quote, err := s.repos.RFQ.FindQuoteByID(ctx, quoteID)
	if err != nil {
		return nil, err
	}
	if quote.RFQID != rfq.ID {
		return nil, newValidationError("quote_id", "quote does not belong to this rfq")
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&entity.Quotation{}).
			Where("rfq_id = ?", rfq.ID).
			Update("selected", false).Error; err != nil {
			return err
		}
		if err := tx.Model(&entity.Quotation{}).
			Where("id = ?", quote.ID).
			Update("selected", true).Error; err != nil {
			return err
		}
		return tx.Model(&entity.RFQ{}).
			Where("id = ?", rfq.ID).
			Update("status", entity.RFQStatusClosed).Error
	})
	if err != nil {
		return nil, err
	}

	s.repos.Audit.Record(ctx, &entity.AuditLog{
		EntityType: "rfq",
		EntityID:   rfq.ID,
		EntityCode: rfq.RFQNumber,
		Action:     "select_quote",
		FromStatus: rfq.Status,
		ToStatus:   entity.RFQStatusClosed,
		Changes:    entity.JSONB{"quote_number": quote.QuoteNumber},
		ActorID:    actor.ID,
		ActorName:  actor.Name,
	})
	return s.repos.RFQ.FindByID(ctx, rfq.ID)
}
