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

// OrderService 采购订单服务
type OrderService struct {
	db     *gorm.DB
	repos  *repository.Repositories
	logger *zap.Logger
}

func NewOrderService(db *gorm.DB, repos *repository.Repositories, logger *zap.Logger) *OrderService {
	return &OrderService{db: db, repos: repos, logger: logger}
}

// List 采购订单列表
func (s *OrderService) List(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.PurchaseOrder, int64, error) {
	return s.repos.Order.FindAll(ctx, page, pageSize, filters)
}

// Get 采购订单详情
func (s *OrderService) Get(ctx context.Context, id string) (*entity.PurchaseOrder, error) {
	return s.repos.Order.FindByID(ctx, id)
}

// CreateOrderInput 创建采购订单请求。
// 带 quote_id 时从选定报价继承供应商并预填行项单价
type CreateOrderInput struct {
	RequestID  *string           `json:"request_id"`
	QuoteID    *string           `json:"quote_id"`
	SupplierID string            `json:"supplier_id"`
	ProjectID  string            `json:"project_id"`
	CategoryID *string           `json:"category_id"`
	Notes      string            `json:"notes"`
	Items      []CreateOrderItem `json:"items" binding:"required"`
}

type CreateOrderItem struct {
	CatalogItemID *string `json:"catalog_item_id"`
	Name          string  `json:"name" binding:"required"`
	Quantity      float64 `json:"quantity" binding:"required"`
	Unit          string  `json:"unit"`
	UnitPrice     float64 `json:"unit_price"`
}

// Create 创建采购订单。
// 总金额按行项汇总一次算定;超过审批限额的订单进总经理审批通道。
// 关联物料申请时要求其已过工程师审核,并在同一事务内将其置为已下单。
func (s *OrderService) Create(ctx context.Context, actor Actor, input *CreateOrderInput) (*entity.PurchaseOrder, error) {
	if err := actor.can(OpCreateOrder); err != nil {
		return nil, err
	}
	if len(input.Items) == 0 {
		return nil, newValidationError("items", "at least one item is required")
	}
	for _, item := range input.Items {
		if item.Quantity <= 0 {
			return nil, newValidationError("items.quantity", "quantity must be positive")
		}
		if item.UnitPrice < 0 {
			return nil, newValidationError("items.unit_price", "unit price must not be negative")
		}
	}

	var request *entity.MaterialRequest
	if input.RequestID != nil {
		var err error
		request, err = s.repos.Request.FindByID(ctx, *input.RequestID)
		if err != nil {
			return nil, err
		}
		if request.Status != entity.RequestStatusApproved {
			return nil, &TransitionError{Entity: "material request", From: request.Status, Action: "issue purchase order"}
		}
	}

	supplierID := input.SupplierID
	projectID := input.ProjectID
	var quote *entity.Quotation
	if input.QuoteID != nil {
		var err error
		quote, err = s.repos.RFQ.FindQuoteByID(ctx, *input.QuoteID)
		if err != nil {
			return nil, err
		}
		if !quote.Selected {
			return nil, newValidationError("quote_id", "quotation is not selected")
		}
		if supplierID == "" {
			supplierID = quote.SupplierID
		} else if supplierID != quote.SupplierID {
			return nil, newValidationError("supplier_id", "supplier does not match the selected quotation")
		}
		if projectID == "" {
			rfq, err := s.repos.RFQ.FindByID(ctx, quote.RFQID)
			if err != nil {
				return nil, err
			}
			projectID = rfq.ProjectID
		}
	}

	if projectID == "" && request != nil {
		projectID = request.ProjectID
	}
	if projectID == "" {
		return nil, newValidationError("project_id", "project is required")
	}
	if supplierID == "" {
		return nil, newValidationError("supplier_id", "supplier is required")
	}
	if _, err := s.repos.Supplier.FindByID(ctx, supplierID); err != nil {
		return nil, err
	}

	var total float64
	order := &entity.PurchaseOrder{
		ID:         uuid.New().String()[:32],
		RequestID:  input.RequestID,
		SupplierID: supplierID,
		ProjectID:  projectID,
		CategoryID: input.CategoryID,
		CreatedBy:  actor.ID,
		Notes:      input.Notes,
	}
	for i, item := range input.Items {
		unit := item.Unit
		if unit == "" {
			unit = "pcs"
		}
		price := item.UnitPrice
		if price == 0 && quote != nil {
			price = quotedPrice(quote, item)
		}
		total += item.Quantity * price
		order.Items = append(order.Items, entity.OrderItem{
			ID:            uuid.New().String()[:32],
			OrderID:       order.ID,
			CatalogItemID: item.CatalogItemID,
			Name:          item.Name,
			Quantity:      item.Quantity,
			Unit:          unit,
			UnitPrice:     price,
			SortOrder:     i + 1,
		})
	}
	order.TotalAmount = total

	// 限额门槛:严格大于才走总经理通道
	threshold := s.repos.Setting.ApprovalThreshold(ctx)
	if total > threshold {
		order.Status = entity.OrderStatusPendingGMApproval
	} else {
		order.Status = entity.OrderStatusPending
	}

	err := s.insertWithNumber(ctx, order, request)
	if err != nil {
		return nil, err
	}

	s.repos.Audit.Record(ctx, &entity.AuditLog{
		EntityType: "order",
		EntityID:   order.ID,
		EntityCode: order.OrderNumber,
		Action:     "create",
		ToStatus:   order.Status,
		Changes:    entity.JSONB{"total_amount": total, "threshold": threshold},
		ActorID:    actor.ID,
		ActorName:  actor.Name,
	})
	if request != nil {
		s.repos.Audit.Record(ctx, &entity.AuditLog{
			EntityType: "request",
			EntityID:   request.ID,
			EntityCode: request.RequestNumber,
			Action:     "issue_order",
			FromStatus: entity.RequestStatusApproved,
			ToStatus:   entity.RequestStatusOrderIssued,
			ActorID:    actor.ID,
			ActorName:  actor.Name,
		})
	}
	return order, nil
}

// quotedPrice 从报价行项预填单价,优先按物料目录ID匹配,其次按名称;无匹配保持0
func quotedPrice(quote *entity.Quotation, item CreateOrderItem) float64 {
	if item.CatalogItemID != nil {
		for _, line := range quote.Items {
			if line.CatalogItemID != nil && *line.CatalogItemID == *item.CatalogItemID {
				return line.UnitPrice
			}
		}
	}
	for _, line := range quote.Items {
		if line.Name == item.Name {
			return line.UnitPrice
		}
	}
	return 0
}

// insertWithNumber 带编号分配与冲突重试的订单插入;
// 关联申请的状态流转与订单插入同事务。
func (s *OrderService) insertWithNumber(ctx context.Context, order *entity.PurchaseOrder, request *entity.MaterialRequest) error {
	insert := func(tx *gorm.DB) error {
		if err := tx.Create(order).Error; err != nil {
			return err
		}
		if request != nil {
			if err := tx.Model(&entity.MaterialRequest{}).
				Where("id = ? AND status = ?", request.ID, entity.RequestStatusApproved).
				Update("status", entity.RequestStatusOrderIssued).Error; err != nil {
				return err
			}
		}
		// 补建台账条目:仅新建时写入需求量,计划侧已设置的不动
		for _, item := range order.Items {
			if item.CatalogItemID == nil {
				continue
			}
			if err := s.repos.Supply.EnsureRequirement(ctx, tx, order.ProjectID, *item.CatalogItemID, item.Quantity); err != nil {
				return err
			}
		}
		return nil
	}

	var lastErr error
	for attempt := 0; attempt < repository.AllocateRetries; attempt++ {
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			number, _, err := s.repos.Sequence.DocumentNumber(ctx, tx, &entity.PurchaseOrder{}, "order_number", "PO", 4)
			if err != nil {
				return err
			}
			order.OrderNumber = number
			return insert(tx)
		})
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return err
		}
		lastErr = err
		s.logger.Warn("订单编号冲突,重试",
			zap.String("number", order.OrderNumber),
			zap.Int("attempt", attempt+1))
	}

	order.OrderNumber = s.repos.Sequence.FallbackNumber(repository.YearScope("PO"))
	err := s.db.WithContext(ctx).Transaction(insert)
	if err != nil {
		return errors.Join(lastErr, err)
	}
	s.logger.Warn("订单编号退化为兜底格式", zap.String("number", order.OrderNumber))
	return nil
}

// UpdateOrderInput 更新采购订单请求,指针字段区分"未传"与"清空"
type UpdateOrderInput struct {
	SupplierID     *string `json:"supplier_id"`
	CategoryID     *string `json:"category_id"`
	TrackingNumber *string `json:"tracking_number"`
	Notes          *string `json:"notes"`
}

// Update 更新采购订单基础字段,仅待审订单可改
func (s *OrderService) Update(ctx context.Context, actor Actor, id string, input *UpdateOrderInput) (*entity.PurchaseOrder, error) {
	if err := actor.can(OpCreateOrder); err != nil {
		return nil, err
	}

	order, err := s.repos.Order.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.Status != entity.OrderStatusPending && order.Status != entity.OrderStatusPendingGMApproval {
		return nil, &TransitionError{Entity: "purchase order", From: order.Status, Action: "update"}
	}

	if input.SupplierID != nil {
		if _, err := s.repos.Supplier.FindByID(ctx, *input.SupplierID); err != nil {
			return nil, err
		}
		order.SupplierID = *input.SupplierID
	}
	if input.CategoryID != nil {
		order.CategoryID = input.CategoryID
	}
	if input.TrackingNumber != nil {
		order.TrackingNumber = *input.TrackingNumber
	}
	if input.Notes != nil {
		order.Notes = *input.Notes
	}

	if err := s.repos.Order.Update(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

// Approve 审批采购订单。
// 普通订单由经理通过;超限额订单须总经理身份,通过时同时落总经理审批痕迹。
func (s *OrderService) Approve(ctx context.Context, actor Actor, id string) (*entity.PurchaseOrder, error) {
	order, err := s.repos.Order.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	fromStatus := order.Status
	switch order.Status {
	case entity.OrderStatusPending:
		if err := actor.can(OpApproveOrder); err != nil {
			return nil, err
		}
		order.ApprovedBy = &actor.ID
		order.ApprovedAt = &now
	case entity.OrderStatusPendingGMApproval:
		if err := actor.can(OpGMApproveOrder); err != nil {
			return nil, err
		}
		order.GMApprovedBy = &actor.ID
		order.GMApprovedAt = &now
		if order.ApprovedBy == nil {
			order.ApprovedBy = &actor.ID
			order.ApprovedAt = &now
		}
	default:
		return nil, &TransitionError{Entity: "purchase order", From: order.Status, Action: "approve"}
	}
	order.Status = entity.OrderStatusApproved

	if err := s.repos.Order.Update(ctx, order); err != nil {
		return nil, err
	}

	s.repos.Audit.Record(ctx, &entity.AuditLog{
		EntityType: "order",
		EntityID:   order.ID,
		EntityCode: order.OrderNumber,
		Action:     "approve",
		FromStatus: fromStatus,
		ToStatus:   order.Status,
		ActorID:    actor.ID,
		ActorName:  actor.Name,
	})
	return order, nil
}

// Reject 驳回采购订单,终止状态按所处审批通道区分
func (s *OrderService) Reject(ctx context.Context, actor Actor, id, reason string) (*entity.PurchaseOrder, error) {
	order, err := s.repos.Order.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	fromStatus := order.Status
	switch order.Status {
	case entity.OrderStatusPending:
		if err := actor.can(OpApproveOrder); err != nil {
			return nil, err
		}
		order.Status = entity.OrderStatusRejected
	case entity.OrderStatusPendingGMApproval:
		if err := actor.can(OpGMApproveOrder); err != nil {
			return nil, err
		}
		order.Status = entity.OrderStatusRejectedByGM
	default:
		return nil, &TransitionError{Entity: "purchase order", From: order.Status, Action: "reject"}
	}

	now := time.Now()
	order.RejectedBy = &actor.ID
	order.RejectedAt = &now
	order.RejectReason = reason

	if err := s.repos.Order.Update(ctx, order); err != nil {
		return nil, err
	}

	s.repos.Audit.Record(ctx, &entity.AuditLog{
		EntityType:  "order",
		EntityID:    order.ID,
		EntityCode:  order.OrderNumber,
		Action:      "reject",
		FromStatus:  fromStatus,
		ToStatus:    order.Status,
		Description: reason,
		ActorID:     actor.ID,
		ActorName:   actor.Name,
	})
	return order, nil
}

// ShipInput 发货登记请求
type ShipInput struct {
	TrackingNumber string `json:"tracking_number"`
}

// MarkShipped 登记发货,仅已审批订单可发货
func (s *OrderService) MarkShipped(ctx context.Context, actor Actor, id string, input *ShipInput) (*entity.PurchaseOrder, error) {
	if err := actor.can(OpShipOrder); err != nil {
		return nil, err
	}

	order, err := s.repos.Order.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.Status != entity.OrderStatusApproved {
		return nil, &TransitionError{Entity: "purchase order", From: order.Status, Action: "ship"}
	}

	now := time.Now()
	fromStatus := order.Status
	order.Status = entity.OrderStatusShipped
	order.ShippedBy = &actor.ID
	order.ShippedAt = &now
	if input != nil && input.TrackingNumber != "" {
		order.TrackingNumber = input.TrackingNumber
	}

	if err := s.repos.Order.Update(ctx, order); err != nil {
		return nil, err
	}

	s.repos.Audit.Record(ctx, &entity.AuditLog{
		EntityType: "order",
		EntityID:   order.ID,
		EntityCode: order.OrderNumber,
		Action:     "ship",
		FromStatus: fromStatus,
		ToStatus:   order.Status,
		Changes:    entity.JSONB{"tracking_number": order.TrackingNumber},
		ActorID:    actor.ID,
		ActorName:  actor.Name,
	})
	return order, nil
}
