package service

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/notofall/finaltalabt-sub001/internal/procurement/entity"
)

// DeliveryLine 一次到货确认中的一行
type DeliveryLine struct {
	ItemID   string  `json:"item_id"`
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity" binding:"required"`
}

// ConfirmDeliveryInput 到货确认请求
type ConfirmDeliveryInput struct {
	Lines []DeliveryLine `json:"lines" binding:"required"`
	Notes string         `json:"notes"`
}

// ConfirmDelivery 确认到货并对账。
// 行项累计到货量单调递增且封顶于订购量;
// 供应台账记的是本次实收原始数量,超量到货照实入账。
// 整单状态按行项推导:全部足量为已到货,否则为部分到货。
func (s *OrderService) ConfirmDelivery(ctx context.Context, actor Actor, orderID string, input *ConfirmDeliveryInput) (*entity.PurchaseOrder, error) {
	if err := actor.can(OpConfirmDelivery); err != nil {
		return nil, err
	}
	if len(input.Lines) == 0 {
		return nil, newValidationError("lines", "at least one delivery line is required")
	}
	for _, line := range input.Lines {
		if line.Quantity <= 0 {
			return nil, newValidationError("lines.quantity", "quantity must be positive")
		}
		if line.ItemID == "" && line.Name == "" {
			return nil, newValidationError("lines", "item_id or name is required")
		}
	}

	order, err := s.repos.Order.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != entity.OrderStatusShipped && order.Status != entity.OrderStatusPartialDelivered {
		return nil, &TransitionError{Entity: "purchase order", From: order.Status, Action: "confirm delivery"}
	}
	fromStatus := order.Status

	applied := entity.JSONB{}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		items, err := s.repos.Order.LockItems(ctx, tx, order.ID)
		if err != nil {
			return err
		}

		byID := make(map[string]*entity.OrderItem, len(items))
		byName := make(map[string]*entity.OrderItem, len(items))
		for i := range items {
			byID[items[i].ID] = &items[i]
			if _, dup := byName[items[i].Name]; !dup {
				byName[items[i].Name] = &items[i]
			}
		}

		for _, line := range input.Lines {
			item := byID[line.ItemID]
			if item == nil {
				item = byName[line.Name]
			}
			if item == nil {
				return newValidationError("lines", "delivery line does not match any order item")
			}

			delivered := item.DeliveredQuantity + line.Quantity
			if delivered > item.Quantity {
				delivered = item.Quantity
			}
			item.DeliveredQuantity = delivered
			if err := tx.Model(&entity.OrderItem{}).
				Where("id = ?", item.ID).
				Update("delivered_quantity", delivered).Error; err != nil {
				return err
			}
			applied[item.Name] = delivered

			if item.CatalogItemID != nil {
				if err := s.repos.Supply.AddReceived(ctx, tx, order.ProjectID, *item.CatalogItemID, line.Quantity); err != nil {
					return err
				}
			}
		}

		status := entity.OrderStatusDelivered
		for i := range items {
			if !items[i].FullyDelivered() {
				status = entity.OrderStatusPartialDelivered
				break
			}
		}

		updates := map[string]interface{}{"status": status, "updated_at": time.Now()}
		if status == entity.OrderStatusDelivered {
			updates["delivered_at"] = time.Now()
		}
		if err := tx.Model(&entity.PurchaseOrder{}).
			Where("id = ?", order.ID).
			Updates(updates).Error; err != nil {
			return err
		}
		order.Status = status
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.repos.Audit.Record(ctx, &entity.AuditLog{
		EntityType:  "order",
		EntityID:    order.ID,
		EntityCode:  order.OrderNumber,
		Action:      "confirm_delivery",
		FromStatus:  fromStatus,
		ToStatus:    order.Status,
		Description: input.Notes,
		Changes:     applied,
		ActorID:     actor.ID,
		ActorName:   actor.Name,
	})
	s.logger.Info("到货确认完成",
		zap.String("order", order.OrderNumber),
		zap.String("status", order.Status))

	return s.repos.Order.FindByID(ctx, order.ID)
}
