package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/notofall/finaltalabt-sub001/internal/procurement/entity"
	"github.com/notofall/finaltalabt-sub001/internal/procurement/testutil"
)

func seedOrderRefs(t *testing.T, db *gorm.DB) {
	t.Helper()
	testutil.SeedProject(t, db, "prj-001", "PRJ001", "一号工地")
	testutil.SeedSupplier(t, db, "sup-001", "宏远建材")
	testutil.SeedCatalogItem(t, db, "cat-001", "MAT-001", "水泥")
}

func createOrder(t *testing.T, svc *Services, total float64) *entity.PurchaseOrder {
	t.Helper()
	order, err := svc.Order.Create(context.Background(), managerActor, &CreateOrderInput{
		SupplierID: "sup-001",
		ProjectID:  "prj-001",
		Items: []CreateOrderItem{
			{Name: "水泥", Quantity: 10, UnitPrice: total / 10, CatalogItemID: strPtr("cat-001")},
		},
	})
	if err != nil {
		t.Fatalf("Create order failed: %v", err)
	}
	return order
}

func strPtr(s string) *string { return &s }

func TestCreateOrderThresholdRouting(t *testing.T) {
	db, svc := setupServices(t)
	seedOrderRefs(t, db)

	year := time.Now().Format("06")

	below := createOrder(t, svc, 15000)
	if below.Status != entity.OrderStatusPending {
		t.Errorf("below threshold: status = %s, want pending", below.Status)
	}
	if below.OrderNumber != fmt.Sprintf("PO-%s-0001", year) {
		t.Errorf("order number = %s", below.OrderNumber)
	}
	if below.TotalAmount != 15000 {
		t.Errorf("total = %v, want 15000", below.TotalAmount)
	}

	above := createOrder(t, svc, 25000)
	if above.Status != entity.OrderStatusPendingGMApproval {
		t.Errorf("above threshold: status = %s, want pending_gm_approval", above.Status)
	}

	// 等于限额不过总经理通道
	exact := createOrder(t, svc, 20000)
	if exact.Status != entity.OrderStatusPending {
		t.Errorf("exact threshold: status = %s, want pending", exact.Status)
	}
}

func TestConfigurableThreshold(t *testing.T) {
	db, svc := setupServices(t)
	seedOrderRefs(t, db)
	ctx := context.Background()

	if err := svc.Setting.SetApprovalThreshold(ctx, gmActor, &SetThresholdInput{Threshold: 5000}); err != nil {
		t.Fatalf("SetApprovalThreshold failed: %v", err)
	}
	if got := svc.Setting.ApprovalThreshold(ctx); got != 5000 {
		t.Errorf("threshold = %v, want 5000", got)
	}

	order := createOrder(t, svc, 6000)
	if order.Status != entity.OrderStatusPendingGMApproval {
		t.Errorf("status = %s, want pending_gm_approval under lowered threshold", order.Status)
	}

	// 经理无权改限额
	if err := svc.Setting.SetApprovalThreshold(ctx, managerActor, &SetThresholdInput{Threshold: 100}); !errors.Is(err, ErrForbidden) {
		t.Errorf("manager set threshold: err = %v, want ErrForbidden", err)
	}
}

func TestCreateOrderFromRequest(t *testing.T) {
	db, svc := setupServices(t)
	seedOrderRefs(t, db)
	ctx := context.Background()

	req := createRequest(t, svc, "prj-001", "a1")

	// 未审核的申请不能下单
	_, err := svc.Order.Create(ctx, managerActor, &CreateOrderInput{
		RequestID:  &req.ID,
		SupplierID: "sup-001",
		Items:      []CreateOrderItem{{Name: "水泥", Quantity: 5, UnitPrice: 100}},
	})
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("order from pending request: err = %v, want ErrInvalidTransition", err)
	}

	if _, err := svc.Request.Approve(ctx, engineerActor, req.ID); err != nil {
		t.Fatalf("Approve failed: %v", err)
	}

	order, err := svc.Order.Create(ctx, managerActor, &CreateOrderInput{
		RequestID:  &req.ID,
		SupplierID: "sup-001",
		Items:      []CreateOrderItem{{Name: "水泥", Quantity: 5, UnitPrice: 100}},
	})
	if err != nil {
		t.Fatalf("Create order failed: %v", err)
	}
	// 项目继承自申请
	if order.ProjectID != "prj-001" {
		t.Errorf("project = %s, want prj-001", order.ProjectID)
	}

	updated, err := svc.Request.Get(ctx, req.ID)
	if err != nil {
		t.Fatalf("Get request failed: %v", err)
	}
	if updated.Status != entity.RequestStatusOrderIssued {
		t.Errorf("request status = %s, want %s", updated.Status, entity.RequestStatusOrderIssued)
	}
}

func TestOrderApprovalTiers(t *testing.T) {
	db, svc := setupServices(t)
	seedOrderRefs(t, db)
	ctx := context.Background()

	normal := createOrder(t, svc, 10000)
	approved, err := svc.Order.Approve(ctx, managerActor, normal.ID)
	if err != nil {
		t.Fatalf("manager approve failed: %v", err)
	}
	if approved.Status != entity.OrderStatusApproved {
		t.Errorf("status = %s, want approved", approved.Status)
	}
	if approved.ApprovedBy == nil || *approved.ApprovedBy != managerActor.ID {
		t.Error("approved_by should record the manager")
	}
	if approved.GMApprovedBy != nil {
		t.Error("gm_approved_by should stay empty for normal orders")
	}

	big := createOrder(t, svc, 30000)
	// 超限额订单经理无权审批
	if _, err := svc.Order.Approve(ctx, managerActor, big.ID); !errors.Is(err, ErrForbidden) {
		t.Errorf("manager approve gm order: err = %v, want ErrForbidden", err)
	}

	gmApproved, err := svc.Order.Approve(ctx, gmActor, big.ID)
	if err != nil {
		t.Fatalf("gm approve failed: %v", err)
	}
	if gmApproved.Status != entity.OrderStatusApproved {
		t.Errorf("status = %s, want approved", gmApproved.Status)
	}
	if gmApproved.GMApprovedBy == nil || *gmApproved.GMApprovedBy != gmActor.ID {
		t.Error("gm_approved_by should record the gm")
	}

	// 已审批订单不能重复审批
	if _, err := svc.Order.Approve(ctx, managerActor, normal.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("double approve: err = %v, want ErrInvalidTransition", err)
	}
}

func TestOrderRejectionChannels(t *testing.T) {
	db, svc := setupServices(t)
	seedOrderRefs(t, db)
	ctx := context.Background()

	normal := createOrder(t, svc, 10000)
	rejected, err := svc.Order.Reject(ctx, managerActor, normal.ID, "价格偏高")
	if err != nil {
		t.Fatalf("reject failed: %v", err)
	}
	if rejected.Status != entity.OrderStatusRejected {
		t.Errorf("status = %s, want rejected", rejected.Status)
	}
	if rejected.RejectReason != "价格偏高" {
		t.Errorf("reason = %s", rejected.RejectReason)
	}

	big := createOrder(t, svc, 30000)
	gmRejected, err := svc.Order.Reject(ctx, gmActor, big.ID, "预算不足")
	if err != nil {
		t.Fatalf("gm reject failed: %v", err)
	}
	if gmRejected.Status != entity.OrderStatusRejectedByGM {
		t.Errorf("status = %s, want rejected_by_gm", gmRejected.Status)
	}

	// 终止状态不能再驳回
	if _, err := svc.Order.Reject(ctx, managerActor, normal.ID, "again"); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("reject rejected: err = %v, want ErrInvalidTransition", err)
	}
}

func shipOrder(t *testing.T, svc *Services, orderID string) {
	t.Helper()
	ctx := context.Background()
	if _, err := svc.Order.Approve(ctx, managerActor, orderID); err != nil {
		t.Fatalf("approve failed: %v", err)
	}
	if _, err := svc.Order.MarkShipped(ctx, managerActor, orderID, &ShipInput{TrackingNumber: "SF123456"}); err != nil {
		t.Fatalf("ship failed: %v", err)
	}
}

func TestMarkShipped(t *testing.T) {
	db, svc := setupServices(t)
	seedOrderRefs(t, db)
	ctx := context.Background()

	order := createOrder(t, svc, 10000)

	// 未审批订单不能发货
	if _, err := svc.Order.MarkShipped(ctx, managerActor, order.ID, &ShipInput{}); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("ship pending: err = %v, want ErrInvalidTransition", err)
	}

	shipOrder(t, svc, order.ID)
	shipped, err := svc.Order.Get(ctx, order.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if shipped.Status != entity.OrderStatusShipped {
		t.Errorf("status = %s, want shipped", shipped.Status)
	}
	if shipped.TrackingNumber != "SF123456" {
		t.Errorf("tracking = %s", shipped.TrackingNumber)
	}
	if shipped.ShippedAt == nil {
		t.Error("shipped_at should be set")
	}
}

func TestConfirmDeliveryCapsAtOrdered(t *testing.T) {
	db, svc := setupServices(t)
	seedOrderRefs(t, db)
	ctx := context.Background()

	order := createOrder(t, svc, 10000) // 单行项,数量10
	shipOrder(t, svc, order.ID)

	// 超量到货:行项封顶,台账记原始数量
	delivered, err := svc.Order.ConfirmDelivery(ctx, managerActor, order.ID, &ConfirmDeliveryInput{
		Lines: []DeliveryLine{{Name: "水泥", Quantity: 12}},
	})
	if err != nil {
		t.Fatalf("ConfirmDelivery failed: %v", err)
	}
	if delivered.Status != entity.OrderStatusDelivered {
		t.Errorf("status = %s, want delivered", delivered.Status)
	}
	if delivered.DeliveredAt == nil {
		t.Error("delivered_at should be set")
	}
	if len(delivered.Items) != 1 || delivered.Items[0].DeliveredQuantity != 10 {
		t.Errorf("delivered quantity should cap at 10, got %+v", delivered.Items)
	}

	var entry entity.SupplyTracking
	if err := db.Where("project_id = ? AND catalog_item_id = ?", "prj-001", "cat-001").First(&entry).Error; err != nil {
		t.Fatalf("ledger entry missing: %v", err)
	}
	if entry.ReceivedQuantity != 12 {
		t.Errorf("ledger received = %v, want raw 12", entry.ReceivedQuantity)
	}
	if entry.RequiredQuantity != 10 {
		t.Errorf("ledger required = %v, want 10 from order", entry.RequiredQuantity)
	}
}

func TestConfirmDeliveryCumulativePartials(t *testing.T) {
	db, svc := setupServices(t)
	seedOrderRefs(t, db)
	ctx := context.Background()

	order, err := svc.Order.Create(ctx, managerActor, &CreateOrderInput{
		SupplierID: "sup-001",
		ProjectID:  "prj-001",
		Items: []CreateOrderItem{
			{Name: "水泥", Quantity: 10, UnitPrice: 100, CatalogItemID: strPtr("cat-001")},
			{Name: "脚手架", Quantity: 4, UnitPrice: 500},
		},
	})
	if err != nil {
		t.Fatalf("Create order failed: %v", err)
	}
	shipOrder(t, svc, order.ID)

	partial, err := svc.Order.ConfirmDelivery(ctx, managerActor, order.ID, &ConfirmDeliveryInput{
		Lines: []DeliveryLine{{Name: "水泥", Quantity: 4}},
	})
	if err != nil {
		t.Fatalf("first delivery failed: %v", err)
	}
	if partial.Status != entity.OrderStatusPartialDelivered {
		t.Errorf("status = %s, want partially_delivered", partial.Status)
	}

	// 第二批:水泥补足,脚手架全量
	full, err := svc.Order.ConfirmDelivery(ctx, managerActor, order.ID, &ConfirmDeliveryInput{
		Lines: []DeliveryLine{
			{Name: "水泥", Quantity: 6},
			{Name: "脚手架", Quantity: 4},
		},
	})
	if err != nil {
		t.Fatalf("second delivery failed: %v", err)
	}
	if full.Status != entity.OrderStatusDelivered {
		t.Errorf("status = %s, want delivered", full.Status)
	}
	for _, item := range full.Items {
		if !item.FullyDelivered() {
			t.Errorf("item %s not fully delivered: %v/%v", item.Name, item.DeliveredQuantity, item.Quantity)
		}
	}

	// 台账累计原始到货量
	var entry entity.SupplyTracking
	if err := db.Where("project_id = ? AND catalog_item_id = ?", "prj-001", "cat-001").First(&entry).Error; err != nil {
		t.Fatalf("ledger entry missing: %v", err)
	}
	if entry.ReceivedQuantity != 10 {
		t.Errorf("ledger received = %v, want 10", entry.ReceivedQuantity)
	}
}

func TestConfirmDeliveryGuards(t *testing.T) {
	db, svc := setupServices(t)
	seedOrderRefs(t, db)
	ctx := context.Background()

	order := createOrder(t, svc, 10000)

	// 未发货不能确认到货
	_, err := svc.Order.ConfirmDelivery(ctx, managerActor, order.ID, &ConfirmDeliveryInput{
		Lines: []DeliveryLine{{Name: "水泥", Quantity: 1}},
	})
	if !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("deliver pending: err = %v, want ErrInvalidTransition", err)
	}

	shipOrder(t, svc, order.ID)

	var validationErr *ValidationError
	_, err = svc.Order.ConfirmDelivery(ctx, managerActor, order.ID, &ConfirmDeliveryInput{
		Lines: []DeliveryLine{{Name: "不存在的行项", Quantity: 1}},
	})
	if !errors.As(err, &validationErr) {
		t.Errorf("unknown line: err = %v, want ValidationError", err)
	}

	_, err = svc.Order.ConfirmDelivery(ctx, managerActor, order.ID, &ConfirmDeliveryInput{
		Lines: []DeliveryLine{{Name: "水泥", Quantity: -1}},
	})
	if !errors.As(err, &validationErr) {
		t.Errorf("negative quantity: err = %v, want ValidationError", err)
	}

	// 主管无到货确认权限
	_, err = svc.Order.ConfirmDelivery(ctx, supervisorActor, order.ID, &ConfirmDeliveryInput{
		Lines: []DeliveryLine{{Name: "水泥", Quantity: 1}},
	})
	if !errors.Is(err, ErrForbidden) {
		t.Errorf("supervisor deliver: err = %v, want ErrForbidden", err)
	}
}

func TestUpdateOrderPartialFields(t *testing.T) {
	db, svc := setupServices(t)
	seedOrderRefs(t, db)
	testutil.SeedSupplier(t, db, "sup-002", "远大钢构")
	ctx := context.Background()

	order := createOrder(t, svc, 10000)

	notes := "改用替代供应商"
	updated, err := svc.Order.Update(ctx, managerActor, order.ID, &UpdateOrderInput{
		SupplierID: strPtr("sup-002"),
		Notes:      &notes,
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.SupplierID != "sup-002" {
		t.Errorf("supplier = %s, want sup-002", updated.SupplierID)
	}
	if updated.Notes != notes {
		t.Errorf("notes = %s", updated.Notes)
	}
	// 未传字段保持原值
	if updated.TotalAmount != 10000 {
		t.Errorf("total = %v, want unchanged 10000", updated.TotalAmount)
	}

	// 落库值核对:预加载的供应商关联不得把外键改回旧值
	stored, err := svc.Order.Get(ctx, order.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if stored.SupplierID != "sup-002" {
		t.Errorf("stored supplier = %s, want sup-002", stored.SupplierID)
	}

	if _, err := svc.Order.Approve(ctx, managerActor, order.ID); err != nil {
		t.Fatalf("approve failed: %v", err)
	}
	// 已审批订单不能再改
	if _, err := svc.Order.Update(ctx, managerActor, order.ID, &UpdateOrderInput{Notes: &notes}); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("update approved: err = %v, want ErrInvalidTransition", err)
	}
}

func TestCreateOrderFromSelectedQuote(t *testing.T) {
	db, svc := setupServices(t)
	seedOrderRefs(t, db)
	testutil.SeedSupplier(t, db, "sup-002", "远大钢构")
	ctx := context.Background()

	rfq, err := svc.RFQ.Create(ctx, managerActor, &CreateRFQInput{
		ProjectID: "prj-001",
		Title:     "基础材料询价",
	})
	if err != nil {
		t.Fatalf("Create RFQ failed: %v", err)
	}
	quote, err := svc.RFQ.AddQuote(ctx, managerActor, rfq.ID, &AddQuoteInput{
		SupplierID:  "sup-001",
		TotalAmount: 4600,
		Items: []AddQuoteItem{
			{CatalogItemID: strPtr("cat-001"), Name: "水泥", Quantity: 10, UnitPrice: 420},
			{Name: "黄沙", Quantity: 5, UnitPrice: 80},
		},
	})
	if err != nil {
		t.Fatalf("AddQuote failed: %v", err)
	}

	// 未选定的报价不能用于下单
	_, err = svc.Order.Create(ctx, managerActor, &CreateOrderInput{
		QuoteID: strPtr(quote.ID),
		Items:   []CreateOrderItem{{Name: "水泥", Quantity: 10, CatalogItemID: strPtr("cat-001")}},
	})
	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Errorf("unselected quote: err = %v, want ValidationError", err)
	}

	if _, err := svc.RFQ.SelectQuote(ctx, managerActor, rfq.ID, quote.ID); err != nil {
		t.Fatalf("SelectQuote failed: %v", err)
	}

	order, err := svc.Order.Create(ctx, managerActor, &CreateOrderInput{
		QuoteID: strPtr(quote.ID),
		Items: []CreateOrderItem{
			{CatalogItemID: strPtr("cat-001"), Name: "水泥", Quantity: 10},
			{Name: "黄沙", Quantity: 5},
		},
	})
	if err != nil {
		t.Fatalf("Create order from quote failed: %v", err)
	}
	// 供应商与项目从选定报价继承
	if order.SupplierID != "sup-001" {
		t.Errorf("supplier = %s, want sup-001", order.SupplierID)
	}
	if order.ProjectID != "prj-001" {
		t.Errorf("project = %s, want prj-001", order.ProjectID)
	}
	// 单价从报价行项预填:目录ID匹配与名称匹配各一条
	if order.Items[0].UnitPrice != 420 {
		t.Errorf("item[0] price = %v, want 420", order.Items[0].UnitPrice)
	}
	if order.Items[1].UnitPrice != 80 {
		t.Errorf("item[1] price = %v, want 80", order.Items[1].UnitPrice)
	}
	if order.TotalAmount != 4600 {
		t.Errorf("total = %v, want 4600", order.TotalAmount)
	}

	// 显式供应商与报价供应商不符
	_, err = svc.Order.Create(ctx, managerActor, &CreateOrderInput{
		QuoteID:    strPtr(quote.ID),
		SupplierID: "sup-002",
		Items:      []CreateOrderItem{{Name: "水泥", Quantity: 1}},
	})
	if !errors.As(err, &validationErr) {
		t.Errorf("mismatched supplier: err = %v, want ValidationError", err)
	}
}
