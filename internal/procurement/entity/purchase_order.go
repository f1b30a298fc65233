package entity

import "time"

// PurchaseOrder 采购订单
type PurchaseOrder struct {
	ID          string `json:"id" gorm:"primaryKey;size:32"`
	OrderNumber string `json:"order_number" gorm:"size:32;uniqueIndex;not null"`
	Status      string `json:"status" gorm:"size:30;default:pending"`

	// 关联
	RequestID  *string `json:"request_id" gorm:"size:32;index"`
	SupplierID string  `json:"supplier_id" gorm:"size:32;not null;index"`
	ProjectID  string  `json:"project_id" gorm:"size:32;not null;index"`
	CategoryID *string `json:"category_id" gorm:"size:32"`

	// 金额:创建时按行项汇总计算,此后不随行项变动重算
	TotalAmount float64 `json:"total_amount" gorm:"type:decimal(15,2);not null"`

	// 经理审批
	ApprovedBy *string    `json:"approved_by" gorm:"size:32"`
	ApprovedAt *time.Time `json:"approved_at"`

	// 总经理审批(超限额订单)
	GMApprovedBy *string    `json:"gm_approved_by" gorm:"size:32"`
	GMApprovedAt *time.Time `json:"gm_approved_at"`

	// 驳回
	RejectedBy   *string    `json:"rejected_by" gorm:"size:32"`
	RejectedAt   *time.Time `json:"rejected_at"`
	RejectReason string     `json:"reject_reason" gorm:"type:text"`

	// 发货与收货
	ShippedBy      *string    `json:"shipped_by" gorm:"size:32"`
	ShippedAt      *time.Time `json:"shipped_at"`
	TrackingNumber string     `json:"tracking_number" gorm:"size:100"`
	DeliveredAt    *time.Time `json:"delivered_at"`

	CreatedBy string    `json:"created_by" gorm:"size:32"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Notes     string    `json:"notes" gorm:"type:text"`

	Items    []OrderItem `json:"items,omitempty" gorm:"foreignKey:OrderID"`
	Supplier *Supplier   `json:"supplier,omitempty" gorm:"foreignKey:SupplierID"`
	Project  *Project    `json:"project,omitempty" gorm:"foreignKey:ProjectID"`
}

func (PurchaseOrder) TableName() string {
	return "purchase_orders"
}

// 采购订单状态
const (
	OrderStatusPending           = "pending"
	OrderStatusPendingGMApproval = "pending_gm_approval"
	OrderStatusApproved          = "approved"
	OrderStatusRejected          = "rejected"
	OrderStatusRejectedByGM      = "rejected_by_gm"
	OrderStatusShipped           = "shipped"
	OrderStatusPartialDelivered  = "partially_delivered"
	OrderStatusDelivered         = "delivered"
)

// OrderItem 订单行项
type OrderItem struct {
	ID      string `json:"id" gorm:"primaryKey;size:32"`
	OrderID string `json:"order_id" gorm:"size:32;not null;index"`

	// 供应台账关联(可选)
	CatalogItemID *string `json:"catalog_item_id" gorm:"size:32;index"`

	Name      string  `json:"name" gorm:"size:200;not null"`
	Quantity  float64 `json:"quantity" gorm:"type:decimal(10,2);not null"`
	Unit      string  `json:"unit" gorm:"size:20;default:pcs"`
	UnitPrice float64 `json:"unit_price" gorm:"type:decimal(12,4);not null"`

	// 累计到货量:单调不减,封顶于订购量
	DeliveredQuantity float64 `json:"delivered_quantity" gorm:"type:decimal(10,2);default:0"`

	SortOrder int       `json:"sort_order" gorm:"default:0"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (OrderItem) TableName() string {
	return "purchase_order_items"
}

// FullyDelivered 行项是否足量到货
func (i *OrderItem) FullyDelivered() bool {
	return i.DeliveredQuantity >= i.Quantity
}
