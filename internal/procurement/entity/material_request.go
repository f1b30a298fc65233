package entity

import "time"

// MaterialRequest 物料申请单
type MaterialRequest struct {
	ID            string `json:"id" gorm:"primaryKey;size:32"`
	RequestNumber string `json:"request_number" gorm:"size:32;uniqueIndex;not null"`
	RequestSeq    int    `json:"request_seq" gorm:"not null"` // 编号序列内严格递增
	Status        string `json:"status" gorm:"size:30;default:pending_engineer"`

	// 关联
	ProjectID    string `json:"project_id" gorm:"size:32;not null;index"`
	SupervisorID string `json:"supervisor_id" gorm:"size:32;not null"`
	EngineerID   string `json:"engineer_id" gorm:"size:32"`

	// 审批
	ApprovedBy   *string    `json:"approved_by" gorm:"size:32"`
	ApprovedAt   *time.Time `json:"approved_at"`
	RejectReason string     `json:"reject_reason" gorm:"type:text"`

	CreatedBy string    `json:"created_by" gorm:"size:32"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Notes     string    `json:"notes" gorm:"type:text"`

	Items   []RequestItem `json:"items,omitempty" gorm:"foreignKey:RequestID"`
	Project *Project      `json:"project,omitempty" gorm:"foreignKey:ProjectID"`
}

func (MaterialRequest) TableName() string {
	return "material_requests"
}

// 物料申请状态
const (
	RequestStatusPendingEngineer = "pending_engineer"
	RequestStatusApproved        = "approved_by_engineer"
	RequestStatusRejected        = "rejected_by_engineer"
	RequestStatusOrderIssued     = "purchase_order_issued"
)

// RequestItem 申请行项
type RequestItem struct {
	ID        string `json:"id" gorm:"primaryKey;size:32"`
	RequestID string `json:"request_id" gorm:"size:32;not null;index"`

	Name           string  `json:"name" gorm:"size:200;not null"`
	Quantity       float64 `json:"quantity" gorm:"type:decimal(10,2);not null"`
	Unit           string  `json:"unit" gorm:"size:20;default:pcs"`
	EstimatedPrice float64 `json:"estimated_price" gorm:"type:decimal(12,4);default:0"`

	SortOrder int       `json:"sort_order" gorm:"default:0"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (RequestItem) TableName() string {
	return "material_request_items"
}
