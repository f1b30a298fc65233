package entity

import "time"

// SupplyTracking 项目供应台账:按(项目,物料)累计实收数量
type SupplyTracking struct {
	ID            string `json:"id" gorm:"primaryKey;size:32"`
	ProjectID     string `json:"project_id" gorm:"size:32;not null;uniqueIndex:idx_supply_scope"`
	CatalogItemID string `json:"catalog_item_id" gorm:"size:32;not null;uniqueIndex:idx_supply_scope"`

	RequiredQuantity float64 `json:"required_quantity" gorm:"type:decimal(12,2);default:0"`
	// 只增不减,仅经到货确认累加
	ReceivedQuantity float64 `json:"received_quantity" gorm:"type:decimal(12,2);default:0"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	CatalogItem *CatalogItem `json:"catalog_item,omitempty" gorm:"foreignKey:CatalogItemID"`
}

func (SupplyTracking) TableName() string {
	return "supply_tracking_entries"
}

// CompletionPercentage 完成率,需求量为0时按0%处理
func (e *SupplyTracking) CompletionPercentage() float64 {
	if e.RequiredQuantity <= 0 {
		return 0
	}
	return e.ReceivedQuantity / e.RequiredQuantity * 100
}
