package entity

import "time"

// RFQ 询价单
type RFQ struct {
	ID        string `json:"id" gorm:"primaryKey;size:32"`
	RFQNumber string `json:"rfq_number" gorm:"size:32;uniqueIndex;not null"`
	Status    string `json:"status" gorm:"size:20;default:open"` // open/quoted/closed

	RequestID *string    `json:"request_id" gorm:"size:32;index"`
	ProjectID string     `json:"project_id" gorm:"size:32;not null;index"`
	Title     string     `json:"title" gorm:"size:200;not null"`
	Deadline  *time.Time `json:"deadline"`

	CreatedBy string    `json:"created_by" gorm:"size:32"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Notes     string    `json:"notes" gorm:"type:text"`

	Quotes []Quotation `json:"quotes,omitempty" gorm:"foreignKey:RFQID"`
}

func (RFQ) TableName() string {
	return "rfqs"
}

// 询价单状态
const (
	RFQStatusOpen   = "open"
	RFQStatusQuoted = "quoted"
	RFQStatusClosed = "closed"
)

// Quotation 供应商报价单
type Quotation struct {
	ID          string `json:"id" gorm:"primaryKey;size:32"`
	QuoteNumber string `json:"quote_number" gorm:"size:32;uniqueIndex;not null"`
	RFQID       string `json:"rfq_id" gorm:"size:32;not null;index"`
	SupplierID  string `json:"supplier_id" gorm:"size:32;not null;index"`

	TotalAmount  float64    `json:"total_amount" gorm:"type:decimal(15,2);not null"`
	LeadTimeDays int        `json:"lead_time_days" gorm:"default:0"`
	ValidUntil   *time.Time `json:"valid_until"`
	Selected     bool       `json:"selected" gorm:"default:false"`

	QuotedAt  time.Time `json:"quoted_at"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Notes     string    `json:"notes" gorm:"type:text"`

	Supplier *Supplier       `json:"supplier,omitempty" gorm:"foreignKey:SupplierID"`
	Items    []QuotationItem `json:"items,omitempty" gorm:"foreignKey:QuoteID"`
}

func (Quotation) TableName() string {
	return "supplier_quotations"
}

// QuotationItem 报价行项,选定报价后用于预填采购订单单价
type QuotationItem struct {
	ID      string `json:"id" gorm:"primaryKey;size:32"`
	QuoteID string `json:"quote_id" gorm:"size:32;not null;index"`

	CatalogItemID *string `json:"catalog_item_id" gorm:"size:32;index"`
	Name          string  `json:"name" gorm:"size:200;not null"`
	Quantity      float64 `json:"quantity" gorm:"type:decimal(12,2);not null"`
	Unit          string  `json:"unit" gorm:"size:20;default:pcs"`
	UnitPrice     float64 `json:"unit_price" gorm:"type:decimal(12,2);not null"`
	SortOrder     int     `json:"sort_order" gorm:"default:0"`
}

func (QuotationItem) TableName() string {
	return "supplier_quotation_items"
}
