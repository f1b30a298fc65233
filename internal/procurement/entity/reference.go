package entity

import "time"

// Project 工程项目
type Project struct {
	ID     string `json:"id" gorm:"primaryKey;size:32"`
	Code   string `json:"code" gorm:"size:32;uniqueIndex;not null"` // 如 PRJ001,用于申请编号
	Name   string `json:"name" gorm:"size:200;not null"`
	Status string `json:"status" gorm:"size:20;default:active"` // active/completed/cancelled

	CreatedBy string    `json:"created_by" gorm:"size:32"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Project) TableName() string {
	return "projects"
}

// Supplier 供应商
type Supplier struct {
	ID          string `json:"id" gorm:"primaryKey;size:32"`
	Name        string `json:"name" gorm:"size:200;not null"`
	ContactName string `json:"contact_name" gorm:"size:100"`
	Phone       string `json:"phone" gorm:"size:50"`
	Email       string `json:"email" gorm:"size:100"`
	Address     string `json:"address" gorm:"size:500"`
	Status      string `json:"status" gorm:"size:20;default:active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Notes     string    `json:"notes" gorm:"type:text"`
}

func (Supplier) TableName() string {
	return "suppliers"
}

// CatalogItem 物料目录条目
type CatalogItem struct {
	ID       string `json:"id" gorm:"primaryKey;size:32"`
	Code     string `json:"code" gorm:"size:50;uniqueIndex;not null"`
	Name     string `json:"name" gorm:"size:200;not null"`
	Unit     string `json:"unit" gorm:"size:20;default:pcs"`
	Category string `json:"category" gorm:"size:100"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (CatalogItem) TableName() string {
	return "catalog_items"
}

// BudgetCategory 预算类别
type BudgetCategory struct {
	ID   string `json:"id" gorm:"primaryKey;size:32"`
	Name string `json:"name" gorm:"size:100;uniqueIndex;not null"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (BudgetCategory) TableName() string {
	return "budget_categories"
}
