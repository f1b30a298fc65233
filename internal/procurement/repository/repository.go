package repository

import (
	"errors"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrNotFound = errors.New("record not found")
)

// Repositories 采购仓库集合
type Repositories struct {
	Request  *RequestRepository
	Order    *OrderRepository
	RFQ      *RFQRepository
	Supply   *SupplyRepository
	Project  *ProjectRepository
	Supplier *SupplierRepository
	Catalog  *CatalogRepository
	Setting  *SettingRepository
	Audit    *AuditLogRepository
	Sequence *SequenceAllocator
}

// NewRepositories 创建采购仓库集合
func NewRepositories(db *gorm.DB, rdb *redis.Client, logger *zap.Logger) *Repositories {
	return &Repositories{
		Request:  NewRequestRepository(db),
		Order:    NewOrderRepository(db),
		RFQ:      NewRFQRepository(db),
		Supply:   NewSupplyRepository(db),
		Project:  NewProjectRepository(db),
		Supplier: NewSupplierRepository(db),
		Catalog:  NewCatalogRepository(db),
		Setting:  NewSettingRepository(db, rdb),
		Audit:    NewAuditLogRepository(db, logger),
		Sequence: NewSequenceAllocator(db),
	}
}
