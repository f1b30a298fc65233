package service

import (
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/notofall/finaltalabt-sub001/internal/procurement/repository"
)

// Services 采购服务集合
type Services struct {
	Request   *RequestService
	Order     *OrderService
	RFQ       *RFQService
	Supply    *SupplyService
	Reference *ReferenceService
	Setting   *SettingService
}

// NewServices 创建采购服务集合
func NewServices(db *gorm.DB, repos *repository.Repositories, logger *zap.Logger) *Services {
	return &Services{
		Request:   NewRequestService(db, repos, logger),
		Order:     NewOrderService(db, repos, logger),
		RFQ:       NewRFQService(db, repos, logger),
		Supply:    NewSupplyService(repos),
		Reference: NewReferenceService(repos),
		Setting:   NewSettingService(repos, logger),
	}
}
