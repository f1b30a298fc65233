package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/notofall/finaltalabt-sub001/internal/procurement/entity"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AuditLogRepository 审计日志仓库。写入失败只记日志,不影响业务事务
type AuditLogRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewAuditLogRepository(db *gorm.DB, logger *zap.Logger) *AuditLogRepository {
	return &AuditLogRepository{db: db, logger: logger}
}

// Record 记录一条审计日志,在业务事务提交之后调用
func (r *AuditLogRepository) Record(ctx context.Context, log *entity.AuditLog) {
	if log.ID == "" {
		log.ID = uuid.New().String()[:32]
	}
	if err := r.db.WithContext(ctx).Create(log).Error; err != nil {
		r.logger.Warn("审计日志写入失败",
			zap.String("entity_type", log.EntityType),
			zap.String("entity_id", log.EntityID),
			zap.String("action", log.Action),
			zap.Error(err))
	}
}

// FindByEntity 按实体查询审计记录
func (r *AuditLogRepository) FindByEntity(ctx context.Context, entityType, entityID string, page, pageSize int) ([]entity.AuditLog, int64, error) {
	query := r.db.WithContext(ctx).Model(&entity.AuditLog{}).
		Where("entity_type = ? AND entity_id = ?", entityType, entityID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var logs []entity.AuditLog
	err := query.
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&logs).Error
	return logs, total, err
}
