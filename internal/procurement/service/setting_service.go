package service

import (
	"context"
	"strconv"

	"go.uber.org/zap"

	"github.com/notofall/finaltalabt-sub001/internal/procurement/entity"
	"github.com/notofall/finaltalabt-sub001/internal/procurement/repository"
)

// SettingService 系统设置服务
type SettingService struct {
	repos  *repository.Repositories
	logger *zap.Logger
}

func NewSettingService(repos *repository.Repositories, logger *zap.Logger) *SettingService {
	return &SettingService{repos: repos, logger: logger}
}

// ApprovalThreshold 当前总经理审批限额
func (s *SettingService) ApprovalThreshold(ctx context.Context) float64 {
	return s.repos.Setting.ApprovalThreshold(ctx)
}

// SetThresholdInput 修改审批限额请求
type SetThresholdInput struct {
	Threshold float64 `json:"threshold" binding:"required"`
}

// SetApprovalThreshold 修改总经理审批限额,仅总经理与管理员可操作
func (s *SettingService) SetApprovalThreshold(ctx context.Context, actor Actor, input *SetThresholdInput) error {
	if err := actor.can(OpManageSettings); err != nil {
		return err
	}
	if input.Threshold <= 0 {
		return newValidationError("threshold", "threshold must be positive")
	}

	old := s.repos.Setting.ApprovalThreshold(ctx)
	value := strconv.FormatFloat(input.Threshold, 'f', -1, 64)
	if err := s.repos.Setting.Set(ctx, entity.SettingApprovalThreshold, value, actor.ID); err != nil {
		return err
	}

	s.repos.Audit.Record(ctx, &entity.AuditLog{
		EntityType: "setting",
		EntityID:   entity.SettingApprovalThreshold,
		Action:     "update",
		Changes:    entity.JSONB{"from": old, "to": input.Threshold},
		ActorID:    actor.ID,
		ActorName:  actor.Name,
	})
	s.logger.Info("审批限额已更新",
		zap.Float64("from", old),
		zap.Float64("to", input.Threshold),
		zap.String("by", actor.ID))
	return nil
}
