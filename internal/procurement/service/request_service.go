package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/notofall/finaltalabt-sub001/internal/procurement/entity"
	"github.com/notofall/finaltalabt-sub001/internal/procurement/repository"
)

// RequestService 物料申请服务
type RequestService struct {
	db     *gorm.DB
	repos  *repository.Repositories
	logger *zap.Logger
}

func NewRequestService(db *gorm.DB, repos *repository.Repositories, logger *zap.Logger) *RequestService {
	return &RequestService{db: db, repos: repos, logger: logger}
}

// List 物料申请列表
func (s *RequestService) List(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.MaterialRequest, int64, error) {
	return s.repos.Request.FindAll(ctx, page, pageSize, filters)
}

// Get 物料申请详情
func (s *RequestService) Get(ctx context.Context, id string) (*entity.MaterialRequest, error) {
	return s.repos.Request.FindByID(ctx, id)
}

// CreateRequestInput 创建物料申请请求
type CreateRequestInput struct {
	ProjectID        string              `json:"project_id" binding:"required"`
	SupervisorPrefix string              `json:"supervisor_prefix"`
	EngineerID       string              `json:"engineer_id"`
	Notes            string              `json:"notes"`
	Items            []CreateRequestItem `json:"items" binding:"required"`
}

type CreateRequestItem struct {
	Name           string  `json:"name" binding:"required"`
	Quantity       float64 `json:"quantity" binding:"required"`
	Unit           string  `json:"unit"`
	EstimatedPrice float64 `json:"estimated_price"`
}

// Create 创建物料申请。
// 编号在插入事务内分配;唯一键冲突时整个事务重试,
// 预算耗尽后退到带随机片段的兜底编号。
func (s *RequestService) Create(ctx context.Context, actor Actor, input *CreateRequestInput) (*entity.MaterialRequest, error) {
	if err := actor.can(OpCreateRequest); err != nil {
		return nil, err
	}
	if len(input.Items) == 0 {
		return nil, newValidationError("items", "at least one item is required")
	}
	for _, item := range input.Items {
		if item.Quantity <= 0 {
			return nil, newValidationError("items.quantity", "quantity must be positive")
		}
	}

	project, err := s.repos.Project.FindByID(ctx, input.ProjectID)
	if err != nil {
		return nil, err
	}

	req := &entity.MaterialRequest{
		ID:           uuid.New().String()[:32],
		Status:       entity.RequestStatusPendingEngineer,
		ProjectID:    project.ID,
		SupervisorID: actor.ID,
		EngineerID:   input.EngineerID,
		CreatedBy:    actor.ID,
		Notes:        input.Notes,
	}
	for i, item := range input.Items {
		unit := item.Unit
		if unit == "" {
			unit = "pcs"
		}
		req.Items = append(req.Items, entity.RequestItem{
			ID:             uuid.New().String()[:32],
			RequestID:      req.ID,
			Name:           item.Name,
			Quantity:       item.Quantity,
			Unit:           unit,
			EstimatedPrice: item.EstimatedPrice,
			SortOrder:      i + 1,
		})
	}

	err = s.insertWithNumber(ctx, req, input.SupervisorPrefix, project.Code)
	if err != nil {
		return nil, err
	}

	s.repos.Audit.Record(ctx, &entity.AuditLog{
		EntityType: "request",
		EntityID:   req.ID,
		EntityCode: req.RequestNumber,
		Action:     "create",
		ToStatus:   req.Status,
		ActorID:    actor.ID,
		ActorName:  actor.Name,
	})
	return req, nil
}

// insertWithNumber 带编号分配与冲突重试的插入
func (s *RequestService) insertWithNumber(ctx context.Context, req *entity.MaterialRequest, supervisorPrefix, projectCode string) error {
	var lastErr error
	for attempt := 0; attempt < repository.AllocateRetries; attempt++ {
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			number, seq, err := s.repos.Sequence.RequestNumber(ctx, tx, &entity.MaterialRequest{}, "request_number", supervisorPrefix, projectCode)
			if err != nil {
				return err
			}
			req.RequestNumber = number
			req.RequestSeq = seq
			return tx.Create(req).Error
		})
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return err
		}
		lastErr = err
		s.logger.Warn("申请编号冲突,重试",
			zap.String("number", req.RequestNumber),
			zap.Int("attempt", attempt+1))
	}

	// 冲突重试耗尽,改用兜底编号再试一次
	scope := "REQ-"
	if supervisorPrefix != "" && projectCode != "" {
		scope = supervisorPrefix + "-" + projectCode + "-"
	} else if supervisorPrefix != "" {
		scope = supervisorPrefix + "-"
	}
	req.RequestNumber = s.repos.Sequence.FallbackNumber(scope)
	req.RequestSeq = 0
	if err := s.db.WithContext(ctx).Create(req).Error; err != nil {
		return errors.Join(lastErr, err)
	}
	s.logger.Warn("申请编号退化为兜底格式", zap.String("number", req.RequestNumber))
	return nil
}

// ReviewInput 审核物料申请请求
type ReviewInput struct {
	Reason string `json:"reason"`
}

// Approve 工程师通过物料申请
func (s *RequestService) Approve(ctx context.Context, actor Actor, id string) (*entity.MaterialRequest, error) {
	if err := actor.can(OpReviewRequest); err != nil {
		return nil, err
	}

	req, err := s.repos.Request.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Status != entity.RequestStatusPendingEngineer {
		return nil, &TransitionError{Entity: "material request", From: req.Status, Action: "approve"}
	}

	now := time.Now()
	fromStatus := req.Status
	req.Status = entity.RequestStatusApproved
	req.ApprovedBy = &actor.ID
	req.ApprovedAt = &now
	if req.EngineerID == "" {
		req.EngineerID = actor.ID
	}
	if err := s.repos.Request.Update(ctx, req); err != nil {
		return nil, err
	}

	s.repos.Audit.Record(ctx, &entity.AuditLog{
		EntityType: "request",
		EntityID:   req.ID,
		EntityCode: req.RequestNumber,
		Action:     "approve",
		FromStatus: fromStatus,
		ToStatus:   req.Status,
		ActorID:    actor.ID,
		ActorName:  actor.Name,
	})
	return req, nil
}

// Reject 工程师驳回物料申请
func (s *RequestService) Reject(ctx context.Context, actor Actor, id string, input *ReviewInput) (*entity.MaterialRequest, error) {
	if err := actor.can(OpReviewRequest); err != nil {
		return nil, err
	}

	req, err := s.repos.Request.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Status != entity.RequestStatusPendingEngineer {
		return nil, &TransitionError{Entity: "material request", From: req.Status, Action: "reject"}
	}

	fromStatus := req.Status
	req.Status = entity.RequestStatusRejected
	req.RejectReason = input.Reason
	if req.EngineerID == "" {
		req.EngineerID = actor.ID
	}
	if err := s.repos.Request.Update(ctx, req); err != nil {
		return nil, err
	}

	s.repos.Audit.Record(ctx, &entity.AuditLog{
		EntityType:  "request",
		EntityID:    req.ID,
		EntityCode:  req.RequestNumber,
		Action:      "reject",
		FromStatus:  fromStatus,
		ToStatus:    req.Status,
		Description: input.Reason,
		ActorID:     actor.ID,
		ActorName:   actor.Name,
	})
	return req, nil
}
