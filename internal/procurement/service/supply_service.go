package service

import (
	"context"

	"github.com/notofall/finaltalabt-sub001/internal/procurement/entity"
	"github.com/notofall/finaltalabt-sub001/internal/procurement/repository"
)

// SupplyService 供应台账服务
type SupplyService struct {
	repos *repository.Repositories
}

func NewSupplyService(repos *repository.Repositories) *SupplyService {
	return &SupplyService{repos: repos}
}

// SupplyEntryView 台账条目视图,附完成率
type SupplyEntryView struct {
	entity.SupplyTracking
	Completion float64 `json:"completion_percentage"`
}

// ProjectSupplySummary 项目供应汇总
type ProjectSupplySummary struct {
	ProjectID  string            `json:"project_id"`
	Entries    []SupplyEntryView `json:"entries"`
	Completed  int               `json:"completed"`
	InProgress int               `json:"in_progress"`
	NotStarted int               `json:"not_started"`
	// 整体完成率:总实收/总需求;总需求为0时为0
	OverallCompletion float64 `json:"overall_completion"`
}

// ProjectSummary 项目供应汇总:逐条完成率加三档分桶
func (s *SupplyService) ProjectSummary(ctx context.Context, projectID string) (*ProjectSupplySummary, error) {
	if _, err := s.repos.Project.FindByID(ctx, projectID); err != nil {
		return nil, err
	}

	entries, err := s.repos.Supply.FindByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	summary := &ProjectSupplySummary{ProjectID: projectID, Entries: []SupplyEntryView{}}
	var totalRequired, totalReceived float64
	for _, entry := range entries {
		completion := entry.CompletionPercentage()
		summary.Entries = append(summary.Entries, SupplyEntryView{
			SupplyTracking: entry,
			Completion:     completion,
		})
		totalRequired += entry.RequiredQuantity
		totalReceived += entry.ReceivedQuantity

		switch {
		case entry.RequiredQuantity > 0 && entry.ReceivedQuantity >= entry.RequiredQuantity:
			summary.Completed++
		case entry.ReceivedQuantity > 0:
			summary.InProgress++
		default:
			summary.NotStarted++
		}
	}
	if totalRequired > 0 {
		summary.OverallCompletion = totalReceived / totalRequired * 100
	}
	return summary, nil
}

// SetRequirementInput 设置需求量请求
type SetRequirementInput struct {
	CatalogItemID string  `json:"catalog_item_id" binding:"required"`
	Required      float64 `json:"required_quantity"`
}

// SetRequirement 计划侧设置需求量,条目不存在时新建
func (s *SupplyService) SetRequirement(ctx context.Context, actor Actor, projectID string, input *SetRequirementInput) (*entity.SupplyTracking, error) {
	if err := actor.can(OpManageSupply); err != nil {
		return nil, err
	}
	if input.Required < 0 {
		return nil, newValidationError("required_quantity", "required quantity must not be negative")
	}
	if _, err := s.repos.Project.FindByID(ctx, projectID); err != nil {
		return nil, err
	}
	if _, err := s.repos.Catalog.FindItemByID(ctx, input.CatalogItemID); err != nil {
		return nil, err
	}

	entry, err := s.repos.Supply.SetRequirement(ctx, projectID, input.CatalogItemID, input.Required)
	if err != nil {
		return nil, err
	}

	s.repos.Audit.Record(ctx, &entity.AuditLog{
		EntityType: "supply",
		EntityID:   entry.ID,
		Action:     "set_requirement",
		Changes:    entity.JSONB{"required_quantity": input.Required},
		ActorID:    actor.ID,
		ActorName:  actor.Name,
	})
	return entry, nil
}
