package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/notofall/finaltalabt-sub001/internal/procurement/entity"
	"github.com/notofall/finaltalabt-sub001/internal/procurement/repository"
)

// ReferenceService 基础资料服务:项目、供应商、物料目录、预算类别
type ReferenceService struct {
	repos *repository.Repositories
}

func NewReferenceService(repos *repository.Repositories) *ReferenceService {
	return &ReferenceService{repos: repos}
}

// === 项目 ===

type CreateProjectInput struct {
	Code string `json:"code" binding:"required"`
	Name string `json:"name" binding:"required"`
}

func (s *ReferenceService) CreateProject(ctx context.Context, actor Actor, input *CreateProjectInput) (*entity.Project, error) {
	if err := actor.can(OpManageReference); err != nil {
		return nil, err
	}
	project := &entity.Project{
		ID:        uuid.New().String()[:32],
		Code:      input.Code,
		Name:      input.Name,
		Status:    "active",
		CreatedBy: actor.ID,
	}
	if err := s.repos.Project.Create(ctx, project); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, newValidationError("code", "project code already exists")
		}
		return nil, err
	}
	return project, nil
}

func (s *ReferenceService) ListProjects(ctx context.Context, status string) ([]entity.Project, error) {
	return s.repos.Project.FindAll(ctx, status)
}

func (s *ReferenceService) GetProject(ctx context.Context, id string) (*entity.Project, error) {
	return s.repos.Project.FindByID(ctx, id)
}

// === 供应商 ===

type CreateSupplierInput struct {
	Name        string `json:"name" binding:"required"`
	ContactName string `json:"contact_name"`
	Phone       string `json:"phone"`
	Email       string `json:"email"`
	Address     string `json:"address"`
	Notes       string `json:"notes"`
}

func (s *ReferenceService) CreateSupplier(ctx context.Context, actor Actor, input *CreateSupplierInput) (*entity.Supplier, error) {
	if err := actor.can(OpManageReference); err != nil {
		return nil, err
	}
	supplier := &entity.Supplier{
		ID:          uuid.New().String()[:32],
		Name:        input.Name,
		ContactName: input.ContactName,
		Phone:       input.Phone,
		Email:       input.Email,
		Address:     input.Address,
		Status:      "active",
		Notes:       input.Notes,
	}
	if err := s.repos.Supplier.Create(ctx, supplier); err != nil {
		return nil, err
	}
	return supplier, nil
}

func (s *ReferenceService) ListSuppliers(ctx context.Context, status, search string, page, pageSize int) ([]entity.Supplier, int64, error) {
	return s.repos.Supplier.FindAll(ctx, status, search, page, pageSize)
}

func (s *ReferenceService) GetSupplier(ctx context.Context, id string) (*entity.Supplier, error) {
	return s.repos.Supplier.FindByID(ctx, id)
}

// UpdateSupplierInput 更新供应商请求,指针字段区分"未传"与"清空"
type UpdateSupplierInput struct {
	Name        *string `json:"name"`
	ContactName *string `json:"contact_name"`
	Phone       *string `json:"phone"`
	Email       *string `json:"email"`
	Address     *string `json:"address"`
	Status      *string `json:"status"`
	Notes       *string `json:"notes"`
}

func (s *ReferenceService) UpdateSupplier(ctx context.Context, actor Actor, id string, input *UpdateSupplierInput) (*entity.Supplier, error) {
	if err := actor.can(OpManageReference); err != nil {
		return nil, err
	}
	supplier, err := s.repos.Supplier.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		supplier.Name = *input.Name
	}
	if input.ContactName != nil {
		supplier.ContactName = *input.ContactName
	}
	if input.Phone != nil {
		supplier.Phone = *input.Phone
	}
	if input.Email != nil {
		supplier.Email = *input.Email
	}
	if input.Address != nil {
		supplier.Address = *input.Address
	}
	if input.Status != nil {
		supplier.Status = *input.Status
	}
	if input.Notes != nil {
		supplier.Notes = *input.Notes
	}

	if err := s.repos.Supplier.Update(ctx, supplier); err != nil {
		return nil, err
	}
	return supplier, nil
}

// === 物料目录 ===

type CreateCatalogItemInput struct {
	Code     string `json:"code" binding:"required"`
	Name     string `json:"name" binding:"required"`
	Unit     string `json:"unit"`
	Category string `json:"category"`
}

func (s *ReferenceService) CreateCatalogItem(ctx context.Context, actor Actor, input *CreateCatalogItemInput) (*entity.CatalogItem, error) {
	if err := actor.can(OpManageReference); err != nil {
		return nil, err
	}
	unit := input.Unit
	if unit == "" {
		unit = "pcs"
	}
	item := &entity.CatalogItem{
		ID:       uuid.New().String()[:32],
		Code:     input.Code,
		Name:     input.Name,
		Unit:     unit,
		Category: input.Category,
	}
	if err := s.repos.Catalog.CreateItem(ctx, item); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, newValidationError("code", "catalog item code already exists")
		}
		return nil, err
	}
	return item, nil
}

func (s *ReferenceService) ListCatalogItems(ctx context.Context, category, search string) ([]entity.CatalogItem, error) {
	return s.repos.Catalog.FindItems(ctx, category, search)
}

// === 预算类别 ===

type CreateCategoryInput struct {
	Name string `json:"name" binding:"required"`
}

func (s *ReferenceService) CreateBudgetCategory(ctx context.Context, actor Actor, input *CreateCategoryInput) (*entity.BudgetCategory, error) {
	if err := actor.can(OpManageReference); err != nil {
		return nil, err
	}
	category := &entity.BudgetCategory{
		ID:   uuid.New().String()[:32],
		Name: input.Name,
	}
	if err := s.repos.Catalog.CreateCategory(ctx, category); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, newValidationError("name", "budget category already exists")
		}
		return nil, err
	}
	return category, nil
}

func (s *ReferenceService) ListBudgetCategories(ctx context.Context) ([]entity.BudgetCategory, error) {
	return s.repos.Catalog.FindCategories(ctx)
}

// === 审计 ===

func (s *ReferenceService) ListAuditLogs(ctx context.Context, entityType, entityID string, page, pageSize int) ([]entity.AuditLog, int64, error) {
	return s.repos.Audit.FindByEntity(ctx, entityType, entityID, page, pageSize)
}
