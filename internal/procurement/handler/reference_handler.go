package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/notofall/finaltalabt-sub001/internal/procurement/service"
)

// ReferenceHandler 基础资料处理器:项目、供应商、物料目录、预算类别、审计
type ReferenceHandler struct {
	svc *service.ReferenceService
}

func NewReferenceHandler(svc *service.ReferenceService) *ReferenceHandler {
	return &ReferenceHandler{svc: svc}
}

// === 项目 ===

// ListProjects 项目列表
// GET /api/v1/projects?status=xxx
func (h *ReferenceHandler) ListProjects(c *gin.Context) {
	projects, err := h.svc.ListProjects(c.Request.Context(), c.Query("status"))
	if err != nil {
		InternalError(c, "获取项目列表失败: "+err.Error())
		return
	}
	Success(c, projects)
}

// GetProject 项目详情
// GET /api/v1/projects/:id
func (h *ReferenceHandler) GetProject(c *gin.Context) {
	project, err := h.svc.GetProject(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, project)
}

// CreateProject 创建项目
// POST /api/v1/projects
func (h *ReferenceHandler) CreateProject(c *gin.Context) {
	var input service.CreateProjectInput
	if err := c.ShouldBindJSON(&input); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	project, err := h.svc.CreateProject(c.Request.Context(), GetActor(c), &input)
	if err != nil {
		RespondError(c, err)
		return
	}
	Created(c, project)
}

// === 供应商 ===

// ListSuppliers 供应商列表
// GET /api/v1/suppliers?status=xxx&search=xxx
func (h *ReferenceHandler) ListSuppliers(c *gin.Context) {
	page, pageSize := GetPagination(c)
	items, total, err := h.svc.ListSuppliers(c.Request.Context(), c.Query("status"), c.Query("search"), page, pageSize)
	if err != nil {
		InternalError(c, "获取供应商列表失败: "+err.Error())
		return
	}
	Success(c, ListOf(items, page, pageSize, total))
}

// GetSupplier 供应商详情
// GET /api/v1/suppliers/:id
func (h *ReferenceHandler) GetSupplier(c *gin.Context) {
	supplier, err := h.svc.GetSupplier(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, supplier)
}

// CreateSupplier 创建供应商
// POST /api/v1/suppliers
func (h *ReferenceHandler) CreateSupplier(c *gin.Context) {
	var input service.CreateSupplierInput
	if err := c.ShouldBindJSON(&input); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	supplier, err := h.svc.CreateSupplier(c.Request.Context(), GetActor(c), &input)
	if err != nil {
		RespondError(c, err)
		return
	}
	Created(c, supplier)
}

// UpdateSupplier 更新供应商
// PUT /api/v1/suppliers/:id
func (h *ReferenceHandler) UpdateSupplier(c *gin.Context) {
	var input service.UpdateSupplierInput
	if err := c.ShouldBindJSON(&input); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	supplier, err := h.svc.UpdateSupplier(c.Request.Context(), GetActor(c), c.Param("id"), &input)
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, supplier)
}

// === 物料目录 ===

// ListCatalogItems 物料目录列表
// GET /api/v1/catalog/items?category=xxx&search=xxx
func (h *ReferenceHandler) ListCatalogItems(c *gin.Context) {
	items, err := h.svc.ListCatalogItems(c.Request.Context(), c.Query("category"), c.Query("search"))
	if err != nil {
		InternalError(c, "获取物料目录失败: "+err.Error())
		return
	}
	Success(c, items)
}

// CreateCatalogItem 创建物料目录条目
// POST /api/v1/catalog/items
func (h *ReferenceHandler) CreateCatalogItem(c *gin.Context) {
	var input service.CreateCatalogItemInput
	if err := c.ShouldBindJSON(&input); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	item, err := h.svc.CreateCatalogItem(c.Request.Context(), GetActor(c), &input)
	if err != nil {
		RespondError(c, err)
		return
	}
	Created(c, item)
}

// === 预算类别 ===

// ListBudgetCategories 预算类别列表
// GET /api/v1/catalog/categories
func (h *ReferenceHandler) ListBudgetCategories(c *gin.Context) {
	categories, err := h.svc.ListBudgetCategories(c.Request.Context())
	if err != nil {
		InternalError(c, "获取预算类别失败: "+err.Error())
		return
	}
	Success(c, categories)
}

// CreateBudgetCategory 创建预算类别
// POST /api/v1/catalog/categories
func (h *ReferenceHandler) CreateBudgetCategory(c *gin.Context) {
	var input service.CreateCategoryInput
	if err := c.ShouldBindJSON(&input); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	category, err := h.svc.CreateBudgetCategory(c.Request.Context(), GetActor(c), &input)
	if err != nil {
		RespondError(c, err)
		return
	}
	Created(c, category)
}

// === 审计 ===

// ListAuditLogs 按实体查询审计记录
// GET /api/v1/audit-logs?entity_type=xxx&entity_id=xxx
func (h *ReferenceHandler) ListAuditLogs(c *gin.Context) {
	entityType := c.Query("entity_type")
	entityID := c.Query("entity_id")
	if entityType == "" || entityID == "" {
		BadRequest(c, "entity_type 与 entity_id 必填")
		return
	}

	page, pageSize := GetPagination(c)
	logs, total, err := h.svc.ListAuditLogs(c.Request.Context(), entityType, entityID, page, pageSize)
	if err != nil {
		InternalError(c, "获取审计记录失败: "+err.Error())
		return
	}
	Success(c, ListOf(logs, page, pageSize, total))
}
