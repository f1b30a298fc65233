package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/notofall/finaltalabt-sub001/internal/procurement/service"
)

// RequestHandler 物料申请处理器
type RequestHandler struct {
	svc *service.RequestService
}

func NewRequestHandler(svc *service.RequestService) *RequestHandler {
	return &RequestHandler{svc: svc}
}

// List 物料申请列表
// GET /api/v1/requests?project_id=xxx&status=xxx&supervisor_id=xxx&search=xxx
func (h *RequestHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)
	filters := map[string]string{
		"project_id":    c.Query("project_id"),
		"status":        c.Query("status"),
		"supervisor_id": c.Query("supervisor_id"),
		"search":        c.Query("search"),
	}

	items, total, err := h.svc.List(c.Request.Context(), page, pageSize, filters)
	if err != nil {
		InternalError(c, "获取物料申请列表失败: "+err.Error())
		return
	}
	Success(c, ListOf(items, page, pageSize, total))
}

// Get 物料申请详情
// GET /api/v1/requests/:id
func (h *RequestHandler) Get(c *gin.Context) {
	req, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, req)
}

// Create 创建物料申请
// POST /api/v1/requests
func (h *RequestHandler) Create(c *gin.Context) {
	var input service.CreateRequestInput
	if err := c.ShouldBindJSON(&input); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	req, err := h.svc.Create(c.Request.Context(), GetActor(c), &input)
	if err != nil {
		RespondError(c, err)
		return
	}
	Created(c, req)
}

// Approve 工程师通过物料申请
// POST /api/v1/requests/:id/approve
func (h *RequestHandler) Approve(c *gin.Context) {
	req, err := h.svc.Approve(c.Request.Context(), GetActor(c), c.Param("id"))
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, req)
}

// Reject 工程师驳回物料申请
// POST /api/v1/requests/:id/reject
func (h *RequestHandler) Reject(c *gin.Context) {
	var input service.ReviewInput
	if err := c.ShouldBindJSON(&input); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	req, err := h.svc.Reject(c.Request.Context(), GetActor(c), c.Param("id"), &input)
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, req)
}
