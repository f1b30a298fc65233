package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/notofall/finaltalabt-sub001/internal/procurement/service"
)

// RFQHandler 询价比价处理器
type RFQHandler struct {
	svc *service.RFQService
}

func NewRFQHandler(svc *service.RFQService) *RFQHandler {
	return &RFQHandler{svc: svc}
}

// List 询价单列表
// GET /api/v1/rfqs?project_id=xxx&status=xxx
func (h *RFQHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)
	items, total, err := h.svc.List(c.Request.Context(), c.Query("project_id"), c.Query("status"), page, pageSize)
	if err != nil {
		InternalError(c, "获取询价单列表失败: "+err.Error())
		return
	}
	Success(c, ListOf(items, page, pageSize, total))
}

// Get 询价单详情
// GET /api/v1/rfqs/:id
func (h *RFQHandler) Get(c *gin.Context) {
	rfq, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, rfq)
}

// Create 创建询价单
// POST /api/v1/rfqs
func (h *RFQHandler) Create(c *gin.Context) {
	var input service.CreateRFQInput
	if err := c.ShouldBindJSON(&input); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	rfq, err := h.svc.Create(c.Request.Context(), GetActor(c), &input)
	if err != nil {
		RespondError(c, err)
		return
	}
	Created(c, rfq)
}

// AddQuote 录入供应商报价
// POST /api/v1/rfqs/:id/quotes
func (h *RFQHandler) AddQuote(c *gin.Context) {
	var input service.AddQuoteInput
	if err := c.ShouldBindJSON(&input); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	quote, err := h.svc.AddQuote(c.Request.Context(), GetActor(c), c.Param("id"), &input)
	if err != nil {
		RespondError(c, err)
		return
	}
	Created(c, quote)
}

// SelectQuote 选定中标报价
// POST /api/v1/rfqs/:id/quotes/:quote_id/select
func (h *RFQHandler) SelectQuote(c *gin.Context) {
	rfq, err := h.svc.SelectQuote(c.Request.Context(), GetActor(c), c.Param("id"), c.Param("quote_id"))
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, rfq)
}
