package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/notofall/finaltalabt-sub001/internal/procurement/service"
)

// OrderHandler 采购订单处理器
type OrderHandler struct {
	svc *service.OrderService
}

func NewOrderHandler(svc *service.OrderService) *OrderHandler {
	return &OrderHandler{svc: svc}
}

// List 采购订单列表
// GET /api/v1/orders?supplier_id=xxx&project_id=xxx&status=xxx&search=xxx
func (h *OrderHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)
	filters := map[string]string{
		"supplier_id": c.Query("supplier_id"),
		"project_id":  c.Query("project_id"),
		"status":      c.Query("status"),
		"search":      c.Query("search"),
	}

	items, total, err := h.svc.List(c.Request.Context(), page, pageSize, filters)
	if err != nil {
		InternalError(c, "获取采购订单列表失败: "+err.Error())
		return
	}
	Success(c, ListOf(items, page, pageSize, total))
}

// Get 采购订单详情
// GET /api/v1/orders/:id
func (h *OrderHandler) Get(c *gin.Context) {
	order, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, order)
}

// Create 创建采购订单
// POST /api/v1/orders
func (h *OrderHandler) Create(c *gin.Context) {
	var input service.CreateOrderInput
	if err := c.ShouldBindJSON(&input); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	order, err := h.svc.Create(c.Request.Context(), GetActor(c), &input)
	if err != nil {
		RespondError(c, err)
		return
	}
	Created(c, order)
}

// Update 更新采购订单
// PUT /api/v1/orders/:id
func (h *OrderHandler) Update(c *gin.Context) {
	var input service.UpdateOrderInput
	if err := c.ShouldBindJSON(&input); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	order, err := h.svc.Update(c.Request.Context(), GetActor(c), c.Param("id"), &input)
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, order)
}

// Approve 审批采购订单
// POST /api/v1/orders/:id/approve
func (h *OrderHandler) Approve(c *gin.Context) {
	order, err := h.svc.Approve(c.Request.Context(), GetActor(c), c.Param("id"))
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, order)
}

// RejectInput 驳回请求体
type RejectInput struct {
	Reason string `json:"reason"`
}

// Reject 驳回采购订单
// POST /api/v1/orders/:id/reject
func (h *OrderHandler) Reject(c *gin.Context) {
	var input RejectInput
	if err := c.ShouldBindJSON(&input); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	order, err := h.svc.Reject(c.Request.Context(), GetActor(c), c.Param("id"), input.Reason)
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, order)
}

// Ship 登记发货
// POST /api/v1/orders/:id/ship
func (h *OrderHandler) Ship(c *gin.Context) {
	var input service.ShipInput
	if err := c.ShouldBindJSON(&input); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	order, err := h.svc.MarkShipped(c.Request.Context(), GetActor(c), c.Param("id"), &input)
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, order)
}

// ConfirmDelivery 确认到货
// POST /api/v1/orders/:id/deliveries
func (h *OrderHandler) ConfirmDelivery(c *gin.Context) {
	var input service.ConfirmDeliveryInput
	if err := c.ShouldBindJSON(&input); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	order, err := h.svc.ConfirmDelivery(c.Request.Context(), GetActor(c), c.Param("id"), &input)
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, order)
}
