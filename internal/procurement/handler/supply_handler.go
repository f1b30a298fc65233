package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/notofall/finaltalabt-sub001/internal/procurement/service"
)

// SupplyHandler 供应台账处理器
type SupplyHandler struct {
	svc *service.SupplyService
}

func NewSupplyHandler(svc *service.SupplyService) *SupplyHandler {
	return &SupplyHandler{svc: svc}
}

// ProjectSummary 项目供应汇总
// GET /api/v1/supply/projects/:id
func (h *SupplyHandler) ProjectSummary(c *gin.Context) {
	summary, err := h.svc.ProjectSummary(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, summary)
}

// SetRequirement 设置需求量
// PUT /api/v1/supply/projects/:id/requirements
func (h *SupplyHandler) SetRequirement(c *gin.Context) {
	var input service.SetRequirementInput
	if err := c.ShouldBindJSON(&input); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	entry, err := h.svc.SetRequirement(c.Request.Context(), GetActor(c), c.Param("id"), &input)
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, entry)
}
