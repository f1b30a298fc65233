package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/notofall/finaltalabt-sub001/internal/procurement/service"
)

// SettingHandler 系统设置处理器
type SettingHandler struct {
	svc *service.SettingService
}

func NewSettingHandler(svc *service.SettingService) *SettingHandler {
	return &SettingHandler{svc: svc}
}

// GetApprovalThreshold 查询审批限额
// GET /api/v1/settings/approval-threshold
func (h *SettingHandler) GetApprovalThreshold(c *gin.Context) {
	Success(c, gin.H{"threshold": h.svc.ApprovalThreshold(c.Request.Context())})
}

// SetApprovalThreshold 修改审批限额
// PUT /api/v1/settings/approval-threshold
func (h *SettingHandler) SetApprovalThreshold(c *gin.Context) {
	var input service.SetThresholdInput
	if err := c.ShouldBindJSON(&input); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	if err := h.svc.SetApprovalThreshold(c.Request.Context(), GetActor(c), &input); err != nil {
		RespondError(c, err)
		return
	}
	Success(c, gin.H{"threshold": input.Threshold})
}
