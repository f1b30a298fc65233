package entity

import "time"

// Setting 系统设置项(键值)
type Setting struct {
	Key       string    `json:"key" gorm:"primaryKey;size:64"`
	Value     string    `json:"value" gorm:"size:200;not null"`
	UpdatedBy string    `json:"updated_by" gorm:"size:32"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Setting) TableName() string {
	return "settings"
}

const (
	// SettingApprovalThreshold 总经理审批限额设置键
	SettingApprovalThreshold = "approval_threshold"
	// DefaultApprovalThreshold 限额未配置或不可解析时的兜底值
	DefaultApprovalThreshold = 20000.0
)
