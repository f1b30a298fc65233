package service

// 系统角色
const (
	RoleAdmin      = "admin"
	RoleGM         = "gm"
	RoleManager    = "manager"
	RoleEngineer   = "engineer"
	RoleSupervisor = "supervisor"
)

// 权限操作点
const (
	OpCreateRequest   = "request:create"
	OpReviewRequest   = "request:review"
	OpCreateOrder     = "order:create"
	OpApproveOrder    = "order:approve"
	OpGMApproveOrder  = "order:gm_approve"
	OpShipOrder       = "order:ship"
	OpConfirmDelivery = "order:confirm_delivery"
	OpManageRFQ       = "rfq:manage"
	OpManageSupply    = "supply:manage"
	OpManageSettings  = "settings:manage"
	OpManageReference = "reference:manage"
)

// rolePermissions 角色到操作点的授权表,admin全通过不落表
var rolePermissions = map[string]map[string]bool{
	RoleSupervisor: {
		OpCreateRequest: true,
	},
	RoleEngineer: {
		OpReviewRequest: true,
	},
	RoleManager: {
		OpCreateOrder:     true,
		OpApproveOrder:    true,
		OpShipOrder:       true,
		OpConfirmDelivery: true,
		OpManageRFQ:       true,
		OpManageSupply:    true,
		OpManageReference: true,
	},
	RoleGM: {
		OpApproveOrder:   true,
		OpGMApproveOrder: true,
		OpManageSettings: true,
	},
}

// Can 判断角色是否可执行操作
func Can(role, op string) bool {
	if role == RoleAdmin {
		return true
	}
	return rolePermissions[role][op]
}

// Actor 当前操作人,来自认证中间件注入的声明
type Actor struct {
	ID   string
	Name string
	Role string
}

func (a Actor) can(op string) error {
	if !Can(a.Role, op) {
		return ErrForbidden
	}
	return nil
}
