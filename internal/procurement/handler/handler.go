package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/notofall/finaltalabt-sub001/internal/procurement/repository"
	"github.com/notofall/finaltalabt-sub001/internal/procurement/service"
)

// Handlers 采购处理器集合
type Handlers struct {
	Request   *RequestHandler
	Order     *OrderHandler
	RFQ       *RFQHandler
	Supply    *SupplyHandler
	Reference *ReferenceHandler
	Setting   *SettingHandler
}

// NewHandlers 创建采购处理器集合
func NewHandlers(services *service.Services) *Handlers {
	return &Handlers{
		Request:   NewRequestHandler(services.Request),
		Order:     NewOrderHandler(services.Order),
		RFQ:       NewRFQHandler(services.RFQ),
		Supply:    NewSupplyHandler(services.Supply),
		Reference: NewReferenceHandler(services.Reference),
		Setting:   NewSettingHandler(services.Setting),
	}
}

// === 响应辅助函数 ===

type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

type ListResponse struct {
	Items      interface{} `json:"items"`
	Pagination *Pagination `json:"pagination"`
}

type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(200, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

func Created(c *gin.Context, data interface{}) {
	c.JSON(201, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

func Error(c *gin.Context, code int, message string) {
	statusCode := code / 100
	if statusCode < 100 || statusCode > 599 {
		statusCode = 500
	}
	c.JSON(statusCode, Response{
		Code:    code,
		Message: message,
	})
}

func BadRequest(c *gin.Context, message string) {
	Error(c, 40000, message)
}

func Forbidden(c *gin.Context, message string) {
	Error(c, 40300, message)
}

func NotFound(c *gin.Context, message string) {
	Error(c, 40400, message)
}

func Conflict(c *gin.Context, message string) {
	Error(c, 40900, message)
}

func InternalError(c *gin.Context, message string) {
	Error(c, 50000, message)
}

// RespondError 按服务层错误类型映射HTTP状态
func RespondError(c *gin.Context, err error) {
	var validationErr *service.ValidationError
	switch {
	case errors.Is(err, repository.ErrNotFound):
		NotFound(c, "记录不存在")
	case errors.Is(err, service.ErrForbidden):
		Forbidden(c, "当前角色无此权限")
	case errors.Is(err, service.ErrInvalidTransition):
		Conflict(c, err.Error())
	case errors.As(err, &validationErr):
		BadRequest(c, err.Error())
	default:
		InternalError(c, err.Error())
	}
}

// GetActor 从认证中间件注入的声明构造操作人
func GetActor(c *gin.Context) service.Actor {
	actor := service.Actor{}
	if v, ok := c.Get("user_id"); ok {
		actor.ID, _ = v.(string)
	}
	if v, ok := c.Get("user_name"); ok {
		actor.Name, _ = v.(string)
	}
	if v, ok := c.Get("role"); ok {
		actor.Role, _ = v.(string)
	}
	return actor
}

func GetPagination(c *gin.Context) (page, pageSize int) {
	page = 1
	pageSize = 20

	if p := c.Query("page"); p != "" {
		if v, err := strconv.Atoi(p); err == nil && v > 0 {
			page = v
		}
	}

	if ps := c.Query("page_size"); ps != "" {
		if v, err := strconv.Atoi(ps); err == nil && v > 0 && v <= 100 {
			pageSize = v
		}
	}

	return page, pageSize
}

func ListOf(items interface{}, page, pageSize int, total int64) ListResponse {
	totalPages := int(total) / pageSize
	if int(total)%pageSize > 0 {
		totalPages++
	}
	return ListResponse{
		Items: items,
		Pagination: &Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      int(total),
			TotalPages: totalPages,
		},
	}
}
