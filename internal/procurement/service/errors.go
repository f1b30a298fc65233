package service

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidTransition 当前状态不允许此操作
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrForbidden 操作者角色无此权限
	ErrForbidden = errors.New("operation not allowed for role")
)

// ValidationError 请求数据校验失败
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func newValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// TransitionError 状态流转错误,带上下文
type TransitionError struct {
	Entity string
	From   string
	Action string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s in status %q does not allow %s", e.Entity, e.From, e.Action)
}

func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}
