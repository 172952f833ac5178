package service

import (
	"errors"
	"fmt"
)

// ==================== 错误分类 ====================

// ErrorKind 业务错误分类，控制器据此映射 HTTP 状态码
type ErrorKind int

const (
	ErrKindValidation ErrorKind = iota + 1 // 参数不合法
	ErrKindNotFound                        // 目标不存在
	ErrKindForbidden                       // 角色/归属不匹配
	ErrKindConflict                        // 与已有数据冲突（重复购买、重复评价、slug 撞车等）
	ErrKindUpstream                        // 支付渠道报错或非成功状态
)

// ServiceError 业务错误
type ServiceError struct {
	Kind    ErrorKind
	Message string
	Err     error // 底层错误，仅日志用
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// ==================== 构造函数 ====================

// ErrValidation 参数错误
func ErrValidation(message string) *ServiceError {
	return &ServiceError{Kind: ErrKindValidation, Message: message}
}

// ErrNotFound 目标不存在
func ErrNotFound(message string) *ServiceError {
	return &ServiceError{Kind: ErrKindNotFound, Message: message}
}

// ErrForbidden 无权操作
func ErrForbidden(message string) *ServiceError {
	return &ServiceError{Kind: ErrKindForbidden, Message: message}
}

// ErrConflict 数据冲突
func ErrConflict(message string) *ServiceError {
	return &ServiceError{Kind: ErrKindConflict, Message: message}
}

// ErrUpstream 上游渠道错误
func ErrUpstream(message string, cause error) *ServiceError {
	return &ServiceError{Kind: ErrKindUpstream, Message: message, Err: cause}
}

// ==================== 判别 ====================

// KindOf 取错误分类，非业务错误返回 0
func KindOf(err error) ErrorKind {
	var se *ServiceError
	if errors.As(err, &se) {
		return se.Kind
	}
	return 0
}
