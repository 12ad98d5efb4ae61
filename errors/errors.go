// Package errors 提供统一的错误类型与错误码体系。
//
// 设计原则：
// 1. 错误携带稳定的错误码，便于调用方做分类处理
// 2. 支持包装原始错误（errors.Is / errors.Unwrap 兼容）
// 3. 创建时捕获调用栈，便于排障
package errors

import (
	stdErrors "errors"
	"fmt"
	"runtime"
	"strings"
)

// ErrorCode 错误代码类型
type ErrorCode string

// 预定义错误代码
const (
	// 通用错误代码
	ErrCodeInternal     ErrorCode = "INTERNAL_ERROR"
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	ErrCodeInvalidState ErrorCode = "INVALID_STATE"
	ErrCodeNotFound     ErrorCode = "NOT_FOUND"
	ErrCodeConflict     ErrorCode = "CONFLICT"
	ErrCodeCanceled     ErrorCode = "CANCELED"

	// 业务错误代码
	ErrCodeValidation ErrorCode = "VALIDATION_ERROR"
	ErrCodeDuplicate  ErrorCode = "DUPLICATE_ERROR"

	// 基础设施错误代码
	ErrCodeDatabase   ErrorCode = "DATABASE_ERROR"
	ErrCodeCache      ErrorCode = "CACHE_ERROR"
	ErrCodePublish    ErrorCode = "PUBLISH_ERROR"
	ErrCodeDependency ErrorCode = "DEPENDENCY_ERROR"
)

// IError 错误接口
type IError interface {
	error

	// Code 获取错误代码
	Code() ErrorCode

	// Message 获取错误消息
	Message() string

	// Cause 获取原始错误
	Cause() error

	// Stack 获取堆栈信息
	Stack() string

	// WithContext 附加上下文信息
	WithContext(key string, value any) IError
}

// AppError 应用错误实现
type AppError struct {
	code    ErrorCode
	message string
	cause   error
	details map[string]any
	stack   string
}

// NewError 创建新错误
func NewError(code ErrorCode, message string) IError {
	return &AppError{
		code:    code,
		message: message,
		stack:   captureStack(),
	}
}

// WrapError 包装错误；err 为 nil 时返回 nil
func WrapError(err error, code ErrorCode, message string) IError {
	if err == nil {
		return nil
	}
	return &AppError{
		code:    code,
		message: message,
		cause:   err,
		stack:   captureStack(),
	}
}

// Error 实现 error 接口
func (e *AppError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.code, e.message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.code, e.message)
}

// Code 获取错误代码
func (e *AppError) Code() ErrorCode { return e.code }

// Message 获取错误消息
func (e *AppError) Message() string { return e.message }

// Cause 获取原始错误
func (e *AppError) Cause() error { return e.cause }

// Stack 获取堆栈信息
func (e *AppError) Stack() string { return e.stack }

// Is 按错误码比较，同时兼容对 cause 链的比较
func (e *AppError) Is(target error) bool {
	if target == nil {
		return false
	}
	if appErr, ok := target.(*AppError); ok {
		return e.code == appErr.code
	}
	if e.cause != nil {
		return stdErrors.Is(e.cause, target)
	}
	return false
}

// Unwrap 解包错误（支持 errors.Unwrap）
func (e *AppError) Unwrap() error { return e.cause }

// WithContext 附加上下文信息
func (e *AppError) WithContext(key string, value any) IError {
	details := make(map[string]any, len(e.details)+1)
	for k, v := range e.details {
		details[k] = v
	}
	details[key] = value
	return &AppError{
		code:    e.code,
		message: e.message,
		cause:   e.cause,
		details: details,
		stack:   e.stack,
	}
}

// IsErrorCode 检查是否为指定错误代码
func IsErrorCode(err error, code ErrorCode) bool {
	if err == nil {
		return false
	}
	var appErr *AppError
	if stdErrors.As(err, &appErr) {
		return appErr.code == code
	}
	return false
}

// IsNotFound 检查是否为未找到错误
func IsNotFound(err error) bool { return IsErrorCode(err, ErrCodeNotFound) }

// IsInvalidInput 检查是否为参数错误
func IsInvalidInput(err error) bool { return IsErrorCode(err, ErrCodeInvalidInput) }

// IsInvalidState 检查是否为状态错误
func IsInvalidState(err error) bool { return IsErrorCode(err, ErrCodeInvalidState) }

// IsConflict 检查是否为冲突类错误（唯一键冲突/并发冲突）
func IsConflict(err error) bool {
	return IsErrorCode(err, ErrCodeConflict) || IsErrorCode(err, ErrCodeDuplicate)
}

// IsValidation 检查是否为验证错误
func IsValidation(err error) bool { return IsErrorCode(err, ErrCodeValidation) }

// captureStack 捕获调用栈（跳过本包内部帧）
func captureStack() string {
	const depth = 16
	var pcs [depth]uintptr
	n := runtime.Callers(3, pcs[:])
	frames := runtime.CallersFrames(pcs[:n])

	var sb strings.Builder
	for {
		frame, more := frames.Next()
		if frame.Function == "" {
			break
		}
		sb.WriteString(fmt.Sprintf("%s\n\t%s:%d\n", frame.Function, frame.File, frame.Line))
		if !more {
			break
		}
	}
	return sb.String()
}
