// Package validation 提供实体校验的辅助函数。
// 仓储在写入前调用实体的 Validate 方法，实体实现可组合这里的帮助函数。
package validation

import (
	"fmt"
	"strings"

	"repokit/errors"
)

// IValidator 定义通用验证器接口
type IValidator interface {
	Validate(value any) error
}

// NoopValidator 默认验证器，实现为空操作
type NoopValidator struct{}

// Validate 实现 IValidator 接口
func (NoopValidator) Validate(value any) error { return nil }

// ValidateRequired 验证必填字段
func ValidateRequired(value, fieldName string) error {
	if strings.TrimSpace(value) == "" {
		return errors.NewError(errors.ErrCodeValidation,
			fmt.Sprintf("%s cannot be empty", fieldName))
	}
	return nil
}

// ValidateStringLength 验证字符串长度；max <= 0 表示不限制上限
func ValidateStringLength(value, fieldName string, min, max int) error {
	length := len(value)
	if length < min {
		return errors.NewError(errors.ErrCodeValidation,
			fmt.Sprintf("%s must be at least %d characters (got %d)", fieldName, min, length))
	}
	if max > 0 && length > max {
		return errors.NewError(errors.ErrCodeValidation,
			fmt.Sprintf("%s must be at most %d characters (got %d)", fieldName, max, length))
	}
	return nil
}

// ValidatePositive 验证正数
func ValidatePositive(value int, fieldName string) error {
	if value <= 0 {
		return errors.NewError(errors.ErrCodeValidation,
			fmt.Sprintf("%s must be positive (got %d)", fieldName, value))
	}
	return nil
}
