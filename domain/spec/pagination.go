package spec

import (
	"fmt"

	"repokit/errors"
)

// PageSpec 分页规约：在过滤规约基础上增加页码与页大小。
// Page 从 1 开始计数，Size 必须为正整数。
type PageSpec struct {
	*Specification

	Page int
	Size int
}

// NewPage 创建分页规约（携带空过滤规约）。
func NewPage(page, size int) *PageSpec {
	return &PageSpec{
		Specification: New(),
		Page:          page,
		Size:          size,
	}
}

// WithSpec 替换分页规约携带的过滤规约。
func (p *PageSpec) WithSpec(s *Specification) *PageSpec {
	p.Specification = s
	return p
}

// Validate 在查询执行前校验分页参数。
// Page < 1 或 Size < 1 是致命的输入错误，直接拒绝。
func (p *PageSpec) Validate() error {
	if p == nil {
		return errors.NewError(errors.ErrCodeInvalidInput, "page spec cannot be nil")
	}
	if p.Page < 1 {
		return errors.NewError(errors.ErrCodeInvalidInput,
			fmt.Sprintf("page index must be >= 1 (got %d)", p.Page))
	}
	if p.Size < 1 {
		return errors.NewError(errors.ErrCodeInvalidInput,
			fmt.Sprintf("page size must be >= 1 (got %d)", p.Size))
	}
	return nil
}

// Offset 返回分页偏移量：(Page-1)*Size。
func (p *PageSpec) Offset() int {
	return (p.Page - 1) * p.Size
}

// PagedResult 分页结果信封。
// Total 为忽略分页的总行数，TotalPages = ceil(Total / Size)。
type PagedResult[T any] struct {
	Items      []*T  `json:"items"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Size       int   `json:"size"`
	TotalPages int   `json:"total_pages"`
}

// TotalPages 计算总页数（向上取整）。
func TotalPages(total int64, size int) int {
	if size <= 0 {
		return 0
	}
	return int((total + int64(size) - 1) / int64(size))
}
