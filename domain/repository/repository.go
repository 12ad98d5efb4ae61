// Package repository 定义通用仓储抽象。
//
// 接口按能力拆分：基础 CRUD、规约查询、批量操作、Try 变体，
// 具体实现见 data/orm/repo；领域层只依赖这里的接口。
package repository

import (
	"context"

	"repokit/domain/spec"
)

// IRepository 基础 CRUD 仓储接口。
//
// 约定：
//   - 所有读操作默认过滤已软删除的实体；
//   - Delete 为软删除，物理删除使用 HardDelete；
//   - 时间戳由实现方在写入时统一盖章。
type IRepository[T any, ID comparable] interface {
	// Add 新增实体；ID 缺省时由实现方分配
	Add(ctx context.Context, e *T) error

	// Get 通过 ID 获取未删除的实体
	Get(ctx context.Context, id ID) (*T, error)

	// Update 整体更新实体，推进更新时间戳
	Update(ctx context.Context, e *T) error

	// UpdateFields 按主键部分更新指定列，推进更新时间戳
	UpdateFields(ctx context.Context, id ID, values map[string]any) error

	// Delete 软删除实体
	Delete(ctx context.Context, id ID) error

	// HardDelete 物理删除实体，绕过软删除簿记
	HardDelete(ctx context.Context, id ID) error

	// Restore 恢复软删除的实体；实体已激活时影响行数为 0
	Restore(ctx context.Context, id ID) (int64, error)

	// Exists 检查未删除实体是否存在
	Exists(ctx context.Context, id ID) (bool, error)

	// Count 统计未删除实体总数
	Count(ctx context.Context) (int64, error)

	// List 偏移/限制列表
	List(ctx context.Context, offset, limit int) ([]T, error)
}

// ISpecRepository 规约查询仓储接口（扩展接口）。
//
// 空规约策略：
//   - 列表类方法接受 nil 规约，等价于“无过滤”（返回全部活跃实体）；
//   - 单实体方法要求非 nil 规约，nil 视为参数错误。
type ISpecRepository[T any, ID comparable] interface {
	IRepository[T, ID]

	// GetBySpec 按规约查询单个实体；规约不能为 nil
	GetBySpec(ctx context.Context, s *spec.Specification) (*T, error)

	// GetList 按规约查询列表；nil 规约返回全部活跃实体
	GetList(ctx context.Context, s *spec.Specification) ([]T, error)

	// ListDeleted 查询已软删除的实体
	ListDeleted(ctx context.Context, s *spec.Specification) ([]T, error)

	// ListPage 分页查询，返回结果信封
	ListPage(ctx context.Context, p *spec.PageSpec) (*spec.PagedResult[T], error)

	// CountBySpec 按规约统计
	CountBySpec(ctx context.Context, s *spec.Specification) (int64, error)

	// ExistsBySpec 按规约检查存在性
	ExistsBySpec(ctx context.Context, s *spec.Specification) (bool, error)

	// UpdateBySpec 按规约批量更新指定列，返回影响行数
	UpdateBySpec(ctx context.Context, s *spec.Specification, values map[string]any) (int64, error)

	// DeleteBySpec 按规约批量软删除，返回影响行数
	DeleteBySpec(ctx context.Context, s *spec.Specification) (int64, error)

	// HardDeleteBySpec 按规约批量物理删除，返回影响行数
	HardDeleteBySpec(ctx context.Context, s *spec.Specification) (int64, error)
}

// IBatchOperations 批量操作接口（可选扩展）。
// 批量写在单个事务中执行，任一失败整体回滚。
type IBatchOperations[T any, ID comparable] interface {
	// AddAll 批量新增实体
	AddAll(ctx context.Context, entities []*T) error

	// UpdateAll 批量更新实体
	UpdateAll(ctx context.Context, entities []*T) error

	// DeleteAll 批量软删除
	DeleteAll(ctx context.Context, ids []ID) error
}

// ITryOperations Try 变体接口（可选扩展）。
//
// Try 方法只把“持久化冲突”（唯一键/主键冲突、并发冲突）折算为 false，
// 其余错误原样向上传播，避免把编程错误掩盖成预期失败。
type ITryOperations[T any, ID comparable] interface {
	// TryAdd 尝试新增；冲突时返回 (false, nil)
	TryAdd(ctx context.Context, e *T) (bool, error)

	// TryUpdate 尝试更新；冲突时返回 (false, nil)
	TryUpdate(ctx context.Context, e *T) (bool, error)

	// TryDelete 尝试软删除；实体不存在时返回 (false, nil)
	TryDelete(ctx context.Context, id ID) (bool, error)
}
