// Package orm 定义仓储所依赖的 ORM 适配器契约。
// 仅定义接口，具体实现由业务侧选择并以适配器形式注入；
// 本仓库自带基于 data/db 的最小实现（data/orm/basic）。
package orm

import (
	"context"
	"database/sql"

	"repokit/data/db"
)

// IOrm 表示 ORM 适配器入口。
type IOrm interface {
	// Capabilities 返回适配器支持的能力集合。
	Capabilities() Capabilities
	// Model 返回指定模型的操作入口。
	Model(meta *ModelMeta) IModel
	// Begin 开启事务会话。
	Begin(ctx context.Context) (IOrmSession, error)
	// BeginTx 开启带选项的事务会话。
	BeginTx(ctx context.Context, opts *sql.TxOptions) (IOrmSession, error)
	// Database 返回适配器绑定的通用数据库。
	Database() db.IDatabase
	// ScanRows 把原生查询结果扫描到模型（*T、*[]T 或 *[]*T），
	// 供原生 SQL 透传场景复用适配器的列映射。
	ScanRows(rows db.IRows, dest any) error
	// Raw 返回底层引擎实例，便于特殊场景透传。
	Raw() any
}

// IOrmSession 表示事务会话。
// 一个会话不得被多个逻辑操作并发使用（常规 ORM 纪律）。
type IOrmSession interface {
	IOrm
	Commit() error
	Rollback() error
}

// IModel 封装模型级别的基础操作。
//
// 写操作返回影响行数，供上层实现恢复幂等与批量语义。
type IModel interface {
	Meta() *ModelMeta
	Capabilities() Capabilities

	First(ctx context.Context, dest any, opts ...QueryOption) error
	Find(ctx context.Context, dest any, opts ...QueryOption) error
	Count(ctx context.Context, opts ...QueryOption) (int64, error)

	Create(ctx context.Context, entities ...any) error
	// Save 根据 QueryOptions 执行整体更新，通常结合主键条件。
	Save(ctx context.Context, entity any, opts ...QueryOption) (int64, error)
	UpdateValues(ctx context.Context, values map[string]any, opts ...QueryOption) (int64, error)
	Delete(ctx context.Context, opts ...QueryOption) (int64, error)
}

// Capability 表示适配器可选支持的能力标识。
// 超出能力的调用应由适配器返回明确错误，而非静默降级。
type Capability string

const (
	CapabilityBasicCRUD   Capability = "basic_crud"
	CapabilityQuery       Capability = "query"
	CapabilityPreload     Capability = "preload"
	CapabilityBatchWrite  Capability = "batch_write"
	CapabilityTransaction Capability = "transaction"
)

// Capabilities 以集合形式表达适配器支持的能力。
type Capabilities map[Capability]bool

// Supports 判断是否支持指定能力。
func (c Capabilities) Supports(cap Capability) bool {
	if c == nil {
		return false
	}
	return c[cap]
}

// NewCapabilities 便捷构造能力集合。
func NewCapabilities(caps ...Capability) Capabilities {
	set := make(Capabilities, len(caps))
	for _, cap := range caps {
		set[cap] = true
	}
	return set
}
