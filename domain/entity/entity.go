// Package entity 定义持久化实体的核心接口体系。
//
// 设计原则：
// 1. 接口最小化 - 每个接口只包含必需的方法
// 2. 组合优于继承 - 通过接口组合构建复杂类型
// 3. 泛型支持 - 提供类型安全的 ID 类型
//
// 生命周期字段（创建/更新/删除时间戳）由仓储统一写入，
// 实体只暴露 Get/Set 访问器，不自行打时间戳。
package entity

import "time"

// IObject 最基础的对象接口，所有实体的根接口
// 使用泛型支持不同的 ID 类型（int64、string 等）
type IObject[ID comparable] interface {
	// GetID 返回对象的唯一标识
	GetID() ID
}

// IMutableObject 可写 ID 的对象接口
// 仓储在插入时为缺省 ID 的实体分配标识，需要通过 SetID 回填
type IMutableObject[ID comparable] interface {
	IObject[ID]

	// SetID 设置对象标识（由基础设施层调用）
	SetID(id ID)
}

// IStamped 生命周期时间戳接口
// 创建时间只在首次插入时写入一次，更新时间随每次修改推进
type IStamped interface {
	GetCreatedAt() time.Time
	GetUpdatedAt() time.Time

	// 设置时间戳（由基础设施层调用）
	SetCreatedAt(at time.Time)
	SetUpdatedAt(at time.Time)
}

// ISoftDeletable 软删除接口
// 实现此接口的实体支持逻辑删除而非物理删除
//
// 不变式：IsDeleted() == true 当且仅当 GetDeletedAt() != nil，
// MarkDeleted / Restore 必须原子地同时变更标志位与删除时间。
type ISoftDeletable interface {
	// IsDeleted 判断是否已删除
	IsDeleted() bool

	// GetDeletedAt 返回删除时间，nil 表示未删除
	GetDeletedAt() *time.Time

	// MarkDeleted 执行软删除
	MarkDeleted(at time.Time) error

	// Restore 恢复已删除的实体
	Restore() error
}

// IValidatable 可验证接口
type IValidatable interface {
	// Validate 验证实体状态是否有效
	Validate() error
}

// IPersistable 可持久化实体的完整契约
// 仓储要求实体（的指针类型）实现本接口
type IPersistable[ID comparable] interface {
	IMutableObject[ID]
	IStamped
	ISoftDeletable
	IValidatable
}

// Entity 通用实体字段（用于嵌入），默认使用 int64 作为主键类型
type Entity struct {
	ID        int64      `json:"id" db:"id" gorm:"primaryKey"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
	Deleted   bool       `json:"deleted" db:"deleted"`
	DeletedAt *time.Time `json:"deleted_at,omitempty" db:"deleted_at"`
}

// GetID 实现 IObject 接口
func (e *Entity) GetID() int64 { return e.ID }

// SetID 实现 IMutableObject 接口
func (e *Entity) SetID(id int64) { e.ID = id }

func (e *Entity) GetCreatedAt() time.Time   { return e.CreatedAt }
func (e *Entity) GetUpdatedAt() time.Time   { return e.UpdatedAt }
func (e *Entity) SetCreatedAt(at time.Time) { e.CreatedAt = at }
func (e *Entity) SetUpdatedAt(at time.Time) { e.UpdatedAt = at }

// IsDeleted 实现 ISoftDeletable 接口
func (e *Entity) IsDeleted() bool { return e.Deleted }

// GetDeletedAt 实现 ISoftDeletable 接口
func (e *Entity) GetDeletedAt() *time.Time { return e.DeletedAt }

// MarkDeleted 实现 ISoftDeletable 接口
// 标志位与删除时间一起写入，保证软删不变式
func (e *Entity) MarkDeleted(at time.Time) error {
	if e.Deleted {
		return ErrAlreadyDeleted
	}
	e.Deleted = true
	e.DeletedAt = &at
	return nil
}

// Restore 实现 ISoftDeletable 接口
func (e *Entity) Restore() error {
	if !e.Deleted {
		return ErrNotDeleted
	}
	e.Deleted = false
	e.DeletedAt = nil
	return nil
}

// Validate 默认实现为空校验，业务实体可覆盖
func (e *Entity) Validate() error { return nil }

// StringEntity 字符串主键实体字段（用于嵌入）
// 适用于 UUID 等仓储侧生成的字符串标识
type StringEntity struct {
	ID        string     `json:"id" db:"id" gorm:"primaryKey"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
	Deleted   bool       `json:"deleted" db:"deleted"`
	DeletedAt *time.Time `json:"deleted_at,omitempty" db:"deleted_at"`
}

func (e *StringEntity) GetID() string   { return e.ID }
func (e *StringEntity) SetID(id string) { e.ID = id }

func (e *StringEntity) GetCreatedAt() time.Time   { return e.CreatedAt }
func (e *StringEntity) GetUpdatedAt() time.Time   { return e.UpdatedAt }
func (e *StringEntity) SetCreatedAt(at time.Time) { e.CreatedAt = at }
func (e *StringEntity) SetUpdatedAt(at time.Time) { e.UpdatedAt = at }

func (e *StringEntity) IsDeleted() bool          { return e.Deleted }
func (e *StringEntity) GetDeletedAt() *time.Time { return e.DeletedAt }

func (e *StringEntity) MarkDeleted(at time.Time) error {
	if e.Deleted {
		return ErrAlreadyDeleted
	}
	e.Deleted = true
	e.DeletedAt = &at
	return nil
}

func (e *StringEntity) Restore() error {
	if !e.Deleted {
		return ErrNotDeleted
	}
	e.Deleted = false
	e.DeletedAt = nil
	return nil
}

func (e *StringEntity) Validate() error { return nil }

// 常见错误
var (
	ErrAlreadyDeleted = &EntityError{Code: "ALREADY_DELETED", Message: "entity is already deleted"}
	ErrNotDeleted     = &EntityError{Code: "NOT_DELETED", Message: "entity is not deleted"}
)

// EntityError 实体错误
type EntityError struct {
	Code    string
	Message string
}

func (e *EntityError) Error() string {
	return e.Code + ": " + e.Message
}
