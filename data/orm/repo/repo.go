// Package repo 提供面向 IOrm 的泛型仓储实现。
//
// Repo[T, ID] 在构造时一次性捕获实体访问器（ID 读写、时间戳、
// 软删除、校验），之后的读写路径不再做逐次反射探测。
//
// 统一约定：
//   - 读路径默认过滤已软删除的行；
//   - 生命周期时间戳一律由仓储写入；
//   - 软删除簿记（deleted / deleted_at）只通过删除与恢复操作变更。
package repo

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"repokit/data/db/dialect"
	"repokit/data/orm"
	"repokit/domain/entity"
	"repokit/domain/spec"
	"repokit/errors"
	"repokit/idgen"
	"repokit/logging"
	"repokit/notify"
)

// 生命周期列名约定，与 entity.Entity 的标签保持一致。
const (
	columnID        = "id"
	columnCreatedAt = "created_at"
	columnUpdatedAt = "updated_at"
	columnDeleted   = "deleted"
	columnDeletedAt = "deleted_at"
)

// accessors 构造期捕获的实体访问器集合。
// 软删除与校验能力按实体实际实现的接口按需捕获，未实现时为 nil。
type accessors[T any, ID comparable] struct {
	getID func(*T) ID
	setID func(*T, ID)

	setCreatedAt func(*T, time.Time)
	setUpdatedAt func(*T, time.Time)
	getUpdatedAt func(*T) time.Time

	isDeleted   func(*T) bool
	markDeleted func(*T, time.Time) error
	restore     func(*T) error

	validate func(*T) error

	stamped bool
	soft    bool
}

// captureAccessors 探测 *T 实现的实体接口并生成访问闭包。
// *T 至少要实现 IMutableObject[ID]，否则仓储无法定位与回填主键。
func captureAccessors[T any, ID comparable]() (accessors[T, ID], error) {
	var acc accessors[T, ID]
	var probe T

	if _, ok := any(&probe).(entity.IMutableObject[ID]); !ok {
		return acc, errors.NewError(errors.ErrCodeInvalidInput,
			fmt.Sprintf("*%T must implement entity.IMutableObject[%T id]", probe, *new(ID)))
	}
	acc.getID = func(e *T) ID { return any(e).(entity.IObject[ID]).GetID() }
	acc.setID = func(e *T, id ID) { any(e).(entity.IMutableObject[ID]).SetID(id) }

	if _, ok := any(&probe).(entity.IStamped); ok {
		acc.stamped = true
		acc.setCreatedAt = func(e *T, at time.Time) { any(e).(entity.IStamped).SetCreatedAt(at) }
		acc.setUpdatedAt = func(e *T, at time.Time) { any(e).(entity.IStamped).SetUpdatedAt(at) }
		acc.getUpdatedAt = func(e *T) time.Time { return any(e).(entity.IStamped).GetUpdatedAt() }
	}

	if _, ok := any(&probe).(entity.ISoftDeletable); ok {
		acc.soft = true
		acc.isDeleted = func(e *T) bool { return any(e).(entity.ISoftDeletable).IsDeleted() }
		acc.markDeleted = func(e *T, at time.Time) error {
			return any(e).(entity.ISoftDeletable).MarkDeleted(at)
		}
		acc.restore = func(e *T) error { return any(e).(entity.ISoftDeletable).Restore() }
	}

	if _, ok := any(&probe).(entity.IValidatable); ok {
		acc.validate = func(e *T) error { return any(e).(entity.IValidatable).Validate() }
	}

	return acc, nil
}

// Repo 泛型仓储。
// 实现 repository.ISpecRepository、IBatchOperations 与 ITryOperations。
type Repo[T any, ID comparable] struct {
	orm     orm.IOrm
	model   orm.IModel
	meta    *orm.ModelMeta
	dialect dialect.Dialect
	acc     accessors[T, ID]

	name      string
	table     string
	logger    logging.Logger
	publisher notify.IPublisher
	generator idgen.Func[ID]
	now       func() time.Time
	stamp     *stampState
}

// stampState 仓储级时间戳水位，事务会话副本共享同一实例。
// 更新路径经由 advance 取值，保证同一仓储写出的更新时间严格递增，
// 时钟冻结或回拨时以水位加一毫秒兜底。
type stampState struct {
	mu   sync.Mutex
	last time.Time
}

// observe 抬高水位但不推进，创建路径使用。
func (s *stampState) observe(at time.Time) {
	s.mu.Lock()
	if at.After(s.last) {
		s.last = at
	}
	s.mu.Unlock()
}

// advance 产生严格晚于水位与 floor 的时间戳并推进水位。
func (s *stampState) advance(now, floor time.Time) time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	at := now
	if !at.After(s.last) {
		at = s.last.Add(time.Millisecond)
	}
	if !at.After(floor) {
		at = floor.Add(time.Millisecond)
	}
	s.last = at
	return at
}

// Option 配置 Repo。
type Option[T any, ID comparable] func(*Repo[T, ID])

// WithTable 显式指定表名，覆盖 TableName() 与类型名推断。
func WithTable[T any, ID comparable](table string) Option[T, ID] {
	return func(r *Repo[T, ID]) {
		if table != "" {
			r.table = table
		}
	}
}

// WithLogger 指定日志器，默认使用全局日志器。
func WithLogger[T any, ID comparable](logger logging.Logger) Option[T, ID] {
	return func(r *Repo[T, ID]) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithPublisher 指定变更事件发布者，默认不发布。
func WithPublisher[T any, ID comparable](publisher notify.IPublisher) Option[T, ID] {
	return func(r *Repo[T, ID]) {
		if publisher != nil {
			r.publisher = publisher
		}
	}
}

// WithIDGenerator 指定主键生成函数。
// 未配置时，插入零值主键交给数据库自增。
func WithIDGenerator[T any, ID comparable](generator idgen.Func[ID]) Option[T, ID] {
	return func(r *Repo[T, ID]) { r.generator = generator }
}

// WithClock 指定时间源，测试用。
func WithClock[T any, ID comparable](now func() time.Time) Option[T, ID] {
	return func(r *Repo[T, ID]) {
		if now != nil {
			r.now = now
		}
	}
}

// NewRepo 创建泛型仓储。
//
// 表名解析顺序：WithTable 选项 > T 的 TableName() 方法 > 类型名蛇形复数。
func NewRepo[T any, ID comparable](o orm.IOrm, opts ...Option[T, ID]) (*Repo[T, ID], error) {
	if o == nil {
		return nil, errors.NewError(errors.ErrCodeInvalidInput, "orm cannot be nil")
	}

	acc, err := captureAccessors[T, ID]()
	if err != nil {
		return nil, err
	}

	r := &Repo[T, ID]{
		orm:       o,
		dialect:   dialect.FromDatabase(o.Database()),
		acc:       acc,
		name:      entityName[T](),
		logger:    logging.GetLogger(),
		publisher: notify.NoopPublisher{},
		now:       func() time.Time { return time.Now().UTC() },
		stamp:     &stampState{},
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.table == "" {
		r.table = defaultTableName[T]()
	}

	r.meta = &orm.ModelMeta{Model: new(T), Table: r.table}
	r.model = o.Model(r.meta)
	return r, nil
}

// MustNewRepo 与 NewRepo 相同，失败时 panic。用于启动期装配。
func MustNewRepo[T any, ID comparable](o orm.IOrm, opts ...Option[T, ID]) *Repo[T, ID] {
	r, err := NewRepo[T, ID](o, opts...)
	if err != nil {
		panic(err)
	}
	return r
}

// Orm 返回底层 ORM 适配器。
func (r *Repo[T, ID]) Orm() orm.IOrm { return r.orm }

// Table 返回仓储绑定的表名。
func (r *Repo[T, ID]) Table() string { return r.table }

// EntityName 返回实体名（蛇形），用于日志与变更事件。
func (r *Repo[T, ID]) EntityName() string { return r.name }

// EntityID 返回实体主键，供装饰器等外层使用。
func (r *Repo[T, ID]) EntityID(e *T) ID { return r.acc.getID(e) }

// SoftDeleteEnabled 返回实体是否支持软删除。
func (r *Repo[T, ID]) SoftDeleteEnabled() bool { return r.acc.soft }

// withSession 返回绑定到指定 ORM 会话的仓储副本，其余配置共享。
func (r *Repo[T, ID]) withSession(o orm.IOrm) *Repo[T, ID] {
	clone := *r
	clone.orm = o
	clone.meta = &orm.ModelMeta{Model: new(T), Table: r.table}
	clone.model = o.Model(clone.meta)
	return &clone
}

// deletedFilter 读写路径的软删除过滤策略。
type deletedFilter int

const (
	filterActive  deletedFilter = iota // 只看活跃行
	filterDeleted                      // 只看已软删行
	filterAll                          // 不过滤
)

// buildOptions 把规约翻译为适配器查询选项。
// 软删除过滤条件始终先于调用方条件拼接。
func (r *Repo[T, ID]) buildOptions(s *spec.Specification, filter deletedFilter) []orm.QueryOption {
	var opts []orm.QueryOption

	if r.acc.soft {
		switch filter {
		case filterActive:
			opts = append(opts, orm.WithWhere(columnDeleted+" = ?", false))
		case filterDeleted:
			opts = append(opts, orm.WithWhere(columnDeleted+" = ?", true))
		}
	}

	for _, cond := range s.Conditions() {
		opts = append(opts, orm.WithWhere(cond.Expr, cond.Args...))
	}
	for _, order := range s.Orders() {
		opts = append(opts, orm.WithOrderBy(order.Column, order.Desc))
	}
	if includes := s.Includes(); len(includes) > 0 {
		opts = append(opts, orm.WithPreload(includes...))
	}
	return opts
}

// idCondition 主键等值条件。
func (r *Repo[T, ID]) idCondition(id ID) orm.QueryOption {
	return orm.WithWhere(columnID+" = ?", id)
}

// ensureWhere 为批量写兜底：无任何条件时补恒真条件，
// 使“nil 规约 = 全量”语义通过适配器的无条件写保护。
func ensureWhere(opts []orm.QueryOption) []orm.QueryOption {
	collected := orm.CollectQueryOptions(opts...)
	if len(collected.Where) == 0 {
		return append(opts, orm.WithWhere("1 = 1"))
	}
	return opts
}

// validateEntity 运行实体自校验，未编码的错误统一折算为校验错误。
func (r *Repo[T, ID]) validateEntity(e *T) error {
	if r.acc.validate == nil {
		return nil
	}
	if err := r.acc.validate(e); err != nil {
		if _, ok := err.(errors.IError); ok {
			return err
		}
		return errors.WrapError(err, errors.ErrCodeValidation,
			fmt.Sprintf("%s validation failed", r.name))
	}
	return nil
}

// ensureID 为零值主键分配新 ID。
func (r *Repo[T, ID]) ensureID(e *T) error {
	if r.generator == nil {
		return nil
	}
	var zero ID
	if r.acc.getID(e) != zero {
		return nil
	}
	id, err := r.generator()
	if err != nil {
		return errors.WrapError(err, errors.ErrCodeInternal, "generate entity id")
	}
	r.acc.setID(e, id)
	return nil
}

// stampCreate 写入创建期时间戳（创建与更新时间同值），并抬高水位。
func (r *Repo[T, ID]) stampCreate(e *T, at time.Time) {
	if r.acc.stamped {
		r.stamp.observe(at)
		r.acc.setCreatedAt(e, at)
		r.acc.setUpdatedAt(e, at)
	}
}

// stampUpdate 推进更新时间戳，保证严格晚于实体当前值与仓储水位。
func (r *Repo[T, ID]) stampUpdate(e *T) time.Time {
	if !r.acc.stamped {
		return r.now()
	}
	at := r.stamp.advance(r.now(), r.acc.getUpdatedAt(e))
	r.acc.setUpdatedAt(e, at)
	return at
}

// advanceStamp 为按列更新与软删除簿记产生严格递增的时间戳。
// 这些路径拿不到实体的旧值，靠仓储水位保证单调。
func (r *Repo[T, ID]) advanceStamp() time.Time {
	return r.stamp.advance(r.now(), time.Time{})
}

// publish 发布变更事件，失败只告警不影响主流程。
func (r *Repo[T, ID]) publish(ctx context.Context, action notify.Action, id ID) {
	event := notify.NewChangeEvent(r.name, action, id)
	if err := r.publisher.Publish(ctx, event); err != nil {
		r.logger.Warn(ctx, "publish change event failed",
			logging.String("entity", r.name),
			logging.String("action", string(action)),
			logging.Error(err))
	}
}

// notFound 单实体查询未命中的标准错误。
func (r *Repo[T, ID]) notFound(id any) error {
	return errors.NewError(errors.ErrCodeNotFound,
		fmt.Sprintf("%s not found: %v", r.name, id))
}

// wrapWrite 写路径错误折算：唯一键冲突编码为重复错误，其余走数据库错误包装。
func (r *Repo[T, ID]) wrapWrite(ctx context.Context, err error, operation string) error {
	if err == nil {
		return nil
	}
	if r.dialect.IsUniqueViolation(err) {
		return errors.WrapError(err, errors.ErrCodeDuplicate,
			fmt.Sprintf("%s %s: unique constraint violated", r.name, operation))
	}
	return errors.WrapDbError(ctx, err, r.name+" "+operation)
}

// entityName 实体类型名（蛇形）。
func entityName[T any]() string {
	t := reflect.TypeOf(new(T)).Elem()
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return toSnakeCase(t.Name())
}

// defaultTableName 默认表名：TableName() 方法优先，否则类型名蛇形加复数 s。
func defaultTableName[T any]() string {
	probe := any(new(T))
	if tn, ok := probe.(interface{ TableName() string }); ok {
		if name := tn.TableName(); name != "" {
			return name
		}
	}
	name := entityName[T]()
	if !strings.HasSuffix(name, "s") {
		name += "s"
	}
	return name
}

func toSnakeCase(name string) string {
	var sb strings.Builder
	sb.Grow(len(name) + 4)
	for i, r := range name {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				prev := name[i-1]
				nextLower := i+1 < len(name) && name[i+1] >= 'a' && name[i+1] <= 'z'
				if (prev >= 'a' && prev <= 'z') || (prev >= '0' && prev <= '9') ||
					(prev >= 'A' && prev <= 'Z' && nextLower) {
					sb.WriteByte('_')
				}
			}
			sb.WriteByte(byte(r) + ('a' - 'A'))
		} else {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
