package basic

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"repokit/data/db/sqlb"
	"repokit/data/orm"
)

// model 实现 orm.IModel。
type model struct {
	orm   *Orm
	meta  *orm.ModelMeta
	table string
}

func (m *model) Meta() *orm.ModelMeta { return m.meta }

func (m *model) Capabilities() orm.Capabilities { return m.orm.caps }

// collect 聚合查询选项并做能力校验。
func (m *model) collect(opts []orm.QueryOption) (orm.QueryOptions, error) {
	o := orm.CollectQueryOptions(opts...)
	if len(o.Preload) > 0 && !m.orm.caps.Supports(orm.CapabilityPreload) {
		return o, fmt.Errorf("%w: preload %v", orm.ErrUnsupported, o.Preload)
	}
	return o, nil
}

// selectColumns 校验并引用返回列，空列表退化为 *。
func (m *model) selectColumns(o orm.QueryOptions) ([]string, error) {
	if len(o.Select) == 0 {
		return []string{"*"}, nil
	}
	cols := make([]string, 0, len(o.Select))
	for _, c := range o.Select {
		if !m.meta.HasColumn(c) {
			return nil, fmt.Errorf("basic: unknown select column %q", c)
		}
		cols = append(cols, m.orm.dialect.QuoteIdentifier(c))
	}
	return cols, nil
}

// orderByExpr 把排序选项转换为 ORDER BY 表达式。
func (m *model) orderByExpr(o orm.QueryOptions) (string, error) {
	if len(o.OrderBy) == 0 {
		return "", nil
	}
	parts := make([]string, 0, len(o.OrderBy))
	for _, ob := range o.OrderBy {
		if !m.meta.HasColumn(ob.Column) {
			return "", fmt.Errorf("basic: unknown order column %q", ob.Column)
		}
		expr := m.orm.dialect.QuoteIdentifier(ob.Column)
		if ob.Desc {
			expr += " DESC"
		}
		parts = append(parts, expr)
	}
	return strings.Join(parts, ", "), nil
}

func (m *model) buildSelect(cols []string, o orm.QueryOptions) (sqlb.ISelectBuilder, error) {
	b := m.orm.sql.Select(cols...).From(m.table)
	for _, cond := range o.Where {
		b = b.Where(cond.Expr, cond.Args...)
	}
	orderBy, err := m.orderByExpr(o)
	if err != nil {
		return nil, err
	}
	if orderBy != "" {
		b = b.OrderBy(orderBy)
	}
	if o.Limit > 0 {
		b = b.Limit(o.Limit)
	}
	if o.Offset > 0 {
		b = b.Offset(o.Offset)
	}
	return b, nil
}

// First 查询首条记录，未找到返回 orm.ErrNotFound。
func (m *model) First(ctx context.Context, dest any, opts ...orm.QueryOption) error {
	o, err := m.collect(opts)
	if err != nil {
		return err
	}
	o.Limit = 1
	o.Offset = 0

	cols, err := m.selectColumns(o)
	if err != nil {
		return err
	}
	b, err := m.buildSelect(cols, o)
	if err != nil {
		return err
	}
	rows, err := b.Query(ctx)
	if err != nil {
		return err
	}
	defer rows.Close()

	found, err := m.orm.scanRowsInto(rows, dest)
	if err != nil {
		return err
	}
	if !found {
		return orm.ErrNotFound
	}
	return nil
}

// Find 查询多条记录，dest 为 *[]T 或 *[]*T；无结果时得到空切片。
func (m *model) Find(ctx context.Context, dest any, opts ...orm.QueryOption) error {
	o, err := m.collect(opts)
	if err != nil {
		return err
	}
	cols, err := m.selectColumns(o)
	if err != nil {
		return err
	}
	b, err := m.buildSelect(cols, o)
	if err != nil {
		return err
	}
	rows, err := b.Query(ctx)
	if err != nil {
		return err
	}
	defer rows.Close()

	_, err = m.orm.scanRowsInto(rows, dest)
	return err
}

// Count 统计满足条件的记录数。
func (m *model) Count(ctx context.Context, opts ...orm.QueryOption) (int64, error) {
	o, err := m.collect(opts)
	if err != nil {
		return 0, err
	}
	// 统计不关心排序与分页。
	o.OrderBy = nil
	o.Limit = 0
	o.Offset = 0

	b, err := m.buildSelect([]string{"COUNT(*)"}, o)
	if err != nil {
		return 0, err
	}
	var total int64
	if err := b.QueryRow(ctx).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

// Create 插入一条或多条记录（单条语句多值行）。
//
// 主键列的取舍以首条记录为准：主键值非零则写入显式主键，
// 否则整批交给数据库自增，单条插入时尽力回填自增主键。
func (m *model) Create(ctx context.Context, entities ...any) error {
	if len(entities) == 0 {
		return nil
	}

	sm := m.orm.structMetaForValue(entities[0])
	if sm == nil {
		return fmt.Errorf("basic: entity must be a struct, got %T", entities[0])
	}

	includePK := true
	if sm.pk != nil {
		v := reflect.ValueOf(entities[0])
		for v.Kind() == reflect.Pointer {
			v = v.Elem()
		}
		includePK = !fieldByIndex(v, sm.pk.Index).IsZero()
	}

	columns := make([]string, 0, len(sm.fields))
	fields := make([]*fieldMeta, 0, len(sm.fields))
	for i := range sm.fields {
		f := &sm.fields[i]
		if f.PrimaryKey && !includePK {
			continue
		}
		columns = append(columns, f.Column)
		fields = append(fields, f)
	}

	b := m.orm.sql.InsertInto(m.table).Columns(columns...)
	for _, entity := range entities {
		v := reflect.ValueOf(entity)
		for v.Kind() == reflect.Pointer {
			v = v.Elem()
		}
		if v.Type() != sm.typ {
			return fmt.Errorf("basic: mixed entity types in Create: %s vs %s", v.Type(), sm.typ)
		}
		// 整批主键取舍必须一致：零值与显式主键混批会丢数据
		if sm.pk != nil {
			if hasPK := !fieldByIndex(v, sm.pk.Index).IsZero(); hasPK != includePK {
				return fmt.Errorf("basic: mixed primary key presence in Create batch")
			}
		}
		vals := make([]any, 0, len(fields))
		for _, f := range fields {
			vals = append(vals, fieldByIndex(v, f.Index).Interface())
		}
		b = b.Values(vals...)
	}

	result, err := b.Exec(ctx)
	if err != nil {
		return err
	}

	// 自增主键回填仅对单条插入可靠。
	if !includePK && len(entities) == 1 && sm.pk != nil {
		if id, err := result.LastInsertId(); err == nil && id > 0 {
			v := reflect.ValueOf(entities[0])
			for v.Kind() == reflect.Pointer {
				v = v.Elem()
			}
			pkField := fieldByIndex(v, sm.pk.Index)
			if pkField.CanSet() && pkField.Kind() >= reflect.Int && pkField.Kind() <= reflect.Int64 {
				pkField.SetInt(id)
			}
		}
	}
	return nil
}

// Save 整体更新一条记录的全部非主键列。
// 无显式条件时按主键匹配，主键缺失返回错误。
func (m *model) Save(ctx context.Context, entity any, opts ...orm.QueryOption) (int64, error) {
	o, err := m.collect(opts)
	if err != nil {
		return 0, err
	}

	sm := m.orm.structMetaForValue(entity)
	if sm == nil {
		return 0, fmt.Errorf("basic: entity must be a struct, got %T", entity)
	}
	v := reflect.ValueOf(entity)
	for v.Kind() == reflect.Pointer {
		v = v.Elem()
	}

	b := m.orm.sql.Update(m.table)
	for i := range sm.fields {
		f := &sm.fields[i]
		if f.PrimaryKey {
			continue
		}
		b = b.Set(f.Column, fieldByIndex(v, f.Index).Interface())
	}

	if len(o.Where) == 0 {
		if sm.pk == nil {
			return 0, fmt.Errorf("basic: Save without condition requires a primary key on %s", sm.typ)
		}
		pk := fieldByIndex(v, sm.pk.Index)
		if pk.IsZero() {
			return 0, fmt.Errorf("basic: Save requires a non-zero primary key on %s", sm.typ)
		}
		b = b.Where(m.orm.dialect.QuoteIdentifier(sm.pk.Column)+" = ?", pk.Interface())
	} else {
		for _, cond := range o.Where {
			b = b.Where(cond.Expr, cond.Args...)
		}
	}

	result, err := b.Exec(ctx)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// UpdateValues 按条件更新指定列。
// 为避免误操作，拒绝无条件的整表更新。
func (m *model) UpdateValues(ctx context.Context, values map[string]any, opts ...orm.QueryOption) (int64, error) {
	o, err := m.collect(opts)
	if err != nil {
		return 0, err
	}
	if len(values) == 0 {
		return 0, fmt.Errorf("basic: UpdateValues requires at least one column")
	}
	if len(o.Where) == 0 {
		return 0, fmt.Errorf("basic: UpdateValues without condition is not allowed")
	}
	for col := range values {
		if !m.meta.HasColumn(col) {
			return 0, fmt.Errorf("basic: unknown update column %q", col)
		}
	}

	b := m.orm.sql.Update(m.table).SetMap(values)
	for _, cond := range o.Where {
		b = b.Where(cond.Expr, cond.Args...)
	}
	result, err := b.Exec(ctx)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// Delete 按条件物理删除，拒绝无条件的整表删除。
func (m *model) Delete(ctx context.Context, opts ...orm.QueryOption) (int64, error) {
	o, err := m.collect(opts)
	if err != nil {
		return 0, err
	}
	if len(o.Where) == 0 {
		return 0, fmt.Errorf("basic: Delete without condition is not allowed")
	}

	b := m.orm.sql.DeleteFrom(m.table)
	for _, cond := range o.Where {
		b = b.Where(cond.Expr, cond.Args...)
	}
	if o.Limit > 0 {
		b = b.Limit(o.Limit)
	}
	result, err := b.Exec(ctx)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// fieldByIndex 按索引路径取字段。
// 途中遇到 nil 指针时返回终端字段类型的零值，不分配也不展开。
func fieldByIndex(v reflect.Value, index []int) reflect.Value {
	for n, i := range index {
		if v.Kind() == reflect.Pointer {
			if v.IsNil() {
				return reflect.Zero(typeByIndex(v.Type(), index[n:]))
			}
			v = v.Elem()
		}
		v = v.Field(i)
	}
	return v
}

// typeByIndex 沿索引路径求终端字段的类型。
func typeByIndex(t reflect.Type, index []int) reflect.Type {
	for _, i := range index {
		if t.Kind() == reflect.Pointer {
			t = t.Elem()
		}
		t = t.Field(i).Type
	}
	return t
}
