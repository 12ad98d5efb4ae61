package basic

import (
	"fmt"
	"reflect"
	"strings"

	dbcore "repokit/data/db"
)

// fieldMeta 缓存的字段元信息。
type fieldMeta struct {
	Name       string
	Column     string
	Index      []int
	PrimaryKey bool
}

// structMeta 缓存的结构体元信息。
type structMeta struct {
	typ      reflect.Type
	fields   []fieldMeta
	byColumn map[string]*fieldMeta
	pk       *fieldMeta
}

// structMetaForValue 解析（并缓存）模型值对应的结构体元信息。
func (o *Orm) structMetaForValue(model any) *structMeta {
	t := reflect.TypeOf(model)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return nil
	}
	return o.structMetaForType(t)
}

func (o *Orm) structMetaForType(t reflect.Type) *structMeta {
	o.mu.RLock()
	sm, ok := o.structMap[t]
	o.mu.RUnlock()
	if ok {
		return sm
	}

	sm = buildStructMeta(t)

	o.mu.Lock()
	o.structMap[t] = sm
	o.mu.Unlock()
	return sm
}

func buildStructMeta(t reflect.Type) *structMeta {
	sm := &structMeta{
		typ:      t,
		byColumn: make(map[string]*fieldMeta),
	}
	collectFields(t, nil, sm)
	for i := range sm.fields {
		f := &sm.fields[i]
		sm.byColumn[f.Column] = f
		if f.PrimaryKey && sm.pk == nil {
			sm.pk = f
		}
	}
	// 无显式主键标记时按约定回退到 id 列。
	if sm.pk == nil {
		if f, ok := sm.byColumn["id"]; ok {
			f.PrimaryKey = true
			sm.pk = f
		}
	}
	return sm
}

// collectFields 递归收集字段，内嵌结构体展开为同级列。
func collectFields(t reflect.Type, index []int, sm *structMeta) {
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if sf.PkgPath != "" { // 未导出字段
			continue
		}

		fi := make([]int, 0, len(index)+1)
		fi = append(fi, index...)
		fi = append(fi, i)

		ft := sf.Type
		if sf.Anonymous {
			if ft.Kind() == reflect.Pointer {
				ft = ft.Elem()
			}
			if ft.Kind() == reflect.Struct && !isScannableStruct(ft) {
				collectFields(ft, fi, sm)
				continue
			}
		}

		column, pk, skip := parseColumnTag(sf)
		if skip || !isScannableField(sf.Type) {
			continue
		}

		sm.fields = append(sm.fields, fieldMeta{
			Name:       sf.Name,
			Column:     column,
			Index:      fi,
			PrimaryKey: pk,
		})
	}
}

// parseColumnTag 解析列名与主键标记。
// 优先级：gorm 标签 > db 标签 > json 标签 > 蛇形命名。
func parseColumnTag(sf reflect.StructField) (column string, primaryKey bool, skip bool) {
	column = toSnakeCase(sf.Name)

	if tag, ok := sf.Tag.Lookup("gorm"); ok {
		if tag == "-" {
			return "", false, true
		}
		for _, part := range strings.Split(tag, ";") {
			part = strings.TrimSpace(part)
			switch {
			case strings.HasPrefix(part, "column:"):
				column = strings.TrimPrefix(part, "column:")
			case strings.EqualFold(part, "primaryKey") || strings.EqualFold(part, "primary_key"):
				primaryKey = true
			}
		}
	}
	if tag, ok := sf.Tag.Lookup("db"); ok {
		if tag == "-" {
			return "", false, true
		}
		if name := strings.Split(tag, ",")[0]; name != "" {
			column = name
		}
	} else if tag, ok := sf.Tag.Lookup("json"); ok {
		if tag == "-" {
			return "", false, true
		}
		if name := strings.Split(tag, ",")[0]; name != "" {
			column = name
		}
	}
	return column, primaryKey, false
}

// isScannableStruct 判断结构体自身是否可作为单列扫描（如 time.Time）。
func isScannableStruct(t reflect.Type) bool {
	return t.PkgPath() == "time" && t.Name() == "Time"
}

// isScannableField 排除无法映射为单列的字段类型。
func isScannableField(t reflect.Type) bool {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.Chan, reflect.Func, reflect.Map, reflect.Interface:
		return false
	case reflect.Slice:
		return t.Elem().Kind() == reflect.Uint8
	case reflect.Struct:
		return isScannableStruct(t)
	default:
		return true
	}
}

// toSnakeCase 将驼峰字段名转换为蛇形列名，连续大写视为一个单词。
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

// fieldByIndexAlloc 按索引路径取字段，沿途的 nil 指针会被分配。
func fieldByIndexAlloc(v reflect.Value, index []int) reflect.Value {
	for _, i := range index {
		if v.Kind() == reflect.Pointer {
			if v.IsNil() {
				v.Set(reflect.New(v.Type().Elem()))
			}
			v = v.Elem()
		}
		v = v.Field(i)
	}
	return v
}

// scanRowsInto 把查询结果扫描到 dest。
// dest 可以是 *T（单行）、*[]T 或 *[]*T（多行），T 为结构体。
// 单行模式下无结果返回 (false, nil)。
func (o *Orm) scanRowsInto(rows dbcore.IRows, dest any) (bool, error) {
	dv := reflect.ValueOf(dest)
	if dv.Kind() != reflect.Pointer || dv.IsNil() {
		return false, fmt.Errorf("basic: dest must be a non-nil pointer, got %T", dest)
	}

	columns, err := rows.Columns()
	if err != nil {
		return false, err
	}

	elem := dv.Elem()
	switch elem.Kind() {
	case reflect.Struct:
		if !rows.Next() {
			if err := rows.Err(); err != nil {
				return false, err
			}
			return false, nil
		}
		if err := o.scanRow(rows, columns, elem); err != nil {
			return false, err
		}
		return true, rows.Err()

	case reflect.Slice:
		itemType := elem.Type().Elem()
		isPtr := itemType.Kind() == reflect.Pointer
		structType := itemType
		if isPtr {
			structType = itemType.Elem()
		}
		if structType.Kind() != reflect.Struct {
			return false, fmt.Errorf("basic: dest slice element must be a struct, got %s", itemType)
		}

		out := reflect.MakeSlice(elem.Type(), 0, 8)
		for rows.Next() {
			item := reflect.New(structType)
			if err := o.scanRow(rows, columns, item.Elem()); err != nil {
				return false, err
			}
			if isPtr {
				out = reflect.Append(out, item)
			} else {
				out = reflect.Append(out, item.Elem())
			}
		}
		if err := rows.Err(); err != nil {
			return false, err
		}
		elem.Set(out)
		return out.Len() > 0, nil

	default:
		return false, fmt.Errorf("basic: unsupported dest type %T", dest)
	}
}

// scanRow 扫描当前行到结构体值，未知列丢弃。
func (o *Orm) scanRow(rows dbcore.IRows, columns []string, v reflect.Value) error {
	sm := o.structMetaForType(v.Type())
	targets := make([]any, len(columns))
	for i, col := range columns {
		if f, ok := sm.byColumn[col]; ok {
			targets[i] = fieldByIndexAlloc(v, f.Index).Addr().Interface()
		} else {
			targets[i] = new(any)
		}
	}
	return rows.Scan(targets...)
}

// tryGetTableName 通过模型的 TableName() 方法获取表名。
func tryGetTableName(model any) (string, bool) {
	type tableNamer interface{ TableName() string }
	if tn, ok := model.(tableNamer); ok {
		return tn.TableName(), true
	}
	return "", false
}
