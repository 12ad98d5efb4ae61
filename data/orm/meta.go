package orm

// FieldMeta 描述字段元信息。
type FieldMeta struct {
	Name       string
	Column     string
	PrimaryKey bool
}

// ModelMeta 描述模型级别元信息。
// Fields 可由适配器按需填充，用于字段白名单校验。
type ModelMeta struct {
	Model  any
	Table  string
	Fields []FieldMeta
}

// HasColumn 判断元数据是否包含指定列。
// 字段元数据未填充时返回 true（交由语法安全校验兜底）。
func (m *ModelMeta) HasColumn(column string) bool {
	if m == nil || len(m.Fields) == 0 {
		return true
	}
	for _, f := range m.Fields {
		if f.Column == column || f.Name == column {
			return true
		}
	}
	return false
}
