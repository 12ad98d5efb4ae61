// Package spec 提供声明式的查询规约（Specification）组合能力。
//
// 规约由一组合取（AND）过滤谓词、可选的关联预加载路径与排序指令构成，
// 构建后无状态、可复用；空规约等价于恒真过滤（不过滤任何行）。
// 规约只负责描述查询意图，翻译与执行由仓储/适配器完成。
package spec

import "strings"

// Condition 表示单个过滤谓词，Expr 使用占位符 ?，Args 对应参数列表。
type Condition struct {
	Expr string
	Args []any
}

// Order 表示排序指令。
type Order struct {
	Column string
	Desc   bool
}

// Specification 合取过滤规约。
//
// 通过显式方法（Eq/Like/Gt 等）表达常见条件，避免调用方手写 magic key；
// 所有字段名在构建时做安全标识符校验，非法名称被直接丢弃。
type Specification struct {
	conds    []Condition
	includes []string
	orders   []Order
}

// New 创建空规约。
func New() *Specification {
	return &Specification{}
}

// Eq 等值匹配：field = value
func (s *Specification) Eq(field string, value any) *Specification {
	return s.addField(field, " = ?", value)
}

// Ne 不等于：field != value
func (s *Specification) Ne(field string, value any) *Specification {
	return s.addField(field, " != ?", value)
}

// Gt 大于：field > value
func (s *Specification) Gt(field string, value any) *Specification {
	return s.addField(field, " > ?", value)
}

// Gte 大于等于：field >= value
func (s *Specification) Gte(field string, value any) *Specification {
	return s.addField(field, " >= ?", value)
}

// Lt 小于：field < value
func (s *Specification) Lt(field string, value any) *Specification {
	return s.addField(field, " < ?", value)
}

// Lte 小于等于：field <= value
func (s *Specification) Lte(field string, value any) *Specification {
	return s.addField(field, " <= ?", value)
}

// Like 模糊匹配，对应 SQL: field LIKE '%value%'
func (s *Specification) Like(field string, value string) *Specification {
	return s.addField(field, " LIKE ?", "%"+value+"%")
}

// In IN 列表；空列表不追加条件。
func (s *Specification) In(field string, values ...any) *Specification {
	if !IsSafeField(field) || len(values) == 0 {
		return s
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(values)), ", ")
	s.conds = append(s.conds, Condition{
		Expr: field + " IN (" + placeholders + ")",
		Args: values,
	})
	return s
}

// NotIn NOT IN 列表；空列表不追加条件。
func (s *Specification) NotIn(field string, values ...any) *Specification {
	if !IsSafeField(field) || len(values) == 0 {
		return s
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(values)), ", ")
	s.conds = append(s.conds, Condition{
		Expr: field + " NOT IN (" + placeholders + ")",
		Args: values,
	})
	return s
}

// IsNull 为空判断：field IS NULL
func (s *Specification) IsNull(field string) *Specification {
	if !IsSafeField(field) {
		return s
	}
	s.conds = append(s.conds, Condition{Expr: field + " IS NULL"})
	return s
}

// Where 追加自定义谓词片段，Expr 中使用 ? 占位符。
// 调用方对表达式内容负责，仅在规约 DSL 不够表达时使用。
func (s *Specification) Where(expr string, args ...any) *Specification {
	if expr == "" {
		return s
	}
	s.conds = append(s.conds, Condition{Expr: expr, Args: args})
	return s
}

// Include 追加关联预加载路径。
func (s *Specification) Include(paths ...string) *Specification {
	for _, p := range paths {
		if p != "" {
			s.includes = append(s.includes, p)
		}
	}
	return s
}

// OrderBy 追加排序指令。
// 未指定排序的分页查询跨页行序不保证稳定，需要稳定分页的调用方必须显式排序。
func (s *Specification) OrderBy(column string, desc bool) *Specification {
	if !IsSafeField(column) {
		return s
	}
	s.orders = append(s.orders, Order{Column: column, Desc: desc})
	return s
}

// Conditions 返回谓词列表副本。
func (s *Specification) Conditions() []Condition {
	if s == nil || len(s.conds) == 0 {
		return nil
	}
	out := make([]Condition, len(s.conds))
	copy(out, s.conds)
	return out
}

// Includes 返回预加载路径副本。
func (s *Specification) Includes() []string {
	if s == nil || len(s.includes) == 0 {
		return nil
	}
	out := make([]string, len(s.includes))
	copy(out, s.includes)
	return out
}

// Orders 返回排序指令副本。
func (s *Specification) Orders() []Order {
	if s == nil || len(s.orders) == 0 {
		return nil
	}
	out := make([]Order, len(s.orders))
	copy(out, s.orders)
	return out
}

// IsEmpty 判断规约是否为恒真过滤。
func (s *Specification) IsEmpty() bool {
	return s == nil || (len(s.conds) == 0 && len(s.includes) == 0 && len(s.orders) == 0)
}

func (s *Specification) addField(field, op string, value any) *Specification {
	if !IsSafeField(field) {
		return s
	}
	s.conds = append(s.conds, Condition{Expr: field + op, Args: []any{value}})
	return s
}

// IsSafeField 判断字段名是否为“安全标识符”。
//
// 允许形式：
//   - 单一标识符：foo, bar_1
//   - 带点限定名：table.column
//
// 规则（按段）：
//   - 每段不能为空；
//   - 首字符必须是字母或下划线 [A-Za-z_]；
//   - 后续字符必须是字母、数字或下划线 [A-Za-z0-9_]。
func IsSafeField(name string) bool {
	if name == "" {
		return false
	}
	parts := strings.Split(name, ".")
	for _, part := range parts {
		if part == "" {
			return false
		}
		for i := 0; i < len(part); i++ {
			ch := part[i]
			if i == 0 {
				if !((ch >= 'a' && ch <= 'z') ||
					(ch >= 'A' && ch <= 'Z') ||
					ch == '_') {
					return false
				}
			} else {
				if !((ch >= 'a' && ch <= 'z') ||
					(ch >= 'A' && ch <= 'Z') ||
					(ch >= '0' && ch <= '9') ||
					ch == '_') {
					return false
				}
			}
		}
	}
	return true
}
