// Package idgen 提供实体主键生成能力。
//
// 仓储在插入时为缺失主键的实体补齐 ID：
//   - int64 主键使用雪花算法；
//   - string 主键使用 UUID。
package idgen

import (
	"github.com/google/uuid"
)

// Func 表示一种主键生成函数。
type Func[ID comparable] func() (ID, error)

// UUID 返回基于 UUIDv4 的字符串主键生成函数。
func UUID() Func[string] {
	return func() (string, error) {
		id, err := uuid.NewRandom()
		if err != nil {
			return "", err
		}
		return id.String(), nil
	}
}

// Snowflake 返回基于默认雪花生成器的 int64 主键生成函数。
func Snowflake() Func[int64] {
	return func() (int64, error) {
		return NextID()
	}
}

// SnowflakeWith 返回绑定指定生成器的 int64 主键生成函数。
func SnowflakeWith(g *Generator) Func[int64] {
	return func() (int64, error) {
		return g.NextID()
	}
}
