package idgen

import (
	"sync"
	"testing"
	"time"
)

// TestNewGenerator 测试生成器创建
func TestNewGenerator(t *testing.T) {
	tests := []struct {
		name         string
		datacenterID int64
		workerID     int64
		expectError  bool
	}{
		{"有效配置", 1, 1, false},
		{"datacenterID为负数", -1, 1, true},
		{"datacenterID超过最大值", 32, 1, true},
		{"workerID为负数", 1, -1, true},
		{"workerID超过最大值", 1, 32, true},
		{"边界最大值", 31, 31, false},
		{"边界最小值", 0, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen, err := NewGenerator(tt.datacenterID, tt.workerID)
			if tt.expectError {
				if err == nil {
					t.Errorf("期望错误但没有返回错误")
				}
				return
			}
			if err != nil {
				t.Fatalf("不期望错误但返回了错误: %v", err)
			}
			if gen == nil {
				t.Fatalf("生成器为nil")
			}
		})
	}
}

// TestNextID_Uniqueness 测试ID唯一性
func TestNextID_Uniqueness(t *testing.T) {
	gen, err := NewGenerator(1, 1)
	if err != nil {
		t.Fatalf("创建生成器失败: %v", err)
	}

	const count = 10000
	ids := make(map[int64]bool, count)
	for i := 0; i < count; i++ {
		id, err := gen.NextID()
		if err != nil {
			t.Fatalf("生成ID失败: %v", err)
		}
		if ids[id] {
			t.Fatalf("生成了重复的ID: %d", id)
		}
		ids[id] = true
	}
}

// TestNextID_Concurrent 测试并发安全性
func TestNextID_Concurrent(t *testing.T) {
	gen, err := NewGenerator(1, 1)
	if err != nil {
		t.Fatalf("创建生成器失败: %v", err)
	}

	const goroutines = 10
	const idsPerGoroutine = 1000

	var wg sync.WaitGroup
	idChan := make(chan int64, goroutines*idsPerGoroutine)

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < idsPerGoroutine; j++ {
				id, err := gen.NextID()
				if err != nil {
					t.Errorf("生成ID失败: %v", err)
					return
				}
				idChan <- id
			}
		}()
	}
	wg.Wait()
	close(idChan)

	ids := make(map[int64]bool, goroutines*idsPerGoroutine)
	for id := range idChan {
		if ids[id] {
			t.Fatalf("并发环境下生成了重复的ID: %d", id)
		}
		ids[id] = true
	}
}

// TestParse 测试ID解析
func TestParse(t *testing.T) {
	gen, err := NewGenerator(10, 20)
	if err != nil {
		t.Fatalf("创建生成器失败: %v", err)
	}

	id, err := gen.NextID()
	if err != nil {
		t.Fatalf("生成ID失败: %v", err)
	}

	parsed := Parse(id)
	if parsed["datacenterID"] != 10 {
		t.Errorf("datacenterID = %d, 期望 10", parsed["datacenterID"])
	}
	if parsed["workerID"] != 20 {
		t.Errorf("workerID = %d, 期望 20", parsed["workerID"])
	}

	now := time.Now().UnixMilli()
	if parsed["timestamp"] < now-1000 || parsed["timestamp"] > now+1000 {
		t.Errorf("时间戳异常: %d, 当前时间: %d", parsed["timestamp"], now)
	}
}

// TestDefaultGenerator 测试默认生成器
func TestDefaultGenerator(t *testing.T) {
	id1, err := NextID()
	if err != nil {
		t.Fatalf("使用默认生成器生成ID失败: %v", err)
	}
	id2, err := NextID()
	if err != nil {
		t.Fatalf("使用默认生成器生成ID失败: %v", err)
	}
	if id1 == id2 {
		t.Errorf("默认生成器生成了重复的ID")
	}
}

// TestSnowflakeFunc 测试雪花主键生成函数
func TestSnowflakeFunc(t *testing.T) {
	next := Snowflake()
	id, err := next()
	if err != nil {
		t.Fatalf("生成ID失败: %v", err)
	}
	if id == 0 {
		t.Errorf("生成的ID为0")
	}
}

// TestUUIDFunc 测试UUID主键生成函数
func TestUUIDFunc(t *testing.T) {
	next := UUID()

	id1, err := next()
	if err != nil {
		t.Fatalf("生成UUID失败: %v", err)
	}
	if len(id1) != 36 {
		t.Errorf("UUID长度 = %d, 期望 36", len(id1))
	}

	id2, err := next()
	if err != nil {
		t.Fatalf("生成UUID失败: %v", err)
	}
	if id1 == id2 {
		t.Errorf("生成了重复的UUID")
	}
}

// BenchmarkNextID 基准测试：单线程生成ID性能
func BenchmarkNextID(b *testing.B) {
	gen, err := NewGenerator(1, 1)
	if err != nil {
		b.Fatalf("创建生成器失败: %v", err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := gen.NextID(); err != nil {
			b.Fatalf("生成ID失败: %v", err)
		}
	}
}
