// Package di 提供简单的依赖注入容器。
//
// 注意：本包暴露的全局容器（RegisterGlobal/ResolveGlobal/MustResolveGlobal）
// 仅推荐用于快速原型、示例程序或遗留代码迁移过程。
// 生产代码应在启动阶段构造容器实例并通过构造函数显式传递依赖：
// 直接依赖全局容器会带来测试隔离困难、对启动顺序的隐式依赖
// 以及难以从函数签名追踪的隐式依赖。
package di

import (
	"fmt"
	"reflect"
	"sync"

	"repokit/errors"
)

// Lifetime 服务生命周期。
type Lifetime int

const (
	// Singleton 首次解析时创建，之后复用同一实例。
	Singleton Lifetime = iota
	// Transient 每次解析都通过工厂创建新实例。
	Transient
)

// Container 类型键容器。
// 以服务的具体类型（指针取元素类型）为键，适合启动期装配仓储等长生命周期对象。
type Container struct {
	mutex    sync.RWMutex
	services map[reflect.Type]any
}

// New 创建容器。
func New() *Container {
	return &Container{
		services: make(map[reflect.Type]any),
	}
}

// Register 注册服务实例。
// service 必须是指针，键为指针指向的类型。
func (c *Container) Register(service any) error {
	if service == nil {
		return errors.NewError(errors.ErrCodeInvalidInput, "service cannot be nil")
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	t := reflect.TypeOf(service)
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	c.services[t] = service
	return nil
}

// RegisterAs 以指定接口类型注册服务。
// serviceType 传接口指针，如 (*repository.ISpecRepository[User, int64])(nil)。
func (c *Container) RegisterAs(serviceType any, service any) error {
	if service == nil {
		return errors.NewError(errors.ErrCodeInvalidInput, "service cannot be nil")
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.services[reflect.TypeOf(serviceType).Elem()] = service
	return nil
}

// Resolve 解析服务，serviceType 与注册时的键形式一致。
func (c *Container) Resolve(serviceType any) (any, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	t := reflect.TypeOf(serviceType).Elem()
	service, exists := c.services[t]
	if !exists {
		return nil, errors.NewError(errors.ErrCodeNotFound,
			fmt.Sprintf("service not found: %v", t))
	}
	return service, nil
}

// MustResolve 解析服务，失败时 panic。
func (c *Container) MustResolve(serviceType any) any {
	service, err := c.Resolve(serviceType)
	if err != nil {
		panic(err)
	}
	return service
}

// Has 检查服务是否已注册。
func (c *Container) Has(serviceType any) bool {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	_, exists := c.services[reflect.TypeOf(serviceType).Elem()]
	return exists
}

// 全局容器
var globalContainer = New()

// RegisterGlobal 注册到全局容器。
func RegisterGlobal(service any) error {
	return globalContainer.Register(service)
}

// RegisterAsGlobal 注册到全局容器（指定接口）。
func RegisterAsGlobal(serviceType any, service any) error {
	return globalContainer.RegisterAs(serviceType, service)
}

// ResolveGlobal 从全局容器解析。
func ResolveGlobal(serviceType any) (any, error) {
	return globalContainer.Resolve(serviceType)
}

// MustResolveGlobal 从全局容器解析，失败时 panic。
func MustResolveGlobal(serviceType any) any {
	return globalContainer.MustResolve(serviceType)
}
