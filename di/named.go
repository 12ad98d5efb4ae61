package di

import (
	"fmt"
	"reflect"
	"sync"

	"repokit/errors"
)

// IContainer 名称键容器接口。
type IContainer interface {
	// RegisterConstructor 注册构造函数，服务名取第一个返回值类型名
	RegisterConstructor(constructor any) error

	// RegisterSingleton 注册单例工厂
	RegisterSingleton(name string, factory any) error

	// RegisterTransient 注册瞬态工厂，每次解析新建实例
	RegisterTransient(name string, factory any) error

	// RegisterInstance 注册现成实例
	RegisterInstance(name string, instance any) error

	// Resolve 按名称解析
	Resolve(name string) (any, error)

	// ResolveTo 解析并赋值到 target 指针
	ResolveTo(name string, target any) error

	// IsRegistered 检查名称是否已注册
	IsRegistered(name string) bool

	// GetRegisteredNames 返回所有注册的服务名
	GetRegisteredNames() []string

	// Invoke 调用函数并按参数类型注入
	Invoke(function any) error

	// Clear 清空容器
	Clear()
}

// registration 一条服务注册记录。
type registration struct {
	factory  any
	lifetime Lifetime
}

// NamedContainer 名称键 IContainer 实现，支持单例与瞬态生命周期。
type NamedContainer struct {
	mutex     sync.RWMutex
	services  map[string]registration
	instances map[string]any
}

// NewNamed 创建名称键容器。
func NewNamed() *NamedContainer {
	return &NamedContainer{
		services:  make(map[string]registration),
		instances: make(map[string]any),
	}
}

func (c *NamedContainer) RegisterConstructor(constructor any) error {
	if constructor == nil {
		return errors.NewError(errors.ErrCodeInvalidInput, "constructor cannot be nil")
	}
	t := reflect.TypeOf(constructor)
	if t.Kind() != reflect.Func {
		return errors.NewError(errors.ErrCodeInvalidInput, "parameter must be a function")
	}
	if t.NumOut() == 0 {
		return errors.NewError(errors.ErrCodeInvalidInput, "constructor must have a return value")
	}
	return c.RegisterSingleton(t.Out(0).String(), constructor)
}

func (c *NamedContainer) RegisterSingleton(name string, factory any) error {
	return c.register(name, factory, Singleton)
}

func (c *NamedContainer) RegisterTransient(name string, factory any) error {
	return c.register(name, factory, Transient)
}

func (c *NamedContainer) register(name string, factory any, lifetime Lifetime) error {
	if name == "" {
		return errors.NewError(errors.ErrCodeInvalidInput, "service name cannot be empty")
	}
	if factory == nil {
		return errors.NewError(errors.ErrCodeInvalidInput, "factory cannot be nil")
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	if _, exists := c.services[name]; exists {
		return errors.NewError(errors.ErrCodeConflict,
			fmt.Sprintf("service %s already registered", name))
	}
	c.services[name] = registration{factory: factory, lifetime: lifetime}
	return nil
}

func (c *NamedContainer) RegisterInstance(name string, instance any) error {
	if err := c.register(name, instance, Singleton); err != nil {
		return err
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.instances[name] = instance
	return nil
}

func (c *NamedContainer) Resolve(name string) (any, error) {
	c.mutex.RLock()
	reg, exists := c.services[name]
	if !exists {
		c.mutex.RUnlock()
		return nil, errors.NewError(errors.ErrCodeNotFound,
			fmt.Sprintf("service %s not registered", name))
	}
	if inst, ok := c.instances[name]; ok {
		c.mutex.RUnlock()
		return inst, nil
	}
	c.mutex.RUnlock()

	inst, err := c.createInstance(reg.factory)
	if err != nil {
		return nil, errors.WrapError(err, errors.ErrCodeInternal,
			fmt.Sprintf("failed to create service %s", name))
	}

	if reg.lifetime == Transient {
		return inst, nil
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()
	if existing, ok := c.instances[name]; ok {
		// 并发解析时保留先到的单例
		return existing, nil
	}
	c.instances[name] = inst
	return inst, nil
}

func (c *NamedContainer) ResolveTo(name string, target any) error {
	inst, err := c.Resolve(name)
	if err != nil {
		return err
	}
	if target == nil {
		return errors.NewError(errors.ErrCodeInvalidInput, "target cannot be nil")
	}
	v := reflect.ValueOf(target)
	if v.Kind() != reflect.Pointer {
		return errors.NewError(errors.ErrCodeInvalidInput, "target must be a pointer")
	}
	iv := reflect.ValueOf(inst)
	if !iv.Type().AssignableTo(v.Elem().Type()) {
		return errors.NewError(errors.ErrCodeInvalidInput,
			fmt.Sprintf("cannot assign %s to %s", iv.Type(), v.Elem().Type()))
	}
	v.Elem().Set(iv)
	return nil
}

func (c *NamedContainer) IsRegistered(name string) bool {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	_, ok := c.services[name]
	return ok
}

func (c *NamedContainer) GetRegisteredNames() []string {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	names := make([]string, 0, len(c.services))
	for name := range c.services {
		names = append(names, name)
	}
	return names
}

func (c *NamedContainer) Invoke(function any) error {
	if function == nil {
		return errors.NewError(errors.ErrCodeInvalidInput, "function cannot be nil")
	}
	fv := reflect.ValueOf(function)
	if fv.Type().Kind() != reflect.Func {
		return errors.NewError(errors.ErrCodeInvalidInput, "parameter must be a function")
	}

	args := make([]reflect.Value, fv.Type().NumIn())
	for i := 0; i < fv.Type().NumIn(); i++ {
		paramType := fv.Type().In(i)
		inst, err := c.resolveParameter(paramType)
		if err != nil {
			return errors.WrapError(err, errors.ErrCodeDependency,
				fmt.Sprintf("failed to resolve parameter %s", paramType))
		}
		args[i] = reflect.ValueOf(inst)
	}

	results := fv.Call(args)
	if len(results) > 0 {
		last := results[len(results)-1]
		if last.Type().Implements(reflect.TypeOf((*error)(nil)).Elem()) && !last.IsNil() {
			return errors.WrapError(last.Interface().(error),
				errors.ErrCodeInternal, "function execution failed")
		}
	}
	return nil
}

func (c *NamedContainer) Clear() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.services = make(map[string]registration)
	c.instances = make(map[string]any)
}

func (c *NamedContainer) createInstance(factory any) (any, error) {
	fv := reflect.ValueOf(factory)
	ft := fv.Type()
	if ft.Kind() != reflect.Func {
		return factory, nil
	}

	args := make([]reflect.Value, ft.NumIn())
	for i := 0; i < ft.NumIn(); i++ {
		inst, err := c.resolveParameter(ft.In(i))
		if err != nil {
			return nil, err
		}
		args[i] = reflect.ValueOf(inst)
	}

	results := fv.Call(args)
	if len(results) == 0 {
		return nil, errors.NewError(errors.ErrCodeInternal, "factory function has no return value")
	}
	if len(results) == 2 && !results[1].IsNil() {
		if err, ok := results[1].Interface().(error); ok {
			return nil, errors.WrapError(err, errors.ErrCodeInternal, "factory function execution failed")
		}
	}
	return results[0].Interface(), nil
}

func (c *NamedContainer) resolveParameter(paramType reflect.Type) (any, error) {
	// 先按完整类型名查找
	if c.IsRegistered(paramType.String()) {
		return c.Resolve(paramType.String())
	}
	// 指针元素类型
	if paramType.Kind() == reflect.Pointer {
		if c.IsRegistered(paramType.Elem().String()) {
			return c.Resolve(paramType.Elem().String())
		}
	}
	// 接口名（弱匹配）
	if paramType.Kind() == reflect.Interface {
		if c.IsRegistered(paramType.Name()) {
			return c.Resolve(paramType.Name())
		}
	}
	return nil, errors.NewError(errors.ErrCodeNotFound,
		fmt.Sprintf("cannot resolve parameter type: %s", paramType))
}
