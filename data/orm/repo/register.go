package repo

import (
	"fmt"
	"reflect"

	"repokit/data/orm"
	"repokit/di"
	"repokit/domain/repository"
	"repokit/errors"
)

// Register 创建仓储并注册到容器。
// 同时以具体类型 Repo[T, ID] 与接口 repository.ISpecRepository[T, ID]
// 两个键注册，调用方可按任一形式解析。
func Register[T any, ID comparable](c *di.Container, o orm.IOrm, opts ...Option[T, ID]) (*Repo[T, ID], error) {
	if c == nil {
		return nil, errors.NewError(errors.ErrCodeInvalidInput, "container cannot be nil")
	}

	r, err := NewRepo[T, ID](o, opts...)
	if err != nil {
		return nil, err
	}
	if err := c.Register(r); err != nil {
		return nil, err
	}
	if err := c.RegisterAs((*repository.ISpecRepository[T, ID])(nil), r); err != nil {
		return nil, err
	}
	return r, nil
}

// MustRegister 与 Register 相同，失败时 panic。用于启动期装配。
func MustRegister[T any, ID comparable](c *di.Container, o orm.IOrm, opts ...Option[T, ID]) *Repo[T, ID] {
	r, err := Register[T, ID](c, o, opts...)
	if err != nil {
		panic(err)
	}
	return r
}

// Resolve 从容器解析 T/ID 对应的仓储。
func Resolve[T any, ID comparable](c *di.Container) (*Repo[T, ID], error) {
	service, err := c.Resolve((*Repo[T, ID])(nil))
	if err != nil {
		return nil, err
	}
	return service.(*Repo[T, ID]), nil
}

// ResolveSpec 从容器按接口键解析仓储。
func ResolveSpec[T any, ID comparable](c *di.Container) (repository.ISpecRepository[T, ID], error) {
	service, err := c.Resolve((*repository.ISpecRepository[T, ID])(nil))
	if err != nil {
		return nil, err
	}
	return service.(repository.ISpecRepository[T, ID]), nil
}

// RegisterLifetime 以指定生命周期把仓储工厂注册到名称键容器。
// Singleton 首次解析时创建并复用；Transient 每次解析都构造新仓储实例。
func RegisterLifetime[T any, ID comparable](c di.IContainer, o orm.IOrm, lifetime di.Lifetime, opts ...Option[T, ID]) error {
	if c == nil {
		return errors.NewError(errors.ErrCodeInvalidInput, "container cannot be nil")
	}

	name := serviceName[T, ID]()
	factory := func() (*Repo[T, ID], error) {
		return NewRepo[T, ID](o, opts...)
	}
	if lifetime == di.Transient {
		return c.RegisterTransient(name, factory)
	}
	return c.RegisterSingleton(name, factory)
}

// ResolveLifetime 从名称键容器解析仓储。
func ResolveLifetime[T any, ID comparable](c di.IContainer) (*Repo[T, ID], error) {
	service, err := c.Resolve(serviceName[T, ID]())
	if err != nil {
		return nil, err
	}
	r, ok := service.(*Repo[T, ID])
	if !ok {
		return nil, errors.NewError(errors.ErrCodeInternal,
			fmt.Sprintf("unexpected service type %T under %s", service, serviceName[T, ID]()))
	}
	return r, nil
}

// serviceName 名称键容器里仓储的服务名，按具体类型参数定名。
func serviceName[T any, ID comparable]() string {
	return reflect.TypeOf((*Repo[T, ID])(nil)).String()
}
