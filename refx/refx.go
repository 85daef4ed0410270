package refx

import (
	"fmt"
	"reflect"
	"sync"
)

// TypeOptions 描述一个可以通过注册表构造的对象
// Namespace + Type 定位构造函数，Options 原样（或经过 Convertable 转换后）传给构造函数
type TypeOptions struct {
	Namespace string `cfg:"namespace"`
	Type      string `cfg:"type"`
	Options   any    `cfg:"options"`
}

// Convertable 可以把自身数据转换为任意结构的配置对象
// 构造时如果 options 实现了该接口，会先转换成构造函数需要的参数类型
type Convertable interface {
	ConvertTo(object any) error
}

type constructor struct {
	originalFunc any
	newFunc      reflect.Value
	hasOptions   bool
	returnsError bool
}

var errorType = reflect.TypeOf((*error)(nil)).Elem()

func newConstructor(newFunc any) (*constructor, error) {
	funcValue := reflect.ValueOf(newFunc)
	if funcValue.Kind() != reflect.Func {
		return nil, fmt.Errorf("newFunc must be a function")
	}

	funcType := funcValue.Type()
	if funcType.NumIn() > 1 {
		return nil, fmt.Errorf("newFunc must have 0 or 1 input parameters, got %d", funcType.NumIn())
	}
	if funcType.NumOut() != 1 && funcType.NumOut() != 2 {
		return nil, fmt.Errorf("newFunc must have 1 or 2 return values, got %d", funcType.NumOut())
	}

	returnsError := funcType.NumOut() == 2
	if returnsError && !funcType.Out(1).Implements(errorType) {
		return nil, fmt.Errorf("second return value must be error type")
	}

	return &constructor{
		originalFunc: newFunc,
		newFunc:      funcValue,
		hasOptions:   funcType.NumIn() == 1,
		returnsError: returnsError,
	}, nil
}

func (c *constructor) new(options any) (any, error) {
	var args []reflect.Value
	if c.hasOptions {
		if options == nil {
			return nil, fmt.Errorf("constructor requires options but got nil")
		}
		converted, err := c.convertOptions(options)
		if err != nil {
			return nil, err
		}
		args = []reflect.Value{converted}
	}

	results := c.newFunc.Call(args)
	if c.returnsError && !results[1].IsNil() {
		return nil, results[1].Interface().(error)
	}
	return results[0].Interface(), nil
}

// convertOptions 把 options 适配为构造函数的参数类型
func (c *constructor) convertOptions(options any) (reflect.Value, error) {
	paramType := c.newFunc.Type().In(0)

	if convertable, ok := options.(Convertable); ok {
		target := reflect.New(paramType)
		if paramType.Kind() == reflect.Ptr {
			target.Elem().Set(reflect.New(paramType.Elem()))
			if err := convertable.ConvertTo(target.Elem().Interface()); err != nil {
				return reflect.Value{}, fmt.Errorf("failed to convert options to %v: %w", paramType, err)
			}
			return target.Elem(), nil
		}
		if err := convertable.ConvertTo(target.Interface()); err != nil {
			return reflect.Value{}, fmt.Errorf("failed to convert options to %v: %w", paramType, err)
		}
		return target.Elem(), nil
	}

	value := reflect.ValueOf(options)
	if !value.Type().AssignableTo(paramType) {
		return reflect.Value{}, fmt.Errorf("options type %v is not assignable to %v", value.Type(), paramType)
	}
	return value, nil
}

var constructors sync.Map

func key(namespace, typ string) string {
	return namespace + ":" + typ
}

func Register(namespace string, typ string, newFunc any) error {
	if existing, ok := constructors.Load(key(namespace, typ)); ok {
		// 同一个函数重复注册直接忽略
		if reflect.ValueOf(existing.(*constructor).originalFunc).Pointer() == reflect.ValueOf(newFunc).Pointer() {
			return nil
		}
		return fmt.Errorf("constructor for %s:%s already registered with different function", namespace, typ)
	}

	c, err := newConstructor(newFunc)
	if err != nil {
		return fmt.Errorf("failed to create constructor: %w", err)
	}
	constructors.Store(key(namespace, typ), c)
	return nil
}

func MustRegister(namespace string, typ string, newFunc any) {
	if err := Register(namespace, typ, newFunc); err != nil {
		panic(err)
	}
}

// RegisterT 以 T 的包路径和类型名作为 namespace 和 type 注册构造函数
func RegisterT[T any](newFunc any) error {
	namespace, typ, err := typeKey[T]()
	if err != nil {
		return err
	}
	return Register(namespace, typ, newFunc)
}

func MustRegisterT[T any](newFunc any) {
	if err := RegisterT[T](newFunc); err != nil {
		panic(err)
	}
}

func New(namespace string, typ string, options any) (any, error) {
	value, ok := constructors.Load(key(namespace, typ))
	if !ok {
		return nil, fmt.Errorf("constructor not found for %s:%s", namespace, typ)
	}
	return value.(*constructor).new(options)
}

func NewT[T any](options any) (T, error) {
	var zero T
	namespace, typ, err := typeKey[T]()
	if err != nil {
		return zero, err
	}
	obj, err := New(namespace, typ, options)
	if err != nil {
		return zero, err
	}
	result, ok := obj.(T)
	if !ok {
		return zero, fmt.Errorf("created object is not of type %T", zero)
	}
	return result, nil
}

// Build 按 TypeOptions 构造对象并断言为接口 I
func Build[I any](options *TypeOptions) (I, error) {
	var zero I
	if options == nil || options.Type == "" {
		return zero, fmt.Errorf("type options is required")
	}
	obj, err := New(options.Namespace, options.Type, options.Options)
	if err != nil {
		return zero, err
	}
	result, ok := obj.(I)
	if !ok {
		return zero, fmt.Errorf("%s:%s does not implement %v", options.Namespace, options.Type, reflect.TypeOf((*I)(nil)).Elem())
	}
	return result, nil
}

func typeKey[T any]() (string, string, error) {
	t := reflect.TypeOf((*T)(nil)).Elem()
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.PkgPath() == "" || t.Name() == "" {
		return "", "", fmt.Errorf("cannot determine package path or type name for type %v", t)
	}
	return t.PkgPath(), t.Name(), nil
}
