package refx

import (
	"encoding/json"
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

type Value struct {
	Name string
}

type Options struct {
	Name string
}

type Namer interface {
	GetName() string
}

func (v *Value) GetName() string { return v.Name }

func NewValue(options *Options) (*Value, error) {
	if options == nil {
		return nil, errors.New("options cannot be nil")
	}
	if options.Name == "" {
		return nil, errors.New("name cannot be empty")
	}
	return &Value{Name: options.Name}, nil
}

func NewDefaultValue() *Value {
	return &Value{Name: "default"}
}

func NewSimpleValue(options *Options) *Value {
	if options == nil {
		return &Value{Name: "nil-options"}
	}
	return &Value{Name: options.Name}
}

// jsonOptions 用 JSON 文本模拟配置存储
type jsonOptions string

func (j jsonOptions) ConvertTo(object any) error {
	return json.Unmarshal([]byte(j), object)
}

func TestNewConstructor(t *testing.T) {
	tests := []struct {
		name     string
		newFunc  any
		options  any
		wantErr  bool
		expected string
	}{
		{name: "with options", newFunc: NewValue, options: &Options{Name: "test"}, expected: "test"},
		{name: "typed nil options", newFunc: NewValue, options: (*Options)(nil), wantErr: true},
		{name: "without options", newFunc: NewDefaultValue, options: nil, expected: "default"},
		{name: "no error return", newFunc: NewSimpleValue, options: &Options{Name: "simple"}, expected: "simple"},
		{name: "convertable options", newFunc: NewValue, options: jsonOptions(`{"Name":"from-json"}`), expected: "from-json"},
		{name: "missing options", newFunc: NewValue, options: nil, wantErr: true},
		{name: "wrong options type", newFunc: NewValue, options: "plain", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := newConstructor(tt.newFunc)
			if err != nil {
				t.Fatalf("newConstructor() error = %v", err)
			}
			result, err := c.new(tt.options)
			if (err != nil) != tt.wantErr {
				t.Fatalf("constructor.new() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if value := result.(*Value); value.Name != tt.expected {
				t.Errorf("got name = %v, want %v", value.Name, tt.expected)
			}
		})
	}
}

func TestNewConstructorInvalid(t *testing.T) {
	Convey("非法构造函数", t, func() {
		_, err := newConstructor("not a func")
		So(err, ShouldNotBeNil)

		_, err = newConstructor(func(a, b int) *Value { return nil })
		So(err, ShouldNotBeNil)

		_, err = newConstructor(func() (*Value, int) { return nil, 0 })
		So(err, ShouldNotBeNil)
	})
}

func TestRegistry(t *testing.T) {
	Convey("注册与构造", t, func() {
		So(Register("test/refx", "Value", NewValue), ShouldBeNil)

		Convey("重复注册同一函数", func() {
			So(Register("test/refx", "Value", NewValue), ShouldBeNil)
		})

		Convey("重复注册不同函数", func() {
			So(Register("test/refx", "Value", NewSimpleValue), ShouldNotBeNil)
		})

		Convey("按名称构造", func() {
			obj, err := New("test/refx", "Value", &Options{Name: "n"})
			So(err, ShouldBeNil)
			So(obj.(*Value).Name, ShouldEqual, "n")
		})

		Convey("未注册的类型", func() {
			_, err := New("test/refx", "Missing", nil)
			So(err, ShouldNotBeNil)
		})

		Convey("Build 断言接口", func() {
			namer, err := Build[Namer](&TypeOptions{Namespace: "test/refx", Type: "Value", Options: &Options{Name: "b"}})
			So(err, ShouldBeNil)
			So(namer.GetName(), ShouldEqual, "b")

			_, err = Build[error](&TypeOptions{Namespace: "test/refx", Type: "Value", Options: &Options{Name: "b"}})
			So(err, ShouldNotBeNil)

			_, err = Build[Namer](nil)
			So(err, ShouldNotBeNil)
		})
	})

	Convey("按类型注册与构造", t, func() {
		So(RegisterT[*Value](NewDefaultValue), ShouldBeNil)
		v, err := NewT[*Value](nil)
		So(err, ShouldBeNil)
		So(v.Name, ShouldEqual, "default")

		_, err = NewT[int](nil)
		So(err, ShouldNotBeNil)
	})
}
