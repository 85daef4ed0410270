package storage

import (
	"fmt"
	"reflect"
)

// SetDefaults 为零值字段填充 def tag 声明的默认值，递归处理嵌套结构体
// 空指针字段不会被分配
func SetDefaults(object any) error {
	rv := reflect.ValueOf(object)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return fmt.Errorf("object must be a non-nil pointer")
	}
	return setDefaults(rv.Elem())
}

func setDefaults(rv reflect.Value) error {
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		for i := 0; i < rv.Len(); i++ {
			if err := setDefaults(rv.Index(i)); err != nil {
				return err
			}
		}
		return nil
	}
	if rv.Kind() != reflect.Struct || rv.Type() == timeType {
		return nil
	}

	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		value := rv.Field(i)
		if !field.IsExported() {
			continue
		}

		if def, ok := field.Tag.Lookup("def"); ok && value.IsZero() {
			if err := convertValue(def, value); err != nil {
				return fmt.Errorf("invalid default for field %s: %w", field.Name, err)
			}
			continue
		}

		if err := setDefaults(value); err != nil {
			return err
		}
	}
	return nil
}
