package validator

import (
	"reflect"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidateStruct 使用 validate tag 校验结构体，非结构体和 nil 指针直接跳过
func ValidateStruct(object any) error {
	rv := reflect.ValueOf(object)
	if !rv.IsValid() {
		return nil
	}
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil
	}
	if rv.Type().PkgPath() == "time" {
		return nil
	}
	return validate.Struct(rv.Interface())
}
