// Package errs 区分三类应用错误：
//
//   - BusinessError 业务异常，记录业务逻辑上的异常，如参数非法、记录不存在
//   - ServiceError 服务异常，服务本身存在问题，如连接关闭、代码错误，需要额外处理
//   - InfoError 日志级别的异常，通常不用特殊处理，记录日志后即可
//
// 三者都只携带 message 和 code 两个字段，code 为 0 表示未指定。
package errs

import (
	"errors"
	"fmt"

	pkgerrors "github.com/pkg/errors"
)

type Kind int

const (
	KindNone Kind = iota
	KindBusiness
	KindService
	KindInfo
)

func (k Kind) String() string {
	switch k {
	case KindBusiness:
		return "business"
	case KindService:
		return "service"
	case KindInfo:
		return "info"
	default:
		return "none"
	}
}

// 通用错误码
const (
	CodeNotFound      = 404
	CodeInvalidParam  = 400
	CodeInternal      = 500
	CodeTableNotFound = 1001
	CodeNoCredential  = 1002
)

type base struct {
	Message string
	Code    int
	cause   error
}

func (e *base) format() string {
	msg := e.Message
	if e.Code != 0 {
		msg = fmt.Sprintf("[%d] %s", e.Code, e.Message)
	}
	if e.cause != nil {
		msg += ": " + e.cause.Error()
	}
	return msg
}

type BusinessError struct{ base }

type ServiceError struct{ base }

type InfoError struct{ base }

func (e *BusinessError) Error() string { return e.format() }
func (e *ServiceError) Error() string  { return e.format() }
func (e *InfoError) Error() string     { return e.format() }

func (e *BusinessError) Unwrap() error { return e.cause }
func (e *ServiceError) Unwrap() error  { return e.cause }
func (e *InfoError) Unwrap() error     { return e.cause }

func NewBusinessError(message string, code int) *BusinessError {
	return &BusinessError{base{Message: message, Code: code}}
}

func NewServiceError(message string, code int) *ServiceError {
	return &ServiceError{base{Message: message, Code: code}}
}

func NewInfoError(message string, code int) *InfoError {
	return &InfoError{base{Message: message, Code: code}}
}

func Businessf(code int, format string, args ...any) *BusinessError {
	return NewBusinessError(fmt.Sprintf(format, args...), code)
}

func Servicef(code int, format string, args ...any) *ServiceError {
	return NewServiceError(fmt.Sprintf(format, args...), code)
}

func Infof(code int, format string, args ...any) *InfoError {
	return NewInfoError(fmt.Sprintf(format, args...), code)
}

// WrapBusiness 把 err 作为原因包装为业务异常，err 为 nil 时返回 nil
func WrapBusiness(err error, message string, code int) error {
	if err == nil {
		return nil
	}
	return &BusinessError{base{Message: message, Code: code, cause: pkgerrors.WithStack(err)}}
}

// WrapService 把 err 作为原因包装为服务异常，err 为 nil 时返回 nil
func WrapService(err error, message string, code int) error {
	if err == nil {
		return nil
	}
	return &ServiceError{base{Message: message, Code: code, cause: pkgerrors.WithStack(err)}}
}

// WrapInfo 把 err 作为原因包装为日志级别异常，err 为 nil 时返回 nil
func WrapInfo(err error, message string, code int) error {
	if err == nil {
		return nil
	}
	return &InfoError{base{Message: message, Code: code, cause: pkgerrors.WithStack(err)}}
}

// classified 由三类错误共同实现，errors.As 按包装链先序遍历，返回最外层的一个
type classified interface {
	error
	classify() *base
}

func (e *base) classify() *base { return e }

func find(err error) classified {
	var c classified
	if err == nil || !errors.As(err, &c) {
		return nil
	}
	return c
}

// KindOf 沿包装链查找最外层的分类错误，支持 errors.Join 和多个 %w
func KindOf(err error) Kind {
	switch find(err).(type) {
	case *BusinessError:
		return KindBusiness
	case *ServiceError:
		return KindService
	case *InfoError:
		return KindInfo
	}
	return KindNone
}

func fields(err error) *base {
	if c := find(err); c != nil {
		return c.classify()
	}
	return nil
}

// CodeOf 返回分类错误的 code，非分类错误返回 0
func CodeOf(err error) int {
	if b := fields(err); b != nil {
		return b.Code
	}
	return 0
}

// MessageOf 返回分类错误的 message，非分类错误返回 err.Error()
func MessageOf(err error) string {
	if err == nil {
		return ""
	}
	if b := fields(err); b != nil {
		return b.Message
	}
	return err.Error()
}

func IsBusiness(err error) bool { return KindOf(err) == KindBusiness }
func IsService(err error) bool  { return KindOf(err) == KindService }
func IsInfo(err error) bool     { return KindOf(err) == KindInfo }
