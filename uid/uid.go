// Package uid 生成请求 id 等字符串标识
package uid

import (
	"github.com/pkg/errors"
	"github.com/terminatorcore/terminator/refx"
)

const Namespace = "github.com/terminatorcore/terminator/uid"

func init() {
	refx.MustRegister(Namespace, "UUIDGenerator", NewUUIDGeneratorWithOptions)
}

// StrGenerator 生成字符串标识
type StrGenerator interface {
	Generate() string
}

// NewStrGeneratorWithOptions 按类型创建生成器，options 为空时使用默认的 UUIDGenerator
func NewStrGeneratorWithOptions(options *refx.TypeOptions) (StrGenerator, error) {
	if options == nil || options.Type == "" {
		return NewUUIDGeneratorWithOptions(nil), nil
	}
	if options.Namespace == "" {
		options = &refx.TypeOptions{Namespace: Namespace, Type: options.Type, Options: options.Options}
	}
	gen, err := refx.Build[StrGenerator](options)
	if err != nil {
		return nil, errors.WithMessage(err, "failed to create string generator")
	}
	return gen, nil
}
