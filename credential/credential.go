// Package credential 读取访问云服务所需的 AccessKey
//
// 读取来源按 Provider 抽象，ChainProvider 依次尝试各来源并返回第一个成功的结果，
// 全部失败时返回错误而不是退回任何内置的默认密钥。
package credential

import (
	"context"
	"fmt"

	"github.com/terminatorcore/terminator/refx"
)

const Namespace = "github.com/terminatorcore/terminator/credential"

// DefaultFilePath RAM 凭证文件的默认位置，第一行是 AccessKeyID，第二行是 AccessKeySecret
const DefaultFilePath = "/nas/zbase/security-credentials/ali_ram"

func init() {
	refx.MustRegister(Namespace, "FileProvider", NewFileProviderWithOptions)
	refx.MustRegister(Namespace, "EnvProvider", NewEnvProviderWithOptions)
	refx.MustRegister(Namespace, "StaticProvider", NewStaticProviderWithOptions)
	refx.MustRegister(Namespace, "RedisProvider", NewRedisProviderWithOptions)
	refx.MustRegister(Namespace, "CachedProvider", NewCachedProviderWithOptions)
	refx.MustRegister(Namespace, "ChainProvider", NewChainProviderWithOptions)
}

type Credential struct {
	AccessKeyID     string `msgpack:"id"`
	AccessKeySecret string `msgpack:"secret"`
}

func (c *Credential) Valid() bool {
	return c != nil && c.AccessKeyID != "" && c.AccessKeySecret != ""
}

// String 输出时隐藏 secret
func (c *Credential) String() string {
	if c == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%s:%s", c.AccessKeyID, mask(c.AccessKeySecret))
}

func mask(s string) string {
	if len(s) <= 4 {
		return "****"
	}
	return s[:2] + "****" + s[len(s)-2:]
}

// Provider 凭证来源
type Provider interface {
	Retrieve(ctx context.Context) (*Credential, error)
}

// Options 常用的凭证读取配置：先读凭证文件，再读环境变量，最后使用应用配置中的值
// 指定 Providers 时按给定顺序构造调用链，其余字段被忽略
type Options struct {
	File            string             `cfg:"file" def:"/nas/zbase/security-credentials/ali_ram"`
	AccessKeyID     string             `cfg:"accessKeyId"`
	AccessKeySecret string             `cfg:"accessKeySecret"`
	Providers       []refx.TypeOptions `cfg:"providers"`
}

// NewProviderWithOptions 根据 Options 构造凭证调用链
func NewProviderWithOptions(options *Options) (*ChainProvider, error) {
	if options == nil {
		options = &Options{}
	}
	if len(options.Providers) > 0 {
		return NewChainProviderWithOptions(&ChainProviderOptions{Providers: options.Providers})
	}

	fileProvider, err := NewFileProviderWithOptions(&FileProviderOptions{Path: options.File})
	if err != nil {
		return nil, err
	}
	providers := []Provider{fileProvider, NewEnvProvider("", "")}
	if options.AccessKeyID != "" || options.AccessKeySecret != "" {
		providers = append(providers, NewStaticProvider(options.AccessKeyID, options.AccessKeySecret))
	}
	return NewChainProvider(providers...), nil
}

// GetAccessKey 按 Options 读取凭证并返回 AccessKeyID 和 AccessKeySecret
func GetAccessKey(ctx context.Context, options *Options) (string, string, error) {
	provider, err := NewProviderWithOptions(options)
	if err != nil {
		return "", "", err
	}
	c, err := provider.Retrieve(ctx)
	if err != nil {
		return "", "", err
	}
	return c.AccessKeyID, c.AccessKeySecret, nil
}
