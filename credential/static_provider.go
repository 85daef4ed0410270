package credential

import (
	"context"

	"github.com/pkg/errors"
)

type StaticProviderOptions struct {
	AccessKeyID     string `cfg:"accessKeyId"`
	AccessKeySecret string `cfg:"accessKeySecret"`
}

// StaticProvider 使用应用配置中给定的凭证
type StaticProvider struct {
	credential Credential
}

func NewStaticProvider(id, secret string) *StaticProvider {
	return &StaticProvider{credential: Credential{AccessKeyID: id, AccessKeySecret: secret}}
}

func NewStaticProviderWithOptions(options *StaticProviderOptions) (*StaticProvider, error) {
	if options == nil {
		return nil, errors.New("static provider options is required")
	}
	return NewStaticProvider(options.AccessKeyID, options.AccessKeySecret), nil
}

func (p *StaticProvider) Retrieve(ctx context.Context) (*Credential, error) {
	if !p.credential.Valid() {
		return nil, errors.New("static credential is incomplete")
	}
	c := p.credential
	return &c, nil
}
