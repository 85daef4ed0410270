package credential

import (
	"context"
	"os"

	"github.com/pkg/errors"
)

type EnvProviderOptions struct {
	IDKey     string `cfg:"idKey" def:"ACCESS_KEY_ID"`
	SecretKey string `cfg:"secretKey" def:"ACCESS_KEY_SECRET"`
}

// EnvProvider 从环境变量读取凭证
type EnvProvider struct {
	idKey     string
	secretKey string
}

func NewEnvProvider(idKey, secretKey string) *EnvProvider {
	if idKey == "" {
		idKey = "ACCESS_KEY_ID"
	}
	if secretKey == "" {
		secretKey = "ACCESS_KEY_SECRET"
	}
	return &EnvProvider{idKey: idKey, secretKey: secretKey}
}

func NewEnvProviderWithOptions(options *EnvProviderOptions) (*EnvProvider, error) {
	if options == nil {
		return NewEnvProvider("", ""), nil
	}
	return NewEnvProvider(options.IDKey, options.SecretKey), nil
}

func (p *EnvProvider) Retrieve(ctx context.Context) (*Credential, error) {
	c := &Credential{
		AccessKeyID:     os.Getenv(p.idKey),
		AccessKeySecret: os.Getenv(p.secretKey),
	}
	if !c.Valid() {
		return nil, errors.Errorf("environment variables %s and %s are not both set", p.idKey, p.secretKey)
	}
	return c, nil
}
