package credential

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/terminatorcore/terminator/errs"
	"github.com/terminatorcore/terminator/log"
	"github.com/terminatorcore/terminator/refx"
)

type ChainProviderOptions struct {
	Providers []refx.TypeOptions `cfg:"providers" validate:"required,min=1"`
}

// ChainProvider 依次尝试各来源，返回第一个成功的凭证
type ChainProvider struct {
	providers []Provider
	logger    log.Logger
}

func NewChainProvider(providers ...Provider) *ChainProvider {
	return &ChainProvider{providers: providers, logger: log.Default()}
}

func NewChainProviderWithOptions(options *ChainProviderOptions) (*ChainProvider, error) {
	if options == nil || len(options.Providers) == 0 {
		return nil, errors.New("at least one provider is required")
	}
	providers := make([]Provider, 0, len(options.Providers))
	for i := range options.Providers {
		p, err := refx.Build[Provider](&options.Providers[i])
		if err != nil {
			return nil, errors.WithMessagef(err, "failed to create provider %d", i)
		}
		providers = append(providers, p)
	}
	return NewChainProvider(providers...), nil
}

func (p *ChainProvider) SetLogger(logger log.Logger) {
	if logger != nil {
		p.logger = logger
	}
}

// Retrieve 全部来源失败时返回 ServiceError，包含每个来源的失败原因
func (p *ChainProvider) Retrieve(ctx context.Context) (*Credential, error) {
	failures := make([]string, 0, len(p.providers))
	for i, provider := range p.providers {
		if err := ctx.Err(); err != nil {
			return nil, errs.WrapService(err, "credential lookup cancelled", errs.CodeNoCredential)
		}
		c, err := provider.Retrieve(ctx)
		if err == nil && c.Valid() {
			if i > 0 {
				errs.LogContext(ctx, p.logger, errs.Infof(0, "credential resolved by fallback provider %T", provider), "failures", failures)
			}
			return c, nil
		}
		if err == nil {
			err = errors.New("incomplete credential")
		}
		failures = append(failures, fmt.Sprintf("%T: %v", provider, err))
	}
	return nil, errs.Servicef(errs.CodeNoCredential, "no credential available: %s", strings.Join(failures, "; "))
}

func (p *ChainProvider) Close() error {
	var lastErr error
	for _, provider := range p.providers {
		if closer, ok := provider.(interface{ Close() error }); ok {
			if err := closer.Close(); err != nil {
				lastErr = err
			}
		}
	}
	return lastErr
}
