package credential

import (
	"context"
	"time"

	"github.com/coocood/freecache"
	"github.com/pkg/errors"
	"github.com/terminatorcore/terminator/refx"
	"github.com/vmihailenco/msgpack/v5"
)

type CachedProviderOptions struct {
	Provider refx.TypeOptions `cfg:"provider" validate:"required"`
	TTL      time.Duration    `cfg:"ttl" def:"5m"`
	// 缓存容量（字节），freecache 最小 512KB
	Size int `cfg:"size" def:"524288"`
}

var cacheKey = []byte("credential")

// CachedProvider 在进程内缓存下游来源的凭证，避免每次都访问远端
type CachedProvider struct {
	provider Provider
	cache    *freecache.Cache
	ttl      time.Duration
}

func NewCachedProvider(provider Provider, ttl time.Duration, size int) *CachedProvider {
	if size < 512*1024 {
		size = 512 * 1024
	}
	return &CachedProvider{provider: provider, cache: freecache.NewCache(size), ttl: ttl}
}

func NewCachedProviderWithOptions(options *CachedProviderOptions) (*CachedProvider, error) {
	if options == nil {
		return nil, errors.New("cached provider options is required")
	}
	provider, err := refx.Build[Provider](&options.Provider)
	if err != nil {
		return nil, errors.WithMessage(err, "failed to create underlying provider")
	}
	return NewCachedProvider(provider, options.TTL, options.Size), nil
}

func (p *CachedProvider) Retrieve(ctx context.Context) (*Credential, error) {
	if data, err := p.cache.Get(cacheKey); err == nil {
		var c Credential
		if err := msgpack.Unmarshal(data, &c); err == nil {
			return &c, nil
		}
	}

	c, err := p.provider.Retrieve(ctx)
	if err != nil {
		return nil, err
	}
	data, err := msgpack.Marshal(c)
	if err != nil {
		return nil, errors.Wrap(err, "msgpack.Marshal failed")
	}
	// ttl 小于 1 秒时不过期
	_ = p.cache.Set(cacheKey, data, int(p.ttl/time.Second))
	return c, nil
}

// Invalidate 丢弃缓存，下一次读取会访问下游来源
func (p *CachedProvider) Invalidate() {
	p.cache.Del(cacheKey)
}
