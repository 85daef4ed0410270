package credential

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

type RedisProviderOptions struct {
	Endpoint    string        `cfg:"endpoint" def:"localhost:6379"`
	Password    string        `cfg:"password"`
	DB          int           `cfg:"db"`
	Key         string        `cfg:"key" def:"security-credentials:ali_ram"`
	IDField     string        `cfg:"idField" def:"access_key_id"`
	SecretField string        `cfg:"secretField" def:"access_key_secret"`
	Timeout     time.Duration `cfg:"timeout" def:"2s"`
}

// RedisProvider 从 redis hash 中读取凭证
type RedisProvider struct {
	client      *redis.Client
	key         string
	idField     string
	secretField string
	timeout     time.Duration
}

func NewRedisProviderWithOptions(options *RedisProviderOptions) (*RedisProvider, error) {
	if options == nil || options.Endpoint == "" {
		return nil, errors.New("redis endpoint is required")
	}
	if options.Key == "" {
		return nil, errors.New("redis key is required")
	}

	p := &RedisProvider{
		client: redis.NewClient(&redis.Options{
			Addr:     options.Endpoint,
			Password: options.Password,
			DB:       options.DB,
		}),
		key:         options.Key,
		idField:     options.IDField,
		secretField: options.SecretField,
		timeout:     options.Timeout,
	}
	if p.idField == "" {
		p.idField = "access_key_id"
	}
	if p.secretField == "" {
		p.secretField = "access_key_secret"
	}
	return p, nil
}

func (p *RedisProvider) Retrieve(ctx context.Context) (*Credential, error) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	values, err := p.client.HMGet(ctx, p.key, p.idField, p.secretField).Result()
	if err != nil {
		return nil, errors.Wrapf(err, "redis HMGET %s failed", p.key)
	}
	c := &Credential{}
	c.AccessKeyID, _ = values[0].(string)
	c.AccessKeySecret, _ = values[1].(string)
	if !c.Valid() {
		return nil, errors.Errorf("redis key %s does not hold a complete credential", p.key)
	}
	return c, nil
}

func (p *RedisProvider) Close() error {
	return p.client.Close()
}
