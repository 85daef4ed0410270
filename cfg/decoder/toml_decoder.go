package decoder

import (
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/terminatorcore/terminator/cfg/storage"
)

// TomlDecoder TOML 格式解码器
type TomlDecoder struct{}

func NewTomlDecoder() *TomlDecoder {
	return &TomlDecoder{}
}

func (t *TomlDecoder) Decode(data []byte) (storage.Storage, error) {
	var parsed map[string]any
	if err := toml.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode TOML: %w", err)
	}
	return storage.NewMapStorage(normalize(parsed)), nil
}

// normalize 把 toml 解析出的 []map[string]any 统一成 []any
func normalize(v any) any {
	switch value := v.(type) {
	case map[string]any:
		for k, item := range value {
			value[k] = normalize(item)
		}
		return value
	case []map[string]any:
		items := make([]any, len(value))
		for i, item := range value {
			items[i] = normalize(item)
		}
		return items
	case []any:
		for i, item := range value {
			value[i] = normalize(item)
		}
		return value
	}
	return v
}
