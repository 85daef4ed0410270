package decoder

import (
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/terminatorcore/terminator/cfg/storage"
	"github.com/terminatorcore/terminator/refx"
)

const Namespace = "github.com/terminatorcore/terminator/cfg/decoder"

func init() {
	refx.MustRegister(Namespace, "JsonDecoder", NewJsonDecoder)
	refx.MustRegister(Namespace, "YamlDecoder", NewYamlDecoder)
	refx.MustRegister(Namespace, "TomlDecoder", NewTomlDecoder)
	refx.MustRegister(Namespace, "IniDecoder", NewIniDecoder)
}

// Decoder 把原始配置数据解码为存储对象
type Decoder interface {
	Decode(data []byte) (storage.Storage, error)
}

// TypeForFile 根据文件扩展名选择解码器类型
func TypeForFile(filename string) (string, error) {
	switch ext := strings.ToLower(filepath.Ext(filename)); ext {
	case ".json", ".json5":
		return "JsonDecoder", nil
	case ".yaml", ".yml":
		return "YamlDecoder", nil
	case ".toml":
		return "TomlDecoder", nil
	case ".ini":
		return "IniDecoder", nil
	default:
		return "", errors.Errorf("unsupported file extension: %q", ext)
	}
}

func NewDecoderWithOptions(options *refx.TypeOptions) (Decoder, error) {
	d, err := refx.Build[Decoder](options)
	if err != nil {
		return nil, errors.WithMessage(err, "refx.Build failed")
	}
	return d, nil
}
