package decoder

import (
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/terminatorcore/terminator/cfg/storage"
)

// JsonDecoder JSON 格式解码器，允许 // 和 /* */ 注释以及尾随逗号
type JsonDecoder struct{}

func NewJsonDecoder() *JsonDecoder {
	return &JsonDecoder{}
}

var trailingComma = regexp.MustCompile(`,(\s*[}\]])`)

func (j *JsonDecoder) Decode(data []byte) (storage.Storage, error) {
	var result any
	cleaned := trailingComma.ReplaceAll(stripComments(data), []byte("$1"))
	if err := json.Unmarshal(cleaned, &result); err != nil {
		return nil, fmt.Errorf("failed to decode JSON: %w", err)
	}
	return storage.NewMapStorage(result), nil
}

// stripComments 去掉字符串字面量以外的注释
func stripComments(data []byte) []byte {
	out := make([]byte, 0, len(data))
	inString, escaped := false, false
	for i := 0; i < len(data); i++ {
		c := data[i]
		if inString {
			out = append(out, c)
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		if c == '"' {
			inString = true
			out = append(out, c)
			continue
		}
		if c == '/' && i+1 < len(data) {
			switch data[i+1] {
			case '/':
				for i < len(data) && data[i] != '\n' {
					i++
				}
				if i < len(data) {
					out = append(out, '\n')
				}
				continue
			case '*':
				i += 2
				for i+1 < len(data) && !(data[i] == '*' && data[i+1] == '/') {
					i++
				}
				i++
				continue
			}
		}
		out = append(out, c)
	}
	return out
}
