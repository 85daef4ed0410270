package storage

import (
	"fmt"

	"github.com/terminatorcore/terminator/cfg/validator"
)

// ValidateStorage 在转换完成后用 validate tag 校验结果
type ValidateStorage struct {
	storage Storage
}

func NewValidateStorage(storage Storage) *ValidateStorage {
	return &ValidateStorage{storage: storage}
}

func (vs *ValidateStorage) Sub(key string) Storage {
	return NewValidateStorage(vs.storage.Sub(key))
}

func (vs *ValidateStorage) ConvertTo(object any) error {
	if err := vs.storage.ConvertTo(object); err != nil {
		return err
	}
	if err := validator.ValidateStruct(object); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	return nil
}
