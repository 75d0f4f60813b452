package repositories

import (
	"errors"

	"github.com/farmchain/farmchain/pkg/orm"
	"gorm.io/gorm"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

// translate maps driver-level errors onto the repository sentinels.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case orm.IsNotFound(err):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	default:
		return err
	}
}
