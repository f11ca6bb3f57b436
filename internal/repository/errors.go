package repository

import (
	"errors"

	"gorm.io/gorm"
)

var (
	ErrNotFound        = errors.New("repository: record not found")
	ErrDuplicate       = errors.New("repository: duplicate key")
	// ErrNegativeBalance is returned by UpdateBalance; balances never go below zero.
	ErrNegativeBalance = errors.New("repository: negative balance")
)

// translate maps gorm errors onto the package sentinels.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	default:
		return err
	}
}
