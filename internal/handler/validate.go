package handler

import (
	"fmt"
	"sync"

	"walletledger/internal/domain"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var registerOnce sync.Once

// RegisterValidators adds the walletnumber tag to gin's binding validator.
func RegisterValidators() error {
	var err error
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			err = fmt.Errorf("unexpected binding engine %T", binding.Validator.Engine())
			return
		}
		err = v.RegisterValidation("walletnumber", func(fl validator.FieldLevel) bool {
			return domain.ValidWalletNumber(fl.Field().String())
		})
	})
	return err
}
