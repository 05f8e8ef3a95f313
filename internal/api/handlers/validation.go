package handlers

import (
	"log"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var (
	registerOnce  sync.Once
	currencyRegex = regexp.MustCompile(`^[A-Z]{3}$`)
)

// RegisterValidators adds the custom binding tags used by request DTOs to Gin's validator
// and makes validation errors report JSON field names. Safe to call more than once.
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			log.Println("Warning: Gin validator engine is not go-playground/validator, custom tags not registered")
			return
		}
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})
		mustRegister(v, "notblank", func(fl validator.FieldLevel) bool {
			return strings.TrimSpace(fl.Field().String()) != ""
		})
		mustRegister(v, "currency", func(fl validator.FieldLevel) bool {
			return currencyRegex.MatchString(fl.Field().String())
		})
	})
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		log.Fatalf("Failed to register validator %s: %v", tag, err)
	}
}
