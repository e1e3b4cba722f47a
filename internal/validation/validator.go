package validation

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// Validator returns the shared struct validator with the project tags registered:
//
//	fieldname  - value passes ValidateFieldName
//	category   - value is a known field category
//	direction  - value is a known sync direction
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		_ = v.RegisterValidation("fieldname", func(fl validator.FieldLevel) bool {
			return ValidateFieldName(fl.Field().String()) == nil
		})
		_ = v.RegisterValidation("category", func(fl validator.FieldLevel) bool {
			switch fl.Field().String() {
			case "manual_sync", "calculated_local", "calculated_remote", "media_sync", "readonly":
				return true
			}
			return false
		})
		_ = v.RegisterValidation("direction", func(fl validator.FieldLevel) bool {
			switch fl.Field().String() {
			case "local_to_remote", "remote_to_local", "both":
				return true
			}
			return false
		})
		validate = v
	})
	return validate
}

// Struct validates s and flattens validator errors into one readable message.
func Struct(s any) error {
	err := Validator().Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s: failed %s=%s", fe.Namespace(), fe.Tag(), fe.Param()))
			continue
		}
		msgs = append(msgs, fmt.Sprintf("%s: failed %s", fe.Namespace(), fe.Tag()))
	}
	return errors.New(strings.Join(msgs, "; "))
}
