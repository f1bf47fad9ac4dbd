package directory

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// newValidator panics if a custom rule cannot be registered; that only
// happens with a malformed tag name.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	if err := v.RegisterValidation("emailshape", func(fl validator.FieldLevel) bool {
		return validEmailShape(fl.Field().String())
	}); err != nil {
		panic(fmt.Sprintf("directory: register emailshape: %v", err))
	}
	return v
}

// validEmailShape accepts local@domain with both parts non-empty.
func validEmailShape(email string) bool {
	at := strings.LastIndex(email, "@")
	return at > 0 && at < len(email)-1
}
