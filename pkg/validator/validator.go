package validator

import (
	"log"
	"reflect"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var regionNamePattern = regexp.MustCompile(`^[A-Za-z\s-]*[A-Za-z][A-Za-z\s-]*$`)

func RegisterGinValidator() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		Register(v)
	}
}

// Register installs the json/form tag name function and the custom tags on v.
func Register(v *validator.Validate) {
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, tag := range []string{"json", "form"} {
			name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return fld.Name
	})
	err := v.RegisterValidation("regionname", regionNameValidator)
	if err != nil {
		log.Fatal("register regionname validator failed")
	}
}

// regionNameValidator accepts letters, spaces and hyphens with at least one
// letter. A blank value passes: it means no filter.
var regionNameValidator validator.Func = func(fl validator.FieldLevel) bool {
	name := strings.TrimSpace(fl.Field().String())
	if name == "" {
		return true
	}
	return regionNamePattern.MatchString(name)
}
