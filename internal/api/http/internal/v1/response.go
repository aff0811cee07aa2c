package v1

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

func errorResponse(c *gin.Context, status int, code ErrorCode) {
	c.AbortWithStatusJSON(status, getErrorStruct(code))
}

func MethodNotAllowed(c *gin.Context) {
	errorResponse(c, http.StatusMethodNotAllowed, MethodNotAllowedCode)
}

func NotFound(c *gin.Context) {
	errorResponse(c, http.StatusNotFound, NotFoundCode)
}

func validationErrorResponse(c *gin.Context, err error) {
	response := ValidationErrorStruct{
		ErrorCode:    ValidationErrorCode,
		ErrorMessage: ValidationErrorMessage,
	}

	var verr validator.ValidationErrors
	if errors.As(err, &verr) {
		out := make([]ValidationError, len(verr))
		for i, ferr := range verr {
			out[i] = ValidationError{ferr.Field(), msgForTag(ferr.Tag(), ferr.Param(), ferr.Kind())}
		}
		response.Errors = out
	} else {
		response.Errors = []ValidationError{{FieldKey: "query", ErrorMessage: err.Error()}}
	}

	c.AbortWithStatusJSON(http.StatusBadRequest, response)
}

func fieldErrorResponse(c *gin.Context, errs []ValidationError) {
	c.AbortWithStatusJSON(http.StatusBadRequest, ValidationErrorStruct{
		ErrorCode:    ValidationErrorCode,
		ErrorMessage: ValidationErrorMessage,
		Errors:       errs,
	})
}

func msgForTag(tag string, value string, kind reflect.Kind) string {
	switch tag {
	case "required":
		return "This field is required"
	case "number":
		return "Must be a positive integer"
	case "min":
		return fmt.Sprintf("Must be at least %v", value)
	case "max":
		if kind == reflect.String {
			return fmt.Sprintf("Must be at most %v characters", value)
		}
		return fmt.Sprintf("Must be at most %v", value)
	case "regionname":
		return "Name may contain only letters, spaces, or hyphens and must include at least one letter"
	}
	return tag
}
