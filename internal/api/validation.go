package api

import (
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/ZanzyTHEbar/pontos-doacao/internal/errors"
	"github.com/ZanzyTHEbar/pontos-doacao/internal/types"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

var registerOnce sync.Once

// RegisterValidators installs the custom rules on gin's validator and makes
// field errors use JSON names.
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}

		v.RegisterValidation("notblank", validators.NotBlank)
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
}

// bindJSON decodes and validates the request body into dst
func bindJSON(c *gin.Context, dst interface{}) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		return translateBindError(err)
	}
	return nil
}

func translateBindError(err error) error {
	var validationErrs validator.ValidationErrors
	if stderrors.As(err, &validationErrs) {
		return errors.NewValidationErrorWithMap(fieldMessages(validationErrs))
	}

	var maxBytesErr *http.MaxBytesError
	if stderrors.As(err, &maxBytesErr) {
		appErr := errors.NewValidationError(fmt.Sprintf("Request body exceeds %d bytes", maxBytesErr.Limit), nil)
		appErr.HTTPStatus = http.StatusRequestEntityTooLarge
		return appErr
	}

	if stderrors.Is(err, io.EOF) {
		return errors.NewValidationError("Request body is empty", nil)
	}

	return errors.NewValidationError("Invalid request body", err)
}

func fieldMessages(errs validator.ValidationErrors) map[string]string {
	messages := make(map[string]string, len(errs))

	for _, err := range errs {
		field := err.Field()

		switch err.Tag() {
		case "required", "notblank":
			messages[field] = fmt.Sprintf("%s is required", field)
		case "max":
			messages[field] = fmt.Sprintf("%s must be at most %s characters long", field, err.Param())
		case "latitude":
			messages[field] = "latitude must be between -90 and 90"
		case "longitude":
			messages[field] = "longitude must be between -180 and 180"
		default:
			messages[field] = fmt.Sprintf("%s is invalid", field)
		}
	}

	return messages
}

// ValidateInput applies the request binding rules to an input decoded
// outside a request, such as a seed file.
func ValidateInput(in types.PointInput) error {
	RegisterValidators()

	if err := binding.Validator.ValidateStruct(in); err != nil {
		return translateBindError(err)
	}
	return nil
}
