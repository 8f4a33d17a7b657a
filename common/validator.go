package common

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
)

const maxBodyBytes = 1 << 20

var validate = validator.New()

// DecodeAndValidate reads a JSON body into payload and runs its validate tags.
func DecodeAndValidate(w http.ResponseWriter, r *http.Request, payload interface{}) *AppError {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(payload); err != nil {
		return NewAppError(http.StatusBadRequest, "Invalid request body", err).WithKind("InvalidRequest")
	}

	if err := validate.Struct(payload); err != nil {
		var validationErrors validator.ValidationErrors
		if !errors.As(err, &validationErrors) {
			return NewAppError(http.StatusBadRequest, "Invalid request body", err).WithKind("InvalidRequest")
		}
		return NewAppError(http.StatusBadRequest, describe(validationErrors), nil).WithKind("InvalidRequest")
	}

	return nil
}

func describe(errs validator.ValidationErrors) string {
	parts := make([]string, 0, len(errs))
	for _, fe := range errs {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			parts = append(parts, fmt.Sprintf("%s is required", field))
		case "email":
			parts = append(parts, fmt.Sprintf("%s must be a valid email address", field))
		case "min", "max":
			parts = append(parts, fmt.Sprintf("%s must satisfy %s=%s", field, fe.Tag(), fe.Param()))
		default:
			parts = append(parts, fmt.Sprintf("%s is invalid", field))
		}
	}
	return strings.Join(parts, "; ")
}
