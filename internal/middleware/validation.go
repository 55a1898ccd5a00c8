package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strings"

	"cleat-store/internal/domain"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

// jsonFieldName reports struct fields by the name clients send
func jsonFieldName(fld reflect.StructField) string {
	name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
	if name == "" || name == "-" {
		return fld.Name
	}
	return name
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(jsonFieldName)

	custom := map[string]validator.Func{
		"role": func(fl validator.FieldLevel) bool {
			return domain.Role(fl.Field().String()).Valid()
		},
		// empty keeps the current status
		"product_status": func(fl validator.FieldLevel) bool {
			s := fl.Field().String()
			return s == "" || domain.ProductStatus(s).Valid()
		},
	}
	for tag, fn := range custom {
		if err := v.RegisterValidation(tag, fn); err != nil {
			panic(err)
		}
	}
	return v
}

// ValidateRequest runs the validate tags of v
func ValidateRequest(v interface{}) error {
	return validate.Struct(v)
}

// DecodeAndValidate reads a JSON body into v and validates it
func DecodeAndValidate(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return err
	}
	return ValidateRequest(v)
}

// ValidationError is one rejected field
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

var fixedMessages = map[string]string{
	"required":       "This field is required",
	"email":          "Invalid email format",
	"min":            "Value is too short",
	"max":            "Value is too long",
	"role":           "Role must be one of admin, seller, customer",
	"product_status": "Status must be one of active, inactive, draft",
}

var boundMessages = map[string]string{
	"gte": "Value must be greater than or equal to ",
	"lte": "Value must be less than or equal to ",
	"gt":  "Value must be greater than ",
	"lt":  "Value must be less than ",
}

func messageFor(e validator.FieldError) string {
	if msg, ok := fixedMessages[e.Tag()]; ok {
		return msg
	}
	if prefix, ok := boundMessages[e.Tag()]; ok {
		return prefix + e.Param()
	}
	return "Invalid value"
}

// FormatValidationErrors lists field errors in declaration order. Errors that
// did not come from the validator yield nil.
func FormatValidationErrors(err error) []ValidationError {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return nil
	}

	out := make([]ValidationError, 0, len(fieldErrs))
	for _, e := range fieldErrs {
		out = append(out, ValidationError{Field: e.Field(), Message: messageFor(e)})
	}
	return out
}

// RespondWithDecodeError answers a failed DecodeAndValidate: field errors
// are listed, anything else is a malformed body
func RespondWithDecodeError(w http.ResponseWriter, err error) {
	if errs := FormatValidationErrors(err); len(errs) > 0 {
		RespondWithValidationErrors(w, errs)
		return
	}
	RespondWithError(w, http.StatusBadRequest, "invalid request body")
}
