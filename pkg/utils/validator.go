package utils

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/bocado-ai/gate/pkg/constants"
	"github.com/bocado-ai/gate/pkg/errors"
)

var defaultValidator *validator.Validate

func init() {
	defaultValidator = validator.New()
	defaultValidator.RegisterTagNameFunc(jsonFieldName)
	_ = defaultValidator.RegisterValidation("recommendationtype", validateRecommendationType)
	_ = defaultValidator.RegisterValidation("notblank", validateNotBlank)
}

// ValidateStruct validates a struct using the default validator.
// It returns a validation_error carrying per-field details when validation fails.
func ValidateStruct(s interface{}) errors.GateError {
	err := defaultValidator.Struct(s)
	if err == nil {
		return nil
	}
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return errors.ErrValidation(err.Error(), nil)
	}
	details := make(map[string]string, len(validationErrors))
	for _, fe := range validationErrors {
		details[fieldPath(fe)] = formatValidationError(fe)
	}
	return errors.ErrValidation("request validation failed", details)
}

// ValidateVar validates a single value against a tag expression.
func ValidateVar(field string, value interface{}, tag string) errors.GateError {
	if err := defaultValidator.Var(value, tag); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok && len(validationErrors) > 0 {
			return errors.ErrValidation("request validation failed", map[string]string{
				field: formatValidationError(validationErrors[0]),
			})
		}
		return errors.ErrValidation(err.Error(), nil)
	}
	return nil
}

func validateRecommendationType(fl validator.FieldLevel) bool {
	switch constants.RecommendationType(fl.Field().String()) {
	case constants.RecommendationAtHome, constants.RecommendationOut:
		return true
	}
	return false
}

func validateNotBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

// jsonFieldName reports fields by their JSON name.
func jsonFieldName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" || name == "" {
		return toSnakeCase(fld.Name)
	}
	return name
}

// fieldPath drops the root struct name from the namespace.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if idx := strings.Index(ns, "."); idx >= 0 {
		return ns[idx+1:]
	}
	return fe.Field()
}

func formatValidationError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "notblank":
		return "is required"
	case "recommendationtype":
		return fmt.Sprintf("must be one of: %q, %q", constants.RecommendationAtHome, constants.RecommendationOut)
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "len":
		return fmt.Sprintf("must have length %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be less than or equal to %s", fe.Param())
	default:
		return fmt.Sprintf("failed on the '%s' tag", fe.Tag())
	}
}

var (
	matchFirstCap = regexp.MustCompile("(.)([A-Z][a-z]+)")
	matchAllCap   = regexp.MustCompile("([a-z0-9])([A-Z])")
)

func toSnakeCase(str string) string {
	snake := matchFirstCap.ReplaceAllString(str, "${1}_${2}")
	snake = matchAllCap.ReplaceAllString(snake, "${1}_${2}")
	return strings.ToLower(snake)
}
