package grocery

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ItemInput is the client payload for add and update.
// Quantity is a pointer so an absent or null value can be told apart from zero.
type ItemInput struct {
	ItemName string `json:"item_name" validate:"notblank"`
	Quantity *int   `json:"quantity" validate:"required"`
}

// Validator checks and normalizes ItemInput values.
type Validator struct {
	v *validator.Validate
}

// NewValidator builds a Validator with the notblank rule registered.
func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Registration only fails for an empty tag or nil func.
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return &Validator{v: v}
}

// Validate returns the normalized input or a *ValidationError.
// Surrounding whitespace is trimmed from the item name.
func (v *Validator) Validate(in ItemInput) (ItemInput, error) {
	if err := v.v.Struct(in); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			return in, &ValidationError{Detail: describe(fieldErrs[0])}
		}
		return in, &ValidationError{Detail: err.Error()}
	}
	in.ItemName = strings.TrimSpace(in.ItemName)
	return in, nil
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "notblank":
		return fe.Field() + " must not be empty"
	case "required":
		return fe.Field() + " is required"
	default:
		return fe.Field() + " is invalid"
	}
}
