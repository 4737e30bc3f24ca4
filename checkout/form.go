package checkout

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Form is the checkout form as the user fills it in.
type Form struct {
	Name    string `validate:"required,min=2"`
	Email   string `validate:"required,email"`
	Address string `validate:"required,min=5"`
	Phone   string `validate:"required,phone"`
}

var validate = newValidator()

// phonePattern accepts an optional leading + followed by 10-15 digits;
// spaces, dashes and parentheses are stripped before matching.
var phonePattern = regexp.MustCompile(`^\+?[0-9]{10,15}$`)

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return ValidPhone(fl.Field().String())
	})
	return v
}

// ValidPhone reports whether the string is an acceptable phone number.
func ValidPhone(phone string) bool {
	cleaned := strings.NewReplacer(" ", "", "-", "", "(", "", ")", "").Replace(phone)
	return phonePattern.MatchString(cleaned)
}

// Validate returns field-level error messages keyed by lowercased field
// name, empty when the form is acceptable.
func (f Form) Validate() map[string]string {
	err := validate.Struct(f)
	if err == nil {
		return nil
	}

	errs := make(map[string]string)
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		errs["form"] = "invalid form"
		return errs
	}

	for _, fe := range validationErrors {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			errs[field] = fmt.Sprintf("%s is required", field)
		case "email":
			errs[field] = fmt.Sprintf("%s must be a valid email address", field)
		case "min":
			errs[field] = fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
		case "phone":
			errs[field] = fmt.Sprintf("%s must be a valid phone number", field)
		default:
			errs[field] = fmt.Sprintf("%s is invalid", field)
		}
	}
	return errs
}
