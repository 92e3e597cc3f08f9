package service

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	apperrors "github.com/ikkim/shopfront-backend/internal/errors"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// validateInput runs struct tags and converts the first failure into a FieldError.
func validateInput(input interface{}) error {
	err := validate.Struct(input)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return apperrors.Invalid("input", "입력값이 올바르지 않습니다")
	}
	fe := verrs[0]
	return apperrors.Invalid(fe.Field(), fieldMessage(fe))
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s 항목은 필수입니다", fe.Field())
	case "min", "gte":
		return fmt.Sprintf("%s 값은 %s 이상이어야 합니다", fe.Field(), fe.Param())
	case "max", "lte":
		return fmt.Sprintf("%s 값은 %s 이하여야 합니다", fe.Field(), fe.Param())
	case "email":
		return "이메일 형식이 올바르지 않습니다"
	case "unique":
		return fmt.Sprintf("%s 항목에 중복된 값이 있습니다", fe.Field())
	default:
		return fmt.Sprintf("%s 값이 올바르지 않습니다", fe.Field())
	}
}
