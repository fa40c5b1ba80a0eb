package validator

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var (
	cardNumberRgx = regexp.MustCompile(`^[0-9]{13,19}$`)
	cvvRgx        = regexp.MustCompile(`^[0-9]{3,4}$`)
	seatNumberRgx = regexp.MustCompile(`^[A-Z][0-9]{1,2}$`)
)

func NewValidator() *validator.Validate {
	validator := validator.New(validator.WithRequiredStructEnabled())

	validator.RegisterValidation("card_number", validateCardNumber)
	validator.RegisterValidation("card_expiry", validateCardExpiry)
	validator.RegisterValidation("cvv", validateCVV)
	validator.RegisterValidation("seat_number", validateSeatNumber)

	return validator
}

func validateCardNumber(fl validator.FieldLevel) bool {
	number := strings.ReplaceAll(fl.Field().String(), " ", "")

	return cardNumberRgx.MatchString(number)
}

// validateCardExpiry expects MM/YY and rejects cards expired before the
// current month.
func validateCardExpiry(fl validator.FieldLevel) bool {
	expiry := fl.Field().String()

	parts := strings.Split(expiry, "/")
	if len(parts) != 2 || len(parts[0]) != 2 || len(parts[1]) != 2 {
		return false
	}

	month, err := strconv.Atoi(parts[0])
	if err != nil || month < 1 || month > 12 {
		return false
	}

	year, err := strconv.Atoi(parts[1])
	if err != nil {
		return false
	}
	year += 2000

	now := time.Now()
	if year < now.Year() {
		return false
	}
	if year == now.Year() && time.Month(month) < now.Month() {
		return false
	}

	return true
}

func validateCVV(fl validator.FieldLevel) bool {
	return cvvRgx.MatchString(fl.Field().String())
}

func validateSeatNumber(fl validator.FieldLevel) bool {
	return seatNumberRgx.MatchString(fl.Field().String())
}

// ValidationMessage converts validator errors into readable messages
func ValidationMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must contain at least %s items", err.Param())
	case "max":
		return fmt.Sprintf("must contain at most %s items", err.Param())
	case "card_number":
		return "must be a card number of 13 to 19 digits"
	case "card_expiry":
		return "must be a valid expiry date in MM/YY format"
	case "cvv":
		return "must be a 3 or 4 digit security code"
	case "seat_number":
		return "must be a seat number like A1 or B12"
	case "oneof":
		return fmt.Sprintf("must be one of: %s", err.Param())
	default:
		return "is invalid"
	}
}
