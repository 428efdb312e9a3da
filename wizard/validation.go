package wizard

import (
	"regexp"
	"unicode/utf8"
)

type ValidationResult struct {
	IsValid bool
	Message string
}

var (
	// Unicode spaces are excluded alongside ASCII whitespace.
	emailRegex    = regexp.MustCompile(`^[^\s\v\p{Zs}\x{2028}\x{2029}\x{FEFF}@]+@[^\s\v\p{Zs}\x{2028}\x{2029}\x{FEFF}@]+\.[^\s\v\p{Zs}\x{2028}\x{2029}\x{FEFF}@]+$`)
	phoneRegex    = regexp.MustCompile(`^[+]?[1-9]\d{0,15}$`)
	nonDigitRegex = regexp.MustCompile(`\D`)
	digitRegex    = regexp.MustCompile(`\d`)
	letterRegex   = regexp.MustCompile(`[a-zA-Z]`)
)

func result(isValid bool, validMessage, invalidMessage string) ValidationResult {
	if isValid {
		return ValidationResult{IsValid: true, Message: validMessage}
	}
	return ValidationResult{IsValid: false, Message: invalidMessage}
}

func ValidateBusinessName(name string) ValidationResult {
	return result(utf8.RuneCountInString(name) >= 2,
		"Valid business name",
		"Business name must be at least 2 characters")
}

func ValidateEmail(email string) ValidationResult {
	return result(emailRegex.MatchString(email),
		"Valid email address",
		"Please enter a valid email address")
}

// ValidatePhone strips every non-digit before matching, so formatting such
// as "+1 (555) 123-4567" is accepted.
func ValidatePhone(phone string) ValidationResult {
	digits := nonDigitRegex.ReplaceAllString(phone, "")
	return result(phoneRegex.MatchString(digits),
		"Valid phone number",
		"Please enter a valid phone number")
}

func ValidatePassword(password string) ValidationResult {
	isValid := utf8.RuneCountInString(password) >= 8 &&
		digitRegex.MatchString(password) &&
		letterRegex.MatchString(password)

	return result(isValid,
		"Strong password",
		"Password must be at least 8 characters with letters and numbers")
}

func ValidateConfirmPassword(password, confirmPassword string) ValidationResult {
	return result(password == confirmPassword && len(password) > 0,
		"Passwords match",
		"Passwords do not match")
}

// validateField applies the rule table. Fields without a rule are always
// valid with an empty message.
func validateField(d *Draft, f Field) ValidationResult {
	switch f {
	case BUSINESS_NAME:
		return ValidateBusinessName(d.BusinessName)
	case BUSINESS_EMAIL:
		return ValidateEmail(d.BusinessEmail)
	case PHONE_NUMBER:
		return ValidatePhone(d.PhoneNumber)
	case PASSWORD:
		return ValidatePassword(d.Password)
	case CONFIRM_PASSWORD:
		return ValidateConfirmPassword(d.Password, d.ConfirmPassword)
	default:
		return ValidationResult{IsValid: true}
	}
}
