package security

import (
	"errors"
	"testing"
)

func TestDefaultPasswordValidatorSuccess(t *testing.T) {
	validator := DefaultPasswordValidator()

	if err := validator.Validate("C0mplex!Passphrase#2025"); err != nil {
		t.Fatalf("expected password to pass validation, got %v", err)
	}
}

func TestDefaultPasswordValidatorViolations(t *testing.T) {
	validator := DefaultPasswordValidator()

	assertViolation := func(password, expectedCode string) {
		t.Helper()
		err := validator.Validate(password)
		if err == nil {
			t.Fatalf("expected validation error for %s", expectedCode)
		}
		var vErr *PasswordValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected PasswordValidationError, got %T", err)
		}
		if vErr.Code != expectedCode {
			t.Fatalf("expected %s code, got %s", expectedCode, vErr.Code)
		}
	}

	assertViolation("Short1!", "min_length")
	assertViolation("lowercasepassword", "character_classes")
	assertViolation("Password123", "weak_password")
}

func TestCustomPasswordValidator(t *testing.T) {
	validator := NewPasswordValidator(
		MinLengthRule(4),
		RequireCharacterClassesRule(2),
	)

	if err := validator.Validate("abc"); err == nil {
		t.Fatal("expected validation error for short password")
	}

	if err := validator.Validate("abcd1"); err != nil {
		t.Fatalf("expected password to pass custom validation, got %v", err)
	}
}
