package validator

import (
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
)

type testPayload struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Age      int    `json:"age" validate:"gte=18"`
}

func TestValidateStructSuccess(t *testing.T) {
	payload := testPayload{
		Username: "alice",
		Email:    "alice@example.com",
		Age:      20,
	}

	if err := ValidateStruct(payload); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestValidateStructFailures(t *testing.T) {
	payload := testPayload{
		Username: "",
		Email:    "invalid",
		Age:      10,
	}

	err := ValidateStruct(payload)
	if err == nil {
		t.Fatal("expected validation error")
	}

	vErrs, ok := err.(ValidationErrors)
	if !ok {
		t.Fatalf("expected ValidationErrors, got %T", err)
	}

	if len(vErrs) != 3 {
		t.Fatalf("expected 3 validation errors, got %d", len(vErrs))
	}

	foundEmail := false
	for _, v := range vErrs {
		if v.Field == "email" {
			foundEmail = true
		}
	}

	if !foundEmail {
		t.Fatal("expected email field to be present in validation errors")
	}
}

func TestCampusIDRule(t *testing.T) {
	type signup struct {
		StudentID string `json:"student_id" validate:"omitempty,campusid"`
	}

	for _, id := range []string{"cs21b042", "ee19003", "MECH22A1234", ""} {
		if err := ValidateStruct(signup{StudentID: id}); err != nil {
			t.Fatalf("expected %q to validate, got %v", id, err)
		}
	}

	for _, id := range []string{"42cs21", "cs", "cs21b04x", "not a roll number"} {
		err := ValidateStruct(signup{StudentID: id})
		if err == nil {
			t.Fatalf("expected %q to be rejected", id)
		}
		if !strings.Contains(err.Error(), "campusid") {
			t.Fatalf("expected campusid failure for %q, got %v", id, err)
		}
	}
}

func TestRegisterValidation(t *testing.T) {
	err := RegisterValidation("allcaps", func(fl validator.FieldLevel) bool {
		v := fl.Field().String()
		return v == strings.ToUpper(v)
	})
	if err != nil {
		t.Fatalf("register validation: %v", err)
	}

	type custom struct {
		Value string `validate:"allcaps"`
	}

	if err := ValidateStruct(custom{Value: "LOUD"}); err != nil {
		t.Fatalf("expected validation to pass, got %v", err)
	}
	if err := ValidateStruct(custom{Value: "quiet"}); err == nil {
		t.Fatal("expected validation to fail for non-matching value")
	}
}
