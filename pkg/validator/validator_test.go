package validator

import (
	"strings"
	"testing"
)

type loginForm struct {
	Username string `validate:"required"`
	Password string `validate:"required,min=8"`
}

func TestValidateStructPasses(t *testing.T) {
	form := loginForm{Username: "aruzhan", Password: "password123"}
	if err := ValidateStruct(&form); err != nil {
		t.Errorf("Valid struct should pass, got %v", err)
	}
}

func TestValidateStructRequired(t *testing.T) {
	form := loginForm{Password: "password123"}
	err := ValidateStruct(&form)
	if err == nil {
		t.Fatal("Missing username should fail")
	}
	if !strings.Contains(err.Error(), "Username") {
		t.Errorf("Error should name the field, got %q", err)
	}
}

func TestValidateStructMin(t *testing.T) {
	form := loginForm{Username: "aruzhan", Password: "short"}
	err := ValidateStruct(&form)
	if err == nil {
		t.Fatal("Short password should fail")
	}
	if !strings.Contains(err.Error(), "at least 8") {
		t.Errorf("Error should mention the minimum, got %q", err)
	}
}

func TestValidateRequired(t *testing.T) {
	if err := ValidateRequired("topic", "  "); err == nil {
		t.Error("Whitespace-only value should fail")
	}
	if err := ValidateRequired("topic", "Теңдеулер"); err != nil {
		t.Errorf("Non-empty value should pass, got %v", err)
	}
}

func TestSanitizeString(t *testing.T) {
	if got := SanitizeString("  hello\x00world  "); got != "helloworld" {
		t.Errorf("SanitizeString wrong: %q", got)
	}
}
