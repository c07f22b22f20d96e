package validation

import (
	"errors"
	"strings"
	"testing"

	"github.com/videotube/backend/internal/errs"
)

type passwordChange struct {
	OldPassword     string `json:"oldPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=6"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=NewPassword"`
}

func TestStructReportsJSONFieldNames(t *testing.T) {
	err := Struct(passwordChange{OldPassword: "", NewPassword: "secret1", ConfirmPassword: "secret2"})
	if !errors.Is(err, errs.ErrInvalidArgument) {
		t.Fatalf("expected invalid argument got %v", err)
	}
	msg := err.Error()
	if !strings.Contains(msg, "oldPassword is required") {
		t.Fatalf("expected json field name in message, got %q", msg)
	}
	if !strings.Contains(msg, "confirmPassword must match") {
		t.Fatalf("expected mismatch message, got %q", msg)
	}
}

func TestStructAcceptsValid(t *testing.T) {
	if err := Struct(passwordChange{OldPassword: "a", NewPassword: "secret1", ConfirmPassword: "secret1"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestVar(t *testing.T) {
	if err := Var("videoId", "3b241101-e2bb-4255-8caf-4136c566a962", "uuid"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err := Var("videoId", "abc", "uuid")
	if !errors.Is(err, errs.ErrInvalidArgument) || err.Error() != "videoId is invalid" {
		t.Fatalf("unexpected error %v", err)
	}
}

type credentials struct {
	Password string `json:"password" validate:"required,maxbytes=72"`
}

func TestMaxBytesCountsEncodedLength(t *testing.T) {
	if err := Struct(credentials{Password: strings.Repeat("a", 72)}); err != nil {
		t.Fatalf("72 ascii bytes should pass: %v", err)
	}

	err := Struct(credentials{Password: strings.Repeat("é", 72)})
	if !errors.Is(err, errs.ErrInvalidArgument) {
		t.Fatalf("expected invalid argument for 144 bytes, got %v", err)
	}
	if err.Error() != "password must be at most 72 bytes" {
		t.Fatalf("unexpected message %q", err.Error())
	}
}
