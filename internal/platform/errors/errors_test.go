package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestErrorIsMatchesByCode(t *testing.T) {
	err := fmt.Errorf("upsert: %w", New(CodeCustomSystemNoGrades, "no grades"))
	if !stderrors.Is(err, New(CodeCustomSystemNoGrades, "")) {
		t.Fatal("expected wrapped error to match by code")
	}
	if stderrors.Is(err, New(CodeCustomSystemNameEmpty, "")) {
		t.Fatal("expected different code not to match")
	}
}

func TestWrapUnwrapsCause(t *testing.T) {
	cause := stderrors.New("disk full")
	err := Wrap(CodeUnknown, "persist", cause)
	if !stderrors.Is(err, cause) {
		t.Fatal("expected cause in chain")
	}
}

func TestCodeOf(t *testing.T) {
	if got := CodeOf(stderrors.New("plain")); got != CodeUnknown {
		t.Fatalf("CodeOf(plain) = %s, want %s", got, CodeUnknown)
	}
	wrapped := fmt.Errorf("ctx: %w", New(CodeNotFound, "missing"))
	if got := CodeOf(wrapped); got != CodeNotFound {
		t.Fatalf("CodeOf(wrapped) = %s, want %s", got, CodeNotFound)
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		code Code
		want int
	}{
		{CodeCustomSystemDuplicateGrade, http.StatusBadRequest},
		{CodeGradeSystemNotFound, http.StatusNotFound},
		{CodeIdentityMissing, http.StatusUnauthorized},
		{CodeInvalidRequest, http.StatusBadRequest},
		{CodeUnknown, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := tt.code.HTTPStatus(); got != tt.want {
			t.Fatalf("%s.HTTPStatus() = %d, want %d", tt.code, got, tt.want)
		}
	}
}

func TestLocalizedMessage(t *testing.T) {
	err := WithMetadata(CodeCustomSystemNameTooLong, "name too long", map[string]string{"Max": "64"})
	if got := LocalizedMessage(err, "en-US"); got != "Grade system name must be at most 64 characters." {
		t.Fatalf("message = %q", got)
	}
	if got := LocalizedMessage(stderrors.New("boom"), "en-US"); got != "boom" {
		t.Fatalf("plain message = %q", got)
	}
	if got := LocalizedMessage(nil, "en-US"); got != "" {
		t.Fatalf("nil message = %q", got)
	}
}
