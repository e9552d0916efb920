package testutil

import (
	"errors"
	"testing"

	apperrors "github.com/kuberan/loansync/internal/errors"
)

// AssertAppError fails the test unless err is an *AppError carrying code.
func AssertAppError(t *testing.T, err error, code string) {
	t.Helper()

	var appErr *apperrors.AppError
	switch {
	case err == nil:
		t.Fatalf("expected AppError %q, got nil", code)
	case !errors.As(err, &appErr):
		t.Fatalf("expected AppError %q, got %T: %v", code, err, err)
	case appErr.Code != code:
		t.Errorf("expected AppError %q, got %q (%s)", code, appErr.Code, appErr.Message)
	}
}

// AssertIsSentinel fails the test unless errors.Is(err, sentinel) holds, so
// errors built with Wrap or WithMessage match their sentinel.
func AssertIsSentinel(t *testing.T, err error, sentinel *apperrors.AppError) {
	t.Helper()

	if !errors.Is(err, sentinel) {
		t.Fatalf("expected %s, got %v", sentinel.Code, err)
	}
}

// AssertNoError stops the test on any error.
func AssertNoError(t *testing.T, err error) {
	t.Helper()

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
