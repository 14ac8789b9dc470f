package errors

import (
	"errors"
	"fmt"
	"reflect"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeInvalidInput, "test message: %s", "value")

	if err.Code != ErrCodeInvalidInput {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeInvalidInput)
	}

	if err.Message != "test message: value" {
		t.Errorf("Message = %v, want %v", err.Message, "test message: value")
	}

	expected := "INVALID_INPUT: test message: value"
	if err.Error() != expected {
		t.Errorf("Error() = %v, want %v", err.Error(), expected)
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("underlying error")
	err := Wrap(ErrCodeInvalidWorkspace, cause, "failed to parse")

	if err.Code != ErrCodeInvalidWorkspace {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeInvalidWorkspace)
	}

	if errors.Unwrap(err) != cause {
		t.Errorf("Unwrap() = %v, want %v", errors.Unwrap(err), cause)
	}

	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false, want true")
	}

	expected := "INVALID_WORKSPACE: failed to parse: underlying error"
	if err.Error() != expected {
		t.Errorf("Error() = %v, want %v", err.Error(), expected)
	}
}

func TestUnresolved(t *testing.T) {
	err := Unresolved([]string{"x", "y"}, "z", "no provider for %s", "z")

	if err.Code != ErrCodeUnresolvedDependency {
		t.Errorf("Code = %v", err.Code)
	}
	if err.Subject != "z" {
		t.Errorf("Subject = %q, want z", err.Subject)
	}
	if want := "UNRESOLVED_DEPENDENCY: no provider for z (x -> y)"; err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestWithChainCopies(t *testing.T) {
	chain := []string{"a", "b"}
	err := New(ErrCodeInternal, "x").WithChain(chain)
	chain[0] = "changed"
	if err.Chain[0] != "a" {
		t.Error("WithChain should copy its argument")
	}
}

func TestCycle(t *testing.T) {
	err := Cycle([]string{"a", "b"})
	if !Is(err, ErrCodeCycleDetected) {
		t.Errorf("Is(CYCLE_DETECTED) = false")
	}
	if !reflect.DeepEqual(GetChain(err), []string{"a", "b"}) {
		t.Errorf("GetChain() = %v", GetChain(err))
	}
}

func TestIs(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		code     Code
		expected bool
	}{
		{
			name:     "matching code",
			err:      New(ErrCodeInvalidInput, "test"),
			code:     ErrCodeInvalidInput,
			expected: true,
		},
		{
			name:     "non-matching code",
			err:      New(ErrCodeInvalidInput, "test"),
			code:     ErrCodeUnknownNode,
			expected: false,
		},
		{
			name:     "wrapped error",
			err:      Wrap(ErrCodeUnresolvedDependency, New(ErrCodeInvalidInput, "inner"), "outer"),
			code:     ErrCodeUnresolvedDependency,
			expected: true,
		},
		{
			name:     "fmt wrapped",
			err:      fmt.Errorf("context: %w", New(ErrCodeAmbiguousProvider, "inner")),
			code:     ErrCodeAmbiguousProvider,
			expected: true,
		},
		{
			name:     "non-Error type",
			err:      errors.New("plain error"),
			code:     ErrCodeInvalidInput,
			expected: false,
		},
		{
			name:     "nil error",
			err:      nil,
			code:     ErrCodeInvalidInput,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.code); got != tt.expected {
				t.Errorf("Is() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestGetCode(t *testing.T) {
	if got := GetCode(New(ErrCodeNotFound, "x")); got != ErrCodeNotFound {
		t.Errorf("GetCode() = %v, want %v", got, ErrCodeNotFound)
	}
	if got := GetCode(errors.New("plain")); got != "" {
		t.Errorf("GetCode(plain) = %v, want empty", got)
	}
}

func TestUserMessage(t *testing.T) {
	if got := UserMessage(New(ErrCodeUnknownNode, "unknown root %q", "app")); got != `unknown root "app"` {
		t.Errorf("UserMessage() = %q", got)
	}
	if got := UserMessage(errors.New("plain")); got != "plain" {
		t.Errorf("UserMessage(plain) = %q", got)
	}
}

func TestSummary(t *testing.T) {
	err := Unresolved([]string{"x", "y"}, "z", "no provider for bundle z")
	want := "unresolved dependency: no provider for bundle z\n  via x -> y"
	if got := Summary(err); got != want {
		t.Errorf("Summary() = %q, want %q", got, want)
	}
	if got := Summary(errors.New("plain")); got != "plain" {
		t.Errorf("Summary(plain) = %q", got)
	}
}
