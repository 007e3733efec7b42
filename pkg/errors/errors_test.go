package errors

import (
	"errors"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeMalformedMethod, "method %s: missing error_rate", "A.foo")

	if err.Code != ErrCodeMalformedMethod {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeMalformedMethod)
	}

	if err.Message != "method A.foo: missing error_rate" {
		t.Errorf("Message = %v, want %v", err.Message, "method A.foo: missing error_rate")
	}

	expected := "MALFORMED_METHOD: method A.foo: missing error_rate"
	if err.Error() != expected {
		t.Errorf("Error() = %v, want %v", err.Error(), expected)
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("unexpected end of JSON input")
	err := Wrap(ErrCodeInvalidFileContent, cause, "decode document")

	if err.Code != ErrCodeInvalidFileContent {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeInvalidFileContent)
	}

	if err.Cause != cause {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}

	unwrapped := errors.Unwrap(err)
	if unwrapped != cause {
		t.Errorf("Unwrap() = %v, want %v", unwrapped, cause)
	}

	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false, want true")
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
			err:      New(ErrCodeMalformedDocument, "test"),
			code:     ErrCodeMalformedDocument,
			expected: true,
		},
		{
			name:     "non-matching code",
			err:      New(ErrCodeMalformedDocument, "test"),
			code:     ErrCodeMalformedMethod,
			expected: false,
		},
		{
			name:     "wrapped error",
			err:      Wrap(ErrCodeStorage, New(ErrCodeNotFound, "inner"), "outer"),
			code:     ErrCodeStorage,
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
	tests := []struct {
		name     string
		err      error
		expected Code
	}{
		{
			name:     "Error type",
			err:      New(ErrCodeNodeNotFound, "test"),
			expected: ErrCodeNodeNotFound,
		},
		{
			name:     "plain error",
			err:      errors.New("plain"),
			expected: "",
		},
		{
			name:     "nil",
			err:      nil,
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetCode(tt.err); got != tt.expected {
				t.Errorf("GetCode() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{
			name:     "Error type",
			err:      New(ErrCodeInvalidInput, "friendly message"),
			expected: "friendly message",
		},
		{
			name:     "plain error",
			err:      errors.New("plain error"),
			expected: "plain error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UserMessage(tt.err); got != tt.expected {
				t.Errorf("UserMessage() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestIsImportFailure(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{New(ErrCodeMalformedDocument, "x"), true},
		{New(ErrCodeMalformedMethod, "x"), true},
		{Wrap(ErrCodeInvalidFileContent, errors.New("eof"), "x"), true},
		{New(ErrCodeUnresolvedCall, "x"), false},
		{errors.New("plain"), false},
	}
	for _, tt := range tests {
		if got := IsImportFailure(tt.err); got != tt.want {
			t.Errorf("IsImportFailure(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

func TestDetail(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{New(ErrCodeNodeNotFound, "node n9"), "node n9"},
		{Wrap(ErrCodeStorage, errors.New("connection refused"), "save document"), "save document: connection refused"},
		{errors.New("plain"), "plain"},
	}
	for _, tt := range tests {
		if got := Detail(tt.err); got != tt.want {
			t.Errorf("Detail(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
