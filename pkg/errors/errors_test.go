package errors

import (
	"errors"
	"fmt"
	"io/fs"
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
	err := Wrap(ErrCodeFileNotFound, cause, "open frames")

	if err.Code != ErrCodeFileNotFound {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeFileNotFound)
	}

	if errors.Unwrap(err) != cause {
		t.Errorf("Unwrap() = %v, want %v", errors.Unwrap(err), cause)
	}

	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false, want true")
	}

	expected := "FILE_NOT_FOUND: open frames: underlying error"
	if err.Error() != expected {
		t.Errorf("Error() = %v, want %v", err.Error(), expected)
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
			err:      New(ErrCodeInvalidSnapshot, "test"),
			code:     ErrCodeInvalidSnapshot,
			expected: true,
		},
		{
			name:     "non-matching code",
			err:      New(ErrCodeInvalidSnapshot, "test"),
			code:     ErrCodeRenderFailed,
			expected: false,
		},
		{
			name:     "wrapped error",
			err:      Wrap(ErrCodeNoSnapshots, New(ErrCodeInvalidInput, "inner"), "outer"),
			code:     ErrCodeNoSnapshots,
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
	if got := GetCode(New(ErrCodeInvalidConfig, "x")); got != ErrCodeInvalidConfig {
		t.Errorf("GetCode() = %v", got)
	}
	if got := GetCode(errors.New("plain")); got != "" {
		t.Errorf("GetCode(plain) = %v", got)
	}
	if got := GetCode(nil); got != "" {
		t.Errorf("GetCode(nil) = %v", got)
	}

	snap := fmt.Errorf("load: %w", &SnapshotError{Slice: 1, Err: errors.New("bad")})
	if got := GetCode(snap); got != ErrCodeInvalidSnapshot {
		t.Errorf("GetCode(wrapped SnapshotError) = %v", got)
	}
	outer := Wrap(ErrCodeRenderFailed, snap, "render")
	if !Is(outer, ErrCodeRenderFailed) || Is(outer, ErrCodeInvalidSnapshot) {
		t.Error("the outermost code should win")
	}
}

func TestUserMessage(t *testing.T) {
	if got := UserMessage(New(ErrCodeInvalidInput, "friendly message")); got != "friendly message" {
		t.Errorf("UserMessage() = %q", got)
	}
	if got := UserMessage(errors.New("plain error")); got != "plain error" {
		t.Errorf("UserMessage(plain) = %q", got)
	}
}

func TestSnapshotError(t *testing.T) {
	t.Run("with slice", func(t *testing.T) {
		err := &SnapshotError{File: "frame-3.json", Slice: 2, Err: errors.New("bad tile")}
		if err.Error() != "frame-3.json: slice 2: bad tile" {
			t.Errorf("Error() = %q", err.Error())
		}
	})

	t.Run("without slice or file", func(t *testing.T) {
		err := &SnapshotError{Slice: -1, Err: errors.New("truncated")}
		if err.Error() != "<input>: truncated" {
			t.Errorf("Error() = %q", err.Error())
		}
	})

	t.Run("unwrap", func(t *testing.T) {
		err := &SnapshotError{Slice: -1, Err: fs.ErrNotExist}
		if !errors.Is(err, fs.ErrNotExist) {
			t.Error("SnapshotError should unwrap to its cause")
		}
		if err.Code() != ErrCodeInvalidSnapshot {
			t.Errorf("Code() = %v", err.Code())
		}
	})
}
