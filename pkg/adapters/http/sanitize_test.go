package http

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestSanitizeInput_SizeLimit(t *testing.T) {
	limit := DefaultMaxInputSize

	tests := []struct {
		name      string
		inputSize int
		wantErr   bool
	}{
		{"Under Limit", limit - 1, false},
		{"Exact Limit", limit, false},
		{"Over Limit", limit + 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := SanitizeInput(strings.Repeat("a", tt.inputSize))
			if tt.wantErr && !errors.Is(err, ErrInputTooLarge) {
				t.Errorf("SanitizeInput() error = %v, want ErrInputTooLarge", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("SanitizeInput() unexpected error: %v", err)
			}
		})
	}
}

func TestSanitizeInput_ControlChars(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"Normal Text", "Hello World", "Hello World"},
		{"Safe Controls", "Line1\nLine2\tTabbed", "Line1\nLine2\tTabbed"},
		{"ANSI Code", "\x1b[31mRed\x1b[0m", "[31mRed[0m"},
		{"Null Byte", "Null\x00Byte", "NullByte"},
		{"Bell", "Ding\x07", "Ding"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SanitizeInput(tt.input)
			if err != nil {
				t.Errorf("Unexpected error: %v", err)
			}
			if got != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestSanitizeInput_EnvOverride(t *testing.T) {
	t.Setenv(EnvMaxInputSize, "10")

	if _, err := SanitizeInput("12345678901"); err == nil {
		t.Error("Expected error for input > 10 when env var is set")
	}
	if _, err := SanitizeInput("12345"); err != nil {
		t.Errorf("Unexpected error for valid input: %v", err)
	}
}

func TestSanitizeInput_InvalidUTF8(t *testing.T) {
	_, err := SanitizeInput("\xbd\xb2\x3d\xbc\x20\xe2\x8c\x98")
	if !errors.Is(err, ErrInvalidUTF8) {
		t.Errorf("Expected ErrInvalidUTF8, got %v", err)
	}
}

func TestSanitizeValue(t *testing.T) {
	got, err := SanitizeValue(map[string]any{
		"user": map[string]any{
			"name": "ann\x07",
			"tags": []any{"a\x00", 1.0, true},
		},
		"age": 30.0,
	})
	if err != nil {
		t.Fatalf("SanitizeValue() error = %v", err)
	}
	want := map[string]any{
		"user": map[string]any{
			"name": "ann",
			"tags": []any{"a", 1.0, true},
		},
		"age": 30.0,
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SanitizeValue() = %v, want %v", got, want)
	}

	t.Setenv(EnvMaxInputSize, "3")
	_, err = SanitizeValue(map[string]any{"u": []any{"ok", "too long"}})
	if !errors.Is(err, ErrInputTooLarge) {
		t.Errorf("SanitizeValue() error = %v, want ErrInputTooLarge", err)
	}
	if err != nil && !strings.HasPrefix(err.Error(), "u: [1]: ") {
		t.Errorf("error path = %q", err.Error())
	}
}
