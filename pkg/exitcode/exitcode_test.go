package exitcode

import (
	"testing"
)

func TestExitCodeConstants(t *testing.T) {
	if Success != 0 {
		t.Errorf("Success = %v, expected 0", Success)
	}
	if GeneralError != 1 {
		t.Errorf("GeneralError = %v, expected 1", GeneralError)
	}
	if ConfigError != 2 {
		t.Errorf("ConfigError = %v, expected 2", ConfigError)
	}
	if ChecksFailed != 3 {
		t.Errorf("ChecksFailed = %v, expected 3", ChecksFailed)
	}
	if FileSystemError != 4 {
		t.Errorf("FileSystemError = %v, expected 4", FileSystemError)
	}
	if SessionError != 5 {
		t.Errorf("SessionError = %v, expected 5", SessionError)
	}
}

func TestString(t *testing.T) {
	tests := []struct {
		code     int
		expected string
	}{
		{Success, "Success"},
		{GeneralError, "General error"},
		{ConfigError, "Configuration error"},
		{ChecksFailed, "One or more assets failed to check"},
		{FileSystemError, "File system error"},
		{SessionError, "Session could not be restored"},
		{Interrupted, "Interrupted"},
		{42, "Unknown error"},
	}
	for _, tt := range tests {
		if got := String(tt.code); got != tt.expected {
			t.Errorf("String(%d) = %q, expected %q", tt.code, got, tt.expected)
		}
	}
}
