package logger

import (
	"context"
	"testing"

	"go.uber.org/zap"
)

// TestNew tests logger creation from level and format
func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		level   string
		format  string
		wantErr bool
	}{
		{"json info", "info", "json", false},
		{"console debug", "debug", "console", false},
		{"warn json", "warn", "json", false},
		{"invalid level", "verbose", "json", true},
		{"invalid format", "info", "xml", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := New(tt.level, tt.format)
			if tt.wantErr {
				if err == nil {
					t.Error("New() expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			if logger == nil {
				t.Fatal("New() returned nil logger")
			}
			logger.Info("test message")
		})
	}
}

// TestNewDevelopment tests development logger creation
func TestNewDevelopment(t *testing.T) {
	logger, err := NewDevelopment()
	if err != nil {
		t.Fatalf("NewDevelopment() error = %v", err)
	}
	if logger == nil {
		t.Fatal("NewDevelopment() returned nil logger")
	}
}

// TestContextRoundTrip tests attaching and retrieving a logger via context
func TestContextRoundTrip(t *testing.T) {
	logger := zap.NewNop()
	ctx := WithLogger(context.Background(), logger)

	if got := FromContext(ctx); got != logger {
		t.Error("FromContext() did not return the attached logger")
	}
}

// TestFromContextFallback tests the no-op fallback
func TestFromContextFallback(t *testing.T) {
	if got := FromContext(context.Background()); got == nil {
		t.Error("FromContext() returned nil for empty context")
	}
	if got := FromContext(nil); got == nil { //nolint:staticcheck
		t.Error("FromContext() returned nil for nil context")
	}
}
