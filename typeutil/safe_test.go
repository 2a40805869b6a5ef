package typeutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// =============================================================================
// MAP[STRING]ANY TESTS
// =============================================================================

func TestSafeMapStringAny(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		wantMap  map[string]any
		wantBool bool
	}{
		{
			name:     "valid map",
			input:    map[string]any{"key": "value"},
			wantMap:  map[string]any{"key": "value"},
			wantBool: true,
		},
		{
			name:     "nil value",
			input:    nil,
			wantMap:  nil,
			wantBool: false,
		},
		{
			name:     "wrong type string",
			input:    "not a map",
			wantMap:  nil,
			wantBool: false,
		},
		{
			name:     "wrong type int",
			input:    42,
			wantMap:  nil,
			wantBool: false,
		},
		{
			name:     "empty map",
			input:    map[string]any{},
			wantMap:  map[string]any{},
			wantBool: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := SafeMapStringAny(tt.input)
			assert.Equal(t, tt.wantBool, ok)
			assert.Equal(t, tt.wantMap, got)
		})
	}
}

// =============================================================================
// STRING TESTS
// =============================================================================

func TestSafeString(t *testing.T) {
	tests := []struct {
		name       string
		input      any
		wantString string
		wantBool   bool
	}{
		{
			name:       "valid string",
			input:      "hello",
			wantString: "hello",
			wantBool:   true,
		},
		{
			name:       "empty string",
			input:      "",
			wantString: "",
			wantBool:   true,
		},
		{
			name:       "nil value",
			input:      nil,
			wantString: "",
			wantBool:   false,
		},
		{
			name:       "wrong type int",
			input:      42,
			wantString: "",
			wantBool:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := SafeString(tt.input)
			assert.Equal(t, tt.wantBool, ok)
			assert.Equal(t, tt.wantString, got)
		})
	}
}

// =============================================================================
// SLICE TESTS
// =============================================================================

func TestSafeSlice(t *testing.T) {
	tests := []struct {
		name      string
		input     any
		wantSlice []any
		wantBool  bool
	}{
		{
			name:      "valid slice",
			input:     []any{1, "two", 3.0},
			wantSlice: []any{1, "two", 3.0},
			wantBool:  true,
		},
		{
			name:      "nil value",
			input:     nil,
			wantSlice: nil,
			wantBool:  false,
		},
		{
			name:      "wrong type",
			input:     "not a slice",
			wantSlice: nil,
			wantBool:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := SafeSlice(tt.input)
			assert.Equal(t, tt.wantBool, ok)
			assert.Equal(t, tt.wantSlice, got)
		})
	}
}
