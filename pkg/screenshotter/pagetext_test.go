package screenshotter

import (
	"testing"

	"github.com/ysmood/gson"
)

func TestRemoteValueText(t *testing.T) {
	tests := []struct {
		name  string
		value remoteValue
		want  string
	}{
		{"string", remoteValue{Type: "string", Value: gson.New([]byte(`"boom"`))}, "boom"},
		{"number", remoteValue{Type: "number", Value: gson.New([]byte(`42`))}, "42"},
		{"bool", remoteValue{Type: "boolean", Value: gson.New([]byte(`true`))}, "true"},
		{"null", remoteValue{Type: "object", Subtype: "null", Value: gson.New([]byte(`null`))}, "null"},
		{"undefined", remoteValue{Type: "undefined"}, "undefined"},
		{"unserializable", remoteValue{Type: "number", Unserializable: "NaN"}, "NaN"},
		{"object", remoteValue{Type: "object", Description: "Object"}, "Object"},
		{"error object", remoteValue{Type: "object", Subtype: "error", Description: "Error: x\n    at f"}, "Error: x\n    at f"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.value.text(); got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestConsoleText(t *testing.T) {
	args := []remoteValue{
		{Type: "string", Value: gson.New([]byte(`"failed:"`))},
		{Type: "number", Value: gson.New([]byte(`404`))},
		{Type: "object", Description: "Array(2)"},
	}

	if got := consoleText(args); got != "failed: 404 Array(2)" {
		t.Errorf("Expected %q, got %q", "failed: 404 Array(2)", got)
	}

	if got := consoleText(nil); got != "" {
		t.Errorf("Expected empty text for no arguments, got %q", got)
	}
}

func TestExceptionText(t *testing.T) {
	thrown := &remoteValue{
		Type:        "object",
		Subtype:     "error",
		Description: "TypeError: Cannot read properties of undefined (reading 'x')\n    at http://localhost:3000/app.js:1:10",
	}
	if got := exceptionText("Uncaught", thrown); got != "TypeError: Cannot read properties of undefined (reading 'x')" {
		t.Errorf("Unexpected exception text %q", got)
	}

	primitive := &remoteValue{Type: "string", Value: gson.New([]byte(`"plain string"`))}
	if got := exceptionText("Uncaught", primitive); got != "plain string" {
		t.Errorf("Expected thrown primitive, got %q", got)
	}

	if got := exceptionText("Uncaught SyntaxError", nil); got != "Uncaught SyntaxError" {
		t.Errorf("Expected exception text fallback, got %q", got)
	}
}
