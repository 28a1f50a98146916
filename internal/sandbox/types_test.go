package sandbox

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeUser(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "plain lowercase", input: "alice", expected: "alice"},
		{name: "uppercase folded", input: "Alice", expected: "alice"},
		{name: "email domain dropped", input: "alice@example.com", expected: "alice"},
		{name: "dots become dashes", input: "alice.smith", expected: "alice-smith"},
		{name: "underscores become dashes", input: "alice_smith", expected: "alice-smith"},
		{name: "leading and trailing dashes trimmed", input: ".alice.", expected: "alice"},
		{name: "digits kept", input: "user42", expected: "user42"},
		{name: "empty input", input: "", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SanitizeUser(tt.input))
		})
	}
}

func TestOwnerFilter(t *testing.T) {
	filter := OwnerFilter("alice")
	assert.Equal(t, `(labels.owner = "alice") AND (labels.type = "sandbox")`, filter)
}

func TestDefaultVMName(t *testing.T) {
	assert.Equal(t, "sandboxctl-alice", DefaultVMName("Alice@example.com"))
}
