package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// captureOutput swaps the package writers for buffers for the duration
// of fn and returns what was written to stdout and stderr.
func captureOutput(t *testing.T, fn func()) (stdout, stderr string) {
	t.Helper()

	var outBuf, errBuf bytes.Buffer
	origOut, origErr := Stdout, Stderr
	Stdout, Stderr = &outBuf, &errBuf
	defer func() { Stdout, Stderr = origOut, origErr }()

	fn()
	return outBuf.String(), errBuf.String()
}

func TestMessagesGoToStderr(t *testing.T) {
	stdout, stderr := captureOutput(t, func() {
		Success("created %s", "sandbox-alice")
		Info("creating instance")
		Warning("readiness not confirmed")
		Error("boom")
	})

	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "created sandbox-alice")
	assert.Contains(t, stderr, "creating instance")
	assert.Contains(t, stderr, "readiness not confirmed")
	assert.Contains(t, stderr, "boom")
}

func TestStepFormatting(t *testing.T) {
	_, stderr := captureOutput(t, func() {
		Step(1, 6, "Checking prerequisites")
		StepSuccess(2, 6, "Firewall rule ensured")
		StepWarning(3, 6, "Instance still starting")
	})

	assert.Contains(t, stderr, "[1/6] Checking prerequisites")
	assert.Contains(t, stderr, "[2/6]")
	assert.Contains(t, stderr, "[3/6]")
}

func TestOptionGoesToStderr(t *testing.T) {
	stdout, stderr := captureOutput(t, func() {
		Option(1, "sandbox-alice (us-central1-a)")
		Option(0, "cancel")
	})

	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "1) sandbox-alice (us-central1-a)")
	assert.Contains(t, stderr, "0) cancel")
}

func TestKeyValueAndTableGoToStdout(t *testing.T) {
	stdout, stderr := captureOutput(t, func() {
		KeyValue("Zone", "us-central1-a")
		Table(
			[]string{"Name", "Zone"},
			[][]string{{"sandbox-alice", "us-central1-a"}},
		)
	})

	assert.Contains(t, stdout, "Zone: us-central1-a")
	assert.Contains(t, stdout, "sandbox-alice")
	assert.NotContains(t, stderr, "sandbox-alice")
}

func TestPrompt(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "plain answer", input: "yes\n", want: "yes"},
		{name: "trims whitespace", input: "  2  \n", want: "2"},
		{name: "empty line", input: "\n", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, stderr := captureOutput(t, func() {
				got, err := Prompt(strings.NewReader(tt.input), "Select")
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			})
			assert.Contains(t, stderr, "Select")
		})
	}
}

func TestPromptSequentialReads(t *testing.T) {
	// Two prompts on the same reader must each get their own line.
	in := strings.NewReader("yes\nno\n")
	captureOutput(t, func() {
		first, err := Prompt(in, "Delete sandbox")
		require.NoError(t, err)
		assert.Equal(t, "yes", first)

		second, err := Prompt(in, "Delete firewall rule")
		require.NoError(t, err)
		assert.Equal(t, "no", second)
	})
}

func TestPromptEOF(t *testing.T) {
	captureOutput(t, func() {
		_, err := Prompt(strings.NewReader(""), "Select")
		require.Error(t, err)
	})
}

func TestTableAlignment(t *testing.T) {
	stdout, _ := captureOutput(t, func() {
		Table(
			[]string{"Name", "Cluster"},
			[][]string{
				{"sandbox-a", "demo"},
				{"sandbox-with-long-name", "prod"},
			},
		)
	})

	lines := strings.Split(strings.TrimRight(stdout, "\n"), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "Name"))
}
