package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"sandboxctl/internal/output"
	"sandboxctl/internal/sandbox"
)

func captureStdout(t *testing.T) *bytes.Buffer {
	t.Helper()
	buf := &bytes.Buffer{}
	orig := output.Stdout
	output.Stdout = buf
	t.Cleanup(func() { output.Stdout = orig })
	return buf
}

func testSandbox() *sandbox.Sandbox {
	return &sandbox.Sandbox{
		Name:       "sandboxctl-alice",
		Zone:       "us-central1-a",
		Project:    "my-project",
		Cluster:    "prod",
		Owner:      "alice",
		Status:     "RUNNING",
		InternalIP: "10.0.0.5",
		Created:    "2026-08-30",
	}
}

func TestRenderSandboxYAML(t *testing.T) {
	buf := captureStdout(t)

	require.NoError(t, renderSandbox(testSandbox(), "yaml"))

	var decoded sandbox.Sandbox
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, *testSandbox(), decoded)
}

func TestRenderSandboxText(t *testing.T) {
	buf := captureStdout(t)

	require.NoError(t, renderSandbox(testSandbox(), "text"))

	out := buf.String()
	assert.Contains(t, out, "sandboxctl-alice")
	assert.Contains(t, out, "10.0.0.5")
	assert.Contains(t, out, "prod")
}

func TestRenderSandboxUnknownFormat(t *testing.T) {
	err := renderSandbox(testSandbox(), "json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown output format")
}
