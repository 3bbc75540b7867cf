package main

import (
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/a11y-audit/internal/types"
)

func TestAuditCommand_InvalidURLBeforeLaunch(t *testing.T) {
	_, err := execute(t, "audit", "--url", "ftp://example.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), types.InvalidURLMessage)
}

func TestAuditCommand_Binary(t *testing.T) {
	binaryPath := getBinaryPath(t)

	tests := []struct {
		name     string
		args     []string
		contains string
	}{
		{name: "missing url", args: []string{"audit"}, contains: `required flag(s) "url" not set`},
		{name: "invalid url", args: []string{"audit", "--url", "not a url"}, contains: types.InvalidURLMessage},
		{name: "unknown format", args: []string{"audit", "--url", "https://example.com", "--format", "xml"}, contains: "unknown report format"},
		{name: "bad log level", args: []string{"audit", "--url", "https://example.com", "--log-level", "loud"}, contains: "invalid log level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := exec.Command(binaryPath, tt.args...)
			output, err := cmd.CombinedOutput()

			require.Error(t, err, "command should fail")
			assert.Contains(t, string(output), tt.contains)
			if exitError, ok := err.(*exec.ExitError); ok {
				assert.Equal(t, 1, exitError.ExitCode())
			}
		})
	}
}

func TestHelp_Binary(t *testing.T) {
	binaryPath := getBinaryPath(t)

	output, err := exec.Command(binaryPath, "--help").CombinedOutput()
	require.NoError(t, err)
	for _, sub := range []string{"audit", "serve", "validate"} {
		assert.Contains(t, string(output), sub)
	}
}
