// Package constants defines shared constants for sandboxctl.
package constants

// ProjectName is the name of the CLI binary and the prefix used for
// resources it manages.
const ProjectName = "sandboxctl"

// Environment identifies where the process is running. It controls the
// log handler selection.
type Environment string

const (
	// CLI is an interactive terminal session.
	CLI Environment = "cli"
	// CI is a non-interactive environment where logs are emitted as JSON.
	CI Environment = "ci"
)
