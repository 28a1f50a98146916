// Package sandbox implements the provisioning pipeline for short-lived
// administrative VMs that grant network-path access to a private
// cluster. Every ensure-step is idempotent: "already exists" is a
// success condition, never an error.
package sandbox

import (
	"fmt"
	"strings"

	"sandboxctl/internal/constants"
)

// Outcome classifies how an ensure-step concluded.
type Outcome string

const (
	// OutcomeCreated means the step created the resource.
	OutcomeCreated Outcome = "created"
	// OutcomeReused means the resource already existed and was left as is.
	OutcomeReused Outcome = "reused"
	// OutcomeDegraded means the step timed out or partially failed but the
	// pipeline continues with demoted expectations.
	OutcomeDegraded Outcome = "degraded"
)

// StepResult is the typed result of one pipeline step.
type StepResult struct {
	Name    string
	Outcome Outcome
	Detail  string
}

// Sandbox is the identity of one provisioned machine as read back from
// instance labels.
type Sandbox struct {
	Name       string `yaml:"name"`
	Zone       string `yaml:"zone"`
	Project    string `yaml:"project"`
	Cluster    string `yaml:"cluster,omitempty"`
	Owner      string `yaml:"owner"`
	Status     string `yaml:"status"`
	Network    string `yaml:"network,omitempty"`
	InternalIP string `yaml:"internal_ip,omitempty"`
	Created    string `yaml:"created,omitempty"`
}

// VMState is the lifecycle state of the sandbox instance.
type VMState string

const (
	StateAbsent           VMState = "Absent"
	StateCreating         VMState = "Creating"
	StateRunning          VMState = "Running"
	StateReadinessPending VMState = "ReadinessPending"
	StateReady            VMState = "Ready"
	// StateDegradedReady is terminal: the machine runs but never confirmed
	// application-level readiness. Downstream configuration is skipped.
	StateDegradedReady VMState = "DegradedReady"
)

// OwnerFilter builds the strict list filter for sandboxes belonging to
// user. Label values are matched exactly; values containing the filter
// syntax cannot corrupt it because the API compares whole labels.
func OwnerFilter(user string) string {
	return fmt.Sprintf(
		"(labels.%s = %q) AND (labels.%s = %q)",
		constants.LabelOwner, user,
		constants.LabelType, constants.LabelTypeSandbox,
	)
}

// SanitizeUser normalizes an operator username into a form valid for
// both label values and service account IDs: lowercase, [a-z0-9-] only,
// no leading/trailing dashes. Anything after an @ is dropped.
func SanitizeUser(user string) string {
	user = strings.ToLower(user)
	if at := strings.IndexByte(user, '@'); at >= 0 {
		user = user[:at]
	}

	var b strings.Builder
	for _, r := range user {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteByte('-')
		}
	}
	return strings.Trim(b.String(), "-")
}

// DefaultVMName derives the default sandbox name for an operator.
func DefaultVMName(user string) string {
	return constants.ProjectName + "-" + SanitizeUser(user)
}
