package constants

// ServiceAccountPrefix prefixes the per-operator service account ID.
const ServiceAccountPrefix = "sandbox-"

// ServiceAccountIDMaxLength is the GCP limit on service account IDs.
const ServiceAccountIDMaxLength = 30

// SandboxRoles is the fixed role set granted to the per-operator service
// account at creation. A failed grant of any single role is logged and
// accepted; the account is never re-granted afterwards.
var SandboxRoles = []string{
	"roles/container.developer",
	"roles/compute.viewer",
	"roles/logging.logWriter",
	"roles/monitoring.metricWriter",
	"roles/artifactregistry.reader",
}

// CloudPlatformScope is the OAuth scope attached to sandbox instances.
// Access is constrained by the service account's IAM roles, not by scopes.
const CloudPlatformScope = "https://www.googleapis.com/auth/cloud-platform"
