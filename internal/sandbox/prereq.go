package sandbox

import (
	"context"
	"os/exec"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	apperrors "sandboxctl/internal/errors"
	"sandboxctl/internal/gcp"
)

// PrerequisiteChecker validates that the environment can reach the
// target project before any mutation begins.
type PrerequisiteChecker struct {
	Projects gcp.ProjectsClient

	// LookPath is exec.LookPath, overridable in tests.
	LookPath func(file string) (string, error)
}

// NewPrerequisiteChecker returns a checker over the given projects
// client.
func NewPrerequisiteChecker(projects gcp.ProjectsClient) *PrerequisiteChecker {
	return &PrerequisiteChecker{Projects: projects, LookPath: exec.LookPath}
}

// Check verifies the tunnel binary is installed and the project is
// reachable with the current credentials. Any failure is fatal to the
// pipeline.
func (c *PrerequisiteChecker) Check(ctx context.Context, project string) error {
	if _, err := c.LookPath("gcloud"); err != nil {
		return apperrors.ErrPrerequisite(
			"gcloud binary not found on PATH (required for the SSH tunnel)", err)
	}

	if err := c.Projects.GetProject(ctx, project); err != nil {
		switch status.Code(err) {
		case codes.Unauthenticated:
			return apperrors.ErrPrerequisite(
				"not authenticated: run 'gcloud auth application-default login'", err)
		case codes.PermissionDenied:
			return apperrors.ErrPrerequisite(
				"permission denied for project "+project, err)
		case codes.NotFound:
			return apperrors.ErrPrerequisite(
				"project "+project+" not found", err)
		default:
			return apperrors.ErrPrerequisite(
				"project "+project+" is not reachable", err)
		}
	}
	return nil
}
