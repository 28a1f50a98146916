package sandbox

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	apperrors "sandboxctl/internal/errors"
)

func TestPrerequisiteCheckPasses(t *testing.T) {
	checker := NewPrerequisiteChecker(&fakeProjects{
		getProjectFn: func(ctx context.Context, projectID string) error {
			assert.Equal(t, "my-project", projectID)
			return nil
		},
	})
	checker.LookPath = func(file string) (string, error) { return "/usr/bin/" + file, nil }

	require.NoError(t, checker.Check(context.Background(), "my-project"))
}

func TestPrerequisiteCheckMissingBinary(t *testing.T) {
	checker := NewPrerequisiteChecker(&fakeProjects{
		getProjectFn: func(ctx context.Context, projectID string) error {
			t.Fatal("project lookup must not run when the binary is missing")
			return nil
		},
	})
	checker.LookPath = func(file string) (string, error) { return "", errors.New("not found") }

	err := checker.Check(context.Background(), "my-project")
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodePrerequisite, apperrors.GetErrorCode(err))
	assert.Contains(t, err.Error(), "gcloud")
}

func TestPrerequisiteCheckClassifiesProjectErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		contains string
	}{
		{
			name:     "unauthenticated",
			err:      status.Error(codes.Unauthenticated, "no credentials"),
			contains: "not authenticated",
		},
		{
			name:     "permission denied",
			err:      status.Error(codes.PermissionDenied, "forbidden"),
			contains: "permission denied",
		},
		{
			name:     "project missing",
			err:      status.Error(codes.NotFound, "no such project"),
			contains: "not found",
		},
		{
			name:     "anything else",
			err:      errors.New("connection reset"),
			contains: "not reachable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker := NewPrerequisiteChecker(&fakeProjects{
				getProjectFn: func(ctx context.Context, projectID string) error {
					return tt.err
				},
			})
			checker.LookPath = func(file string) (string, error) { return "/usr/bin/gcloud", nil }

			err := checker.Check(context.Background(), "my-project")
			require.Error(t, err)
			assert.Equal(t, apperrors.ErrCodePrerequisite, apperrors.GetErrorCode(err))
			assert.Contains(t, err.Error(), tt.contains)
		})
	}
}
