package sandbox

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "sandboxctl/internal/errors"
	"sandboxctl/internal/gcp"
)

type deleterHarness struct {
	deleter         *Deleter
	instanceDeletes int
	firewallDeletes int
}

func newDeleterHarness(t *testing.T, input string, firewallExists bool) *deleterHarness {
	t.Helper()
	h := &deleterHarness{}

	instances := &fakeInstances{
		getFn: func(ctx context.Context, project, zone, name string) (*gcp.Instance, error) {
			inst := sandboxInstance(name)
			return &inst, nil
		},
		deleteFn: func(ctx context.Context, project, zone, name string) error {
			h.instanceDeletes++
			return nil
		},
	}
	firewalls := &fakeFirewalls{
		getFn: func(ctx context.Context, project, name string) (*gcp.FirewallRule, error) {
			if firewallExists {
				return &gcp.FirewallRule{Name: name}, nil
			}
			return nil, nil
		},
		deleteFn: func(ctx context.Context, project, name string) error {
			h.firewallDeletes++
			return nil
		},
	}

	in := strings.NewReader(input)
	h.deleter = NewDeleter(instances, firewalls, NewSelector(instances, in), in, discardLogger())
	return h
}

func deleteOpts(network string) DeleteOptions {
	return DeleteOptions{
		Name:    "sandboxctl-alice",
		Network: network,
		Project: "my-project",
		Zone:    "us-central1-a",
		User:    "alice",
	}
}

func TestDeleteConfirmationAnswers(t *testing.T) {
	tests := []struct {
		name    string
		answer  string
		deleted bool
	}{
		{name: "exact yes", answer: "yes\n", deleted: true},
		{name: "uppercase yes", answer: "YES\n", deleted: true},
		{name: "mixed case yes", answer: "Yes\n", deleted: true},
		{name: "bare y declines", answer: "y\n", deleted: false},
		{name: "sure declines", answer: "sure\n", deleted: false},
		{name: "empty declines", answer: "\n", deleted: false},
		{name: "eof declines", answer: "", deleted: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			silenceOutput(t)
			h := newDeleterHarness(t, tt.answer, false)

			err := h.deleter.Delete(context.Background(), deleteOpts(""))
			if tt.deleted {
				require.NoError(t, err)
				assert.Equal(t, 1, h.instanceDeletes)
			} else {
				require.Error(t, err)
				assert.True(t, apperrors.IsCancelled(err))
				assert.Zero(t, h.instanceDeletes, "declining must delete nothing")
			}
		})
	}
}

func TestDeleteOffersFirewallCleanupWithoutOverride(t *testing.T) {
	silenceOutput(t)

	instances := &fakeInstances{
		getFn: func(ctx context.Context, project, zone, name string) (*gcp.Instance, error) {
			inst := sandboxInstance(name)
			inst.Network = "admin-vpc"
			return &inst, nil
		},
		deleteFn: func(ctx context.Context, project, zone, name string) error {
			return nil
		},
	}
	firewallLookups := 0
	firewallDeletes := 0
	firewalls := &fakeFirewalls{
		getFn: func(ctx context.Context, project, name string) (*gcp.FirewallRule, error) {
			firewallLookups++
			assert.Equal(t, RuleName("admin-vpc"), name)
			return &gcp.FirewallRule{Name: name}, nil
		},
		deleteFn: func(ctx context.Context, project, name string) error {
			firewallDeletes++
			return nil
		},
	}

	// Confirm the delete, decline the cleanup. No network override: the
	// rule is found through the network on the sandbox's interface.
	in := strings.NewReader("yes\nno\n")
	d := NewDeleter(instances, firewalls, NewSelector(instances, in), in, discardLogger())

	require.NoError(t, d.Delete(context.Background(), deleteOpts("")))
	assert.Equal(t, 1, firewallLookups, "cleanup must be offered without a network override")
	assert.Zero(t, firewallDeletes)
}

func TestDeleteFirewallCleanupConfirmed(t *testing.T) {
	silenceOutput(t)
	h := newDeleterHarness(t, "yes\nyes\n", true)

	require.NoError(t, h.deleter.Delete(context.Background(), deleteOpts("my-vpc")))
	assert.Equal(t, 1, h.instanceDeletes)
	assert.Equal(t, 1, h.firewallDeletes)
}

func TestDeleteFirewallCleanupDeclined(t *testing.T) {
	silenceOutput(t)
	h := newDeleterHarness(t, "yes\nno\n", true)

	require.NoError(t, h.deleter.Delete(context.Background(), deleteOpts("my-vpc")))
	assert.Equal(t, 1, h.instanceDeletes)
	assert.Zero(t, h.firewallDeletes, "declining the second prompt keeps the shared rule")
}

func TestDeleteFirewallAbsentSkipsPrompt(t *testing.T) {
	silenceOutput(t)
	// Only one confirmation in the input: a second prompt would hit EOF
	// and decline, which the assertion below would not distinguish, so
	// also verify the rule lookup found nothing to clean up.
	h := newDeleterHarness(t, "yes\n", false)

	require.NoError(t, h.deleter.Delete(context.Background(), deleteOpts("my-vpc")))
	assert.Equal(t, 1, h.instanceDeletes)
	assert.Zero(t, h.firewallDeletes)
}

func TestDeleteInstanceFailureStopsTeardown(t *testing.T) {
	silenceOutput(t)

	firewallLookups := 0
	instances := &fakeInstances{
		getFn: func(ctx context.Context, project, zone, name string) (*gcp.Instance, error) {
			inst := sandboxInstance(name)
			return &inst, nil
		},
		deleteFn: func(ctx context.Context, project, zone, name string) error {
			return errors.New("instance is protected")
		},
	}
	firewalls := &fakeFirewalls{
		getFn: func(ctx context.Context, project, name string) (*gcp.FirewallRule, error) {
			firewallLookups++
			return &gcp.FirewallRule{Name: name}, nil
		},
	}

	in := strings.NewReader("yes\nyes\n")
	d := NewDeleter(instances, firewalls, NewSelector(instances, in), in, discardLogger())

	err := d.Delete(context.Background(), deleteOpts("my-vpc"))
	require.Error(t, err)
	assert.Zero(t, firewallLookups, "a failed instance delete skips firewall cleanup")
}

func TestDeleteViaMenuSelection(t *testing.T) {
	silenceOutput(t)

	var deleted []string
	instances := &fakeInstances{
		listFn: func(ctx context.Context, project, filter string) ([]gcp.Instance, error) {
			return []gcp.Instance{
				sandboxInstance("sb-one"), sandboxInstance("sb-two"), sandboxInstance("sb-three"),
			}, nil
		},
		deleteFn: func(ctx context.Context, project, zone, name string) error {
			deleted = append(deleted, name)
			return nil
		},
	}
	firewallDeletes := 0
	firewalls := &fakeFirewalls{
		getFn: func(ctx context.Context, project, name string) (*gcp.FirewallRule, error) {
			return &gcp.FirewallRule{Name: name}, nil
		},
		deleteFn: func(ctx context.Context, project, name string) error {
			firewallDeletes++
			return nil
		},
	}

	// Select entry 2 from the menu, confirm the delete, decline the
	// firewall cleanup.
	in := strings.NewReader("2\nyes\nno\n")
	d := NewDeleter(instances, firewalls, NewSelector(instances, in), in, discardLogger())

	opts := deleteOpts("my-vpc")
	opts.Name = ""
	require.NoError(t, d.Delete(context.Background(), opts))

	assert.Equal(t, []string{"sb-two"}, deleted)
	assert.Zero(t, firewallDeletes, "declined cleanup leaves the shared rule intact")
}

func TestDeleteMissingSandboxIsNotFound(t *testing.T) {
	silenceOutput(t)

	instances := &fakeInstances{
		getFn: func(ctx context.Context, project, zone, name string) (*gcp.Instance, error) {
			return nil, nil
		},
	}
	in := strings.NewReader("yes\n")
	d := NewDeleter(instances, &fakeFirewalls{}, NewSelector(instances, in), in, discardLogger())

	err := d.Delete(context.Background(), deleteOpts(""))
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}
