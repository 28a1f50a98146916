package sandbox

import (
	"context"
	"io"
	"strconv"

	"sandboxctl/internal/constants"
	apperrors "sandboxctl/internal/errors"
	"sandboxctl/internal/gcp"
	"sandboxctl/internal/output"
)

// Selector resolves a single sandbox owned by a user, automatically when
// exactly one matches or via a bounded interactive menu otherwise.
// Prompts and the menu go through the output package's informational
// channel; the selection result is returned, not printed, so callers
// never branch on how it was obtained.
type Selector struct {
	Instances gcp.InstancesClient

	// In is the interactive input stream, overridable in tests.
	In io.Reader
}

// NewSelector returns a selector reading menu input from in.
func NewSelector(instances gcp.InstancesClient, in io.Reader) *Selector {
	return &Selector{Instances: instances, In: in}
}

// List returns all sandboxes owned by user, strictly filtered on the
// owner and type labels.
func (s *Selector) List(ctx context.Context, project, user string) ([]Sandbox, error) {
	instances, err := s.Instances.List(ctx, project, OwnerFilter(SanitizeUser(user)))
	if err != nil {
		return nil, apperrors.ErrCloud("failed to list sandboxes", err)
	}

	sandboxes := make([]Sandbox, 0, len(instances))
	for _, inst := range instances {
		sandboxes = append(sandboxes, Sandbox{
			Name:       inst.Name,
			Zone:       inst.Zone,
			Project:    project,
			Cluster:    inst.Labels[constants.LabelCluster],
			Owner:      inst.Labels[constants.LabelOwner],
			Status:     inst.Status,
			Network:    inst.Network,
			InternalIP: inst.InternalIP,
			Created:    inst.Labels[constants.LabelCreated],
		})
	}
	return sandboxes, nil
}

// SelectOne resolves exactly one sandbox. Zero matches is a not-found
// error; one match is auto-selected without prompting; multiple matches
// render a 1-based menu with a 0 cancel option, re-prompting on any
// input outside [0, N]. Cancelling returns ErrCancelled.
func (s *Selector) SelectOne(ctx context.Context, project, user string) (*Sandbox, error) {
	sandboxes, err := s.List(ctx, project, user)
	if err != nil {
		return nil, err
	}

	switch len(sandboxes) {
	case 0:
		return nil, apperrors.ErrNotFound("no sandboxes found for "+SanitizeUser(user), nil)
	case 1:
		return &sandboxes[0], nil
	}

	output.Blank()
	for i, sb := range sandboxes {
		label := sb.Name + " (" + sb.Zone + ")"
		if sb.Cluster != "" {
			label += " cluster=" + sb.Cluster
		}
		output.Option(i+1, label)
	}
	output.Option(0, "cancel")

	for {
		answer, err := output.Prompt(s.In, "Select sandbox")
		if err != nil {
			return nil, apperrors.ErrCancelled
		}

		choice, err := strconv.Atoi(answer)
		if err != nil || choice < 0 || choice > len(sandboxes) {
			output.Warning("enter a number between 0 and %d", len(sandboxes))
			continue
		}
		if choice == 0 {
			return nil, apperrors.ErrCancelled
		}
		return &sandboxes[choice-1], nil
	}
}

// Resolve returns the sandbox with the given name, or falls back to
// interactive selection when name is empty. A named sandbox that does
// not exist is a not-found error with no action taken.
func (s *Selector) Resolve(ctx context.Context, project, zone, user, name string) (*Sandbox, error) {
	if name == "" {
		return s.SelectOne(ctx, project, user)
	}

	inst, err := s.Instances.Get(ctx, project, zone, name)
	if err != nil {
		return nil, apperrors.ErrCloud("failed to look up sandbox", err)
	}
	if inst == nil {
		return nil, apperrors.ErrNotFound("sandbox "+name+" not found in zone "+zone, nil)
	}

	return &Sandbox{
		Name:       inst.Name,
		Zone:       inst.Zone,
		Project:    project,
		Cluster:    inst.Labels[constants.LabelCluster],
		Owner:      inst.Labels[constants.LabelOwner],
		Status:     inst.Status,
		Network:    inst.Network,
		InternalIP: inst.InternalIP,
		Created:    inst.Labels[constants.LabelCreated],
	}, nil
}
