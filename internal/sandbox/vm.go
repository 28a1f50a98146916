package sandbox

import (
	"context"
	"log/slog"
	"time"

	"sandboxctl/internal/constants"
	apperrors "sandboxctl/internal/errors"
	"sandboxctl/internal/gcp"
)

// LifecycleManager drives one sandbox instance through
// Absent -> Creating -> Running -> ReadinessPending -> Ready, or to
// DegradedReady when readiness is never confirmed. Timeouts demote
// expectations instead of failing: the operator can always finish
// initialization manually over the same tunnel.
type LifecycleManager struct {
	Instances gcp.InstancesClient
	Tunnel    gcp.TunnelClient
	Log       *slog.Logger

	RunningPollInterval   time.Duration
	RunningWaitCeiling    time.Duration
	ReadinessPollInterval time.Duration
	ReadinessPollAttempts int
}

// NewLifecycleManager returns a manager with the standard poll budgets.
func NewLifecycleManager(
	instances gcp.InstancesClient,
	tunnel gcp.TunnelClient,
	log *slog.Logger,
) *LifecycleManager {
	return &LifecycleManager{
		Instances:             instances,
		Tunnel:                tunnel,
		Log:                   log,
		RunningPollInterval:   constants.VMRunningPollInterval,
		RunningWaitCeiling:    constants.VMRunningWaitCeiling,
		ReadinessPollInterval: constants.ReadinessPollInterval,
		ReadinessPollAttempts: constants.ReadinessPollAttempts,
	}
}

// Ensure creates the instance or reuses an existing one with the same
// name. Reuse never validates the existing machine against the
// requested spec beyond a machine-type warning; name collision with
// divergent intent resolves to warn-and-reuse. Creation failure is
// fatal and no partial cleanup is attempted.
func (m *LifecycleManager) Ensure(
	ctx context.Context,
	project string,
	spec gcp.InstanceSpec,
) (*gcp.Instance, Outcome, error) {
	existing, err := m.Instances.Get(ctx, project, spec.Zone, spec.Name)
	if err != nil {
		return nil, "", apperrors.ErrCloud("failed to look up instance", err)
	}
	if existing != nil {
		if existing.MachineType != spec.MachineType {
			m.Log.Warn("reusing existing instance with different machine type",
				"instance", spec.Name,
				"existing", existing.MachineType,
				"requested", spec.MachineType)
		}
		m.Log.Info("reusing existing instance", "instance", spec.Name, "status", existing.Status)
		return existing, OutcomeReused, nil
	}

	if err := m.Instances.Create(ctx, project, spec); err != nil {
		return nil, "", apperrors.ErrCloud("failed to create instance", err)
	}
	m.Log.Info("created instance", "instance", spec.Name, "zone", spec.Zone)

	created, err := m.Instances.Get(ctx, project, spec.Zone, spec.Name)
	if err != nil {
		return nil, "", apperrors.ErrCloud("failed to describe created instance", err)
	}
	return created, OutcomeCreated, nil
}

// WaitRunning polls instance status until RUNNING or the ceiling is
// reached. A timeout is not an error: the instance (possibly still
// starting) is returned alongside PollTimedOut and later steps treat
// the machine as expected-degraded.
func (m *LifecycleManager) WaitRunning(
	ctx context.Context,
	project, zone, name string,
) (*gcp.Instance, PollResult, error) {
	var last *gcp.Instance

	attempts := int(m.RunningWaitCeiling / m.RunningPollInterval)
	if attempts < 1 {
		attempts = 1
	}

	result, err := Poll(ctx, m.RunningPollInterval, attempts, func(ctx context.Context) (bool, error) {
		inst, err := m.Instances.Get(ctx, project, zone, name)
		if err != nil {
			return false, err
		}
		if inst == nil {
			return false, nil
		}
		last = inst
		return inst.Status == "RUNNING", nil
	})
	if err != nil {
		return last, result, err
	}

	if result == PollTimedOut {
		m.Log.Warn("instance did not reach RUNNING within ceiling, continuing degraded",
			"instance", name, "ceiling", m.RunningWaitCeiling)
	}
	return last, result, nil
}

// WaitReady probes for the readiness marker over the tunnel. Exhausting
// the attempt budget yields DegradedReady, never an error.
func (m *LifecycleManager) WaitReady(ctx context.Context, project, zone, name string) VMState {
	probe := "test -f " + constants.ReadinessMarkerPath

	result, err := Poll(ctx, m.ReadinessPollInterval, m.ReadinessPollAttempts,
		func(ctx context.Context) (bool, error) {
			_, err := m.Tunnel.RunCommand(ctx, project, zone, name, probe)
			return err == nil, err
		})
	if err != nil || result == PollTimedOut {
		m.Log.Warn("readiness not confirmed, sandbox is usable but initialization may be incomplete",
			"instance", name, "attempts", m.ReadinessPollAttempts)
		return StateDegradedReady
	}

	m.Log.Info("sandbox ready", "instance", name)
	return StateReady
}
