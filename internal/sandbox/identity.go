package sandbox

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"sandboxctl/internal/constants"
	apperrors "sandboxctl/internal/errors"
	"sandboxctl/internal/gcp"
)

// IdentityProvisioner ensures a per-operator service identity exists
// with the fixed role set.
type IdentityProvisioner struct {
	Identity gcp.IdentityClient
	Roles    []string
	Log      *slog.Logger

	// Sleep is time.Sleep, overridable in tests.
	Sleep func(time.Duration)
}

// NewIdentityProvisioner returns a provisioner granting the standard
// sandbox role set.
func NewIdentityProvisioner(identity gcp.IdentityClient, log *slog.Logger) *IdentityProvisioner {
	return &IdentityProvisioner{
		Identity: identity,
		Roles:    constants.SandboxRoles,
		Log:      log,
		Sleep:    time.Sleep,
	}
}

// IdentityResult is the outcome of EnsureIdentity.
type IdentityResult struct {
	Email   string
	Outcome Outcome
}

// AccountID derives the deterministic service account ID for a user.
func AccountID(user string) string {
	id := constants.ServiceAccountPrefix + SanitizeUser(user)
	if len(id) > constants.ServiceAccountIDMaxLength {
		id = id[:constants.ServiceAccountIDMaxLength]
	}
	return id
}

// AccountEmail derives the service account email for a user in a
// project.
func AccountEmail(project, user string) string {
	return fmt.Sprintf("%s@%s.iam.gserviceaccount.com", AccountID(user), project)
}

// EnsureIdentity returns the operator's service identity, creating it on
// first use. An existing identity is returned unchanged with no role
// re-grant. On creation, each role in the fixed set is bound
// individually; a single failed grant is logged and accepted, leaving a
// possibly under-privileged account rather than failing the pipeline.
// After a fresh creation the caller must allow a settling period before
// attaching the identity to an instance.
func (p *IdentityProvisioner) EnsureIdentity(
	ctx context.Context,
	project, user string,
) (IdentityResult, error) {
	email := AccountEmail(project, user)

	existing, err := p.Identity.Get(ctx, project, email)
	if err != nil {
		return IdentityResult{}, apperrors.ErrCloud("failed to look up service account", err)
	}
	if existing != nil {
		p.Log.Debug("service account exists", "email", email)
		return IdentityResult{Email: existing.Email, Outcome: OutcomeReused}, nil
	}

	created, err := p.Identity.Create(ctx, project, AccountID(user),
		"sandbox identity for "+SanitizeUser(user))
	if err != nil {
		return IdentityResult{}, apperrors.ErrCloud("failed to create service account", err)
	}

	member := "serviceAccount:" + created.Email
	for _, role := range p.Roles {
		if err := p.Identity.BindRole(ctx, project, member, role); err != nil {
			p.Log.Warn("failed to bind role, identity may be under-privileged",
				"role", role, "email", created.Email, "error", err)
		}
	}

	// IAM propagation is eventually consistent; give the fresh account
	// time before it is attached to an instance.
	p.Log.Info("waiting for identity to settle", "delay", constants.IdentitySettleDelay)
	p.Sleep(constants.IdentitySettleDelay)

	return IdentityResult{Email: created.Email, Outcome: OutcomeCreated}, nil
}
