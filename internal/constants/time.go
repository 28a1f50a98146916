package constants

import "time"

// VMRunningPollInterval is the interval between instance status probes
// while waiting for a freshly created sandbox to reach RUNNING.
const VMRunningPollInterval = 10 * time.Second

// VMRunningWaitCeiling bounds the total time spent waiting for RUNNING.
// Exceeding it degrades expectations instead of failing the pipeline.
const VMRunningWaitCeiling = 180 * time.Second

// ReadinessPollInterval is the interval between readiness-marker probes
// executed over the tunnel.
const ReadinessPollInterval = 15 * time.Second

// ReadinessPollAttempts bounds the readiness probes. Exhausting them
// yields a degraded-but-usable sandbox, not an error.
const ReadinessPollAttempts = 12

// IdentitySettleDelay is how long a freshly created service account is
// given before it is attached to an instance. IAM propagation is
// eventually consistent.
const IdentitySettleDelay = 30 * time.Second

// CloudOperationTimeout bounds individual cloud API mutations.
const CloudOperationTimeout = 2 * time.Minute

// OperationPollInterval is the interval for polling long-running compute
// operations.
const OperationPollInterval = 2 * time.Second

// TunnelCommandTimeout bounds a single remote command over the IAP tunnel.
const TunnelCommandTimeout = 60 * time.Second

// TunnelCopyTimeout bounds a single file copy over the IAP tunnel.
const TunnelCopyTimeout = 2 * time.Minute
