package constants

// IAPSourceRange is the fixed address range Google's Identity-Aware Proxy
// uses as the source of tunneled SSH connections. The ingress rule admits
// only this range.
const IAPSourceRange = "35.235.240.0/20"

// SSHPort is the only port the sandbox ingress rule opens.
const SSHPort = "22"

// FirewallRulePrefix prefixes the per-network ingress rule name. The full
// name is FirewallRulePrefix + network name, so at most one rule exists
// per network.
const FirewallRulePrefix = "allow-iap-ssh-"

// FirewallPriority is the priority of the sandbox ingress rule.
const FirewallPriority int64 = 1000

// PeeringNamePrefix prefixes VPC peering names. A peering from network A
// to network B is named PeeringNamePrefix + A + "-to-" + B.
const PeeringNamePrefix = "peer-"

// PeeringStateActive is the peering state required before a direction
// counts as satisfied.
const PeeringStateActive = "ACTIVE"

// ReadinessMarkerPath is the file the startup payload writes inside the
// sandbox once initialization finishes. Its existence is the
// application-level readiness signal.
const ReadinessMarkerPath = "/var/run/sandbox-ready"
