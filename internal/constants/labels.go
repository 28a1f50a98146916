package constants

// Label keys attached to every sandbox instance. Listings and selections
// filter strictly on LabelOwner and LabelType.
const (
	// LabelOwner records the username of the operator who created the sandbox.
	LabelOwner = "owner"

	// LabelCluster records the cluster the sandbox was provisioned for.
	LabelCluster = "cluster"

	// LabelType marks instances managed by this tool. Always LabelTypeSandbox.
	LabelType = "type"

	// LabelCreated records the creation date in CreatedDateLayout.
	LabelCreated = "created"
)

// LabelTypeSandbox is the only value ever written for LabelType.
const LabelTypeSandbox = "sandbox"

// CreatedDateLayout is the time layout for the created label. Dashes are
// the only punctuation GCE label values accept.
const CreatedDateLayout = "2006-01-02"
