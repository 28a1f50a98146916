package constants

// version is set at build time via -ldflags "-X sandboxctl/internal/constants.version=..."
var version = "dev"

// GetVersion returns the build version of the binary.
func GetVersion() string {
	return version
}
