package logship

// Version information for the logship package.
const (
	// Version is the current version of the logship package.
	Version = "1.0.0"

	// MinCompatibleVersion is the minimum version that is compatible with this version.
	MinCompatibleVersion = "1.0.0"
)
