package log

// Version of the logging API, checked by logship.New against
// MinCompatibleVersion of the packages it is built with.
const (
	Version              = "1.0.0"
	MinCompatibleVersion = "1.0.0"
)
