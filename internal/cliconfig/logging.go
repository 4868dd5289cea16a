package cliconfig

import (
	"os"

	"github.com/rs/zerolog"

	"github.com/bft-labs/logship/pkg/log"
)

// Logger returns the CLI's diagnostic logger, writing to stderr.
func Logger() zerolog.Logger {
	return log.NewCLILogger(os.Stderr)
}
