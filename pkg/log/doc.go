/*
Package log provides structured logging for towerctl using zerolog.

The package holds one process-wide zerolog.Logger. Commands call Init once
after flag parsing; every other package derives a child logger with
WithComponent so that log lines can be filtered per subsystem:

	import "github.com/cuemby/towerctl/pkg/log"

	log.Init(log.Config{
		Level:      log.InfoLevel,
		JSONOutput: true,
		Output:     os.Stderr,
	})

	logger := log.WithComponent("lifecycle")
	logger.Info().Str("state", "configured-current").Msg("platform already configured")

Output goes to stderr by default so it never mixes with command output on
stdout. Console format is used unless JSONOutput is set; the init system's
journal usually wants JSON.

# Levels

  - debug: per-attempt liveness results, supervisor calls per unit
  - info: state classification and the chosen lifecycle path
  - warn: recoverable oddities (missing version marker)
  - error: setup failures, including the captured installer output

Before Init is called the Logger writes JSON to stderr.
*/
package log
