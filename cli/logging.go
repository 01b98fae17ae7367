package cli

import (
	"os"

	"gopkg.in/op/go-logging.v1"
)

var log = logging.MustGetLogger("cli")

// logLevel is the interactive (stderr) verbosity currently in effect.
var logLevel = logging.WARNING

var fileLogLevel = logging.WARNING
var fileBackend logging.Backend

// InitLogging sets the stderr logging verbosity. Level names match
// go-logging's own: CRITICAL, ERROR, WARNING, NOTICE, INFO, DEBUG.
func InitLogging(level logging.Level) {
	logLevel = level
	setBackend()
}

// InitFileLogging additionally mirrors log output, at fileLevel, to a file
// at logFile. Call after InitLogging.
func InitFileLogging(logFile string, fileLevel logging.Level) error {
	file, err := os.Create(logFile)
	if err != nil {
		return err
	}
	fileLogLevel = fileLevel
	fileBackend = logging.NewBackendFormatter(logging.NewLogBackend(file, "", 0), formatter())
	setBackend()
	return nil
}

func formatter() logging.Formatter {
	return logging.MustStringFormatter("%{time:15:04:05.000} %{level:7s}: %{message}")
}

func setBackend() {
	stderrBackend := logging.NewBackendFormatter(logging.NewLogBackend(os.Stderr, "", 0), formatter())
	leveled := logging.AddModuleLevel(stderrBackend)
	leveled.SetLevel(logLevel, "")

	if fileBackend == nil {
		logging.SetBackend(leveled)
		return
	}
	fileLeveled := logging.AddModuleLevel(fileBackend)
	fileLeveled.SetLevel(fileLogLevel, "")
	logging.SetBackend(leveled, fileLeveled)
}

// ParseVerbosity maps a config/flag string ("debug", "info", ...) to a
// go-logging Level, defaulting to NOTICE for anything unrecognized.
func ParseVerbosity(name string) logging.Level {
	level, err := logging.LogLevel(name)
	if err != nil {
		log.Warningf("unknown log level %q, defaulting to notice", name)
		return logging.NOTICE
	}
	return level
}
