// Package config reads yamake's repo and user configuration files, layering
// defaults with each file found in turn.
package config

import (
	"os"
	"path/filepath"

	"gopkg.in/gcfg.v1"
	"gopkg.in/op/go-logging.v1"
)

var log = logging.MustGetLogger("config")

// ConfigFileName is the repo-level config, normally checked in.
const ConfigFileName = ".yamakeconfig"

// LocalConfigFileName overrides ConfigFileName on a single machine; not
// normally checked in.
const LocalConfigFileName = ".yamakeconfig.local"

// UserConfigFileName is the per-user config, shared across repos.
const UserConfigFileName = "~/.yamake/config"

// Configuration holds every tunable read from a .yamakeconfig file.
type Configuration struct {
	Build struct {
		Shell     string `help:"Shell used to run recipe commands. Defaults to /bin/sh."`
		KeepGoing bool   `help:"Keep building independent targets after one fails."`
		DryRun    bool   `help:"Print recipe commands instead of running them."`
	} `help:"The [build] section controls how compiled recipes are executed."`
	Log struct {
		Level string `help:"Verbosity: critical, error, warning, notice, info, debug." example:"notice"`
		File  string `help:"If set, also writes log output to this file."`
	} `help:"The [log] section controls diagnostic output."`
}

// DefaultConfiguration returns a Configuration with every field set to its
// out-of-the-box value, before any file has been read.
func DefaultConfiguration() *Configuration {
	config := &Configuration{}
	config.Build.Shell = "/bin/sh"
	config.Log.Level = "notice"
	return config
}

func readConfigFile(config *Configuration, filename string) error {
	log.Debug("reading config from %s...", filename)
	if err := gcfg.ReadFileInto(config, filename); err != nil && os.IsNotExist(err) {
		return nil // not having the file at all isn't an error.
	} else if gcfg.FatalOnly(err) != nil {
		return err
	} else if err != nil {
		log.Warning("error in config file %s: %s", filename, err)
	}
	return nil
}

// ReadConfigFiles reads every named config file in order, merging each into
// a single Configuration seeded with defaults. Later files override earlier
// ones; a missing file is silently skipped.
func ReadConfigFiles(filenames []string) (*Configuration, error) {
	config := DefaultConfiguration()
	for _, filename := range filenames {
		if err := readConfigFile(config, filename); err != nil {
			return config, err
		}
	}
	return config, nil
}

// DefaultConfigFiles returns the standard search path for a repo rooted at
// dir: the user config, then the repo config, then its local override.
func DefaultConfigFiles(dir string) []string {
	home, err := os.UserHomeDir()
	user := UserConfigFileName
	if err == nil {
		user = filepath.Join(home, ".yamake", "config")
	}
	return []string{
		user,
		filepath.Join(dir, ConfigFileName),
		filepath.Join(dir, LocalConfigFileName),
	}
}
