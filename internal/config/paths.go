package config

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

const appName = "enforcer"

// Paths are the files and directories the enforcer reads and writes
type Paths struct {
	ConfigFile string
	DataDir    string
	DB         string
	EventsDir  string
}

// DefaultPaths resolves locations under the XDG base directories. Nothing
// is created.
func DefaultPaths() Paths {
	dataDir := filepath.Join(xdg.DataHome, appName)
	return Paths{
		ConfigFile: filepath.Join(xdg.ConfigHome, appName, "config.yaml"),
		DataDir:    dataDir,
		DB:         filepath.Join(dataDir, "enforcer.db"),
		EventsDir:  filepath.Join(dataDir, "events"),
	}
}

// Resolve applies overrides from the command line or config file
func (p Paths) Resolve(configFile, db string) Paths {
	if configFile != "" {
		p.ConfigFile = configFile
	}
	if db != "" {
		p.DB = db
	}
	return p
}

// EnsureDataDir creates the directory holding the database
func (p Paths) EnsureDataDir() error {
	return os.MkdirAll(filepath.Dir(p.DB), 0755)
}
