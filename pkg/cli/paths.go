package cli

import (
	"os"
	"path/filepath"
)

// Paths provides access to the ~/.sodg directory structure
type Paths struct {
	// AppName is the application name
	AppName string

	// HomeDir is the user's home directory
	HomeDir string
}

// NewPaths creates a new Paths instance for the given app
func NewPaths(appName string) (*Paths, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	return &Paths{AppName: appName, HomeDir: home}, nil
}

// AppDir returns the app-specific directory (~/.sodg/<app>)
func (p *Paths) AppDir() string {
	return filepath.Join(p.HomeDir, DefaultBaseDir, p.AppName)
}

// ConfigFile returns the config file path (~/.sodg/<app>/config.yaml)
func (p *Paths) ConfigFile() string {
	return filepath.Join(p.AppDir(), DefaultConfigFile)
}

// DataDir returns the data directory (~/.sodg/<app>/data)
func (p *Paths) DataDir() string {
	return filepath.Join(p.AppDir(), "data")
}

// EnsureDataDir creates the data directory if it doesn't exist
func (p *Paths) EnsureDataDir() error {
	return os.MkdirAll(p.DataDir(), 0o755)
}
