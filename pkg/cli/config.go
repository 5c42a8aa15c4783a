package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/goccy/go-yaml"
)

const (
	// DefaultBaseDir is the base configuration directory name
	DefaultBaseDir = ".sodg"
	// DefaultConfigFile is the default configuration filename
	DefaultConfigFile = "config.yaml"
	// DefaultContext is the context created on first use
	DefaultContext = "default"
)

// ErrUnknownKey is returned by Context.Set and Context.Get for a key that
// is not a context setting.
var ErrUnknownKey = errors.New("cli: unknown config key")

// Config represents the main configuration structure for a CLI app
type Config struct {
	// AppName is the application name
	AppName string `yaml:"-"`

	// CurrentContext is the name of the currently active context
	CurrentContext string `yaml:"current_context,omitempty"`

	// Contexts is a map of context name to context configuration
	Contexts map[string]*Context `yaml:"contexts,omitempty"`

	configPath string
}

// Context is one named set of defaults for the global flags.
type Context struct {
	// Name is the context name
	Name string `yaml:"name"`

	// Store is the snapshot backend: memory, badger or sqlite
	Store string `yaml:"store,omitempty"`

	// DataDir holds badger and sqlite files
	DataDir string `yaml:"data_dir,omitempty"`

	// Format is the default output format
	Format string `yaml:"format,omitempty"`

	// Bucket, when set, reads scripts and writes dumps through S3
	Bucket string `yaml:"bucket,omitempty"`

	// Endpoint overrides the S3 endpoint (MinIO, R2)
	Endpoint string `yaml:"endpoint,omitempty"`

	// Region is the S3 region
	Region string `yaml:"region,omitempty"`

	// Prefix is prepended to every S3 object key
	Prefix string `yaml:"prefix,omitempty"`
}

// ContextKeys lists the keys accepted by Context.Get and Context.Set.
var ContextKeys = []string{"store", "data_dir", "format", "bucket", "endpoint", "region", "prefix"}

func (c *Context) field(key string) (*string, error) {
	switch key {
	case "store":
		return &c.Store, nil
	case "data_dir":
		return &c.DataDir, nil
	case "format":
		return &c.Format, nil
	case "bucket":
		return &c.Bucket, nil
	case "endpoint":
		return &c.Endpoint, nil
	case "region":
		return &c.Region, nil
	case "prefix":
		return &c.Prefix, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownKey, key)
}

// Get returns the value of a context setting.
func (c *Context) Get(key string) (string, error) {
	p, err := c.field(key)
	if err != nil {
		return "", err
	}
	return *p, nil
}

// Set changes a context setting. An empty value clears it.
func (c *Context) Set(key, value string) error {
	p, err := c.field(key)
	if err != nil {
		return err
	}
	*p = value
	return nil
}

// LoadConfig loads or creates configuration for the specified app
func LoadConfig(appName string) (*Config, error) {
	return LoadConfigWithPath(appName, "")
}

// LoadConfigWithPath loads configuration from a custom path
func LoadConfigWithPath(appName, customPath string) (*Config, error) {
	configPath := customPath
	if configPath == "" {
		paths, err := NewPaths(appName)
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		configPath = paths.ConfigFile()
	}

	cfg := &Config{
		AppName:    appName,
		Contexts:   make(map[string]*Context),
		configPath: configPath,
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.Contexts == nil {
		cfg.Contexts = make(map[string]*Context)
	}
	cfg.AppName = appName
	cfg.configPath = configPath
	return cfg, nil
}

// Save writes the configuration, creating its directory.
func (c *Config) Save() error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(c.configPath), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(c.configPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Path returns the config file path
func (c *Config) Path() string {
	return c.configPath
}

// Current returns the current context. When none is set, the default
// context is created (in memory; call Save to persist it).
func (c *Config) Current() *Context {
	name := c.CurrentContext
	if name == "" {
		name = DefaultContext
	}
	ctx, ok := c.Contexts[name]
	if !ok {
		ctx = &Context{Name: name}
		c.Contexts[name] = ctx
	}
	c.CurrentContext = name
	return ctx
}

// UseContext sets the current context, creating it if needed.
func (c *Config) UseContext(name string) *Context {
	c.CurrentContext = name
	return c.Current()
}

// GetContext returns a specific context
func (c *Config) GetContext(name string) (*Context, error) {
	ctx, ok := c.Contexts[name]
	if !ok {
		return nil, fmt.Errorf("context %q not found", name)
	}
	return ctx, nil
}

// ListContexts returns all context names, sorted
func (c *Config) ListContexts() []string {
	names := make([]string, 0, len(c.Contexts))
	for name := range c.Contexts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
