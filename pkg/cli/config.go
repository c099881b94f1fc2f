package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/goccy/go-yaml"
)

const (
	// DefaultBaseDir is the configuration directory name under $HOME.
	DefaultBaseDir = ".sentient"
	// DefaultConfigFile is the configuration filename.
	DefaultConfigFile = "config.yaml"
)

// Config is the on-disk CLI configuration: a set of named contexts plus
// the currently active one.
type Config struct {
	// CurrentContext is the name of the active context.
	CurrentContext string `yaml:"current_context,omitempty"`

	// Contexts maps context name to its settings.
	Contexts map[string]*Context `yaml:"contexts,omitempty"`

	path string
}

// Context is one named engine configuration.
type Context struct {
	Name string `yaml:"name"`

	// APIKey authenticates against the embedding provider.
	APIKey string `yaml:"api_key,omitempty"`

	// BaseURL overrides the provider endpoint (OpenAI-compatible).
	BaseURL string `yaml:"base_url,omitempty"`

	// Model is the embedding model name; empty selects the default.
	Model string `yaml:"model,omitempty"`

	// Dimension is the embedding width; 0 selects the default.
	Dimension int `yaml:"dimension,omitempty"`

	// DataDir holds the engine's database; empty selects the default
	// under ~/.sentient/data.
	DataDir string `yaml:"data_dir,omitempty"`

	// MockEmbedder switches to the offline deterministic embedder;
	// useful without provider credentials.
	MockEmbedder bool `yaml:"mock_embedder,omitempty"`
}

// LoadConfig loads the configuration, creating an empty one on first use.
// Pass "" to use the default path ~/.sentient/config.yaml.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("cli: resolve home directory: %w", err)
		}
		path = filepath.Join(home, DefaultBaseDir, DefaultConfigFile)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("cli: create config directory: %w", err)
	}

	cfg := &Config{
		Contexts: make(map[string]*Context),
		path:     path,
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, cfg.Save()
	}
	if err != nil {
		return nil, fmt.Errorf("cli: read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("cli: parse config: %w", err)
	}
	if cfg.Contexts == nil {
		cfg.Contexts = make(map[string]*Context)
	}
	cfg.path = path
	return cfg, nil
}

// Save writes the configuration back to disk.
func (c *Config) Save() error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("cli: marshal config: %w", err)
	}
	if err := os.WriteFile(c.path, data, 0o600); err != nil {
		return fmt.Errorf("cli: write config: %w", err)
	}
	return nil
}

// Path returns the config file path.
func (c *Config) Path() string { return c.path }

// SetContext adds or replaces a context.
func (c *Config) SetContext(name string, ctx *Context) error {
	ctx.Name = name
	c.Contexts[name] = ctx
	if c.CurrentContext == "" {
		c.CurrentContext = name
	}
	return c.Save()
}

// DeleteContext removes a context.
func (c *Config) DeleteContext(name string) error {
	if _, ok := c.Contexts[name]; !ok {
		return fmt.Errorf("cli: context %q not found", name)
	}
	delete(c.Contexts, name)
	if c.CurrentContext == name {
		c.CurrentContext = ""
	}
	return c.Save()
}

// UseContext switches the active context.
func (c *Config) UseContext(name string) error {
	if _, ok := c.Contexts[name]; !ok {
		return fmt.Errorf("cli: context %q not found", name)
	}
	c.CurrentContext = name
	return c.Save()
}

// ResolveContext returns the named context, or the active one for "".
func (c *Config) ResolveContext(name string) (*Context, error) {
	if name == "" {
		name = c.CurrentContext
	}
	if name == "" {
		return nil, fmt.Errorf("cli: no context selected; run 'sentient config set-context' first")
	}
	ctx, ok := c.Contexts[name]
	if !ok {
		return nil, fmt.Errorf("cli: context %q not found", name)
	}
	return ctx, nil
}

// ListContexts returns all context names, sorted.
func (c *Config) ListContexts() []string {
	names := make([]string, 0, len(c.Contexts))
	for name := range c.Contexts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// MaskAPIKey hides the middle of a key for display.
func MaskAPIKey(key string) string {
	if len(key) <= 8 {
		return strings.Repeat("*", len(key))
	}
	return key[:4] + strings.Repeat("*", len(key)-8) + key[len(key)-4:]
}
