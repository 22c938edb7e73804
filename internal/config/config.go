package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/assetbuilder/internal/foundation/errors"
)

// DefaultFilename is the configuration file looked up in the working directory.
const DefaultFilename = "assetbuilder.yaml"

// APIKeyEnv supplies the remote compression key when the file does not.
const APIKeyEnv = "TINYPNG_API_KEY"

// Config is the complete build configuration. It is loaded once at startup and
// passed by pointer to every constructor; nothing mutates it after Load returns.
type Config struct {
	Root       string        `yaml:"root"`
	Production bool          `yaml:"production"`
	Paths      PathTable     `yaml:"paths"`
	Styles     StylesConfig  `yaml:"styles"`
	Scripts    ScriptsConfig `yaml:"scripts"`
	Images     ImagesConfig  `yaml:"images"`
	Sprites    SpritesConfig `yaml:"sprites"`
	Vectors    VectorsConfig `yaml:"vectors"`
	Fonts      FontsConfig   `yaml:"fonts"`
	Clean      CleanConfig   `yaml:"clean"`
	Watch      WatchConfig   `yaml:"watch"`
	Server     ServerConfig  `yaml:"server"`
	Notify     NotifyConfig  `yaml:"notify"`
}

// StylesConfig configures the style stage.
type StylesConfig struct {
	Artifact  string       `yaml:"artifact"`
	Compiler  CompilerKind `yaml:"compiler"`
	Sass      string       `yaml:"sass_binary"`
	LoadPaths []string     `yaml:"load_paths,omitempty"`
}

// ScriptsConfig configures the script stage.
type ScriptsConfig struct {
	Artifact string `yaml:"artifact"`
}

// ImagesConfig configures the image stage.
type ImagesConfig struct {
	WebPQuality    int          `yaml:"webp_quality"`
	Encoder        string       `yaml:"encoder_binary"`
	SignatureCache string       `yaml:"signature_cache"`
	Remote         RemoteConfig `yaml:"remote"`
}

// RemoteConfig configures the remote compression client.
type RemoteConfig struct {
	APIKey            string           `yaml:"api_key"`
	Endpoint          string           `yaml:"endpoint"`
	Timeout           time.Duration    `yaml:"timeout"`
	MaxRetries        int              `yaml:"max_retries"`
	RetryBackoff      RetryBackoffMode `yaml:"retry_backoff"`
	RetryInitialDelay time.Duration    `yaml:"retry_initial_delay"`
	RetryMaxDelay     time.Duration    `yaml:"retry_max_delay"`
}

// SpritesConfig configures the raster sprite stage. Paths are relative to the
// sprites destination; ImageURL is what the generated CSS references.
type SpritesConfig struct {
	Image    string `yaml:"image"`
	CSS      string `yaml:"css"`
	ImageURL string `yaml:"image_url"`
	Padding  int    `yaml:"padding"`
}

// VectorsConfig configures the vector sprite stage. Sheet is relative to the
// vectorsprite destination, CSS is relative to the project root and URLTemplate
// replaces %f with Sheet.
type VectorsConfig struct {
	Sheet       string `yaml:"sheet"`
	CSS         string `yaml:"css"`
	URLTemplate string `yaml:"url_template"`
}

// FontsConfig configures the font stages.
type FontsConfig struct {
	Converter string `yaml:"converter_binary"`
}

// CleanConfig holds the include and !exclude globs removed by the clean task.
type CleanConfig struct {
	Patterns []string `yaml:"patterns"`
}

// WatchConfig configures the watcher.
type WatchConfig struct {
	Debounce            time.Duration `yaml:"debounce"`
	FullRebuildInterval time.Duration `yaml:"full_rebuild_interval"`
}

// ServerConfig configures the dev server.
type ServerConfig struct {
	Mode    ServerMode `yaml:"mode"`
	Host    string     `yaml:"host"`
	Port    int        `yaml:"port"`
	Root    string     `yaml:"root"`
	Proxy   string     `yaml:"proxy"`
	Metrics bool       `yaml:"metrics"`
}

// NotifyConfig configures optional stage event publishing.
type NotifyConfig struct {
	NATS NATSConfig `yaml:"nats"`
}

// NATSConfig enables publishing stage events to NATS when URL is set.
type NATSConfig struct {
	URL     string `yaml:"url"`
	Subject string `yaml:"subject"`
}

// Load reads the configuration file at configPath. A missing file yields the
// defaults. Environment variables from .env and .env.local are loaded first and
// ${VAR} references in the file are expanded.
func Load(configPath string) (*Config, error) {
	loadEnvFiles()

	cfg := &Config{}
	data, err := os.ReadFile(configPath)
	switch {
	case os.IsNotExist(err):
		slog.Debug("No configuration file, using defaults", "path", configPath)
	case err != nil:
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to read config file").
			WithContext("path", configPath).Build()
	default:
		if err := yaml.Unmarshal(expandEnv(data), cfg); err != nil {
			return nil, errors.WrapError(err, errors.CategoryConfig, "failed to parse config file").
				WithContext("path", configPath).Fatal().Build()
		}
	}

	if err := NewDefaultApplier().ApplyDefaults(cfg); err != nil {
		return nil, fmt.Errorf("failed to apply defaults: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the default configuration without reading any file.
func Default() *Config {
	cfg := &Config{}
	// The default appliers never fail on an empty config.
	_ = NewDefaultApplier().ApplyDefaults(cfg)
	return cfg
}

// envRef matches the ${VAR} form only; a bare $ is left as written.
var envRef = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expandEnv replaces ${VAR} references with the environment value, or the
// empty string when VAR is unset.
func expandEnv(data []byte) []byte {
	return envRef.ReplaceAllFunc(data, func(m []byte) []byte {
		return []byte(os.Getenv(string(envRef.FindSubmatch(m)[1])))
	})
}

// WithProduction returns a copy with the production flag set.
func (c *Config) WithProduction(prod bool) *Config {
	cp := *c
	cp.Production = prod
	return &cp
}

// WithRoot returns a copy rooted at root.
func (c *Config) WithRoot(root string) *Config {
	cp := *c
	cp.Root = root
	return &cp
}

// WithServer returns a copy with the dev server settings replaced.
func (c *Config) WithServer(s ServerConfig) *Config {
	cp := *c
	cp.Server = s
	return &cp
}

// Path resolves a project-relative path against Root.
func (c *Config) Path(rel string) string {
	if filepath.IsAbs(rel) {
		return rel
	}
	return filepath.Join(c.Root, filepath.FromSlash(rel))
}

// Category returns the Path Table entry for name. Defaults guarantee every
// known category is present.
func (c *Config) Category(name CategoryName) Category {
	return c.Paths[name].clone()
}

// Addr is the dev server listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// loadEnvFiles loads .env and .env.local without overriding the process environment.
func loadEnvFiles() {
	for _, p := range []string{".env", ".env.local"} {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			slog.Warn("Failed to load env file", "path", p, "error", err)
			continue
		}
		slog.Debug("Loaded environment variables", "path", p)
	}
}
