package config

import (
	"fmt"
	"os"
	"time"
)

// DefaultApplier applies defaults for a specific configuration domain.
type DefaultApplier interface {
	ApplyDefaults(cfg *Config) error
	Domain() string
}

// CompositeDefaultApplier applies defaults across all configuration domains.
type CompositeDefaultApplier struct {
	appliers []DefaultApplier
}

// NewDefaultApplier creates a composite default applier with all domain appliers.
func NewDefaultApplier() *CompositeDefaultApplier {
	return &CompositeDefaultApplier{
		appliers: []DefaultApplier{
			&PathsDefaultApplier{},
			&StylesDefaultApplier{},
			&ScriptsDefaultApplier{},
			&ImagesDefaultApplier{},
			&SpritesDefaultApplier{},
			&VectorsDefaultApplier{},
			&FontsDefaultApplier{},
			&CleanDefaultApplier{},
			&WatchDefaultApplier{},
			&ServerDefaultApplier{},
			&NotifyDefaultApplier{},
		},
	}
}

// ApplyDefaults applies defaults for all configuration domains.
func (c *CompositeDefaultApplier) ApplyDefaults(cfg *Config) error {
	for _, applier := range c.appliers {
		if err := applier.ApplyDefaults(cfg); err != nil {
			return fmt.Errorf("applying defaults for %s: %w", applier.Domain(), err)
		}
	}
	return nil
}

// GetApplierByDomain returns a specific domain applier (useful for testing).
func (c *CompositeDefaultApplier) GetApplierByDomain(domain string) DefaultApplier {
	for _, applier := range c.appliers {
		if applier.Domain() == domain {
			return applier
		}
	}
	return nil
}

// PathsDefaultApplier fills the Path Table. Categories present in the file
// replace the default entry field by field: an empty list or Dest keeps the default.
type PathsDefaultApplier struct{}

func (p *PathsDefaultApplier) Domain() string { return "paths" }

func (p *PathsDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Root == "" {
		cfg.Root = "."
	}
	defaults := DefaultPathTable()
	merged := make(PathTable, len(defaults))
	for name, def := range defaults {
		entry, ok := cfg.Paths[name]
		if !ok {
			merged[name] = def
			continue
		}
		if len(entry.Sources) == 0 {
			entry.Sources = def.Sources
		}
		if entry.Dest == "" {
			entry.Dest = def.Dest
		}
		if entry.Watch == nil {
			entry.Watch = def.Watch
		}
		merged[name] = entry
	}
	for name, entry := range cfg.Paths {
		if _, known := merged[name]; !known {
			merged[name] = entry
		}
	}
	cfg.Paths = merged
	return nil
}

type StylesDefaultApplier struct{}

func (s *StylesDefaultApplier) Domain() string { return "styles" }

func (s *StylesDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Styles.Artifact == "" {
		cfg.Styles.Artifact = "style.min.css"
	}
	if cfg.Styles.Compiler == "" {
		cfg.Styles.Compiler = CompilerSass
	} else if k := NormalizeCompiler(string(cfg.Styles.Compiler)); k != "" {
		cfg.Styles.Compiler = k
	}
	if cfg.Styles.Sass == "" {
		cfg.Styles.Sass = "sass"
	}
	return nil
}

type ScriptsDefaultApplier struct{}

func (s *ScriptsDefaultApplier) Domain() string { return "scripts" }

func (s *ScriptsDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Scripts.Artifact == "" {
		cfg.Scripts.Artifact = "main.min.js"
	}
	return nil
}

type ImagesDefaultApplier struct{}

func (i *ImagesDefaultApplier) Domain() string { return "images" }

func (i *ImagesDefaultApplier) ApplyDefaults(cfg *Config) error {
	img := &cfg.Images
	if img.WebPQuality == 0 {
		img.WebPQuality = 70
	}
	if img.Encoder == "" {
		img.Encoder = "cwebp"
	}
	if img.SignatureCache == "" {
		img.SignatureCache = ".tinypng-sigs"
	}
	r := &img.Remote
	if r.APIKey == "" {
		r.APIKey = os.Getenv(APIKeyEnv)
	}
	if r.Endpoint == "" {
		r.Endpoint = "https://api.tinify.com/shrink"
	}
	if r.Timeout <= 0 {
		r.Timeout = 60 * time.Second
	}
	if r.MaxRetries < 0 {
		r.MaxRetries = 0
	}
	if r.MaxRetries == 0 { // default 2 retries (3 total attempts) unless explicitly set >0
		r.MaxRetries = 2
	}
	if r.RetryBackoff == "" {
		r.RetryBackoff = RetryBackoffLinear
	} else if m := NormalizeRetryBackoff(string(r.RetryBackoff)); m != "" {
		r.RetryBackoff = m
	} else {
		r.RetryBackoff = RetryBackoffLinear
	}
	if r.RetryInitialDelay <= 0 {
		r.RetryInitialDelay = time.Second
	}
	if r.RetryMaxDelay <= 0 {
		r.RetryMaxDelay = 30 * time.Second
	}
	return nil
}

type SpritesDefaultApplier struct{}

func (s *SpritesDefaultApplier) Domain() string { return "sprites" }

func (s *SpritesDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Sprites.Image == "" {
		cfg.Sprites.Image = "img/common/sprite.png"
	}
	if cfg.Sprites.CSS == "" {
		cfg.Sprites.CSS = "style/lib/sprite.css"
	}
	if cfg.Sprites.ImageURL == "" {
		cfg.Sprites.ImageURL = "../img/common/sprite.png"
	}
	if cfg.Sprites.Padding < 0 {
		cfg.Sprites.Padding = 0
	}
	return nil
}

type VectorsDefaultApplier struct{}

func (v *VectorsDefaultApplier) Domain() string { return "vectors" }

func (v *VectorsDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Vectors.Sheet == "" {
		cfg.Vectors.Sheet = "sprite/spritesvg.svg"
	}
	if cfg.Vectors.CSS == "" {
		cfg.Vectors.CSS = "src/style/lib/spritesvg.css"
	}
	if cfg.Vectors.URLTemplate == "" {
		cfg.Vectors.URLTemplate = "../svg/sprite/%f"
	}
	return nil
}

type FontsDefaultApplier struct{}

func (f *FontsDefaultApplier) Domain() string { return "fonts" }

func (f *FontsDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Fonts.Converter == "" {
		cfg.Fonts.Converter = "fontforge"
	}
	return nil
}

type CleanDefaultApplier struct{}

func (c *CleanDefaultApplier) Domain() string { return "clean" }

func (c *CleanDefaultApplier) ApplyDefaults(cfg *Config) error {
	if len(cfg.Clean.Patterns) == 0 {
		cfg.Clean.Patterns = []string{
			"build/assets/**",
			"!build/assets",
			"!build/assets/img/**",
			"!build/assets/fonts/**",
			"!build/assets/svg/**",
		}
	}
	return nil
}

type WatchDefaultApplier struct{}

func (w *WatchDefaultApplier) Domain() string { return "watch" }

func (w *WatchDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = 100 * time.Millisecond
	}
	if cfg.Watch.Debounce < 0 {
		cfg.Watch.Debounce = 0
	}
	return nil
}

type ServerDefaultApplier struct{}

func (s *ServerDefaultApplier) Domain() string { return "server" }

func (s *ServerDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = ServerModeStatic
	} else if m := NormalizeServerMode(string(cfg.Server.Mode)); m != "" {
		cfg.Server.Mode = m
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 3000
	}
	if cfg.Server.Root == "" {
		cfg.Server.Root = "build"
	}
	return nil
}

type NotifyDefaultApplier struct{}

func (n *NotifyDefaultApplier) Domain() string { return "notify" }

func (n *NotifyDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Notify.NATS.Subject == "" {
		cfg.Notify.NATS.Subject = "assetbuilder.stage.completed"
	}
	return nil
}
