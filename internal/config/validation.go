package config

import (
	"fmt"
	"net/url"
	"path"
	"strings"

	"git.home.luguber.info/inful/assetbuilder/internal/foundation"
)

// Validate checks a configuration after defaults have been applied. All
// problems are reported together as one validation error.
func Validate(cfg *Config) error {
	chain := foundation.NewValidatorChain[*Config](
		validatePaths,
		validateStyles,
		validateScripts,
		validateImages,
		validateVectors,
		validateClean,
		validateWatch,
		validateServer,
	)
	return chain.Validate(cfg).ToError()
}

func validatePaths(cfg *Config) foundation.ValidationResult {
	var errs []foundation.FieldError
	for _, name := range AllCategories() {
		entry, ok := cfg.Paths[name]
		field := "paths." + string(name)
		if !ok {
			errs = append(errs, foundation.NewValidationError(field, "required", "category is missing"))
			continue
		}
		if len(entry.Sources) == 0 {
			errs = append(errs, foundation.NewValidationError(field+".sources", "required", "at least one source glob is required"))
		}
		if strings.TrimSpace(entry.Dest) == "" {
			errs = append(errs, foundation.NewValidationError(field+".dest", "required", "destination directory is required"))
		}
		for _, g := range append(append([]string{}, entry.Sources...), entry.Watch...) {
			if strings.HasPrefix(g, "/") || strings.HasPrefix(g, "../") {
				errs = append(errs, foundation.NewValidationError(field, "relative", fmt.Sprintf("glob %q must be relative to the project root", g)))
			}
		}
	}
	return result(errs)
}

func validateStyles(cfg *Config) foundation.ValidationResult {
	var errs []foundation.FieldError
	errs = appendArtifact(errs, "styles.artifact", cfg.Styles.Artifact)
	if r := foundation.OneOf("styles.compiler", []CompilerKind{CompilerSass, CompilerPassthrough})(cfg.Styles.Compiler); !r.Valid {
		errs = append(errs, r.Errors...)
	}
	return result(errs)
}

func validateScripts(cfg *Config) foundation.ValidationResult {
	return result(appendArtifact(nil, "scripts.artifact", cfg.Scripts.Artifact))
}

func validateImages(cfg *Config) foundation.ValidationResult {
	var errs []foundation.FieldError
	if q := cfg.Images.WebPQuality; q < 1 || q > 100 {
		errs = append(errs, foundation.NewValidationError("images.webp_quality", "range", fmt.Sprintf("quality %d must be within 1..100", q)))
	}
	if u, err := url.Parse(cfg.Images.Remote.Endpoint); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, foundation.NewValidationError("images.remote.endpoint", "url", "endpoint must be an absolute URL"))
	}
	if cfg.Images.Remote.RetryInitialDelay > cfg.Images.Remote.RetryMaxDelay {
		errs = append(errs, foundation.NewValidationError("images.remote.retry_initial_delay", "range", "initial delay exceeds max delay"))
	}
	return result(errs)
}

func validateVectors(cfg *Config) foundation.ValidationResult {
	if !strings.Contains(cfg.Vectors.URLTemplate, "%f") {
		return foundation.Invalid(foundation.NewValidationError("vectors.url_template", "format", "template must contain %f"))
	}
	return foundation.Valid()
}

func validateClean(cfg *Config) foundation.ValidationResult {
	for _, p := range cfg.Clean.Patterns {
		if strings.TrimPrefix(p, "!") == "" {
			return foundation.Invalid(foundation.NewValidationError("clean.patterns", "empty", "empty pattern"))
		}
	}
	return foundation.Valid()
}

func validateWatch(cfg *Config) foundation.ValidationResult {
	if cfg.Watch.FullRebuildInterval < 0 {
		return foundation.Invalid(foundation.NewValidationError("watch.full_rebuild_interval", "range", "interval cannot be negative"))
	}
	return foundation.Valid()
}

func validateServer(cfg *Config) foundation.ValidationResult {
	var errs []foundation.FieldError
	if r := foundation.OneOf("server.mode", []ServerMode{ServerModeStatic, ServerModeProxy})(cfg.Server.Mode); !r.Valid {
		errs = append(errs, r.Errors...)
	}
	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		errs = append(errs, foundation.NewValidationError("server.port", "range", fmt.Sprintf("port %d out of range", cfg.Server.Port)))
	}
	if cfg.Server.Proxy != "" {
		if u, err := url.Parse(cfg.Server.Proxy); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, foundation.NewValidationError("server.proxy", "url", "proxy target must be an absolute URL"))
		}
	}
	if cfg.Server.Mode == ServerModeProxy && cfg.Server.Proxy == "" {
		errs = append(errs, foundation.NewValidationError("server.proxy", "required", "proxy mode requires a target URL"))
	}
	return result(errs)
}

func appendArtifact(errs []foundation.FieldError, field, name string) []foundation.FieldError {
	if name == "" || path.Base(name) != name || strings.ContainsRune(name, '\\') {
		errs = append(errs, foundation.NewValidationError(field, "filename", fmt.Sprintf("artifact %q must be a plain file name", name)))
	}
	return errs
}

func result(errs []foundation.FieldError) foundation.ValidationResult {
	if len(errs) == 0 {
		return foundation.Valid()
	}
	return foundation.Invalid(errs...)
}
