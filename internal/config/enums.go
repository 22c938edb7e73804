package config

import "git.home.luguber.info/inful/assetbuilder/internal/foundation/normalization"

// CompilerKind selects the style compiler.
type CompilerKind string

const (
	CompilerSass        CompilerKind = "sass"
	CompilerPassthrough CompilerKind = "passthrough"
)

// ServerMode selects how the dev server obtains content.
type ServerMode string

const (
	ServerModeStatic ServerMode = "static"
	ServerModeProxy  ServerMode = "proxy"
)

// RetryBackoffMode enumerates supported backoff strategies for retries.
type RetryBackoffMode string

const (
	RetryBackoffFixed       RetryBackoffMode = "fixed"
	RetryBackoffLinear      RetryBackoffMode = "linear"
	RetryBackoffExponential RetryBackoffMode = "exponential"
)

var (
	compilerNormalizer = normalization.NewEnumNormalizer("styles.compiler", map[string]CompilerKind{
		"sass":        CompilerSass,
		"dart-sass":   CompilerSass,
		"passthrough": CompilerPassthrough,
		"css":         CompilerPassthrough,
	}, "")
	serverModeNormalizer = normalization.NewEnumNormalizer("server.mode", map[string]ServerMode{
		"static": ServerModeStatic,
		"proxy":  ServerModeProxy,
	}, "")
	backoffNormalizer = normalization.NewEnumNormalizer("retry backoff", map[string]RetryBackoffMode{
		"fixed":       RetryBackoffFixed,
		"linear":      RetryBackoffLinear,
		"exponential": RetryBackoffExponential,
	}, "")
)

// NormalizeCompiler converts user input into a typed compiler kind, returning empty string for unknown.
func NormalizeCompiler(raw string) CompilerKind { return compilerNormalizer.Normalize(raw) }

// NormalizeServerMode converts user input into a typed server mode, returning empty string for unknown.
func NormalizeServerMode(raw string) ServerMode { return serverModeNormalizer.Normalize(raw) }

// NormalizeRetryBackoff converts arbitrary user input (case-insensitive) into a typed mode, returning empty string for unknown.
func NormalizeRetryBackoff(raw string) RetryBackoffMode { return backoffNormalizer.Normalize(raw) }
