package logfields

import (
	"log/slog"
	"time"
)

// Canonical log field name constants to avoid drift across packages.
const (
	KeyTask       = "task"
	KeyStage      = "stage"
	KeyCategory   = "category"
	KeyBuildID    = "build_id"
	KeyRevision   = "revision"
	KeyPath       = "path"
	KeyFile       = "file"
	KeyOutput     = "output"
	KeyBytes      = "bytes"
	KeyFiles      = "files"
	KeyDurationMS = "duration_ms"
	KeyAttempt    = "attempt"
	KeyURL        = "url"
	KeyMethod     = "method"
	KeyStatus     = "status"
	KeyTool       = "tool"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func Task(name string) slog.Attr        { return slog.String(KeyTask, name) }
func Stage(name string) slog.Attr       { return slog.String(KeyStage, name) }
func Category(name string) slog.Attr    { return slog.String(KeyCategory, name) }
func BuildID(id string) slog.Attr       { return slog.String(KeyBuildID, id) }
func Revision(rev string) slog.Attr     { return slog.String(KeyRevision, rev) }
func Path(p string) slog.Attr           { return slog.String(KeyPath, p) }
func File(f string) slog.Attr           { return slog.String(KeyFile, f) }
func Output(o string) slog.Attr         { return slog.String(KeyOutput, o) }
func Bytes(n int) slog.Attr             { return slog.Int(KeyBytes, n) }
func Files(n int) slog.Attr             { return slog.Int(KeyFiles, n) }
func Attempt(n int) slog.Attr           { return slog.Int(KeyAttempt, n) }
func URL(u string) slog.Attr            { return slog.String(KeyURL, u) }
func Method(m string) slog.Attr         { return slog.String(KeyMethod, m) }
func Status(code int) slog.Attr         { return slog.Int(KeyStatus, code) }
func Tool(name string) slog.Attr        { return slog.String(KeyTool, name) }
func DurationMS(ms float64) slog.Attr   { return slog.Float64(KeyDurationMS, ms) }
func Elapsed(d time.Duration) slog.Attr { return DurationMS(float64(d.Microseconds()) / 1000) }

func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
