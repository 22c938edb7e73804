package logfields

import (
	"errors"
	"log/slog"
	"testing"
	"time"
)

// TestHelperKeyNames verifies string-based helper key/value stability.
func TestHelperKeyNames(t *testing.T) {
	cases := []struct {
		name    string
		attrKey string
		attrVal string
		attr    slog.Attr
	}{
		{"Task", KeyTask, "style", Task("style")},
		{"Stage", KeyStage, "write", Stage("write")},
		{"Category", KeyCategory, "styles", Category("styles")},
		{"BuildID", KeyBuildID, "b1", BuildID("b1")},
		{"Revision", KeyRevision, "abc123", Revision("abc123")},
		{"Path", KeyPath, "src/index.html", Path("src/index.html")},
		{"File", KeyFile, "main.js", File("main.js")},
		{"Output", KeyOutput, "build/assets/js", Output("build/assets/js")},
		{"URL", KeyURL, "http://example", URL("http://example")},
		{"Method", KeyMethod, "POST", Method("POST")},
		{"Tool", KeyTool, "sass", Tool("sass")},
	}

	for _, tc := range cases {
		if tc.attr.Key != tc.attrKey {
			t.Fatalf("%s: expected key %s, got %s", tc.name, tc.attrKey, tc.attr.Key)
		}
		if got := tc.attr.Value.String(); got != tc.attrVal {
			t.Fatalf("%s: expected value %s, got %v", tc.name, tc.attrVal, got)
		}
	}
}

func TestNumericHelpers(t *testing.T) {
	if a := Bytes(42); a.Value.Int64() != 42 || a.Key != KeyBytes {
		t.Fatalf("Bytes: %v", a)
	}
	if a := Status(429); a.Value.Int64() != 429 {
		t.Fatalf("Status: %v", a)
	}
	if a := Elapsed(1500 * time.Microsecond); a.Value.Float64() != 1.5 || a.Key != KeyDurationMS {
		t.Fatalf("Elapsed: %v", a)
	}
}

func TestErrorHelper(t *testing.T) {
	if a := Error(nil); a.Value.String() != "" {
		t.Fatalf("nil error should be empty, got %q", a.Value.String())
	}
	if a := Error(errors.New("boom")); a.Value.String() != "boom" {
		t.Fatalf("got %q", a.Value.String())
	}
}
