package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestClassifiedErrorFormatting(t *testing.T) {
	err := FileSystemError("cannot write artifact").
		WithCause(stderrors.New("disk full")).
		WithContext("path", "build/assets/style/style.min.css").
		Build()

	if got, want := err.Error(), "[filesystem] cannot write artifact: disk full"; got != want {
		t.Fatalf("Error() = %q, want %q", got, want)
	}
	if !err.IsFatal() {
		t.Fatal("filesystem errors should be fatal")
	}
	if p, ok := err.Context().GetString("path"); !ok || p != "build/assets/style/style.min.css" {
		t.Fatalf("context path = %q, %v", p, ok)
	}
}

func TestAsClassifiedThroughWrapping(t *testing.T) {
	inner := TransformError("bad stylesheet").Build()
	wrapped := fmt.Errorf("style stage: %w", inner)

	got, ok := AsClassified(wrapped)
	if !ok {
		t.Fatal("expected classified error in chain")
	}
	if got.Category() != CategoryTransform {
		t.Fatalf("category = %s", got.Category())
	}
	if GetSeverity(wrapped) != SeverityWarning {
		t.Fatalf("severity = %s", GetSeverity(wrapped))
	}
	if !HasCategory(wrapped, CategoryTransform) {
		t.Fatal("HasCategory should be true")
	}
	if GetCategory(stderrors.New("plain")) != CategoryInternal {
		t.Fatal("plain errors default to internal")
	}
}

func TestWithContextDoesNotMutateOriginal(t *testing.T) {
	base := NetworkError("upload failed").Build()
	derived := base.WithContext("status", 503)

	if _, ok := base.Context().Get("status"); ok {
		t.Fatal("original context was mutated")
	}
	if v, ok := derived.Context().Get("status"); !ok || v != 503 {
		t.Fatalf("derived status = %v, %v", v, ok)
	}
}

func TestRetryClassification(t *testing.T) {
	tests := []struct {
		name  string
		err   *ClassifiedError
		retry bool
	}{
		{"network retries", NetworkError("timeout").Build(), true},
		{"rate limit retries", NewError(CategoryNetwork, "429").RateLimit().Build(), true},
		{"auth needs user", AuthError("bad key").Build(), false},
		{"config needs user", ConfigError("bad yaml").Build(), false},
		{"external never", ExternalError("sass failed").Build(), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.CanRetry(); got != tt.retry {
				t.Fatalf("CanRetry() = %v, want %v", got, tt.retry)
			}
		})
	}
}

func TestIsMatchesCategoryAndMessage(t *testing.T) {
	a := NotFoundError("unknown task").Build()
	b := NotFoundError("unknown task").WithContext("task", "nope").Build()
	c := NotFoundError("other").Build()

	if !stderrors.Is(a, b) {
		t.Fatal("same category and message should match")
	}
	if stderrors.Is(a, c) {
		t.Fatal("different message should not match")
	}
}

func TestErrorContextMerge(t *testing.T) {
	var empty ErrorContext
	other := ErrorContext{"a": 1}
	if got := empty.Merge(other); got["a"] != 1 {
		t.Fatalf("merge into nil = %v", got)
	}
	merged := ErrorContext{"a": 1, "b": 2}.Merge(ErrorContext{"b": 3})
	if merged["a"] != 1 || merged["b"] != 3 {
		t.Fatalf("merged = %v", merged)
	}
}
