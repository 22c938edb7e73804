package foundation

import (
	"strings"
	"testing"

	"git.home.luguber.info/inful/assetbuilder/internal/foundation/errors"
)

func TestValidatorChainCollectsAllErrors(t *testing.T) {
	positive := func(v int) ValidationResult {
		if v <= 0 {
			return Invalid(NewValidationError("port", "range", "must be positive"))
		}
		return Valid()
	}
	chain := NewValidatorChain[int](positive).Add(OneOf("port", []int{80, 443}))

	if r := chain.Validate(443); !r.Valid {
		t.Fatalf("expected valid, got %+v", r)
	}

	r := chain.Validate(-1)
	if r.Valid || len(r.Errors) != 2 {
		t.Fatalf("expected two errors, got %+v", r)
	}

	err := r.ToError()
	if !errors.HasCategory(err, errors.CategoryValidation) {
		t.Fatalf("expected validation category, got %v", err)
	}
	if !strings.Contains(err.Error(), "field 'port'") {
		t.Fatalf("missing field name: %v", err)
	}
}

func TestValidToErrorIsNil(t *testing.T) {
	if err := Valid().ToError(); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
}
