package errors

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHTTPErrorAdapter_StatusCodeFor(t *testing.T) {
	adapter := NewHTTPErrorAdapter(nil)

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, http.StatusOK},
		{"upstream down", NetworkError("proxy upstream unreachable").Build(), http.StatusBadGateway},
		{"not found", NotFoundError("missing").Build(), http.StatusNotFound},
		{"validation", ValidationError("bad").Build(), http.StatusBadRequest},
		{"auth", AuthError("denied").Build(), http.StatusUnauthorized},
		{"plain", stderrors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := adapter.StatusCodeFor(tt.err); got != tt.want {
				t.Errorf("StatusCodeFor() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestHTTPErrorAdapter_WriteErrorResponse(t *testing.T) {
	adapter := NewHTTPErrorAdapter(nil)
	req := httptest.NewRequest(http.MethodGet, "/index.html", nil)
	rec := httptest.NewRecorder()

	err := NetworkError("proxy upstream unreachable").WithContext("target", "http://localhost:8080").Build()
	adapter.WriteErrorResponse(rec, req, err)

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("content-type = %q", ct)
	}
	var body HTTPErrorResponse
	if jerr := json.Unmarshal(rec.Body.Bytes(), &body); jerr != nil {
		t.Fatalf("decode: %v", jerr)
	}
	if body.Code != "network" || !body.Retryable {
		t.Fatalf("body = %+v", body)
	}
	if body.Details["target"] != "http://localhost:8080" {
		t.Fatalf("details = %v", body.Details)
	}
}
