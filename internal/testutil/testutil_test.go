package testutil

import (
	"net/http"
	"strings"
	"testing"
)

func TestNewTestRequestWithJSON(t *testing.T) {
	req := NewTestRequestWithJSON(t, http.MethodPost, "/api/requests", map[string]string{
		"cuisine": "Thai",
	})
	if req.Header.Get("Content-Type") != "application/json" {
		t.Errorf("expected JSON content type, got %q", req.Header.Get("Content-Type"))
	}
	if req.Method != http.MethodPost {
		t.Errorf("unexpected method %q", req.Method)
	}
}

func TestParseJSONResponse(t *testing.T) {
	result := ParseJSONResponse(t, []byte(`{"status":"not_matched"}`))
	if result["status"] != "not_matched" {
		t.Errorf("unexpected parse result: %v", result)
	}
}

func TestRandomEmail(t *testing.T) {
	email := RandomEmail()
	if !strings.HasSuffix(email, "@test.com") {
		t.Errorf("unexpected email format: %s", email)
	}
	if email == RandomEmail() {
		t.Error("expected random emails to differ")
	}
}
