package httpx

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestJSONError(t *testing.T) {
	w := httptest.NewRecorder()
	JSONError(w, http.StatusUnprocessableEntity, "validation_failed", map[string]string{"clientName": "Requis"})
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("content type %q", ct)
	}
	var got struct {
		Error   string            `json:"error"`
		Details map[string]string `json:"details"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Error != "validation_failed" || got.Details["clientName"] != "Requis" {
		t.Fatalf("unexpected body %s", w.Body.String())
	}
}

func TestJSONNil(t *testing.T) {
	w := httptest.NewRecorder()
	JSON(w, http.StatusOK, nil)
	if w.Body.String() != "null" {
		t.Fatalf("body %q", w.Body.String())
	}
}

func TestAttachment(t *testing.T) {
	w := httptest.NewRecorder()
	Attachment(w, "Facture_FC1_Ste Walk.pdf", "application/pdf", []byte("%PDF-1.3"))
	if w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}
	if got := w.Header().Get("Content-Type"); got != "application/pdf" {
		t.Fatalf("content type %q", got)
	}
	if got := w.Header().Get("Content-Disposition"); got != `attachment; filename="Facture_FC1_Ste Walk.pdf"` {
		t.Fatalf("disposition %q", got)
	}
	if got := w.Header().Get("Content-Length"); got != "8" {
		t.Fatalf("length %q", got)
	}
}

func TestWantsJSON(t *testing.T) {
	cases := map[string]bool{
		"application/json":           true,
		"text/html,application/json": false,
		"application/pdf":            false,
		"":                           false,
	}
	for accept, want := range cases {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Accept", accept)
		if got := WantsJSON(r); got != want {
			t.Fatalf("WantsJSON(%q) = %v", accept, got)
		}
	}
}
