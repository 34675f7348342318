package i18n

import "testing"

func TestDetectLanguage(t *testing.T) {
	if DetectLanguage("en-US,en;q=0.9") != "en" {
		t.Fatalf("expected en")
	}
	if DetectLanguage("EN-gb") != "en" {
		t.Fatalf("expected en for EN-gb")
	}
	if DetectLanguage("fr-FR,fr;q=0.8") != "fr" {
		t.Fatalf("expected fr fallback")
	}
	if DetectLanguage("") != "fr" {
		t.Fatalf("expected default fr")
	}
}

func TestTranslations(t *testing.T) {
	if T("en", "required") != "Required" {
		t.Fatalf("expected Required")
	}
	if T("fr", "required") != "Requis" {
		t.Fatalf("expected Requis")
	}
	// unknown code -> fallback to code
	if T("en", "__nope__") != "__nope__" {
		t.Fatalf("expected fallback to code")
	}
	// unknown language -> fallback to fr translation if exists
	if T("es", "required") != "Requis" {
		t.Fatalf("expected fr fallback for es lang")
	}
}

func TestDetectLanguageUnsupported(t *testing.T) {
	if got := DetectLanguage("de-DE"); got != "fr" {
		t.Fatalf("expected fr for unsupported language, got %s", got)
	}
	if got := DetectLanguage("de;q=0.9,en;q=0.5"); got != "en" {
		t.Fatalf("expected en as best supported match, got %s", got)
	}
}

func TestAuthMessages(t *testing.T) {
	if T("fr", "email_in_use") != "Cette adresse email est déjà utilisée" {
		t.Fatalf("unexpected email_in_use message: %s", T("fr", "email_in_use"))
	}
	if T("en", "wrong_password") != "Wrong password" {
		t.Fatalf("unexpected wrong_password message")
	}
}

func TestTranslateAll(t *testing.T) {
	got := TranslateAll("en", map[string]string{"clientName": "required", "items": "min_items"})
	if got["clientName"] != "Required" || got["items"] != "At least one line is required" {
		t.Fatalf("unexpected translations: %v", got)
	}
}
