package i18n

import "testing"

func TestTranslator_DefaultAndJapanese(t *testing.T) {
	// default is en
	if msg := T("invalid_type", nil); msg == "invalid_type" || msg == "" {
		t.Fatalf("expected a human message, got %q", msg)
	}

	SetLanguage("ja")
	if msg := T("required", map[string]string{"field": "reason"}); msg != "必須フィールド reason がありません" {
		t.Fatalf("expected japanese message, got %q", msg)
	}

	// reset to en
	SetLanguage("en")
}

func TestTranslator_Placeholders(t *testing.T) {
	msg := T("too_big", map[string]string{"max": "3"})
	if msg != "above maximum 3" {
		t.Fatalf("unexpected message %q", msg)
	}
	if msg := T("too_big", nil); msg != "above maximum {max}" {
		t.Fatalf("missing data must leave the placeholder, got %q", msg)
	}
}

func TestTranslator_UnknownCodeAndLanguage(t *testing.T) {
	if msg := T("no_such_code", nil); msg != "no_such_code" {
		t.Fatalf("unknown code must echo, got %q", msg)
	}
	SetLanguage("fr")
	if msg := T("required", nil); msg != "required field {field} missing" {
		t.Fatalf("unknown language must fall back to en, got %q", msg)
	}
	SetLanguage("en")
}

type upper struct{}

func (upper) Message(code string, _ map[string]string) string { return "X:" + code }

func TestSetTranslator(t *testing.T) {
	SetTranslator(upper{})
	defer SetTranslator(nil)
	if T("required", nil) != "X:required" {
		t.Fatalf("custom translator not used")
	}
}
