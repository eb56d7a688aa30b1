// Package i18n renders diagnostic codes as human messages.
package i18n

import (
	"strings"
	"sync"
)

// Translator retrieves localized messages for diagnostic codes.
// data provides optional parameters to embed in the message (for example,
// "max" or "field"), referenced as {name} in templates.
type Translator interface {
	Message(code string, data map[string]string) string
}

var dictionaries = map[string]map[string]string{
	"en": {
		"invalid_type":       "invalid type: expected {expected}, got {got}",
		"unknown_type":       "type {expected} is not registered",
		"invalid_format":     "invalid format",
		"invalid_value":      "invalid value",
		"overflow":           "number out of range",
		"required":           "required field {field} missing",
		"required_if":        "{field} is required when {condition}",
		"unknown_key":        "unknown key {key}",
		"invalid_enum":       "{value} is not an allowed value",
		"too_short":          "too short",
		"too_long":           "too long",
		"too_small":          "below minimum {min}",
		"too_big":            "above maximum {max}",
		"pattern":            "does not match {pattern}",
		"parse_error":        "parse error",
		"duplicate_key":      "duplicate key",
		"truncated":          "input too large",
		"mutually_exclusive": "fields are mutually exclusive",
		"at_least_one_of":    "at least one of the fields is required",
		"exactly_one_of":     "exactly one of the fields is required",
		"ordered":            "{hi} must be {op} relative to {lo}",
		"forbidden_unless":   "field not allowed unless {condition}",
		"required_when":      "field required when {condition}",
	},
	"ja": {
		"invalid_type":       "型が不正です（期待: {expected}、実際: {got}）",
		"unknown_type":       "型 {expected} は登録されていません",
		"invalid_format":     "形式が不正です",
		"invalid_value":      "値が不正です",
		"overflow":           "数値が範囲外です",
		"required":           "必須フィールド {field} がありません",
		"required_if":        "{condition} の場合 {field} は必須です",
		"unknown_key":        "未知のキー {key} です",
		"invalid_enum":       "{value} は許可された値ではありません",
		"too_short":          "短すぎます",
		"too_long":           "長すぎます",
		"too_small":          "最小値 {min} を下回っています",
		"too_big":            "最大値 {max} を超えています",
		"pattern":            "{pattern} に一致しません",
		"parse_error":        "解析エラー",
		"duplicate_key":      "キーが重複しています",
		"truncated":          "入力が大きすぎます",
		"mutually_exclusive": "同時に指定できないフィールドです",
		"at_least_one_of":    "いずれかのフィールドが必要です",
		"exactly_one_of":     "いずれか一つのフィールドのみ指定してください",
		"ordered":            "{hi} は {lo} に対して {op} である必要があります",
		"forbidden_unless":   "{condition} の場合のみ指定できます",
		"required_when":      "{condition} の場合は必須です",
	},
}

// dictTranslator is the built-in dictionary-based Translator.
type dictTranslator struct{ lang string }

func (t dictTranslator) Message(code string, data map[string]string) string {
	tmpl, ok := dictionaries[t.lang][code]
	if !ok {
		return code
	}
	return expand(tmpl, data)
}

// expand substitutes {name} placeholders. Placeholders without data are
// left as-is.
func expand(tmpl string, data map[string]string) string {
	if len(data) == 0 || !strings.Contains(tmpl, "{") {
		return tmpl
	}
	pairs := make([]string, 0, len(data)*2)
	for k, v := range data {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(tmpl)
}

var (
	mu                sync.RWMutex
	currentTranslator Translator = dictTranslator{lang: "en"}
)

// Languages lists the built-in dictionary languages.
func Languages() []string { return []string{"en", "ja"} }

// SetLanguage switches the built-in Translator language ("en"/"ja").
func SetLanguage(lang string) {
	if _, ok := dictionaries[lang]; !ok {
		lang = "en"
	}
	SetTranslator(dictTranslator{lang: lang})
}

// SetTranslator replaces the Translator implementation (not limited to the
// dictionary version).
func SetTranslator(tr Translator) {
	if tr == nil {
		tr = dictTranslator{lang: "en"}
	}
	mu.Lock()
	currentTranslator = tr
	mu.Unlock()
}

// T fetches a message for the given code using the current Translator.
func T(code string, data map[string]string) string {
	mu.RLock()
	tr := currentTranslator
	mu.RUnlock()
	return tr.Message(code, data)
}
