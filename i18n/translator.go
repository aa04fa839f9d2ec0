package i18n

import "strings"

// Translator retrieves localized messages for error codes.
// data provides optional values substituted into "{name}" placeholders
// (for example "key" or "type").
type Translator interface {
	Message(code string, data map[string]string) string
}

// dictTranslator is the built-in dictionary-based Translator.
type dictTranslator struct{ lang string }

var dictionaries = map[string]map[string]string{
	"en": {
		"empty_wire_keys":      "field has no wire keys",
		"mixed_defaults":       "all fields declared by {owner} must have defaults once one does",
		"duplicate_key":        "wire key {key} is claimed more than once",
		"nullable_not_nilable": "nullable field of type {type} cannot hold nil",
		"invalid_default":      "default literal {literal} does not decode into {type}",
		"unsupported_type":     "type {type} is not supported",
		"unresolved_model":     "model {type} has no builder",
		"parse_error":          "parse error",
		"unexpected_eof":       "unexpected end of input",
		"trailing_data":        "unexpected data after the top-level value",
		"max_depth":            "max depth exceeded",
		"max_bytes":            "max bytes exceeded",
	},
	"ja": {
		"empty_wire_keys":      "フィールドにワイヤキーがありません",
		"mixed_defaults":       "{owner} のフィールドは全てデフォルト値を持つ必要があります",
		"duplicate_key":        "ワイヤキー {key} が重複しています",
		"nullable_not_nilable": "{type} 型のnullableフィールドはnilを保持できません",
		"invalid_default":      "デフォルト値 {literal} を {type} に変換できません",
		"unsupported_type":     "{type} 型はサポートされていません",
		"unresolved_model":     "モデル {type} のビルダーがありません",
		"parse_error":          "解析エラー",
		"unexpected_eof":       "入力が途中で終了しました",
		"trailing_data":        "トップレベル値の後に余分なデータがあります",
		"max_depth":            "最大深さを超えました",
		"max_bytes":            "最大バイト数を超えました",
	},
}

func (t dictTranslator) Message(code string, data map[string]string) string {
	msg, ok := dictionaries[t.lang][code]
	if !ok {
		return code
	}
	for k, v := range data {
		msg = strings.ReplaceAll(msg, "{"+k+"}", v)
	}
	return msg
}

var currentTranslator Translator = dictTranslator{lang: "en"}

// SetLanguage switches the built-in Translator language ("en"/"ja").
func SetLanguage(lang string) {
	if lang != "ja" {
		lang = "en"
	}
	currentTranslator = dictTranslator{lang: lang}
}

// SetTranslator replaces the Translator implementation (not limited to the
// dictionary version).
func SetTranslator(tr Translator) {
	if tr == nil {
		currentTranslator = dictTranslator{lang: "en"}
		return
	}
	currentTranslator = tr
}

// T fetches a message for the given code using the current Translator.
func T(code string, data map[string]string) string { return currentTranslator.Message(code, data) }
