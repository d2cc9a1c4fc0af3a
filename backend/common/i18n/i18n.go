package i18n

import (
	"embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
)

//go:embed locales/*.json
var localeFS embed.FS

const defaultLang = "en"

var (
	translations = map[string]map[string]string{}
	initOnce     sync.Once
	initErr      error
)

// Init parses the embedded locale files. Safe to call more than once.
func Init() error {
	initOnce.Do(func() {
		entries, err := localeFS.ReadDir("locales")
		if err != nil {
			initErr = err
			return
		}
		for _, entry := range entries {
			lang := strings.TrimSuffix(entry.Name(), ".json")
			data, err := localeFS.ReadFile("locales/" + entry.Name())
			if err != nil {
				initErr = err
				return
			}
			messages := map[string]string{}
			if err := json.Unmarshal(data, &messages); err != nil {
				initErr = fmt.Errorf("parse locale %s: %w", entry.Name(), err)
				return
			}
			translations[lang] = messages
		}
	})
	return initErr
}

// normalizeLang maps header values like "zh-CN" onto loaded locales.
func normalizeLang(lang string) string {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if idx := strings.IndexAny(lang, "-_"); idx > 0 {
		lang = lang[:idx]
	}
	if _, ok := translations[lang]; !ok {
		return defaultLang
	}
	return lang
}

// Translate returns the message for code in the given language, falling back
// to the default language, and to the code itself when nothing matches.
func Translate(code string, lang string, args ...interface{}) string {
	_ = Init()
	messages, ok := translations[normalizeLang(lang)]
	if !ok {
		messages = translations[defaultLang]
	}
	msg, ok := messages[code]
	if !ok {
		msg, ok = translations[defaultLang][code]
		if !ok {
			return code
		}
	}
	if len(args) > 0 {
		return fmt.Sprintf(msg, args...)
	}
	return msg
}
