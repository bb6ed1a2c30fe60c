package translation

import (
	"strings"

	"github.com/leonelquinteros/gotext"
)

// Configure loads the "default" domain for lang from dir. A locale such as
// "en_US.UTF-8" is reduced to "en_US"; the case of lang is kept because
// catalogue directories are case sensitive.
func Configure(dir, lang string) {
	if i := strings.IndexAny(lang, ".@"); i >= 0 {
		lang = lang[:i]
	}
	if lang == "" || strings.EqualFold(lang, "C") || strings.EqualFold(lang, "POSIX") {
		lang = "en"
	}
	gotext.Configure(dir, lang, "default")
}

func GetLanguage() string {
	lang := gotext.GetLanguage()

	if lang == "und" || lang == "" {
		return "en"
	}

	return lang
}

// Translate looks up msgID and formats it with vars. Messages without a
// translation fall back to msgID itself.
func Translate(msgID string, vars ...interface{}) string {
	return gotext.Get(msgID, vars...)
}
