package common

import (
	"golang.org/x/text/language"
)

// Locale is one of the fixed set of languages a chart can be annotated in.
type Locale string

const (
	LocaleDE Locale = "de"
	LocaleFR Locale = "fr"
	LocaleIT Locale = "it"
	LocaleEN Locale = "en"
)

// Locales lists the supported locales. The first one is the fallback.
var Locales = []Locale{LocaleDE, LocaleFR, LocaleIT, LocaleEN}

var localeTags = []language.Tag{
	language.German,
	language.French,
	language.Italian,
	language.English,
}

var localeMatcher = language.NewMatcher(localeTags)

func (l Locale) Valid() bool {
	for _, known := range Locales {
		if l == known {
			return true
		}
	}
	return false
}

// MatchLocale picks the best supported locale for the given preferences.
// Each preference may be a bare tag ("fr-CH") or an Accept-Language
// header value. Unparseable input falls back to the first locale.
func MatchLocale(preferences ...string) Locale {
	var tags []language.Tag
	for _, p := range preferences {
		if p == "" {
			continue
		}
		parsed, _, err := language.ParseAcceptLanguage(p)
		if err != nil {
			continue
		}
		tags = append(tags, parsed...)
	}
	if len(tags) == 0 {
		return Locales[0]
	}
	_, idx, confidence := localeMatcher.Match(tags...)
	if confidence == language.No {
		return Locales[0]
	}
	return Locales[idx]
}
