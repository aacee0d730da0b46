package chartconfig

import (
	"fmt"

	"github.com/mahesh-hegde/visualize/app/common"
)

// LocalizedText has one entry for every supported locale.
type LocalizedText struct {
	De string `json:"de"`
	Fr string `json:"fr"`
	It string `json:"it"`
	En string `json:"en"`
}

func (t *LocalizedText) ref(locale common.Locale) *string {
	switch locale {
	case common.LocaleDE:
		return &t.De
	case common.LocaleFR:
		return &t.Fr
	case common.LocaleIT:
		return &t.It
	case common.LocaleEN:
		return &t.En
	}
	return nil
}

func (t LocalizedText) In(locale common.Locale) string {
	if p := t.ref(locale); p != nil {
		return *p
	}
	return ""
}

// InOrFallback returns the text for locale, or the first non empty one.
func (t LocalizedText) InOrFallback(locale common.Locale) string {
	if s := t.In(locale); s != "" {
		return s
	}
	for _, loc := range common.Locales {
		if s := t.In(loc); s != "" {
			return s
		}
	}
	return ""
}

type Meta struct {
	Title       LocalizedText `json:"title"`
	Description LocalizedText `json:"description"`
}

// Set stores value at a path of the form "title.de".
func (m *Meta) Set(path string, value string) error {
	segs, err := ParsePath(path)
	if err != nil {
		return err
	}
	if len(segs) != 2 {
		return fmt.Errorf("meta path %q must name a text and a locale", path)
	}
	var text *LocalizedText
	switch segs[0] {
	case "title":
		text = &m.Title
	case "description":
		text = &m.Description
	default:
		return fmt.Errorf("unknown meta text %q", segs[0])
	}
	p := text.ref(common.Locale(segs[1]))
	if p == nil {
		return fmt.Errorf("unknown locale %q", segs[1])
	}
	*p = value
	return nil
}
