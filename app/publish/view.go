// Package publish builds what the published chart page shows.
package publish

import (
	"encoding/json"
	"fmt"
	"html/template"
	"log/slog"

	"github.com/mahesh-hegde/visualize/app/chartconfig"
	"github.com/mahesh-hegde/visualize/app/common"
)

type LocaleLink struct {
	Locale common.Locale
	Href   string
	Active bool
}

type View struct {
	Key         string
	DataSet     string
	ChartType   chartconfig.ChartType
	Locale      common.Locale
	Title       string
	Description template.HTML
	// Config is the chart config as JSON for the client side renderer.
	Config         template.JS
	Locales        []LocaleLink
	PublishSuccess bool
}

type ViewBuilder struct {
	md *MarkdownConverter
}

func NewViewBuilder() *ViewBuilder {
	return &ViewBuilder{md: NewMarkdownConverter()}
}

// Build renders the chart published under key in locale. Texts missing in
// locale fall back to the first locale that has them.
func (b *ViewBuilder) Build(key string, chart *chartconfig.SavedChart, locale common.Locale) (*View, error) {
	cfg, err := json.Marshal(chart.ChartConfig)
	if err != nil {
		return nil, fmt.Errorf("error while encoding chart %s: %w", key, err)
	}
	v := &View{
		Key:       key,
		DataSet:   chart.DataSet,
		ChartType: chart.ChartConfig.Base().ChartType,
		Locale:    locale,
		Title:     chart.Meta.Title.InOrFallback(locale),
		Config:    template.JS(cfg),
	}
	if desc := chart.Meta.Description.InOrFallback(locale); desc != "" {
		html, err := b.md.ConvertToHTML(desc)
		if err != nil {
			slog.Warn("cannot render chart description", "key", key, "locale", locale, "err", err)
			html = template.HTMLEscapeString(desc)
		}
		v.Description = template.HTML(html)
	}
	for _, loc := range common.Locales {
		if chart.Meta.Title.In(loc) == "" && chart.Meta.Description.In(loc) == "" && loc != locale {
			continue
		}
		v.Locales = append(v.Locales, LocaleLink{
			Locale: loc,
			Href:   "/v/" + key + "?locale=" + string(loc),
			Active: loc == locale,
		})
	}
	return v, nil
}
