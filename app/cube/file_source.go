package cube

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/mahesh-hegde/visualize/app/common"
	"gopkg.in/yaml.v3"
)

// LocalizedString holds a label per locale. Lookups for a locale without a
// label fall back to the first locale that has one.
type LocalizedString map[common.Locale]string

func (l LocalizedString) In(locale common.Locale) string {
	if s, ok := l[locale]; ok && s != "" {
		return s
	}
	for _, loc := range common.Locales {
		if s := l[loc]; s != "" {
			return s
		}
	}
	return ""
}

type CatalogValue struct {
	Value string          `json:"value" yaml:"value"`
	Label LocalizedString `json:"label" yaml:"label"`
}

type CatalogComponent struct {
	Iri            string          `json:"iri" yaml:"iri"`
	Label          LocalizedString `json:"label" yaml:"label"`
	Kind           ComponentKind   `json:"__typename" yaml:"__typename"`
	IsKeyDimension bool            `json:"isKeyDimension" yaml:"isKeyDimension"`
	Unit           string          `json:"unit" yaml:"unit"`
	Values         []CatalogValue  `json:"values" yaml:"values"`
}

type CatalogDataset struct {
	Iri         string             `json:"iri" yaml:"iri"`
	Title       LocalizedString    `json:"title" yaml:"title"`
	Description LocalizedString    `json:"description" yaml:"description"`
	Dimensions  []CatalogComponent `json:"dimensions" yaml:"dimensions"`
	Measures    []CatalogComponent `json:"measures" yaml:"measures"`
}

type Catalog struct {
	Datasets []CatalogDataset `json:"datasets" yaml:"datasets"`
}

func (c *CatalogComponent) resolve(locale common.Locale) Component {
	comp := Component{
		Iri:            c.Iri,
		Label:          c.Label.In(locale),
		Kind:           c.Kind,
		IsKeyDimension: c.IsKeyDimension,
		Unit:           c.Unit,
	}
	if comp.Label == "" {
		comp.Label = c.Iri
	}
	for _, v := range c.Values {
		label := v.Label.In(locale)
		if label == "" {
			label = v.Value
		}
		comp.Values = append(comp.Values, DimensionValue{Value: v.Value, Label: label})
	}
	return comp
}

func (d *CatalogDataset) Resolve(locale common.Locale) *Metadata {
	m := &Metadata{
		Iri:         d.Iri,
		Title:       d.Title.In(locale),
		Description: d.Description.In(locale),
		Dimensions:  make([]Component, 0, len(d.Dimensions)),
		Measures:    make([]Component, 0, len(d.Measures)),
	}
	for i := range d.Dimensions {
		m.Dimensions = append(m.Dimensions, d.Dimensions[i].resolve(locale))
	}
	for i := range d.Measures {
		m.Measures = append(m.Measures, d.Measures[i].resolve(locale))
	}
	return m
}

func (c *Catalog) validate() error {
	seen := make(map[string]bool)
	for _, d := range c.Datasets {
		if d.Iri == "" {
			return fmt.Errorf("dataset without iri")
		}
		if seen[d.Iri] {
			return fmt.Errorf("duplicate dataset %s", d.Iri)
		}
		seen[d.Iri] = true
		for _, dim := range d.Dimensions {
			if !dim.Kind.IsDimension() {
				return fmt.Errorf("dataset %s: dimension %s has kind %q", d.Iri, dim.Iri, dim.Kind)
			}
		}
		for _, m := range d.Measures {
			if m.Kind == "" {
				continue
			}
			if m.Kind != Measure {
				return fmt.Errorf("dataset %s: measure %s has kind %q", d.Iri, m.Iri, m.Kind)
			}
		}
	}
	return nil
}

// FileSource serves metadata from a catalog loaded into memory.
type FileSource struct {
	catalog *Catalog
	byIri   map[string]*CatalogDataset
}

var _ MetadataSource = &FileSource{}

func ParseCatalog(data []byte, isJSON bool) (*Catalog, error) {
	var c Catalog
	var err error
	if isJSON {
		err = json.Unmarshal(data, &c)
	} else {
		err = yaml.Unmarshal(data, &c)
	}
	if err != nil {
		return nil, fmt.Errorf("error while parsing catalog: %w", err)
	}
	for i := range c.Datasets {
		for j := range c.Datasets[i].Measures {
			if c.Datasets[i].Measures[j].Kind == "" {
				c.Datasets[i].Measures[j].Kind = Measure
			}
		}
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func LoadCatalogFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error while reading catalog: %w", err)
	}
	return ParseCatalog(data, strings.HasSuffix(path, ".json"))
}

func NewFileSource(c *Catalog) *FileSource {
	byIri := make(map[string]*CatalogDataset, len(c.Datasets))
	for i := range c.Datasets {
		byIri[c.Datasets[i].Iri] = &c.Datasets[i]
	}
	return &FileSource{catalog: c, byIri: byIri}
}

func (f *FileSource) Metadata(ctx context.Context, iri string, locale common.Locale) (*Metadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d, ok := f.byIri[iri]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDataset, iri)
	}
	return d.Resolve(locale), nil
}

func (f *FileSource) Catalog() *Catalog {
	return f.catalog
}

func (f *FileSource) Iris() []string {
	out := make([]string, len(f.catalog.Datasets))
	for i, d := range f.catalog.Datasets {
		out[i] = d.Iri
	}
	return out
}
