package cube

import (
	"context"
	"errors"

	"github.com/mahesh-hegde/visualize/app/common"
)

var ErrUnknownDataset = errors.New("unknown dataset")

type ComponentKind string

const (
	NominalDimension        ComponentKind = "NominalDimension"
	OrdinalDimension        ComponentKind = "OrdinalDimension"
	TemporalDimension       ComponentKind = "TemporalDimension"
	GeoCoordinatesDimension ComponentKind = "GeoCoordinatesDimension"
	GeoShapesDimension      ComponentKind = "GeoShapesDimension"
	Measure                 ComponentKind = "Measure"
)

func (k ComponentKind) IsDimension() bool {
	switch k {
	case NominalDimension, OrdinalDimension, TemporalDimension, GeoCoordinatesDimension, GeoShapesDimension:
		return true
	}
	return false
}

// IsCategorical is true for dimensions whose values can be used as
// discrete groups (segments, pie slices, columns).
func (k ComponentKind) IsCategorical() bool {
	switch k {
	case NominalDimension, OrdinalDimension, GeoCoordinatesDimension, GeoShapesDimension:
		return true
	}
	return false
}

func (k ComponentKind) IsGeo() bool {
	return k == GeoCoordinatesDimension || k == GeoShapesDimension
}

type DimensionValue struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

type Component struct {
	Iri            string           `json:"iri"`
	Label          string           `json:"label"`
	Kind           ComponentKind    `json:"__typename"`
	Values         []DimensionValue `json:"values,omitempty"`
	IsKeyDimension bool             `json:"isKeyDimension"`
	Unit           string           `json:"unit,omitempty"`
}

// FirstValue returns the first declared value of the component.
func (c *Component) FirstValue() (string, bool) {
	if len(c.Values) == 0 {
		return "", false
	}
	return c.Values[0].Value, true
}

func (c *Component) HasValue(v string) bool {
	for _, dv := range c.Values {
		if dv.Value == v {
			return true
		}
	}
	return false
}

func (c *Component) ValueStrings() []string {
	out := make([]string, len(c.Values))
	for i, dv := range c.Values {
		out[i] = dv.Value
	}
	return out
}

// Metadata is the read-only description of a data cube as resolved for one
// locale. Lookups by IRI are optional since a stored chart may reference
// components the cube no longer has.
type Metadata struct {
	Iri         string      `json:"iri"`
	Title       string      `json:"title"`
	Description string      `json:"description,omitempty"`
	Dimensions  []Component `json:"dimensions"`
	Measures    []Component `json:"measures"`
}

func (m *Metadata) Dimension(iri string) (*Component, bool) {
	if m == nil {
		return nil, false
	}
	for i := range m.Dimensions {
		if m.Dimensions[i].Iri == iri {
			return &m.Dimensions[i], true
		}
	}
	return nil, false
}

func (m *Metadata) Measure(iri string) (*Component, bool) {
	if m == nil {
		return nil, false
	}
	for i := range m.Measures {
		if m.Measures[i].Iri == iri {
			return &m.Measures[i], true
		}
	}
	return nil, false
}

func (m *Metadata) Component(iri string) (*Component, bool) {
	if c, ok := m.Dimension(iri); ok {
		return c, true
	}
	return m.Measure(iri)
}

// DimensionsOfKind returns the dimensions for which accept returns true, in
// declaration order.
func (m *Metadata) DimensionsOfKind(accept func(ComponentKind) bool) []*Component {
	var out []*Component
	for i := range m.Dimensions {
		if accept(m.Dimensions[i].Kind) {
			out = append(out, &m.Dimensions[i])
		}
	}
	return out
}

// MetadataSource resolves cube metadata. Implementations must return an
// error wrapping ErrUnknownDataset when the IRI is not known.
type MetadataSource interface {
	Metadata(ctx context.Context, iri string, locale common.Locale) (*Metadata, error)
}
