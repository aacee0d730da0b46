// Package adapt builds chart configs for a chart type, either from scratch
// or from a config of another chart type.
package adapt

import (
	"errors"
	"fmt"

	"github.com/mahesh-hegde/visualize/app/chartconfig"
	"github.com/mahesh-hegde/visualize/app/cube"
)

var ErrNoEligibleComponent = errors.New("no eligible component")

func errNoComponent(slot string) error {
	return fmt.Errorf("%w for %s", ErrNoEligibleComponent, slot)
}

func hasDimension(meta *cube.Metadata, accept func(cube.ComponentKind) bool) bool {
	return len(meta.DimensionsOfKind(accept)) > 0
}

// PossibleChartTypes returns the chart types the cube can be shown as, in
// the order of chartconfig.ChartTypes.
func PossibleChartTypes(meta *cube.Metadata) []chartconfig.ChartType {
	if meta == nil || len(meta.Dimensions) == 0 {
		return nil
	}
	nMeasures := len(meta.Measures)
	var out []chartconfig.ChartType
	for _, t := range chartconfig.ChartTypes {
		ok := false
		switch t {
		case chartconfig.ChartTypeColumn, chartconfig.ChartTypeBar, chartconfig.ChartTypeScatterplot:
			// A scatterplot on a single measure plots it against itself.
			ok = nMeasures > 0
		case chartconfig.ChartTypeLine, chartconfig.ChartTypeArea:
			ok = nMeasures > 0 && hasDimension(meta, temporal)
		case chartconfig.ChartTypePie:
			ok = nMeasures > 0 && hasDimension(meta, nonTemporal)
		case chartconfig.ChartTypeMap:
			ok = nMeasures > 0 && hasDimension(meta, geoShapes)
		case chartconfig.ChartTypeTable:
			ok = true
		}
		if ok {
			out = append(out, t)
		}
	}
	return out
}

func IsPossible(t chartconfig.ChartType, meta *cube.Metadata) bool {
	for _, p := range PossibleChartTypes(meta) {
		if p == t {
			return true
		}
	}
	return false
}

// InitialConfig builds a config of type t bound to the first eligible
// components of the cube. Filters are left empty.
func InitialConfig(t chartconfig.ChartType, meta *cube.Metadata) (chartconfig.ChartConfig, error) {
	cfg, err := build(nil, t, meta)
	if err != nil {
		return nil, err
	}
	// A scatterplot starts out colored by the first categorical dimension.
	if sc, ok := cfg.(*chartconfig.ScatterplotConfig); ok && sc.Fields.Segment == nil {
		if dims := meta.DimensionsOfKind(nonTemporal); len(dims) > 0 {
			sc.Fields.Segment = NewSegment(t, dims[0])
		}
	}
	return cfg, nil
}

// ToChartType returns a config of type t that keeps as many bindings of old
// as the new chart type can hold. Filters are carried over unchanged; the
// caller re-derives them. A config that already has type t is cloned.
func ToChartType(old chartconfig.ChartConfig, t chartconfig.ChartType, meta *cube.Metadata) (chartconfig.ChartConfig, error) {
	if old.Base().ChartType == t {
		return chartconfig.Clone(old), nil
	}
	cfg, err := build(old, t, meta)
	if err != nil {
		return nil, err
	}
	cfg.Base().Filters = old.Base().Filters.Clone()
	if cfg.InteractiveConfig() != nil && old.InteractiveConfig() != nil {
		cfg.SetInteractiveConfig(old.InteractiveConfig().Clone())
	}
	RepairInteractiveFilters(cfg, meta)
	return cfg, nil
}

// RepairInteractiveFilters drops bound components from the interactive data
// filters and turns off the time filter when x is not temporal.
func RepairInteractiveFilters(cfg chartconfig.ChartConfig, meta *cube.Metadata) {
	ifc := cfg.InteractiveConfig()
	if ifc == nil {
		return
	}
	for _, iri := range chartconfig.FieldIris(cfg) {
		ifc.RemoveDataFilter(iri)
	}
	x, ok := cfg.FieldIri("x")
	if !ok {
		ifc.Time.Active = false
		return
	}
	if d, found := meta.Dimension(x); !found || d.Kind != cube.TemporalDimension {
		ifc.Time.Active = false
	}
}

func build(old chartconfig.ChartConfig, t chartconfig.ChartType, meta *cube.Metadata) (chartconfig.ChartConfig, error) {
	if meta == nil || len(meta.Dimensions) == 0 {
		return nil, errNoComponent("chart")
	}
	if t == chartconfig.ChartTypeTable {
		return buildTable(old, meta), nil
	}
	slots, ok := slotsByType[t]
	if !ok {
		return nil, fmt.Errorf("unknown chart type %q", t)
	}
	a, err := assign(old, slots, meta)
	if err != nil {
		return nil, err
	}

	cfg, err := chartconfig.New(t)
	if err != nil {
		return nil, err
	}
	cfg.SetInteractiveConfig(chartconfig.DefaultInteractiveFilters())

	switch c := cfg.(type) {
	case *chartconfig.ColumnConfig:
		c.Fields.X = chartconfig.SortingField{ComponentIri: a["x"].iri, Sorting: carriedSorting(old, a["x"].source)}
		c.Fields.Y = chartconfig.GenericField{ComponentIri: a["y"].iri}
		c.Fields.Segment = segmentFor(old, t, a, meta)
	case *chartconfig.BarConfig:
		c.Fields.X = chartconfig.GenericField{ComponentIri: a["x"].iri}
		c.Fields.Y = chartconfig.SortingField{ComponentIri: a["y"].iri, Sorting: carriedSorting(old, a["y"].source)}
		c.Fields.Segment = segmentFor(old, t, a, meta)
	case *chartconfig.LineConfig:
		c.Fields.X = chartconfig.GenericField{ComponentIri: a["x"].iri}
		c.Fields.Y = chartconfig.GenericField{ComponentIri: a["y"].iri}
		c.Fields.Segment = segmentFor(old, t, a, meta)
	case *chartconfig.AreaConfig:
		c.Fields.X = chartconfig.GenericField{ComponentIri: a["x"].iri}
		c.Fields.Y = chartconfig.AreaYField{ComponentIri: a["y"].iri}
		c.Fields.Segment = segmentFor(old, t, a, meta)
	case *chartconfig.ScatterplotConfig:
		c.Fields.X = chartconfig.GenericField{ComponentIri: a["x"].iri}
		c.Fields.Y = chartconfig.GenericField{ComponentIri: a["y"].iri}
		c.Fields.Segment = segmentFor(old, t, a, meta)
	case *chartconfig.PieConfig:
		c.Fields.Y = chartconfig.GenericField{ComponentIri: a["y"].iri}
		c.Fields.Segment = *segmentFor(old, t, a, meta)
	case *chartconfig.MapConfig:
		c.Fields.BaseLayer = chartconfig.BaseLayer{Show: true}
		c.Fields.AreaLayer = chartconfig.DefaultAreaLayer(a["areaLayer"].iri, a[srcMeasure].iri)
		c.Fields.SymbolLayer = chartconfig.DefaultSymbolLayer(a["symbolLayer"].iri, a[srcMeasure].iri)
	default:
		return nil, fmt.Errorf("unknown chart type %q", t)
	}
	return cfg, nil
}

// carriedSorting keeps the sorting of the field the binding came from when
// that field had one, otherwise sorts by label.
func carriedSorting(old chartconfig.ChartConfig, source string) *chartconfig.SortingOption {
	var s *chartconfig.SortingOption
	switch c := old.(type) {
	case *chartconfig.ColumnConfig:
		if source == "x" {
			s = c.Fields.X.Sorting
		}
	case *chartconfig.BarConfig:
		if source == "y" {
			s = c.Fields.Y.Sorting
		}
	}
	if s == nil {
		return &chartconfig.SortingOption{SortingType: chartconfig.SortByDimensionLabel, SortingOrder: chartconfig.SortAsc}
	}
	copied := *s
	return &copied
}

func segmentFor(old chartconfig.ChartConfig, t chartconfig.ChartType, a map[string]assignment, meta *cube.Metadata) *chartconfig.SegmentField {
	as, ok := a["segment"]
	if !ok {
		return nil
	}
	dim, _ := meta.Dimension(as.iri)
	if as.source == "segment" && old != nil && old.Segment() != nil {
		seg := old.Segment().Clone()
		seg.Type = segmentType(t, seg.Type)
		if seg.Palette == "" {
			seg.Palette = chartconfig.DefaultPalette
		}
		if seg.ColorMapping == nil {
			seg.ColorMapping = chartconfig.ColorMapping(seg.Palette, dim.ValueStrings())
		}
		return seg
	}
	return NewSegment(t, dim)
}

// NewSegment builds a segment on dim with the default palette and sorting.
func NewSegment(t chartconfig.ChartType, dim *cube.Component) *chartconfig.SegmentField {
	seg := &chartconfig.SegmentField{
		ComponentIri: dim.Iri,
		Type:         segmentType(t, ""),
		Palette:      chartconfig.DefaultPalette,
		ColorMapping: chartconfig.ColorMapping(chartconfig.DefaultPalette, dim.ValueStrings()),
	}
	if t != chartconfig.ChartTypeLine && t != chartconfig.ChartTypeScatterplot {
		seg.Sorting = chartconfig.DefaultSegmentSorting()
	}
	return seg
}

func segmentType(t chartconfig.ChartType, current chartconfig.SegmentType) chartconfig.SegmentType {
	switch t {
	case chartconfig.ChartTypeColumn:
		if current != "" {
			return current
		}
		return chartconfig.SegmentStacked
	case chartconfig.ChartTypeBar:
		if current != "" {
			return current
		}
		return chartconfig.SegmentGrouped
	}
	return ""
}

// buildTable makes one column per component, dimensions first. The segment
// of the old config becomes the grouping column.
func buildTable(old chartconfig.ChartConfig, meta *cube.Metadata) chartconfig.ChartConfig {
	cfg, _ := chartconfig.New(chartconfig.ChartTypeTable)
	table := cfg.(*chartconfig.TableConfig)
	table.Settings = chartconfig.TableSettings{ShowSearch: true}

	groupIri := ""
	if old != nil && old.Segment() != nil {
		groupIri = old.Segment().ComponentIri
	}
	idx := 0
	add := func(c *cube.Component, style chartconfig.ColumnStyle) {
		table.Fields[c.Iri] = chartconfig.TableColumn{
			ComponentIri:  c.Iri,
			ComponentType: string(c.Kind),
			Index:         idx,
			IsGroup:       c.Iri == groupIri,
			ColumnStyle:   style,
		}
		idx++
	}
	for i := range meta.Dimensions {
		add(&meta.Dimensions[i], chartconfig.ColumnStyle{Type: "text", TextStyle: "regular"})
	}
	for i := range meta.Measures {
		add(&meta.Measures[i], chartconfig.ColumnStyle{Type: "text", TextStyle: "regular"})
	}
	return table
}
