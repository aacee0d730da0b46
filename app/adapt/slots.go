package adapt

import (
	"github.com/mahesh-hegde/visualize/app/chartconfig"
	"github.com/mahesh-hegde/visualize/app/cube"
)

// Names of bindings that are not fields themselves but can seed one.
const (
	// srcGroup is the first grouping column of a table.
	srcGroup = "group"
	// srcMeasure is the measure of a map, or the first visible measure
	// column of a table.
	srcMeasure = "measure"
)

// slot is a channel of the target chart type.
type slot struct {
	name     string
	measure  bool
	accept   func(cube.ComponentKind) bool
	optional bool
	// sources are old bindings tried, in order, after the same name. The
	// grouping column of a table only seeds segments and layers.
	sources []string
	// shared slots may reuse a component another slot already took.
	shared bool
}

func anyDimension(k cube.ComponentKind) bool { return k.IsDimension() }

func temporal(k cube.ComponentKind) bool { return k == cube.TemporalDimension }

func nonTemporal(k cube.ComponentKind) bool { return k.IsCategorical() }

func geoShapes(k cube.ComponentKind) bool { return k == cube.GeoShapesDimension }

func geo(k cube.ComponentKind) bool { return k.IsGeo() }

func measure(k cube.ComponentKind) bool { return k == cube.Measure }

var slotsByType = map[chartconfig.ChartType][]slot{
	chartconfig.ChartTypeColumn: {
		{name: "x", accept: anyDimension, sources: []string{"y", "areaLayer", "symbolLayer", "segment"}},
		{name: "y", measure: true, accept: measure, sources: []string{"x", srcMeasure}},
		{name: "segment", accept: anyDimension, optional: true, sources: []string{srcGroup}},
	},
	chartconfig.ChartTypeBar: {
		{name: "x", measure: true, accept: measure, sources: []string{"y", srcMeasure}},
		{name: "y", accept: anyDimension, sources: []string{"x", "areaLayer", "symbolLayer", "segment"}},
		{name: "segment", accept: anyDimension, optional: true, sources: []string{srcGroup}},
	},
	chartconfig.ChartTypeLine: {
		{name: "x", accept: temporal, sources: []string{"y", "segment"}},
		{name: "y", measure: true, accept: measure, sources: []string{"x", srcMeasure}},
		{name: "segment", accept: nonTemporal, optional: true, sources: []string{srcGroup, "x", "y"}},
	},
	chartconfig.ChartTypeArea: {
		{name: "x", accept: temporal, sources: []string{"y", "segment"}},
		{name: "y", measure: true, accept: measure, sources: []string{"x", srcMeasure}},
		{name: "segment", accept: nonTemporal, optional: true, sources: []string{srcGroup, "x", "y"}},
	},
	chartconfig.ChartTypeScatterplot: {
		{name: "x", measure: true, accept: measure, sources: []string{"y", srcMeasure}},
		{name: "y", measure: true, accept: measure, sources: []string{"x", srcMeasure}},
		{name: "segment", accept: anyDimension, optional: true, sources: []string{srcGroup, "x", "y"}},
	},
	chartconfig.ChartTypePie: {
		{name: "y", measure: true, accept: measure, sources: []string{"x", srcMeasure}},
		{name: "segment", accept: nonTemporal, sources: []string{"x", "y", "areaLayer", "symbolLayer", srcGroup}},
	},
	chartconfig.ChartTypeMap: {
		{name: "areaLayer", accept: geoShapes, sources: []string{"segment", "x", "y", srcGroup}},
		{name: "symbolLayer", accept: geo, shared: true, sources: []string{"areaLayer", "segment", "x", "y", srcGroup}},
		{name: srcMeasure, measure: true, accept: measure, shared: true, sources: []string{"y", "x"}},
	},
}

// bindings collects the component IRIs bound by an existing config.
func bindings(cfg chartconfig.ChartConfig) map[string]string {
	out := map[string]string{}
	switch c := cfg.(type) {
	case nil:
	case *chartconfig.TableConfig:
		if groups := c.GroupedIris(); len(groups) > 0 {
			out[srcGroup] = groups[0]
		}
		for _, col := range c.Columns() {
			if col.ComponentType == string(cube.Measure) && !col.IsHidden {
				out[srcMeasure] = col.ComponentIri
				break
			}
		}
	case *chartconfig.MapConfig:
		out["areaLayer"] = c.Fields.AreaLayer.ComponentIri
		out["symbolLayer"] = c.Fields.SymbolLayer.ComponentIri
		out[srcMeasure] = c.Fields.AreaLayer.MeasureIri
	default:
		for _, name := range cfg.FieldNames() {
			if iri, ok := cfg.FieldIri(name); ok && iri != "" {
				out[name] = iri
			}
		}
	}
	return out
}

type assignment struct {
	iri    string
	source string
}

// assign fills the slots in three passes: same name, then the remap
// sources, then the first unused eligible component. Required slots that
// stay empty make it fail.
func assign(old chartconfig.ChartConfig, slots []slot, meta *cube.Metadata) (map[string]assignment, error) {
	bound := bindings(old)
	used := map[string]bool{}
	out := map[string]assignment{}

	eligible := func(s slot, iri string) bool {
		if iri == "" || (used[iri] && !s.shared) {
			return false
		}
		var c *cube.Component
		var ok bool
		if s.measure {
			c, ok = meta.Measure(iri)
		} else {
			c, ok = meta.Dimension(iri)
		}
		return ok && s.accept(c.Kind)
	}
	take := func(s slot, iri, source string) {
		out[s.name] = assignment{iri: iri, source: source}
		used[iri] = true
	}

	for _, s := range slots {
		if iri, ok := bound[s.name]; ok && eligible(s, iri) {
			take(s, iri, s.name)
		}
	}
	for _, s := range slots {
		if _, done := out[s.name]; done {
			continue
		}
		for _, src := range s.sources {
			if iri, ok := bound[src]; ok && eligible(s, iri) {
				take(s, iri, src)
				break
			}
		}
	}
	for _, s := range slots {
		if _, done := out[s.name]; done || s.optional {
			continue
		}
		iri, ok := defaultComponent(meta, s, used)
		if !ok {
			return nil, errNoComponent(s.name)
		}
		take(s, iri, "")
	}
	return out, nil
}

// defaultComponent returns the first eligible component by declaration
// order, preferring unused ones.
func defaultComponent(meta *cube.Metadata, s slot, used map[string]bool) (string, bool) {
	pool := meta.Dimensions
	if s.measure {
		pool = meta.Measures
	}
	fallback := ""
	for _, c := range pool {
		if !s.accept(c.Kind) {
			continue
		}
		if !used[c.Iri] || s.shared {
			return c.Iri, true
		}
		if fallback == "" {
			fallback = c.Iri
		}
	}
	// Two measure slots on a cube with a single measure share it.
	if s.measure && fallback != "" {
		return fallback, true
	}
	return "", false
}
