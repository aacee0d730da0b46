package filtering

import (
	"testing"

	"github.com/mahesh-hegde/visualize/app/chartconfig"
	"github.com/mahesh-hegde/visualize/app/cube"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dim(iri string, key bool, values ...string) cube.Component {
	c := cube.Component{Iri: iri, Label: iri, Kind: cube.NominalDimension, IsKeyDimension: key}
	for _, v := range values {
		c.Values = append(c.Values, cube.DimensionValue{Value: v, Label: v})
	}
	return c
}

var testDimensions = []cube.Component{
	dim("canton", true, "ZH", "BE", "GE"),
	dim("year", true, "2020", "2021"),
	dim("species", false, "cat", "dog"),
	dim("color", true, "red", "blue"),
}

func columnConfig(x, segment string, filters map[string]chartconfig.FilterValue, order ...string) *chartconfig.ColumnConfig {
	c := &chartconfig.ColumnConfig{
		Header: chartconfig.Header{ChartType: chartconfig.ChartTypeColumn, Filters: chartconfig.NewFilters()},
		Fields: chartconfig.ColumnFields{
			X: chartconfig.SortingField{ComponentIri: x},
			Y: chartconfig.GenericField{ComponentIri: "M1"},
		},
	}
	if segment != "" {
		c.Fields.Segment = &chartconfig.SegmentField{ComponentIri: segment, Type: chartconfig.SegmentStacked, Palette: "category10"}
	}
	for _, k := range order {
		c.Filters.Set(k, filters[k])
	}
	return c
}

func TestApplyNonTableDimension(t *testing.T) {
	keyDim := dim("canton", true, "ZH", "BE")
	optDim := dim("species", false, "cat", "dog")

	testCases := []struct {
		name     string
		dim      cube.Component
		initial  *chartconfig.FilterValue
		isField  bool
		expected *chartconfig.FilterValue
	}{
		{"single removed when field", keyDim, ptr(chartconfig.SingleFilter("BE")), true, nil},
		{"single kept when not field", keyDim, ptr(chartconfig.SingleFilter("BE")), false, ptr(chartconfig.SingleFilter("BE"))},
		{"multi kept when field", keyDim, ptr(chartconfig.MultiFilter("BE", "ZH")), true, ptr(chartconfig.MultiFilter("BE", "ZH"))},
		{"multi collapses to first selected", keyDim, ptr(chartconfig.MultiFilter("BE", "ZH")), false, ptr(chartconfig.SingleFilter("BE"))},
		{"empty multi collapses to first value", optDim, ptr(chartconfig.MultiFilter()), false, ptr(chartconfig.SingleFilter("cat"))},
		{"range collapses to from", keyDim, ptr(chartconfig.RangeFilter("ZH", "BE")), false, ptr(chartconfig.SingleFilter("ZH"))},
		{"range kept when field", keyDim, ptr(chartconfig.RangeFilter("ZH", "BE")), true, ptr(chartconfig.RangeFilter("ZH", "BE"))},
		{"key dimension gets default", keyDim, nil, false, ptr(chartconfig.SingleFilter("ZH"))},
		{"optional dimension stays open", optDim, nil, false, nil},
		{"bound key dimension stays open", keyDim, nil, true, nil},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			filters := chartconfig.NewFilters()
			if tc.initial != nil {
				filters.Set(tc.dim.Iri, *tc.initial)
			}
			ApplyNonTableDimension(&filters, &tc.dim, tc.isField)
			assertFilter(t, &filters, tc.dim.Iri, tc.expected)
		})
	}
}

func TestApplyTableDimension(t *testing.T) {
	keyDim := dim("parametertype", true, "E.coli", "Enterokokken")
	optDim := dim("parametertype", false, "E.coli", "Enterokokken")

	testCases := []struct {
		name     string
		dim      cube.Component
		initial  *chartconfig.FilterValue
		hidden   bool
		grouped  bool
		expected *chartconfig.FilterValue
	}{
		{"hidden key dimension gets single", keyDim, nil, true, false, ptr(chartconfig.SingleFilter("E.coli"))},
		{"hidden optional multi untouched", optDim, ptr(chartconfig.MultiFilter("E.coli", "Enterokokken")), true, false, ptr(chartconfig.MultiFilter("E.coli", "Enterokokken"))},
		{"hidden key range becomes single", keyDim, ptr(chartconfig.RangeFilter("2007-05-21", "2020-09-28")), true, false, ptr(chartconfig.SingleFilter("2007-05-21"))},
		{"grouped key multi untouched", keyDim, ptr(chartconfig.MultiFilter("Enterokokken")), false, true, ptr(chartconfig.MultiFilter("Enterokokken"))},
		{"regrouped key single removed", keyDim, ptr(chartconfig.SingleFilter("E.coli")), true, true, nil},
		{"visible single removed", optDim, ptr(chartconfig.SingleFilter("E.coli")), false, false, nil},
		{"hidden key multi collapses", keyDim, ptr(chartconfig.MultiFilter("Enterokokken")), true, false, ptr(chartconfig.SingleFilter("Enterokokken"))},
		{"visible key dimension stays open", keyDim, nil, false, false, nil},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			filters := chartconfig.NewFilters()
			if tc.initial != nil {
				filters.Set(tc.dim.Iri, *tc.initial)
			}
			ApplyTableDimension(&filters, &tc.dim, tc.hidden && !tc.grouped)
			assertFilter(t, &filters, tc.dim.Iri, tc.expected)
		})
	}
}

func TestDeriveMutualExclusionAndIdempotence(t *testing.T) {
	configs := []*chartconfig.ColumnConfig{
		columnConfig("canton", "", nil),
		columnConfig("canton", "year", nil),
		columnConfig("species", "color", map[string]chartconfig.FilterValue{
			"canton":  chartconfig.MultiFilter("GE"),
			"species": chartconfig.SingleFilter("dog"),
			"color":   chartconfig.RangeFilter("red", "blue"),
		}, "canton", "species", "color"),
		columnConfig("year", "canton", map[string]chartconfig.FilterValue{
			"canton": chartconfig.SingleFilter("BE"),
			"year":   chartconfig.MultiFilter(),
		}, "year", "canton"),
	}
	for i, cfg := range configs {
		Derive(cfg, testDimensions)
		once := chartconfig.Clone(cfg)
		Derive(cfg, testDimensions)
		assert.True(t, chartconfig.Equal(once, cfg), "config %d is not idempotent", i)

		for _, d := range testDimensions {
			_, hasFilter := cfg.Filters.Get(d.Iri)
			bound := chartconfig.IsField(cfg, d.Iri)
			if hasFilter {
				f, _ := cfg.Filters.Get(d.Iri)
				if f.Type == chartconfig.FilterSingle {
					assert.False(t, bound, "config %d: %s has a single filter and a field", i, d.Iri)
				}
			}
			if d.IsKeyDimension {
				assert.True(t, hasFilter || bound, "config %d: key dimension %s is unconstrained", i, d.Iri)
			}
		}
	}
}

func TestDeriveKeepsOrder(t *testing.T) {
	cfg := columnConfig("canton", "", map[string]chartconfig.FilterValue{
		"color": chartconfig.SingleFilter("blue"),
		"year":  chartconfig.SingleFilter("2021"),
	}, "color", "year")
	Derive(cfg, testDimensions)
	assert.Equal(t, []string{"color", "year"}, cfg.Filters.Keys())
}

func TestDeriveTable(t *testing.T) {
	cfg := &chartconfig.TableConfig{
		Header: chartconfig.Header{ChartType: chartconfig.ChartTypeTable, Filters: chartconfig.NewFilters()},
		Fields: chartconfig.TableFields{
			"canton":  {ComponentIri: "canton", IsHidden: true},
			"year":    {ComponentIri: "year", IsHidden: true, IsGroup: true},
			"species": {ComponentIri: "species"},
		},
	}
	cfg.Filters.Set("species", chartconfig.SingleFilter("cat"))
	Derive(cfg, testDimensions)

	assertFilter(t, &cfg.Filters, "canton", ptr(chartconfig.SingleFilter("ZH")))
	assertFilter(t, &cfg.Filters, "year", nil)
	assertFilter(t, &cfg.Filters, "species", nil)
	// color has no column and counts as visible
	assertFilter(t, &cfg.Filters, "color", nil)
}

func TestDeriveSkipsKeyDimensionWithoutValues(t *testing.T) {
	cfg := columnConfig("canton", "", nil)
	Derive(cfg, []cube.Component{dim("empty", true)})
	assert.Equal(t, 0, cfg.Filters.Len())
}

func TestMoveFilterField(t *testing.T) {
	base := func() chartconfig.Filters {
		f := chartconfig.NewFilters()
		f.Set("species", chartconfig.SingleFilter("penguins"))
		f.Set("date", chartconfig.SingleFilter("2020.11.20"))
		return f
	}
	testCases := []struct {
		name     string
		iri      string
		delta    int
		values   []string
		moved    bool
		expected []string
	}{
		{"existing up", "date", -1, []string{"2020.11.20"}, true, []string{"date", "species"}},
		{"existing down", "species", 1, []string{"penguins"}, true, []string{"date", "species"}},
		{"absent up", "color", -1, []string{"red", "blue"}, true, []string{"species", "color", "date"}},
		{"absent down", "color", 1, []string{"red"}, false, []string{"species", "date"}},
		{"first up", "species", -1, nil, false, []string{"species", "date"}},
		{"last down", "date", 1, nil, false, []string{"species", "date"}},
		{"absent without values", "color", -1, nil, false, []string{"species", "date"}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f := base()
			moved := MoveFilterField(&f, tc.iri, tc.delta, tc.values)
			assert.Equal(t, tc.moved, moved)
			assert.Equal(t, tc.expected, f.Keys())
		})
	}

	f := base()
	require.True(t, MoveFilterField(&f, "color", -1, []string{"red", "blue"}))
	assertFilter(t, &f, "color", ptr(chartconfig.SingleFilter("red")))
	assertFilter(t, &f, "date", ptr(chartconfig.SingleFilter("2020.11.20")))

	empty := chartconfig.NewFilters()
	assert.True(t, MoveFilterField(&empty, "color", -1, []string{"red"}))
	assert.Equal(t, []string{"color"}, empty.Keys())
}

func TestEnsureValuesCorrect(t *testing.T) {
	f := chartconfig.NewFilters()
	f.Set("canton", chartconfig.SingleFilter("TI"))
	f.Set("year", chartconfig.SingleFilter("2021"))
	f.Set("species", chartconfig.MultiFilter("fish"))
	EnsureValuesCorrect(&f, testDimensions)
	assertFilter(t, &f, "canton", ptr(chartconfig.SingleFilter("ZH")))
	assertFilter(t, &f, "year", ptr(chartconfig.SingleFilter("2021")))
	assertFilter(t, &f, "species", ptr(chartconfig.MultiFilter("fish")))
}

func TestByMappingStatus(t *testing.T) {
	cfg := columnConfig("canton", "", map[string]chartconfig.FilterValue{
		"year":   chartconfig.SingleFilter("2020"),
		"canton": chartconfig.MultiFilter("ZH"),
		"color":  chartconfig.SingleFilter("red"),
	}, "year", "canton", "color")
	mapped, unmapped := ByMappingStatus(cfg)
	assert.Equal(t, []string{"canton"}, mapped.Keys())
	assert.Equal(t, []string{"year", "color"}, unmapped.Keys())
}

func ptr(f chartconfig.FilterValue) *chartconfig.FilterValue { return &f }

func assertFilter(t *testing.T, filters *chartconfig.Filters, iri string, expected *chartconfig.FilterValue) {
	t.Helper()
	got, ok := filters.Get(iri)
	if expected == nil {
		assert.False(t, ok, "expected no filter on %s, got %+v", iri, got)
		return
	}
	if assert.True(t, ok, "expected a filter on %s", iri) {
		assert.True(t, expected.Equal(got), "filter on %s: expected %+v, got %+v", iri, *expected, got)
	}
}
