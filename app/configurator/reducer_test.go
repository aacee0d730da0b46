package configurator

import (
	"encoding/json"
	"testing"

	"github.com/mahesh-hegde/visualize/app/adapt"
	"github.com/mahesh-hegde/visualize/app/chartconfig"
	"github.com/mahesh-hegde/visualize/app/cube"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCube = "https://example.org/cube"

func component(iri string, kind cube.ComponentKind, key bool, values ...string) cube.Component {
	c := cube.Component{Iri: iri, Label: iri, Kind: kind, IsKeyDimension: key}
	for _, v := range values {
		c.Values = append(c.Values, cube.DimensionValue{Value: v, Label: v})
	}
	return c
}

func testMetadata() *cube.Metadata {
	return &cube.Metadata{
		Iri: testCube,
		Dimensions: []cube.Component{
			component("canton", cube.GeoShapesDimension, true, "ZH", "BE"),
			component("year", cube.TemporalDimension, true, "2020", "2021"),
			component("species", cube.NominalDimension, false, "cat", "dog"),
		},
		Measures: []cube.Component{
			component("M1", cube.Measure, false),
			component("M2", cube.Measure, false),
		},
	}
}

// configuring returns the state reached by selecting the test cube and
// stepping forward once.
func configuring(t *testing.T) *ConfiguringChart {
	t.Helper()
	s := Reduce(EmptyState(), DatasetSelected{DataSet: testCube})
	s = Reduce(s, StepNext{Metadata: testMetadata()})
	c, ok := s.(*ConfiguringChart)
	require.True(t, ok, "got %T", s)
	return c
}

func describing(t *testing.T) *DescribingChart {
	t.Helper()
	s := Reduce(configuring(t), StepNext{Metadata: testMetadata()})
	d, ok := s.(*DescribingChart)
	require.True(t, ok, "got %T", s)
	return d
}

func withConfig(t *testing.T, cfg chartconfig.ChartConfig) *ConfiguringChart {
	t.Helper()
	c := configuring(t)
	return &ConfiguringChart{Document{DataSet: c.DataSet, Meta: c.Meta, ChartConfig: cfg}}
}

func column(t *testing.T, s State) *chartconfig.ColumnConfig {
	t.Helper()
	d, ok := DocumentOf(s)
	require.True(t, ok, "got %T", s)
	c, ok := d.ChartConfig.(*chartconfig.ColumnConfig)
	require.True(t, ok, "got %T", d.ChartConfig)
	return c
}

func filterKeys(s State) []string {
	d, _ := DocumentOf(s)
	return d.ChartConfig.Base().Filters.Keys()
}

func TestInitialized(t *testing.T) {
	got := Reduce(EmptyState(), Initialized{Value: &Initial{}})
	assert.Equal(t, EmptyState(), got)
	_, isInitial := got.(*Initial)
	assert.False(t, isInitial)

	restored := configuring(t)
	assert.Same(t, restored, Reduce(EmptyState(), Initialized{Value: restored}))
}

func TestStepNextBuildsInitialConfig(t *testing.T) {
	c := configuring(t)
	assert.Equal(t, testCube, c.DataSet)

	cfg := column(t, c)
	assert.Equal(t, "canton", cfg.Fields.X.ComponentIri)
	assert.Equal(t, "M1", cfg.Fields.Y.ComponentIri)
	assert.Nil(t, cfg.Fields.Segment)

	// Unbound key dimensions get a single filter, optional ones none.
	assert.Equal(t, []string{"year"}, filterKeys(c))
	f, _ := cfg.Filters.Get("year")
	assert.Equal(t, chartconfig.SingleFilter("2020"), f)
}

func TestStepNextWalksStages(t *testing.T) {
	meta := testMetadata()
	c := configuring(t)
	c = Reduce(c, ActiveFieldChanged{Field: "x"}).(*ConfiguringChart)

	d := Reduce(c, StepNext{Metadata: meta})
	require.IsType(t, &DescribingChart{}, d)
	assert.Empty(t, d.(*DescribingChart).ActiveField)

	p := Reduce(d, StepNext{Metadata: meta})
	require.IsType(t, &Publishing{}, p)
	assert.Same(t, p, Reduce(p, StepNext{Metadata: meta}))
	assert.Same(t, p, Reduce(p, Published{Key: "abc"}))
}

func TestStepNextGuards(t *testing.T) {
	meta := testMetadata()
	noDims := &cube.Metadata{Iri: testCube, Measures: meta.Measures}

	testCases := []struct {
		name  string
		state State
		meta  *cube.Metadata
	}{
		{"initial", &Initial{}, meta},
		{"no dataset", EmptyState(), meta},
		{"no metadata", &SelectingDataset{DataSet: testCube}, nil},
		{"no dimensions", &SelectingDataset{DataSet: testCube}, noDims},
		{"metadata of another cube", &SelectingDataset{DataSet: "https://example.org/other"}, meta},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Same(t, tc.state, Reduce(tc.state, StepNext{Metadata: tc.meta}))
		})
	}
}

func TestStepPrevious(t *testing.T) {
	c := configuring(t)
	back := Reduce(c, StepPrevious{})
	sel, ok := back.(*SelectingDataset)
	require.True(t, ok, "got %T", back)
	assert.Equal(t, testCube, sel.DataSet)

	d := describing(t)
	toConfiguring := Reduce(d, StepPrevious{})
	require.IsType(t, &ConfiguringChart{}, toConfiguring)
	assert.True(t, chartconfig.Equal(d.ChartConfig, toConfiguring.(*ConfiguringChart).ChartConfig))

	require.IsType(t, &SelectingDataset{}, Reduce(d, StepPrevious{To: StageSelectingDataset}))
	assert.Same(t, d, Reduce(d, StepPrevious{To: StageDescribingChart}))
	assert.Same(t, d, Reduce(d, StepPrevious{To: StagePublishing}))

	p := Reduce(d, StepNext{})
	assert.Same(t, p, Reduce(p, StepPrevious{}))
	assert.Same(t, sel, Reduce(sel, StepPrevious{}))
}

func TestPublishFailed(t *testing.T) {
	d := describing(t)
	p := Reduce(d, StepNext{})
	require.IsType(t, &Publishing{}, p)

	back := Reduce(p, PublishFailed{})
	require.IsType(t, &DescribingChart{}, back)
	assert.Equal(t, d.DataSet, back.(*DescribingChart).DataSet)

	assert.Same(t, d, Reduce(d, PublishFailed{}))
}

func TestStageGuards(t *testing.T) {
	meta := testMetadata()
	sel := &SelectingDataset{DataSet: testCube}
	c := configuring(t)
	d := describing(t)
	p := Reduce(d, StepNext{})
	noShapes := testMetadata()
	noShapes.Dimensions = noShapes.Dimensions[1:]

	testCases := []struct {
		name   string
		state  State
		action Action
	}{
		{"field changed while selecting", sel, ChartFieldChanged{Field: "x", ComponentIri: "year", Metadata: meta}},
		{"field changed while describing", d, ChartFieldChanged{Field: "x", ComponentIri: "year", Metadata: meta}},
		{"chart type while selecting", sel, ChartTypeChanged{ChartType: chartconfig.ChartTypePie, Metadata: meta}},
		{"chart type while publishing", p, ChartTypeChanged{ChartType: chartconfig.ChartTypePie, Metadata: meta}},
		{"dataset while configuring", c, DatasetSelected{DataSet: "https://example.org/other"}},
		{"description while configuring", c, ChartDescriptionChanged{Path: "title.de", Value: "Titel"}},
		{"interactive filters while configuring", c, InteractiveFilterChanged{Config: *chartconfig.DefaultInteractiveFilters()}},
		{"filter while describing", d, FilterSetSingle{DimensionIri: "year", Value: "2021"}},
		{"option while describing", d, ChartOptionChanged{Field: "x", Path: "sorting.sortingOrder", Value: json.RawMessage(`"desc"`)}},
		{"palette while publishing", p, ChartPaletteReset{Field: "segment"}},
		{"active field while selecting", sel, ActiveFieldChanged{Field: "x"}},
		{"imputation on a column chart", c, ImputationTypeChanged{ImputationType: chartconfig.ImputationZeros}},
		{"unknown component", c, ChartFieldChanged{Field: "x", ComponentIri: "missing", Metadata: meta}},
		{"unknown field", c, ChartFieldChanged{Field: "areaLayer", ComponentIri: "canton", Metadata: meta}},
		{"field changed without metadata", c, ChartFieldChanged{Field: "x", ComponentIri: "year"}},
		{"delete required field", c, ChartFieldDeleted{Field: "x", Metadata: meta}},
		{"delete absent segment", c, ChartFieldDeleted{Field: "segment", Metadata: meta}},
		{"reset absent filter", c, FilterResetMulti{DimensionIri: "species"}},
		{"invalid option", c, ChartOptionChanged{Field: "x", Path: "componentIri", Value: json.RawMessage(`null`)}},
		{"chart type without dimensions", c, ChartTypeChanged{ChartType: chartconfig.ChartTypeBar, Metadata: &cube.Metadata{}}},
		{"map without geo shapes", c, ChartTypeChanged{ChartType: chartconfig.ChartTypeMap, Metadata: noShapes}},
		{"unknown chart type", c, ChartTypeChanged{ChartType: "radar", Metadata: meta}},
		{"publish failed while configuring", c, PublishFailed{}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Same(t, tc.state, Reduce(tc.state, tc.action))
		})
	}
}

func TestReduceDoesNotModifyInput(t *testing.T) {
	c := configuring(t)
	before, err := Encode(c)
	require.NoError(t, err)

	Reduce(c, ChartFieldChanged{Field: "segment", ComponentIri: "species", Metadata: testMetadata()})
	Reduce(c, FilterSetSingle{DimensionIri: "year", Value: "2021"})
	Reduce(c, ChartTypeChanged{ChartType: chartconfig.ChartTypeLine, Metadata: testMetadata()})

	after, err := Encode(c)
	require.NoError(t, err)
	assert.JSONEq(t, string(before), string(after))
}

type unknownAction struct{}

func (unknownAction) Type() ActionType { return "UNKNOWN" }

func TestUnknownActionPanics(t *testing.T) {
	assert.Panics(t, func() { Reduce(EmptyState(), unknownAction{}) })
}

func TestChartFieldChangedSegment(t *testing.T) {
	meta := testMetadata()
	s := Reduce(configuring(t), ChartFieldChanged{Field: "segment", ComponentIri: "species", Metadata: meta})
	seg := column(t, s).Fields.Segment
	require.NotNil(t, seg)
	assert.Equal(t, "species", seg.ComponentIri)
	assert.Equal(t, chartconfig.DefaultPalette, seg.Palette)
	assert.Equal(t, chartconfig.SegmentStacked, seg.Type)
	assert.Equal(t, chartconfig.DefaultSegmentSorting(), seg.Sorting)
	assert.Equal(t, map[string]string{"cat": "#1f77b4", "dog": "#ff7f0e"}, seg.ColorMapping)

	// Rebinding keeps the palette and recolors the new values.
	s = Reduce(s, ChartPaletteChanged{Field: "segment", Palette: "set1", ColorMapping: map[string]string{"cat": "#e41a1c"}})
	s = Reduce(s, ChartFieldChanged{Field: "segment", ComponentIri: "year", Metadata: meta})
	seg = column(t, s).Fields.Segment
	assert.Equal(t, "year", seg.ComponentIri)
	assert.Equal(t, "set1", seg.Palette)
	assert.Equal(t, map[string]string{"2020": "#e41a1c", "2021": "#377eb8"}, seg.ColorMapping)

	// year is bound now, so it lost its filter.
	assert.Empty(t, filterKeys(s))
}

func TestChartFieldChangedResetsOptions(t *testing.T) {
	meta := testMetadata()
	c := configuring(t)
	cfg := chartconfig.Clone(c.ChartConfig).(*chartconfig.ColumnConfig)
	cfg.InteractiveFiltersConfig.Time.Active = true
	cfg.InteractiveFiltersConfig.DataFilters.ComponentIris = []string{"species", "year"}
	s := State(withConfig(t, cfg))

	s = Reduce(s, ChartFieldChanged{Field: "x", ComponentIri: "year", Metadata: meta})
	got := column(t, s)
	assert.Equal(t, "year", got.Fields.X.ComponentIri)
	assert.Nil(t, got.Fields.X.Sorting)
	assert.True(t, got.InteractiveFiltersConfig.Time.Active)
	assert.Equal(t, []string{"species"}, got.InteractiveFiltersConfig.DataFilters.ComponentIris)
	// canton is unbound and key, year is bound.
	assert.Equal(t, []string{"canton"}, filterKeys(s))

	s = Reduce(s, ChartFieldChanged{Field: "x", ComponentIri: "species", Metadata: meta})
	got = column(t, s)
	assert.False(t, got.InteractiveFiltersConfig.Time.Active)
	assert.Empty(t, got.InteractiveFiltersConfig.DataFilters.ComponentIris)
	assert.Equal(t, []string{"canton", "year"}, filterKeys(s))
}

func TestChartFieldDeleted(t *testing.T) {
	meta := testMetadata()
	s := Reduce(configuring(t), ChartFieldChanged{Field: "segment", ComponentIri: "species", Metadata: meta})
	require.NotNil(t, column(t, s).Fields.Segment)

	s = Reduce(s, ChartFieldDeleted{Field: "segment", Metadata: meta})
	assert.Nil(t, column(t, s).Fields.Segment)
	assert.Equal(t, []string{"year"}, filterKeys(s))
}

func TestChartTypeChanged(t *testing.T) {
	meta := testMetadata()
	c := Reduce(configuring(t), ActiveFieldChanged{Field: "y"})

	s := Reduce(c, ChartTypeChanged{ChartType: chartconfig.ChartTypePie, Metadata: meta})
	d, _ := DocumentOf(s)
	pie, ok := d.ChartConfig.(*chartconfig.PieConfig)
	require.True(t, ok, "got %T", d.ChartConfig)
	assert.Equal(t, "M1", pie.Fields.Y.ComponentIri)
	assert.Empty(t, d.ActiveField)
	for _, iri := range pie.Filters.Keys() {
		assert.False(t, chartconfig.IsField(pie, iri), iri)
	}

	// Also allowed while describing.
	desc := describing(t)
	s = Reduce(desc, ChartTypeChanged{ChartType: chartconfig.ChartTypeTable, Metadata: meta})
	require.IsType(t, &DescribingChart{}, s)
	assert.IsType(t, &chartconfig.TableConfig{}, s.(*DescribingChart).ChartConfig)
}

func TestChartOptionChanged(t *testing.T) {
	meta := testMetadata()
	s := Reduce(configuring(t), ChartOptionChanged{
		Field: "x", Path: "sorting", Value: json.RawMessage(`{"sortingType":"byMeasure","sortingOrder":"desc"}`),
	})
	assert.Equal(t, &chartconfig.SortingOption{SortingType: chartconfig.SortByMeasure, SortingOrder: chartconfig.SortDesc}, column(t, s).Fields.X.Sorting)

	// Filters keep their order through patching.
	s = Reduce(s, FilterSetSingle{DimensionIri: "species", Value: "dog"})
	s = Reduce(s, ChartOptionChanged{Path: "interactiveFiltersConfig.legend.active", Value: json.RawMessage(`true`)})
	assert.True(t, column(t, s).InteractiveFiltersConfig.Legend.Active)
	assert.Equal(t, []string{"year", "species"}, filterKeys(s))

	mapCfg, err := adapt.InitialConfig(chartconfig.ChartTypeMap, meta)
	require.NoError(t, err)
	m := State(withConfig(t, mapCfg))
	testCases := []struct {
		scale    string
		expected chartconfig.ColorScaleInterpolationType
	}{
		{"discrete", chartconfig.InterpolationJenks},
		{"continuous", chartconfig.InterpolationLinear},
	}
	for _, tc := range testCases {
		t.Run(tc.scale, func(t *testing.T) {
			m = Reduce(m, ChartOptionChanged{Field: "areaLayer", Path: "colorScaleType", Value: json.RawMessage(`"` + tc.scale + `"`)})
			d, _ := DocumentOf(m)
			layer := d.ChartConfig.(*chartconfig.MapConfig).Fields.AreaLayer
			assert.Equal(t, chartconfig.ColorScaleType(tc.scale), layer.ColorScaleType)
			assert.Equal(t, tc.expected, layer.ColorScaleInterpolationType)
		})
	}
}

func TestTableOptionRederivesFilters(t *testing.T) {
	meta := testMetadata()
	s := Reduce(configuring(t), ChartTypeChanged{ChartType: chartconfig.ChartTypeTable, Metadata: meta})
	assert.Empty(t, filterKeys(s))

	s = Reduce(s, ChartOptionChanged{Field: "canton", Path: "isHidden", Value: json.RawMessage(`true`), Metadata: meta})
	assert.Equal(t, []string{"canton"}, filterKeys(s))

	s = Reduce(s, ChartOptionChanged{Field: "canton", Path: "isGroup", Value: json.RawMessage(`true`), Metadata: meta})
	assert.Empty(t, filterKeys(s))
}

func TestColorActions(t *testing.T) {
	meta := testMetadata()
	s := Reduce(configuring(t), ChartFieldChanged{Field: "segment", ComponentIri: "species", Metadata: meta})

	s = Reduce(s, ChartColorChanged{Field: "segment", Value: "dog", Color: "#000000"})
	assert.Equal(t, "#000000", column(t, s).Fields.Segment.ColorMapping["dog"])
	assert.Equal(t, "#1f77b4", column(t, s).Fields.Segment.ColorMapping["cat"])

	reset := map[string]string{"cat": "#111111", "dog": "#222222"}
	s = Reduce(s, ChartPaletteReset{Field: "segment", ColorMapping: reset})
	assert.Equal(t, reset, column(t, s).Fields.Segment.ColorMapping)
}

func TestFilterActions(t *testing.T) {
	all := []string{"cat", "dog"}
	testCases := []struct {
		name     string
		actions  []Action
		expected *chartconfig.FilterValue
	}{
		{"set single", []Action{FilterSetSingle{DimensionIri: "species", Value: "dog"}}, ptr(chartconfig.SingleFilter("dog"))},
		{"set single none", []Action{
			FilterSetSingle{DimensionIri: "species", Value: "dog"},
			FilterSetSingle{DimensionIri: "species", Value: FieldValueNone},
		}, nil},
		{"set multi", []Action{FilterSetMulti{DimensionIri: "species", Values: []string{"dog"}}}, ptr(chartconfig.MultiFilter("dog"))},
		{"add multi", []Action{
			FilterSetNoneMulti{DimensionIri: "species"},
			FilterAddMulti{DimensionIri: "species", Values: []string{"cat"}, AllValues: all},
		}, ptr(chartconfig.MultiFilter("cat"))},
		{"add multi selecting all removes the filter", []Action{
			FilterSetMulti{DimensionIri: "species", Values: []string{"cat"}},
			FilterAddMulti{DimensionIri: "species", Values: []string{"dog"}, AllValues: all},
		}, nil},
		{"add multi replaces a single filter", []Action{
			FilterSetSingle{DimensionIri: "species", Value: "dog"},
			FilterAddMulti{DimensionIri: "species", Values: []string{"cat"}, AllValues: all},
		}, ptr(chartconfig.MultiFilter("cat"))},
		{"remove multi from existing", []Action{
			FilterSetMulti{DimensionIri: "species", Values: []string{"cat", "dog"}},
			FilterRemoveMulti{DimensionIri: "species", Values: []string{"cat"}, AllValues: all},
		}, ptr(chartconfig.MultiFilter("dog"))},
		{"remove multi without filter selects the rest", []Action{
			FilterRemoveMulti{DimensionIri: "species", Values: []string{"dog"}, AllValues: all},
		}, ptr(chartconfig.MultiFilter("cat"))},
		{"reset multi", []Action{
			FilterSetMulti{DimensionIri: "species", Values: []string{"cat"}},
			FilterResetMulti{DimensionIri: "species"},
		}, nil},
		{"set none multi", []Action{FilterSetNoneMulti{DimensionIri: "species"}}, ptr(chartconfig.MultiFilter())},
		{"set range", []Action{FilterSetRange{DimensionIri: "species", From: "cat", To: "dog"}}, ptr(chartconfig.RangeFilter("cat", "dog"))},
		{"reset range", []Action{
			FilterSetRange{DimensionIri: "species", From: "cat", To: "dog"},
			FilterResetRange{DimensionIri: "species"},
		}, nil},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var s State = configuring(t)
			for _, a := range tc.actions {
				s = Reduce(s, a)
			}
			d, _ := DocumentOf(s)
			got, ok := d.ChartConfig.Base().Filters.Get("species")
			if tc.expected == nil {
				assert.False(t, ok, "unexpected filter %+v", got)
				return
			}
			require.True(t, ok)
			assert.True(t, tc.expected.Equal(got), "got %+v", got)
		})
	}
}

func TestFiltersUpdate(t *testing.T) {
	filters := chartconfig.NewFilters()
	filters.Set("species", chartconfig.SingleFilter("dog"))
	filters.Set("year", chartconfig.SingleFilter("2021"))

	s := Reduce(configuring(t), FiltersUpdate{Filters: filters})
	assert.Equal(t, []string{"species", "year"}, filterKeys(s))

	// The action keeps its own copy.
	filters.Delete("year")
	assert.Equal(t, []string{"species", "year"}, filterKeys(s))
}

func TestImputationTypeChanged(t *testing.T) {
	meta := testMetadata()
	s := Reduce(configuring(t), ChartTypeChanged{ChartType: chartconfig.ChartTypeArea, Metadata: meta})
	s = Reduce(s, ImputationTypeChanged{ImputationType: chartconfig.ImputationLinear})
	d, _ := DocumentOf(s)
	assert.Equal(t, chartconfig.ImputationLinear, d.ChartConfig.(*chartconfig.AreaConfig).Fields.Y.ImputationType)
}

func TestDescribingActions(t *testing.T) {
	d := describing(t)
	s := Reduce(d, ChartDescriptionChanged{Path: "title.fr", Value: "Titre"})
	assert.Equal(t, "Titre", s.(*DescribingChart).Meta.Title.Fr)
	assert.Same(t, s, Reduce(s, ChartDescriptionChanged{Path: "title.xx", Value: "?"}))

	ifc := *chartconfig.DefaultInteractiveFilters()
	ifc.Legend = chartconfig.InteractiveLegend{Active: true, ComponentIri: "canton"}
	s = Reduce(s, InteractiveFilterChanged{Config: ifc})
	assert.Equal(t, ifc.Legend, s.(*DescribingChart).ChartConfig.InteractiveConfig().Legend)
}

func TestCanTransitionToNextStep(t *testing.T) {
	meta := testMetadata()
	assert.False(t, CanTransitionToNextStep(EmptyState(), meta))
	assert.True(t, CanTransitionToNextStep(&SelectingDataset{DataSet: testCube}, meta))
	assert.False(t, CanTransitionToNextStep(&SelectingDataset{DataSet: testCube}, nil))
	assert.False(t, CanTransitionToNextStep(&SelectingDataset{DataSet: testCube}, &cube.Metadata{}))
	assert.True(t, CanTransitionToNextStep(configuring(t), meta))
	assert.True(t, CanTransitionToNextStep(describing(t), meta))
	assert.False(t, CanTransitionToNextStep(&Initial{}, meta))
}
