package configurator

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/mahesh-hegde/visualize/app/chartconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeStates(t *testing.T) {
	c := configuring(t)
	d := describing(t)
	p := Reduce(d, StepNext{})
	sel := &SelectingDataset{DataSet: testCube}
	sel.Meta.Title.En = "Bathing water"

	for _, s := range []State{&Initial{}, EmptyState(), sel, c, d, p} {
		t.Run(string(s.Stage()), func(t *testing.T) {
			raw, err := Encode(s)
			require.NoError(t, err)
			assert.Equal(t, string(s.Stage()), stringField(t, raw, "state"))

			back, err := Decode(raw)
			require.NoError(t, err, string(raw))
			assert.Equal(t, s.Stage(), back.Stage())

			again, err := Encode(back)
			require.NoError(t, err)
			assert.JSONEq(t, string(raw), string(again))
		})
	}
}

func stringField(t *testing.T, raw []byte, key string) string {
	t.Helper()
	var m map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &m))
	var s string
	require.NoError(t, json.Unmarshal(m[key], &s))
	return s
}

func TestDecodeKeepsFilterOrder(t *testing.T) {
	s := Reduce(configuring(t), FilterSetSingle{DimensionIri: "species", Value: "dog"})
	s = Reduce(s, FilterSetSingle{DimensionIri: "canton", Value: "BE"})
	raw, err := Encode(s)
	require.NoError(t, err)

	back, err := Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, []string{"year", "species", "canton"}, filterKeys(back))
}

func TestDecodeRejectsInvalidStates(t *testing.T) {
	raw, err := Encode(configuring(t))
	require.NoError(t, err)
	var doc map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &doc))

	without := func(key string) string {
		m := map[string]json.RawMessage{}
		for k, v := range doc {
			if k != key {
				m[k] = v
			}
		}
		out, _ := json.Marshal(m)
		return string(out)
	}
	with := func(key, value string) string {
		m := map[string]json.RawMessage{key: json.RawMessage(value)}
		for k, v := range doc {
			if k != key {
				m[k] = v
			}
		}
		out, _ := json.Marshal(m)
		return string(out)
	}

	testCases := []struct {
		name string
		raw  string
	}{
		{"not json", "abcde"},
		{"array", `[]`},
		{"no stage", `{"dataSet":"x"}`},
		{"unknown stage", `{"state":"EDITING"}`},
		{"numeric stage", `{"state":1}`},
		{"initial with content", `{"state":"INITIAL","dataSet":"x"}`},
		{"selecting without meta", `{"state":"SELECTING_DATASET"}`},
		{"selecting with chart config", with("state", `"SELECTING_DATASET"`)},
		{"configuring without chart config", without("chartConfig")},
		{"configuring without dataset", without("dataSet")},
		{"configuring with empty dataset", with("dataSet", `""`)},
		{"unknown key", with("extra", `true`)},
		{"malformed chart config", with("chartConfig", `{"chartType":"column","filters":{},"fields":{}}`)},
		{"unknown chart type", with("chartConfig", `{"chartType":"radar","filters":{},"fields":{}}`)},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s, err := Decode([]byte(tc.raw))
			assert.Nil(t, s)
			assert.True(t, errors.Is(err, chartconfig.ErrInvalidDocument), "err: %v", err)
		})
	}
}

func TestDecodeAction(t *testing.T) {
	testCases := []struct {
		raw      string
		expected Action
	}{
		{`{"type":"DATASET_SELECTED","dataSet":"https://example.org/cube"}`, DatasetSelected{DataSet: testCube}},
		{`{"type":"DATASET_SELECTED"}`, DatasetSelected{}},
		{`{"type":"STEP_NEXT"}`, StepNext{}},
		{`{"type":"STEP_PREVIOUS","to":"SELECTING_DATASET"}`, StepPrevious{To: StageSelectingDataset}},
		{`{"type":"CHART_TYPE_CHANGED","value":{"chartType":"pie"}}`, ChartTypeChanged{ChartType: chartconfig.ChartTypePie}},
		{`{"type":"ACTIVE_FIELD_CHANGED","value":"x"}`, ActiveFieldChanged{Field: "x"}},
		{`{"type":"ACTIVE_FIELD_CHANGED","value":null}`, ActiveFieldChanged{}},
		{`{"type":"CHART_FIELD_CHANGED","value":{"field":"x","componentIri":"year"}}`, ChartFieldChanged{Field: "x", ComponentIri: "year"}},
		{`{"type":"CHART_FIELD_DELETED","value":{"field":"segment"}}`, ChartFieldDeleted{Field: "segment"}},
		{`{"type":"CHART_OPTION_CHANGED","value":{"field":null,"path":"interactiveFiltersConfig.legend.active","value":true}}`,
			ChartOptionChanged{Path: "interactiveFiltersConfig.legend.active", Value: json.RawMessage(`true`)}},
		{`{"type":"CHART_PALETTE_CHANGED","value":{"field":"segment","palette":"set1","colorMapping":{"a":"#fff"}}}`,
			ChartPaletteChanged{Field: "segment", Palette: "set1", ColorMapping: map[string]string{"a": "#fff"}}},
		{`{"type":"CHART_COLOR_CHANGED","value":{"field":"segment","value":"a","color":"#000"}}`,
			ChartColorChanged{Field: "segment", Value: "a", Color: "#000"}},
		{`{"type":"CHART_DESCRIPTION_CHANGED","value":{"path":"title.de","value":"Titel"}}`, ChartDescriptionChanged{Path: "title.de", Value: "Titel"}},
		{`{"type":"CHART_DESCRIPTION_CHANGED","value":{"path":["description","fr"],"value":"Texte"}}`, ChartDescriptionChanged{Path: "description.fr", Value: "Texte"}},
		{`{"type":"CHART_CONFIG_FILTER_SET_SINGLE","value":{"dimensionIri":"year","value":"2021"}}`, FilterSetSingle{DimensionIri: "year", Value: "2021"}},
		{`{"type":"CHART_CONFIG_FILTER_ADD_MULTI","value":{"dimensionIri":"species","values":["cat"],"allValues":["cat","dog"]}}`,
			FilterAddMulti{DimensionIri: "species", Values: []string{"cat"}, AllValues: []string{"cat", "dog"}}},
		{`{"type":"CHART_CONFIG_FILTER_SET_RANGE","value":{"dimensionIri":"year","from":"2020","to":"2021"}}`,
			FilterSetRange{DimensionIri: "year", From: "2020", To: "2021"}},
		{`{"type":"CHART_CONFIG_FILTER_RESET_MULTI","value":{"dimensionIri":"species"}}`, FilterResetMulti{DimensionIri: "species"}},
		{`{"type":"IMPUTATION_TYPE_CHANGED","value":{"type":"zeros"}}`, ImputationTypeChanged{ImputationType: chartconfig.ImputationZeros}},
		{`{"type":"PUBLISH_FAILED"}`, PublishFailed{}},
		{`{"type":"PUBLISHED","value":"abc"}`, Published{Key: "abc"}},
	}
	for _, tc := range testCases {
		t.Run(string(tc.expected.Type()), func(t *testing.T) {
			got, err := DecodeAction([]byte(tc.raw))
			require.NoError(t, err)
			assert.Equal(t, tc.expected, got)
		})
	}
}

func TestDecodeActionStructured(t *testing.T) {
	got, err := DecodeAction([]byte(`{"type":"CHART_CONFIG_FILTERS_UPDATE","value":{"filters":{"b":{"type":"single","value":"1"},"a":{"type":"multi","values":{"x":true}}}}}`))
	require.NoError(t, err)
	update, ok := got.(FiltersUpdate)
	require.True(t, ok, "got %T", got)
	assert.Equal(t, []string{"b", "a"}, update.Filters.Keys())

	got, err = DecodeAction([]byte(`{"type":"INITIALIZED","value":{"state":"INITIAL"}}`))
	require.NoError(t, err)
	assert.Equal(t, EmptyState(), Reduce(configuring(t), got))

	raw, err := json.Marshal(configuring(t).ChartConfig)
	require.NoError(t, err)
	got, err = DecodeAction([]byte(`{"type":"CHART_CONFIG_REPLACED","value":{"chartConfig":` + string(raw) + `}}`))
	require.NoError(t, err)
	replaced, ok := got.(ChartConfigReplaced)
	require.True(t, ok, "got %T", got)
	assert.IsType(t, &chartconfig.ColumnConfig{}, replaced.ChartConfig)

	got, err = DecodeAction([]byte(`{"type":"INTERACTIVE_FILTER_CHANGED","value":{"legend":{"active":true,"componentIri":"x"},"time":{"active":false,"componentIri":"","presets":{"type":"range","from":"","to":""}},"dataFilters":{"active":false,"componentIris":[]}}}`))
	require.NoError(t, err)
	assert.True(t, got.(InteractiveFilterChanged).Config.Legend.Active)
}

func TestDecodeActionRejects(t *testing.T) {
	testCases := []struct {
		name string
		raw  string
	}{
		{"not json", `nope`},
		{"unknown type", `{"type":"CHART_EXPLODED"}`},
		{"missing type", `{"value":{}}`},
		{"unknown top level key", `{"type":"STEP_NEXT","dataSetMetadata":{}}`},
		{"bad step target", `{"type":"STEP_PREVIOUS","to":"PUBLISHING"}`},
		{"missing value", `{"type":"CHART_FIELD_CHANGED"}`},
		{"missing component", `{"type":"CHART_FIELD_CHANGED","value":{"field":"x"}}`},
		{"unknown value key", `{"type":"CHART_CONFIG_FILTER_SET_SINGLE","value":{"dimensionIri":"a","value":"b","extra":1}}`},
		{"missing dimension", `{"type":"CHART_CONFIG_FILTER_RESET_RANGE","value":{}}`},
		{"unknown chart type", `{"type":"CHART_TYPE_CHANGED","value":{"chartType":"radar"}}`},
		{"bad imputation", `{"type":"IMPUTATION_TYPE_CHANGED","value":{"type":"cubic"}}`},
		{"bad description path", `{"type":"CHART_DESCRIPTION_CHANGED","value":{"path":3,"value":"x"}}`},
		{"invalid initial state", `{"type":"INITIALIZED","value":{"state":"CONFIGURING_CHART"}}`},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DecodeAction([]byte(tc.raw))
			assert.True(t, errors.Is(err, ErrInvalidAction), "err: %v", err)
		})
	}
}

func TestSchema(t *testing.T) {
	s := Schema()
	require.Len(t, s.OneOf, len(stages))
	raw, err := json.Marshal(s)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"const":"CONFIGURING_CHART"`)
	assert.Contains(t, string(raw), `"const":"column"`)
}
