package configurator

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mahesh-hegde/visualize/app/chartconfig"
	"github.com/tidwall/gjson"
)

var ErrInvalidAction = errors.New("invalid action")

// Encode serializes a state into the persisted document.
func Encode(s State) ([]byte, error) {
	return json.Marshal(s)
}

// Decode parses a persisted state document. Anything that is not exactly a
// known stage with a valid chart config is rejected with an error wrapping
// chartconfig.ErrInvalidDocument.
func Decode(raw []byte) (State, error) {
	if !gjson.ValidBytes(raw) {
		return nil, fmt.Errorf("%w: state is not valid JSON", chartconfig.ErrInvalidDocument)
	}
	doc := gjson.ParseBytes(raw)
	if !doc.IsObject() {
		return nil, fmt.Errorf("%w: state must be an object", chartconfig.ErrInvalidDocument)
	}
	tag := doc.Get("state")
	if tag.Type != gjson.String {
		return nil, fmt.Errorf("%w: state has no stage tag", chartconfig.ErrInvalidDocument)
	}

	switch stage := Stage(tag.String()); stage {
	case StageInitial:
		var shell struct {
			State Stage `json:"state"`
		}
		if err := chartconfig.StrictUnmarshal(raw, &shell); err != nil {
			return nil, fmt.Errorf("%w: %w", chartconfig.ErrInvalidDocument, err)
		}
		return &Initial{}, nil
	case StageSelectingDataset:
		if !doc.Get("meta").Exists() {
			return nil, fmt.Errorf("%w: %s state has no meta", chartconfig.ErrInvalidDocument, stage)
		}
		var shell struct {
			State   Stage            `json:"state"`
			DataSet string           `json:"dataSet"`
			Meta    chartconfig.Meta `json:"meta"`
		}
		if err := chartconfig.StrictUnmarshal(raw, &shell); err != nil {
			return nil, fmt.Errorf("%w: %w", chartconfig.ErrInvalidDocument, err)
		}
		return &SelectingDataset{DataSet: shell.DataSet, Meta: shell.Meta}, nil
	case StageConfiguringChart, StageDescribingChart, StagePublishing:
		d, err := decodeDocument(doc, raw)
		if err != nil {
			return nil, fmt.Errorf("%s state: %w", stage, err)
		}
		return withDocument(stage, d), nil
	default:
		return nil, fmt.Errorf("%w: unknown stage %q", chartconfig.ErrInvalidDocument, stage)
	}
}

func decodeDocument(doc gjson.Result, raw []byte) (Document, error) {
	for _, key := range []string{"dataSet", "meta", "chartConfig"} {
		if !doc.Get(key).Exists() {
			return Document{}, fmt.Errorf("%w: no %s", chartconfig.ErrInvalidDocument, key)
		}
	}
	var shell struct {
		State       Stage            `json:"state"`
		DataSet     string           `json:"dataSet"`
		Meta        chartconfig.Meta `json:"meta"`
		ChartConfig json.RawMessage  `json:"chartConfig"`
		ActiveField string           `json:"activeField"`
	}
	if err := chartconfig.StrictUnmarshal(raw, &shell); err != nil {
		return Document{}, fmt.Errorf("%w: %w", chartconfig.ErrInvalidDocument, err)
	}
	if shell.DataSet == "" {
		return Document{}, fmt.Errorf("%w: empty dataSet", chartconfig.ErrInvalidDocument)
	}
	cfg, err := chartconfig.Decode(shell.ChartConfig)
	if err != nil {
		return Document{}, err
	}
	return Document{
		DataSet:     shell.DataSet,
		Meta:        shell.Meta,
		ChartConfig: cfg,
		ActiveField: shell.ActiveField,
	}, nil
}

type actionDecoder func(value []byte) (Action, error)

var actionDecoders = map[ActionType]actionDecoder{
	ActionInitialized: func(v []byte) (Action, error) {
		s, err := Decode(v)
		if err != nil {
			return nil, err
		}
		return Initialized{Value: s}, nil
	},
	ActionStepNext:      noValue(StepNext{}),
	ActionPublishFailed: noValue(PublishFailed{}),
	ActionPublished: func(v []byte) (Action, error) {
		var key string
		if err := decodeValue(v, &key); err != nil {
			return nil, err
		}
		return Published{Key: key}, nil
	},
	ActionChartTypeChanged: func(v []byte) (Action, error) {
		var w struct {
			ChartType chartconfig.ChartType `json:"chartType"`
		}
		if err := decodeValue(v, &w); err != nil {
			return nil, err
		}
		if !w.ChartType.Valid() {
			return nil, fmt.Errorf("unknown chart type %q", w.ChartType)
		}
		return ChartTypeChanged{ChartType: w.ChartType}, nil
	},
	ActionActiveFieldChanged: func(v []byte) (Action, error) {
		var field *string
		if len(v) > 0 {
			if err := decodeValue(v, &field); err != nil {
				return nil, err
			}
		}
		if field == nil {
			return ActiveFieldChanged{}, nil
		}
		return ActiveFieldChanged{Field: *field}, nil
	},
	ActionChartFieldChanged: func(v []byte) (Action, error) {
		var w struct {
			Field        string `json:"field"`
			ComponentIri string `json:"componentIri"`
		}
		if err := decodeValue(v, &w); err != nil {
			return nil, err
		}
		if w.Field == "" || w.ComponentIri == "" {
			return nil, fmt.Errorf("field and componentIri are required")
		}
		return ChartFieldChanged{Field: w.Field, ComponentIri: w.ComponentIri}, nil
	},
	ActionChartFieldDeleted: func(v []byte) (Action, error) {
		var w struct {
			Field string `json:"field"`
		}
		if err := decodeValue(v, &w); err != nil {
			return nil, err
		}
		return ChartFieldDeleted{Field: w.Field}, nil
	},
	ActionChartOptionChanged: func(v []byte) (Action, error) {
		var w struct {
			Field *string         `json:"field"`
			Path  string          `json:"path"`
			Value json.RawMessage `json:"value"`
		}
		if err := decodeValue(v, &w); err != nil {
			return nil, err
		}
		if w.Path == "" {
			return nil, fmt.Errorf("path is required")
		}
		a := ChartOptionChanged{Path: w.Path, Value: w.Value}
		if w.Field != nil {
			a.Field = *w.Field
		}
		return a, nil
	},
	ActionChartPaletteChanged: func(v []byte) (Action, error) {
		var w struct {
			Field           string            `json:"field"`
			ColorConfigPath string            `json:"colorConfigPath"`
			Palette         string            `json:"palette"`
			ColorMapping    map[string]string `json:"colorMapping"`
		}
		if err := decodeValue(v, &w); err != nil {
			return nil, err
		}
		return ChartPaletteChanged(w), nil
	},
	ActionChartPaletteReset: func(v []byte) (Action, error) {
		var w struct {
			Field           string            `json:"field"`
			ColorConfigPath string            `json:"colorConfigPath"`
			ColorMapping    map[string]string `json:"colorMapping"`
		}
		if err := decodeValue(v, &w); err != nil {
			return nil, err
		}
		return ChartPaletteReset(w), nil
	},
	ActionChartColorChanged: func(v []byte) (Action, error) {
		var w struct {
			Field           string `json:"field"`
			ColorConfigPath string `json:"colorConfigPath"`
			Value           string `json:"value"`
			Color           string `json:"color"`
		}
		if err := decodeValue(v, &w); err != nil {
			return nil, err
		}
		return ChartColorChanged(w), nil
	},
	ActionChartDescriptionChanged: func(v []byte) (Action, error) {
		var w struct {
			Path  json.RawMessage `json:"path"`
			Value string          `json:"value"`
		}
		if err := decodeValue(v, &w); err != nil {
			return nil, err
		}
		// The path is either "title.de" or ["title", "de"].
		var path string
		if err := json.Unmarshal(w.Path, &path); err != nil {
			var segs []string
			if err := json.Unmarshal(w.Path, &segs); err != nil {
				return nil, fmt.Errorf("path must be a string or a list of strings")
			}
			path = strings.Join(segs, ".")
		}
		return ChartDescriptionChanged{Path: path, Value: w.Value}, nil
	},
	ActionInteractiveFilterChanged: func(v []byte) (Action, error) {
		var c chartconfig.InteractiveFiltersConfig
		if err := decodeValue(v, &c); err != nil {
			return nil, err
		}
		if c.DataFilters.ComponentIris == nil {
			c.DataFilters.ComponentIris = []string{}
		}
		return InteractiveFilterChanged{Config: c}, nil
	},
	ActionChartConfigReplaced: func(v []byte) (Action, error) {
		var w struct {
			ChartConfig json.RawMessage `json:"chartConfig"`
		}
		if err := decodeValue(v, &w); err != nil {
			return nil, err
		}
		cfg, err := chartconfig.Decode(w.ChartConfig)
		if err != nil {
			return nil, err
		}
		return ChartConfigReplaced{ChartConfig: cfg}, nil
	},
	ActionFilterSetSingle: func(v []byte) (Action, error) {
		var w struct {
			DimensionIri string `json:"dimensionIri"`
			Value        string `json:"value"`
		}
		if err := decodeDimensionValue(v, &w, &w.DimensionIri); err != nil {
			return nil, err
		}
		return FilterSetSingle(w), nil
	},
	ActionFilterSetMulti: func(v []byte) (Action, error) {
		var w struct {
			DimensionIri string   `json:"dimensionIri"`
			Values       []string `json:"values"`
		}
		if err := decodeDimensionValue(v, &w, &w.DimensionIri); err != nil {
			return nil, err
		}
		return FilterSetMulti(w), nil
	},
	ActionFilterAddMulti: func(v []byte) (Action, error) {
		var w multiWire
		if err := decodeDimensionValue(v, &w, &w.DimensionIri); err != nil {
			return nil, err
		}
		return FilterAddMulti(w), nil
	},
	ActionFilterRemoveMulti: func(v []byte) (Action, error) {
		var w multiWire
		if err := decodeDimensionValue(v, &w, &w.DimensionIri); err != nil {
			return nil, err
		}
		return FilterRemoveMulti(w), nil
	},
	ActionFilterSetRange: func(v []byte) (Action, error) {
		var w struct {
			DimensionIri string `json:"dimensionIri"`
			From         string `json:"from"`
			To           string `json:"to"`
		}
		if err := decodeDimensionValue(v, &w, &w.DimensionIri); err != nil {
			return nil, err
		}
		return FilterSetRange(w), nil
	},
	ActionFilterResetRange: func(v []byte) (Action, error) {
		iri, err := decodeDimensionIri(v)
		return FilterResetRange{DimensionIri: iri}, err
	},
	ActionFilterResetMulti: func(v []byte) (Action, error) {
		iri, err := decodeDimensionIri(v)
		return FilterResetMulti{DimensionIri: iri}, err
	},
	ActionFilterSetNoneMulti: func(v []byte) (Action, error) {
		iri, err := decodeDimensionIri(v)
		return FilterSetNoneMulti{DimensionIri: iri}, err
	},
	ActionFiltersUpdate: func(v []byte) (Action, error) {
		var w struct {
			Filters chartconfig.Filters `json:"filters"`
		}
		if err := decodeValue(v, &w); err != nil {
			return nil, err
		}
		return FiltersUpdate(w), nil
	},
	ActionImputationTypeChanged: func(v []byte) (Action, error) {
		var w struct {
			Type chartconfig.ImputationType `json:"type"`
		}
		if err := decodeValue(v, &w); err != nil {
			return nil, err
		}
		if !w.Type.Valid() {
			return nil, fmt.Errorf("unknown imputation type %q", w.Type)
		}
		return ImputationTypeChanged{ImputationType: w.Type}, nil
	},
}

type multiWire struct {
	DimensionIri string   `json:"dimensionIri"`
	Values       []string `json:"values"`
	AllValues    []string `json:"allValues"`
}

func noValue(a Action) actionDecoder {
	return func([]byte) (Action, error) { return a, nil }
}

func decodeValue(v []byte, out any) error {
	if len(v) == 0 {
		return fmt.Errorf("value is required")
	}
	return chartconfig.StrictUnmarshal(v, out)
}

func decodeDimensionValue(v []byte, out any, iri *string) error {
	if err := decodeValue(v, out); err != nil {
		return err
	}
	if *iri == "" {
		return fmt.Errorf("dimensionIri is required")
	}
	return nil
}

func decodeDimensionIri(v []byte) (string, error) {
	var w struct {
		DimensionIri string `json:"dimensionIri"`
	}
	if err := decodeDimensionValue(v, &w, &w.DimensionIri); err != nil {
		return "", err
	}
	return w.DimensionIri, nil
}

// DecodeAction parses an action of the form {"type": ..., "value": ...}.
// DATASET_SELECTED carries "dataSet" and STEP_PREVIOUS "to" next to the
// type instead of a value. Errors wrap ErrInvalidAction.
func DecodeAction(raw []byte) (Action, error) {
	if !gjson.ValidBytes(raw) || !gjson.ParseBytes(raw).IsObject() {
		return nil, fmt.Errorf("%w: action must be a JSON object", ErrInvalidAction)
	}
	doc := gjson.ParseBytes(raw)
	var unknown []string
	doc.ForEach(func(key, _ gjson.Result) bool {
		switch key.String() {
		case "type", "value", "dataSet", "to":
		default:
			unknown = append(unknown, key.String())
		}
		return true
	})
	if len(unknown) > 0 {
		return nil, fmt.Errorf("%w: unknown keys %v", ErrInvalidAction, unknown)
	}

	t := ActionType(doc.Get("type").String())
	switch t {
	case ActionDatasetSelected:
		return DatasetSelected{DataSet: doc.Get("dataSet").String()}, nil
	case ActionStepPrevious:
		to := Stage(doc.Get("to").String())
		switch to {
		case "", StageSelectingDataset, StageConfiguringChart, StageDescribingChart:
			return StepPrevious{To: to}, nil
		}
		return nil, fmt.Errorf("%w: cannot step back to %q", ErrInvalidAction, to)
	}

	dec, ok := actionDecoders[t]
	if !ok {
		return nil, fmt.Errorf("%w: unknown action type %q", ErrInvalidAction, t)
	}
	var value []byte
	if v := doc.Get("value"); v.Exists() {
		value = []byte(v.Raw)
	}
	a, err := dec(value)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidAction, t, err)
	}
	return a, nil
}
