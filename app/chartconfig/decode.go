package chartconfig

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/tidwall/gjson"
)

// New returns a zero config of type t with empty filters.
func New(t ChartType) (ChartConfig, error) {
	var cfg ChartConfig
	switch t {
	case ChartTypeColumn:
		cfg = &ColumnConfig{}
	case ChartTypeBar:
		cfg = &BarConfig{}
	case ChartTypeLine:
		cfg = &LineConfig{}
	case ChartTypeArea:
		cfg = &AreaConfig{}
	case ChartTypeScatterplot:
		cfg = &ScatterplotConfig{}
	case ChartTypePie:
		cfg = &PieConfig{}
	case ChartTypeMap:
		cfg = &MapConfig{}
	case ChartTypeTable:
		cfg = &TableConfig{Fields: TableFields{}, Sorting: []TableSortingOption{}}
	default:
		return nil, fmt.Errorf("%w: unknown chart type %q", ErrInvalidDocument, t)
	}
	cfg.Base().ChartType = t
	cfg.Base().Filters = NewFilters()
	return cfg, nil
}

var requiredKeys = []string{"chartType", "filters", "fields"}

// Decode parses and validates a persisted chart config. Unknown keys and
// missing required fields are rejected, never repaired.
func Decode(raw []byte) (ChartConfig, error) {
	cfg, err := decode(raw)
	if err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("%w: %s chart: %w", ErrInvalidDocument, cfg.Base().ChartType, err)
	}
	return cfg, nil
}

func decode(raw []byte) (ChartConfig, error) {
	if !gjson.ValidBytes(raw) {
		return nil, fmt.Errorf("%w: chart config is not valid JSON", ErrInvalidDocument)
	}
	doc := gjson.ParseBytes(raw)
	if !doc.IsObject() {
		return nil, fmt.Errorf("%w: chart config must be an object", ErrInvalidDocument)
	}
	for _, key := range requiredKeys {
		if !doc.Get(key).Exists() {
			return nil, fmt.Errorf("%w: chart config has no %s", ErrInvalidDocument, key)
		}
	}
	if doc.Get("chartType").Type != gjson.String {
		return nil, fmt.Errorf("%w: chartType must be a string", ErrInvalidDocument)
	}
	cfg, err := New(ChartType(doc.Get("chartType").String()))
	if err != nil {
		return nil, err
	}
	if err := StrictUnmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}
	return cfg, nil
}

// StrictUnmarshal decodes a single JSON document into v, rejecting unknown
// fields and trailing data.
func StrictUnmarshal(raw []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if _, err := dec.Token(); err != io.EOF {
		return fmt.Errorf("trailing data after document")
	}
	return nil
}

// Clone deep copies cfg.
func Clone(cfg ChartConfig) ChartConfig {
	raw, err := json.Marshal(cfg)
	if err != nil {
		panic(fmt.Sprintf("chart config is not serializable: %v", err))
	}
	out, err := decode(raw)
	if err != nil {
		panic(fmt.Sprintf("chart config does not survive a round trip: %v", err))
	}
	return out
}

// Equal compares two configs by their serialized form. Filter order counts.
func Equal(a, b ChartConfig) bool {
	if a == nil || b == nil {
		return a == b
	}
	ra, errA := json.Marshal(a)
	rb, errB := json.Marshal(b)
	return errA == nil && errB == nil && bytes.Equal(ra, rb)
}
