package chartconfig

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
)

// SavedChart is the document exchanged with the chart store.
type SavedChart struct {
	DataSet     string      `json:"dataSet"`
	Meta        Meta        `json:"meta"`
	ChartConfig ChartConfig `json:"chartConfig"`
}

func (s *SavedChart) UnmarshalJSON(data []byte) error {
	if !gjson.ValidBytes(data) || !gjson.ParseBytes(data).IsObject() {
		return fmt.Errorf("%w: saved chart must be an object", ErrInvalidDocument)
	}
	var shell struct {
		DataSet     string          `json:"dataSet"`
		Meta        Meta            `json:"meta"`
		ChartConfig json.RawMessage `json:"chartConfig"`
	}
	if err := StrictUnmarshal(data, &shell); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}
	if shell.DataSet == "" {
		return fmt.Errorf("%w: saved chart has no dataSet", ErrInvalidDocument)
	}
	cfg, err := Decode(shell.ChartConfig)
	if err != nil {
		return err
	}
	*s = SavedChart{DataSet: shell.DataSet, Meta: shell.Meta, ChartConfig: cfg}
	return nil
}
