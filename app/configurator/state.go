// Package configurator holds the state machine that takes a chart from
// dataset selection to publishing, and the reducer applying user actions to
// it.
package configurator

import (
	"encoding/json"

	"github.com/mahesh-hegde/visualize/app/chartconfig"
)

type Stage string

const (
	StageInitial          Stage = "INITIAL"
	StageSelectingDataset Stage = "SELECTING_DATASET"
	StageConfiguringChart Stage = "CONFIGURING_CHART"
	StageDescribingChart  Stage = "DESCRIBING_CHART"
	StagePublishing       Stage = "PUBLISHING"
)

// stages in pipeline order.
var stages = []Stage{StageInitial, StageSelectingDataset, StageConfiguringChart, StageDescribingChart, StagePublishing}

func (s Stage) index() int {
	for i, st := range stages {
		if st == s {
			return i
		}
	}
	return -1
}

func (s Stage) Valid() bool { return s.index() >= 0 }

// State is one of *Initial, *SelectingDataset, *ConfiguringChart,
// *DescribingChart or *Publishing. States are never mutated once built;
// Reduce returns a new value for every change.
type State interface {
	Stage() Stage
	isState()
}

var (
	_ State = &Initial{}
	_ State = &SelectingDataset{}
	_ State = &ConfiguringChart{}
	_ State = &DescribingChart{}
	_ State = &Publishing{}
)

type Initial struct{}

func (*Initial) Stage() Stage { return StageInitial }
func (*Initial) isState()     {}

func (s *Initial) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		State Stage `json:"state"`
	}{StageInitial})
}

type SelectingDataset struct {
	DataSet string           `json:"dataSet,omitempty"`
	Meta    chartconfig.Meta `json:"meta"`
}

func (*SelectingDataset) Stage() Stage { return StageSelectingDataset }
func (*SelectingDataset) isState()     {}

func (s *SelectingDataset) MarshalJSON() ([]byte, error) {
	type plain SelectingDataset
	return json.Marshal(struct {
		State Stage `json:"state"`
		*plain
	}{StageSelectingDataset, (*plain)(s)})
}

// Document is the content shared by the stages that have a chart config.
type Document struct {
	DataSet     string                  `json:"dataSet"`
	Meta        chartconfig.Meta        `json:"meta"`
	ChartConfig chartconfig.ChartConfig `json:"chartConfig"`
	ActiveField string                  `json:"activeField,omitempty"`
}

func (d *Document) Clone() Document {
	out := *d
	if d.ChartConfig != nil {
		out.ChartConfig = chartconfig.Clone(d.ChartConfig)
	}
	return out
}

// Saved returns the document in the shape the chart store keeps.
func (d *Document) Saved() chartconfig.SavedChart {
	return chartconfig.SavedChart{DataSet: d.DataSet, Meta: d.Meta, ChartConfig: d.ChartConfig}
}

func marshalDocument(stage Stage, d *Document) ([]byte, error) {
	type plain Document
	return json.Marshal(struct {
		State Stage `json:"state"`
		*plain
	}{stage, (*plain)(d)})
}

type ConfiguringChart struct{ Document }

func (*ConfiguringChart) Stage() Stage { return StageConfiguringChart }
func (*ConfiguringChart) isState()     {}
func (s *ConfiguringChart) MarshalJSON() ([]byte, error) {
	return marshalDocument(StageConfiguringChart, &s.Document)
}

type DescribingChart struct{ Document }

func (*DescribingChart) Stage() Stage { return StageDescribingChart }
func (*DescribingChart) isState()     {}
func (s *DescribingChart) MarshalJSON() ([]byte, error) {
	return marshalDocument(StageDescribingChart, &s.Document)
}

type Publishing struct{ Document }

func (*Publishing) Stage() Stage { return StagePublishing }
func (*Publishing) isState()     {}
func (s *Publishing) MarshalJSON() ([]byte, error) {
	return marshalDocument(StagePublishing, &s.Document)
}

// EmptyState is the state a fresh session starts in.
func EmptyState() *SelectingDataset {
	return &SelectingDataset{}
}

// DocumentOf returns the document of the stages that carry one.
func DocumentOf(s State) (*Document, bool) {
	switch st := s.(type) {
	case *ConfiguringChart:
		return &st.Document, true
	case *DescribingChart:
		return &st.Document, true
	case *Publishing:
		return &st.Document, true
	}
	return nil, false
}

// withDocument wraps d in the state of the given stage.
func withDocument(stage Stage, d Document) State {
	switch stage {
	case StageConfiguringChart:
		return &ConfiguringChart{d}
	case StageDescribingChart:
		return &DescribingChart{d}
	case StagePublishing:
		return &Publishing{d}
	}
	panic("stage " + string(stage) + " has no document")
}
