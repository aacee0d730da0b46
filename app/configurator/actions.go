package configurator

import (
	"encoding/json"

	"github.com/mahesh-hegde/visualize/app/chartconfig"
	"github.com/mahesh-hegde/visualize/app/cube"
)

type ActionType string

const (
	ActionInitialized              ActionType = "INITIALIZED"
	ActionStepNext                 ActionType = "STEP_NEXT"
	ActionStepPrevious             ActionType = "STEP_PREVIOUS"
	ActionDatasetSelected          ActionType = "DATASET_SELECTED"
	ActionChartTypeChanged         ActionType = "CHART_TYPE_CHANGED"
	ActionActiveFieldChanged       ActionType = "ACTIVE_FIELD_CHANGED"
	ActionChartFieldChanged        ActionType = "CHART_FIELD_CHANGED"
	ActionChartFieldDeleted        ActionType = "CHART_FIELD_DELETED"
	ActionChartOptionChanged       ActionType = "CHART_OPTION_CHANGED"
	ActionChartPaletteChanged      ActionType = "CHART_PALETTE_CHANGED"
	ActionChartPaletteReset        ActionType = "CHART_PALETTE_RESET"
	ActionChartColorChanged        ActionType = "CHART_COLOR_CHANGED"
	ActionChartDescriptionChanged  ActionType = "CHART_DESCRIPTION_CHANGED"
	ActionInteractiveFilterChanged ActionType = "INTERACTIVE_FILTER_CHANGED"
	ActionChartConfigReplaced      ActionType = "CHART_CONFIG_REPLACED"
	ActionFilterSetSingle          ActionType = "CHART_CONFIG_FILTER_SET_SINGLE"
	ActionFilterSetMulti           ActionType = "CHART_CONFIG_FILTER_SET_MULTI"
	ActionFilterAddMulti           ActionType = "CHART_CONFIG_FILTER_ADD_MULTI"
	ActionFilterRemoveMulti        ActionType = "CHART_CONFIG_FILTER_REMOVE_MULTI"
	ActionFilterSetRange           ActionType = "CHART_CONFIG_FILTER_SET_RANGE"
	ActionFilterResetRange         ActionType = "CHART_CONFIG_FILTER_RESET_RANGE"
	ActionFilterResetMulti         ActionType = "CHART_CONFIG_FILTER_RESET_MULTI"
	ActionFilterSetNoneMulti       ActionType = "CHART_CONFIG_FILTER_SET_NONE_MULTI"
	ActionFiltersUpdate            ActionType = "CHART_CONFIG_FILTERS_UPDATE"
	ActionImputationTypeChanged    ActionType = "IMPUTATION_TYPE_CHANGED"
	ActionPublishFailed            ActionType = "PUBLISH_FAILED"
	ActionPublished                ActionType = "PUBLISHED"
)

// FieldValueNone as the value of a single filter removes the filter.
const FieldValueNone = "FIELD_VALUE_NONE"

type Action interface {
	Type() ActionType
}

// MetadataAction is an action that needs the dataset metadata to be
// applied. Callers that only know the dataset IRI complete it with
// WithMetadata before dispatching.
type MetadataAction interface {
	Action
	WithMetadata(meta *cube.Metadata) Action
	metadata() *cube.Metadata
}

type Initialized struct {
	Value State
}

type StepNext struct {
	Metadata *cube.Metadata
}

// StepPrevious goes back one stage, or to To when it is set.
type StepPrevious struct {
	To Stage
}

type DatasetSelected struct {
	DataSet string
}

type ChartTypeChanged struct {
	ChartType chartconfig.ChartType
	Metadata  *cube.Metadata
}

type ActiveFieldChanged struct {
	Field string
}

type ChartFieldChanged struct {
	Field        string
	ComponentIri string
	Metadata     *cube.Metadata
}

type ChartFieldDeleted struct {
	Field    string
	Metadata *cube.Metadata
}

// ChartOptionChanged sets Value at Path inside Field, or inside the chart
// config when Field is empty. A null Value removes the option.
type ChartOptionChanged struct {
	Field    string
	Path     string
	Value    json.RawMessage
	Metadata *cube.Metadata
}

type ChartPaletteChanged struct {
	Field           string
	ColorConfigPath string
	Palette         string
	ColorMapping    map[string]string
}

type ChartPaletteReset struct {
	Field           string
	ColorConfigPath string
	ColorMapping    map[string]string
}

type ChartColorChanged struct {
	Field           string
	ColorConfigPath string
	Value           string
	Color           string
}

// ChartDescriptionChanged sets a meta text, Path is like "title.de".
type ChartDescriptionChanged struct {
	Path  string
	Value string
}

type InteractiveFilterChanged struct {
	Config chartconfig.InteractiveFiltersConfig
}

type ChartConfigReplaced struct {
	ChartConfig chartconfig.ChartConfig
	Metadata    *cube.Metadata
}

type FilterSetSingle struct {
	DimensionIri string
	Value        string
}

type FilterSetMulti struct {
	DimensionIri string
	Values       []string
}

// FilterAddMulti adds Values to a multi filter. AllValues are the values
// of the dimension; a filter that selects all of them is removed.
type FilterAddMulti struct {
	DimensionIri string
	Values       []string
	AllValues    []string
}

type FilterRemoveMulti struct {
	DimensionIri string
	Values       []string
	AllValues    []string
}

type FilterSetRange struct {
	DimensionIri string
	From, To     string
}

type FilterResetRange struct{ DimensionIri string }
type FilterResetMulti struct{ DimensionIri string }
type FilterSetNoneMulti struct{ DimensionIri string }

type FiltersUpdate struct {
	Filters chartconfig.Filters
}

type ImputationTypeChanged struct {
	ImputationType chartconfig.ImputationType
}

type PublishFailed struct{}

// Published marks a successful save under Key. It does not change the
// state.
type Published struct {
	Key string
}

func (Initialized) Type() ActionType              { return ActionInitialized }
func (StepNext) Type() ActionType                 { return ActionStepNext }
func (StepPrevious) Type() ActionType             { return ActionStepPrevious }
func (DatasetSelected) Type() ActionType          { return ActionDatasetSelected }
func (ChartTypeChanged) Type() ActionType         { return ActionChartTypeChanged }
func (ActiveFieldChanged) Type() ActionType       { return ActionActiveFieldChanged }
func (ChartFieldChanged) Type() ActionType        { return ActionChartFieldChanged }
func (ChartFieldDeleted) Type() ActionType        { return ActionChartFieldDeleted }
func (ChartOptionChanged) Type() ActionType       { return ActionChartOptionChanged }
func (ChartPaletteChanged) Type() ActionType      { return ActionChartPaletteChanged }
func (ChartPaletteReset) Type() ActionType        { return ActionChartPaletteReset }
func (ChartColorChanged) Type() ActionType        { return ActionChartColorChanged }
func (ChartDescriptionChanged) Type() ActionType  { return ActionChartDescriptionChanged }
func (InteractiveFilterChanged) Type() ActionType { return ActionInteractiveFilterChanged }
func (ChartConfigReplaced) Type() ActionType      { return ActionChartConfigReplaced }
func (FilterSetSingle) Type() ActionType          { return ActionFilterSetSingle }
func (FilterSetMulti) Type() ActionType           { return ActionFilterSetMulti }
func (FilterAddMulti) Type() ActionType           { return ActionFilterAddMulti }
func (FilterRemoveMulti) Type() ActionType        { return ActionFilterRemoveMulti }
func (FilterSetRange) Type() ActionType           { return ActionFilterSetRange }
func (FilterResetRange) Type() ActionType         { return ActionFilterResetRange }
func (FilterResetMulti) Type() ActionType         { return ActionFilterResetMulti }
func (FilterSetNoneMulti) Type() ActionType       { return ActionFilterSetNoneMulti }
func (FiltersUpdate) Type() ActionType            { return ActionFiltersUpdate }
func (ImputationTypeChanged) Type() ActionType    { return ActionImputationTypeChanged }
func (PublishFailed) Type() ActionType            { return ActionPublishFailed }
func (Published) Type() ActionType                { return ActionPublished }

var (
	_ MetadataAction = StepNext{}
	_ MetadataAction = ChartTypeChanged{}
	_ MetadataAction = ChartFieldChanged{}
	_ MetadataAction = ChartFieldDeleted{}
	_ MetadataAction = ChartOptionChanged{}
	_ MetadataAction = ChartConfigReplaced{}
)

func (a StepNext) WithMetadata(m *cube.Metadata) Action            { a.Metadata = m; return a }
func (a ChartTypeChanged) WithMetadata(m *cube.Metadata) Action    { a.Metadata = m; return a }
func (a ChartFieldChanged) WithMetadata(m *cube.Metadata) Action   { a.Metadata = m; return a }
func (a ChartFieldDeleted) WithMetadata(m *cube.Metadata) Action   { a.Metadata = m; return a }
func (a ChartOptionChanged) WithMetadata(m *cube.Metadata) Action  { a.Metadata = m; return a }
func (a ChartConfigReplaced) WithMetadata(m *cube.Metadata) Action { a.Metadata = m; return a }

func (a StepNext) metadata() *cube.Metadata            { return a.Metadata }
func (a ChartTypeChanged) metadata() *cube.Metadata    { return a.Metadata }
func (a ChartFieldChanged) metadata() *cube.Metadata   { return a.Metadata }
func (a ChartFieldDeleted) metadata() *cube.Metadata   { return a.Metadata }
func (a ChartOptionChanged) metadata() *cube.Metadata  { return a.Metadata }
func (a ChartConfigReplaced) metadata() *cube.Metadata { return a.Metadata }

// NeedsMetadata reports whether a must be completed with WithMetadata
// before it can take effect.
func NeedsMetadata(a Action) bool {
	m, ok := a.(MetadataAction)
	return ok && m.metadata() == nil
}
