package chartconfig

type SortingType string

const (
	SortByDimensionLabel SortingType = "byDimensionLabel"
	SortByMeasure        SortingType = "byMeasure"
	SortByTotalSize      SortingType = "byTotalSize"
)

type SortingOrder string

const (
	SortAsc  SortingOrder = "asc"
	SortDesc SortingOrder = "desc"
)

type SortingOption struct {
	SortingType  SortingType  `json:"sortingType" jsonschema:"enum=byDimensionLabel,enum=byMeasure,enum=byTotalSize"`
	SortingOrder SortingOrder `json:"sortingOrder" jsonschema:"enum=asc,enum=desc"`
}

func DefaultSegmentSorting() *SortingOption {
	return &SortingOption{SortingType: SortByDimensionLabel, SortingOrder: SortAsc}
}

type GenericField struct {
	ComponentIri string `json:"componentIri"`
}

type SortingField struct {
	ComponentIri string         `json:"componentIri"`
	Sorting      *SortingOption `json:"sorting,omitempty"`
}

type ImputationType string

const (
	ImputationNone   ImputationType = "none"
	ImputationZeros  ImputationType = "zeros"
	ImputationLinear ImputationType = "linear"
)

func (t ImputationType) Valid() bool {
	return t == ImputationNone || t == ImputationZeros || t == ImputationLinear
}

type AreaYField struct {
	ComponentIri   string         `json:"componentIri"`
	ImputationType ImputationType `json:"imputationType,omitempty" jsonschema:"enum=none,enum=zeros,enum=linear"`
}

type SegmentType string

const (
	SegmentStacked SegmentType = "stacked"
	SegmentGrouped SegmentType = "grouped"
)

// SegmentField splits a chart by the values of a dimension. Type is only
// used by column and bar charts.
type SegmentField struct {
	ComponentIri string            `json:"componentIri"`
	Type         SegmentType       `json:"type,omitempty" jsonschema:"enum=stacked,enum=grouped"`
	Palette      string            `json:"palette"`
	ColorMapping map[string]string `json:"colorMapping,omitempty"`
	Sorting      *SortingOption    `json:"sorting,omitempty"`
}

func (s *SegmentField) Clone() *SegmentField {
	if s == nil {
		return nil
	}
	out := *s
	if s.ColorMapping != nil {
		out.ColorMapping = make(map[string]string, len(s.ColorMapping))
		for k, v := range s.ColorMapping {
			out.ColorMapping[k] = v
		}
	}
	if s.Sorting != nil {
		sorting := *s.Sorting
		out.Sorting = &sorting
	}
	return &out
}

type BaseLayer struct {
	Show bool `json:"show"`
}

type ColorScaleType string

const (
	ColorScaleContinuous ColorScaleType = "continuous"
	ColorScaleDiscrete   ColorScaleType = "discrete"
)

type ColorScaleInterpolationType string

const (
	InterpolationLinear   ColorScaleInterpolationType = "linear"
	InterpolationJenks    ColorScaleInterpolationType = "jenks"
	InterpolationQuantize ColorScaleInterpolationType = "quantize"
	InterpolationQuantile ColorScaleInterpolationType = "quantile"
)

// InterpolationFor returns the interpolation a color scale type forces.
func InterpolationFor(t ColorScaleType) (ColorScaleInterpolationType, bool) {
	switch t {
	case ColorScaleContinuous:
		return InterpolationLinear, true
	case ColorScaleDiscrete:
		return InterpolationJenks, true
	}
	return "", false
}

type AreaLayer struct {
	ComponentIri                string                      `json:"componentIri"`
	Show                        bool                        `json:"show"`
	HierarchyLevel              int                         `json:"hierarchyLevel"`
	MeasureIri                  string                      `json:"measureIri"`
	ColorScaleType              ColorScaleType              `json:"colorScaleType" jsonschema:"enum=continuous,enum=discrete"`
	ColorScaleInterpolationType ColorScaleInterpolationType `json:"colorScaleInterpolationType" jsonschema:"enum=linear,enum=jenks,enum=quantize,enum=quantile"`
	Palette                     string                      `json:"palette"`
	NbClass                     int                         `json:"nbClass"`
}

type SymbolLayer struct {
	ComponentIri string `json:"componentIri"`
	Show         bool   `json:"show"`
	MeasureIri   string `json:"measureIri"`
	Color        string `json:"color,omitempty"`
}

func DefaultAreaLayer(componentIri, measureIri string) AreaLayer {
	return AreaLayer{
		ComponentIri:                componentIri,
		Show:                        true,
		MeasureIri:                  measureIri,
		ColorScaleType:              ColorScaleContinuous,
		ColorScaleInterpolationType: InterpolationLinear,
		Palette:                     "oranges",
		NbClass:                     5,
	}
}

func DefaultSymbolLayer(componentIri, measureIri string) SymbolLayer {
	return SymbolLayer{
		ComponentIri: componentIri,
		Show:         false,
		MeasureIri:   measureIri,
		Color:        "#1f77b4",
	}
}

type InteractiveLegend struct {
	Active       bool   `json:"active"`
	ComponentIri string `json:"componentIri"`
}

type TimePresets struct {
	Type string `json:"type" jsonschema:"enum=range"`
	From string `json:"from"`
	To   string `json:"to"`
}

type InteractiveTime struct {
	Active       bool        `json:"active"`
	ComponentIri string      `json:"componentIri"`
	Presets      TimePresets `json:"presets"`
}

type InteractiveDataFilters struct {
	Active        bool     `json:"active"`
	ComponentIris []string `json:"componentIris"`
}

type InteractiveFiltersConfig struct {
	Legend      InteractiveLegend      `json:"legend"`
	Time        InteractiveTime        `json:"time"`
	DataFilters InteractiveDataFilters `json:"dataFilters"`
}

func DefaultInteractiveFilters() *InteractiveFiltersConfig {
	return &InteractiveFiltersConfig{
		Time:        InteractiveTime{Presets: TimePresets{Type: "range"}},
		DataFilters: InteractiveDataFilters{ComponentIris: []string{}},
	}
}

func (c *InteractiveFiltersConfig) Clone() *InteractiveFiltersConfig {
	if c == nil {
		return nil
	}
	out := *c
	out.DataFilters.ComponentIris = append([]string{}, c.DataFilters.ComponentIris...)
	return &out
}

// RemoveDataFilter drops iri from the interactive data filter list.
func (c *InteractiveFiltersConfig) RemoveDataFilter(iri string) bool {
	if c == nil {
		return false
	}
	out := make([]string, 0, len(c.DataFilters.ComponentIris))
	for _, ci := range c.DataFilters.ComponentIris {
		if ci != iri {
			out = append(out, ci)
		}
	}
	removed := len(out) != len(c.DataFilters.ComponentIris)
	c.DataFilters.ComponentIris = out
	return removed
}

type ColumnStyle struct {
	Type         string            `json:"type" jsonschema:"enum=text,enum=category,enum=heatmap,enum=bar"`
	TextStyle    string            `json:"textStyle,omitempty"`
	TextColor    string            `json:"textColor,omitempty"`
	ColumnColor  string            `json:"columnColor,omitempty"`
	Palette      string            `json:"palette,omitempty"`
	ColorMapping map[string]string `json:"colorMapping,omitempty"`
}

type TableColumn struct {
	ComponentIri  string      `json:"componentIri"`
	ComponentType string      `json:"componentType"`
	Index         int         `json:"index"`
	IsGroup       bool        `json:"isGroup"`
	IsHidden      bool        `json:"isHidden"`
	ColumnStyle   ColumnStyle `json:"columnStyle"`
}

type TableSettings struct {
	ShowSearch  bool `json:"showSearch"`
	ShowAllRows bool `json:"showAllRows"`
}

type TableSortingOption struct {
	ComponentIri  string       `json:"componentIri"`
	ComponentType string       `json:"componentType"`
	SortingOrder  SortingOrder `json:"sortingOrder" jsonschema:"enum=asc,enum=desc"`
}
