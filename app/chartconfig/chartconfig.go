package chartconfig

import (
	"errors"
	"fmt"
	"sort"
)

// ErrInvalidDocument is wrapped by every decode failure.
var ErrInvalidDocument = errors.New("invalid document")

type ChartType string

const (
	ChartTypeColumn      ChartType = "column"
	ChartTypeBar         ChartType = "bar"
	ChartTypeLine        ChartType = "line"
	ChartTypeArea        ChartType = "area"
	ChartTypeScatterplot ChartType = "scatterplot"
	ChartTypePie         ChartType = "pie"
	ChartTypeMap         ChartType = "map"
	ChartTypeTable       ChartType = "table"
)

// ChartTypes lists every chart type in the order they are offered.
var ChartTypes = []ChartType{
	ChartTypeColumn,
	ChartTypeBar,
	ChartTypeLine,
	ChartTypeArea,
	ChartTypeScatterplot,
	ChartTypePie,
	ChartTypeMap,
	ChartTypeTable,
}

func (t ChartType) Valid() bool {
	for _, known := range ChartTypes {
		if t == known {
			return true
		}
	}
	return false
}

// ChartConfig is implemented by the per chart type configs in this package
// only. Consumers switch on the concrete type.
type ChartConfig interface {
	Base() *Header
	// InteractiveConfig is nil for tables.
	InteractiveConfig() *InteractiveFiltersConfig
	SetInteractiveConfig(*InteractiveFiltersConfig) bool
	// FieldNames lists the channels that can be bound to a component.
	FieldNames() []string
	FieldIri(name string) (string, bool)
	// SetFieldIri binds a non segment field, discarding its other options.
	SetFieldIri(name, iri string) bool
	Segment() *SegmentField
	SetSegment(*SegmentField) bool
	DeleteField(name string) bool

	validate() error
}

type Header struct {
	ChartType ChartType `json:"chartType"`
	Filters   Filters   `json:"filters"`
}

func (h *Header) Base() *Header { return h }

type Interactive struct {
	InteractiveFiltersConfig *InteractiveFiltersConfig `json:"interactiveFiltersConfig,omitempty"`
}

func (i *Interactive) InteractiveConfig() *InteractiveFiltersConfig {
	return i.InteractiveFiltersConfig
}

func (i *Interactive) SetInteractiveConfig(c *InteractiveFiltersConfig) bool {
	i.InteractiveFiltersConfig = c
	return true
}

// FieldIris returns the component IRIs bound to a field, in field order.
// Table columns are not fields.
func FieldIris(cfg ChartConfig) []string {
	var out []string
	for _, name := range cfg.FieldNames() {
		if iri, ok := cfg.FieldIri(name); ok && iri != "" {
			out = append(out, iri)
		}
	}
	return out
}

func IsField(cfg ChartConfig, iri string) bool {
	for _, bound := range FieldIris(cfg) {
		if bound == iri {
			return true
		}
	}
	return false
}

func HasField(cfg ChartConfig, name string) bool {
	for _, n := range cfg.FieldNames() {
		if n == name {
			return true
		}
	}
	return false
}

func requireIri(name, iri string) error {
	if iri == "" {
		return fmt.Errorf("field %s needs a componentIri", name)
	}
	return nil
}

func validateSegment(s *SegmentField, withType bool) error {
	if s == nil {
		return nil
	}
	if err := requireIri("segment", s.ComponentIri); err != nil {
		return err
	}
	if withType && s.Type != SegmentStacked && s.Type != SegmentGrouped {
		return fmt.Errorf("segment type %q is not stacked or grouped", s.Type)
	}
	if !withType && s.Type != "" {
		return fmt.Errorf("segment type is not supported for this chart type")
	}
	return validateSorting(s.Sorting)
}

func validateSorting(s *SortingOption) error {
	if s == nil {
		return nil
	}
	switch s.SortingType {
	case SortByDimensionLabel, SortByMeasure, SortByTotalSize:
	default:
		return fmt.Errorf("unknown sorting type %q", s.SortingType)
	}
	if s.SortingOrder != SortAsc && s.SortingOrder != SortDesc {
		return fmt.Errorf("unknown sorting order %q", s.SortingOrder)
	}
	return nil
}

// optionalSegment points at the segment of a chart where it may be absent.
type optionalSegment struct {
	seg **SegmentField
}

func (o optionalSegment) set(s *SegmentField) bool {
	*o.seg = s
	return true
}

func (o optionalSegment) delete() bool {
	if *o.seg == nil {
		return false
	}
	*o.seg = nil
	return true
}

func segmentIri(s *SegmentField) (string, bool) {
	if s == nil {
		return "", false
	}
	return s.ComponentIri, true
}

var xySegmentFields = []string{"x", "y", "segment"}

// ----- column -----

type ColumnFields struct {
	X       SortingField  `json:"x"`
	Y       GenericField  `json:"y"`
	Segment *SegmentField `json:"segment,omitempty"`
}

type ColumnConfig struct {
	Header
	Interactive
	Fields ColumnFields `json:"fields"`
}

func (c *ColumnConfig) FieldNames() []string { return xySegmentFields }

func (c *ColumnConfig) FieldIri(name string) (string, bool) {
	switch name {
	case "x":
		return c.Fields.X.ComponentIri, true
	case "y":
		return c.Fields.Y.ComponentIri, true
	case "segment":
		return segmentIri(c.Fields.Segment)
	}
	return "", false
}

func (c *ColumnConfig) SetFieldIri(name, iri string) bool {
	switch name {
	case "x":
		c.Fields.X = SortingField{ComponentIri: iri}
	case "y":
		c.Fields.Y = GenericField{ComponentIri: iri}
	default:
		return false
	}
	return true
}

func (c *ColumnConfig) Segment() *SegmentField { return c.Fields.Segment }

func (c *ColumnConfig) SetSegment(s *SegmentField) bool {
	return optionalSegment{&c.Fields.Segment}.set(s)
}

func (c *ColumnConfig) DeleteField(name string) bool {
	return name == "segment" && optionalSegment{&c.Fields.Segment}.delete()
}

func (c *ColumnConfig) validate() error {
	return errors.Join(
		requireIri("x", c.Fields.X.ComponentIri),
		validateSorting(c.Fields.X.Sorting),
		requireIri("y", c.Fields.Y.ComponentIri),
		validateSegment(c.Fields.Segment, true),
	)
}

// ----- bar -----

// BarFields has the measure on x and the dimension on y.
type BarFields struct {
	X       GenericField  `json:"x"`
	Y       SortingField  `json:"y"`
	Segment *SegmentField `json:"segment,omitempty"`
}

type BarConfig struct {
	Header
	Interactive
	Fields BarFields `json:"fields"`
}

func (c *BarConfig) FieldNames() []string { return xySegmentFields }

func (c *BarConfig) FieldIri(name string) (string, bool) {
	switch name {
	case "x":
		return c.Fields.X.ComponentIri, true
	case "y":
		return c.Fields.Y.ComponentIri, true
	case "segment":
		return segmentIri(c.Fields.Segment)
	}
	return "", false
}

func (c *BarConfig) SetFieldIri(name, iri string) bool {
	switch name {
	case "x":
		c.Fields.X = GenericField{ComponentIri: iri}
	case "y":
		c.Fields.Y = SortingField{ComponentIri: iri}
	default:
		return false
	}
	return true
}

func (c *BarConfig) Segment() *SegmentField { return c.Fields.Segment }

func (c *BarConfig) SetSegment(s *SegmentField) bool {
	return optionalSegment{&c.Fields.Segment}.set(s)
}

func (c *BarConfig) DeleteField(name string) bool {
	return name == "segment" && optionalSegment{&c.Fields.Segment}.delete()
}

func (c *BarConfig) validate() error {
	return errors.Join(
		requireIri("x", c.Fields.X.ComponentIri),
		requireIri("y", c.Fields.Y.ComponentIri),
		validateSorting(c.Fields.Y.Sorting),
		validateSegment(c.Fields.Segment, true),
	)
}

// ----- line -----

type LineFields struct {
	X       GenericField  `json:"x"`
	Y       GenericField  `json:"y"`
	Segment *SegmentField `json:"segment,omitempty"`
}

type LineConfig struct {
	Header
	Interactive
	Fields LineFields `json:"fields"`
}

func (c *LineConfig) FieldNames() []string { return xySegmentFields }

func (c *LineConfig) FieldIri(name string) (string, bool) {
	switch name {
	case "x":
		return c.Fields.X.ComponentIri, true
	case "y":
		return c.Fields.Y.ComponentIri, true
	case "segment":
		return segmentIri(c.Fields.Segment)
	}
	return "", false
}

func (c *LineConfig) SetFieldIri(name, iri string) bool {
	switch name {
	case "x":
		c.Fields.X = GenericField{ComponentIri: iri}
	case "y":
		c.Fields.Y = GenericField{ComponentIri: iri}
	default:
		return false
	}
	return true
}

func (c *LineConfig) Segment() *SegmentField { return c.Fields.Segment }

func (c *LineConfig) SetSegment(s *SegmentField) bool {
	return optionalSegment{&c.Fields.Segment}.set(s)
}

func (c *LineConfig) DeleteField(name string) bool {
	return name == "segment" && optionalSegment{&c.Fields.Segment}.delete()
}

func (c *LineConfig) validate() error {
	return errors.Join(
		requireIri("x", c.Fields.X.ComponentIri),
		requireIri("y", c.Fields.Y.ComponentIri),
		validateSegment(c.Fields.Segment, false),
	)
}

// ----- area -----

type AreaFields struct {
	X       GenericField  `json:"x"`
	Y       AreaYField    `json:"y"`
	Segment *SegmentField `json:"segment,omitempty"`
}

type AreaConfig struct {
	Header
	Interactive
	Fields AreaFields `json:"fields"`
}

func (c *AreaConfig) FieldNames() []string { return xySegmentFields }

func (c *AreaConfig) FieldIri(name string) (string, bool) {
	switch name {
	case "x":
		return c.Fields.X.ComponentIri, true
	case "y":
		return c.Fields.Y.ComponentIri, true
	case "segment":
		return segmentIri(c.Fields.Segment)
	}
	return "", false
}

func (c *AreaConfig) SetFieldIri(name, iri string) bool {
	switch name {
	case "x":
		c.Fields.X = GenericField{ComponentIri: iri}
	case "y":
		c.Fields.Y = AreaYField{ComponentIri: iri}
	default:
		return false
	}
	return true
}

func (c *AreaConfig) Segment() *SegmentField { return c.Fields.Segment }

func (c *AreaConfig) SetSegment(s *SegmentField) bool {
	return optionalSegment{&c.Fields.Segment}.set(s)
}

func (c *AreaConfig) DeleteField(name string) bool {
	return name == "segment" && optionalSegment{&c.Fields.Segment}.delete()
}

func (c *AreaConfig) validate() error {
	var imputation error
	if c.Fields.Y.ImputationType != "" && !c.Fields.Y.ImputationType.Valid() {
		imputation = fmt.Errorf("unknown imputation type %q", c.Fields.Y.ImputationType)
	}
	return errors.Join(
		requireIri("x", c.Fields.X.ComponentIri),
		requireIri("y", c.Fields.Y.ComponentIri),
		imputation,
		validateSegment(c.Fields.Segment, false),
	)
}

// ----- scatterplot -----

type ScatterplotFields struct {
	X       GenericField  `json:"x"`
	Y       GenericField  `json:"y"`
	Segment *SegmentField `json:"segment,omitempty"`
}

type ScatterplotConfig struct {
	Header
	Interactive
	Fields ScatterplotFields `json:"fields"`
}

func (c *ScatterplotConfig) FieldNames() []string { return xySegmentFields }

func (c *ScatterplotConfig) FieldIri(name string) (string, bool) {
	switch name {
	case "x":
		return c.Fields.X.ComponentIri, true
	case "y":
		return c.Fields.Y.ComponentIri, true
	case "segment":
		return segmentIri(c.Fields.Segment)
	}
	return "", false
}

func (c *ScatterplotConfig) SetFieldIri(name, iri string) bool {
	switch name {
	case "x":
		c.Fields.X = GenericField{ComponentIri: iri}
	case "y":
		c.Fields.Y = GenericField{ComponentIri: iri}
	default:
		return false
	}
	return true
}

func (c *ScatterplotConfig) Segment() *SegmentField { return c.Fields.Segment }

func (c *ScatterplotConfig) SetSegment(s *SegmentField) bool {
	return optionalSegment{&c.Fields.Segment}.set(s)
}

func (c *ScatterplotConfig) DeleteField(name string) bool {
	return name == "segment" && optionalSegment{&c.Fields.Segment}.delete()
}

func (c *ScatterplotConfig) validate() error {
	return errors.Join(
		requireIri("x", c.Fields.X.ComponentIri),
		requireIri("y", c.Fields.Y.ComponentIri),
		validateSegment(c.Fields.Segment, false),
	)
}

// ----- pie -----

// PieFields always has a segment.
type PieFields struct {
	Y       GenericField `json:"y"`
	Segment SegmentField `json:"segment"`
}

type PieConfig struct {
	Header
	Interactive
	Fields PieFields `json:"fields"`
}

var pieFields = []string{"y", "segment"}

func (c *PieConfig) FieldNames() []string { return pieFields }

func (c *PieConfig) FieldIri(name string) (string, bool) {
	switch name {
	case "y":
		return c.Fields.Y.ComponentIri, true
	case "segment":
		return c.Fields.Segment.ComponentIri, true
	}
	return "", false
}

func (c *PieConfig) SetFieldIri(name, iri string) bool {
	if name != "y" {
		return false
	}
	c.Fields.Y = GenericField{ComponentIri: iri}
	return true
}

func (c *PieConfig) Segment() *SegmentField { return &c.Fields.Segment }

func (c *PieConfig) SetSegment(s *SegmentField) bool {
	if s == nil {
		return false
	}
	c.Fields.Segment = *s
	return true
}

func (c *PieConfig) DeleteField(string) bool { return false }

func (c *PieConfig) validate() error {
	return errors.Join(
		requireIri("y", c.Fields.Y.ComponentIri),
		validateSegment(&c.Fields.Segment, false),
	)
}

// ----- map -----

type MapFields struct {
	BaseLayer   BaseLayer   `json:"baseLayer"`
	AreaLayer   AreaLayer   `json:"areaLayer"`
	SymbolLayer SymbolLayer `json:"symbolLayer"`
}

type MapConfig struct {
	Header
	Interactive
	Fields MapFields `json:"fields"`
}

var mapFields = []string{"areaLayer", "symbolLayer"}

func (c *MapConfig) FieldNames() []string { return mapFields }

func (c *MapConfig) FieldIri(name string) (string, bool) {
	switch name {
	case "areaLayer":
		return c.Fields.AreaLayer.ComponentIri, true
	case "symbolLayer":
		return c.Fields.SymbolLayer.ComponentIri, true
	}
	return "", false
}

// SetFieldIri resets the layer to its defaults, keeping the bound measure.
func (c *MapConfig) SetFieldIri(name, iri string) bool {
	switch name {
	case "areaLayer":
		c.Fields.AreaLayer = DefaultAreaLayer(iri, c.Fields.AreaLayer.MeasureIri)
	case "symbolLayer":
		layer := DefaultSymbolLayer(iri, c.Fields.SymbolLayer.MeasureIri)
		layer.Show = c.Fields.SymbolLayer.Show
		c.Fields.SymbolLayer = layer
	default:
		return false
	}
	return true
}

func (c *MapConfig) Segment() *SegmentField { return nil }
func (c *MapConfig) SetSegment(*SegmentField) bool { return false }
func (c *MapConfig) DeleteField(string) bool { return false }

func (c *MapConfig) validate() error {
	a := c.Fields.AreaLayer
	var errs []error
	errs = append(errs,
		requireIri("areaLayer", a.ComponentIri),
		requireIri("areaLayer.measureIri", a.MeasureIri),
		requireIri("symbolLayer", c.Fields.SymbolLayer.ComponentIri),
		requireIri("symbolLayer.measureIri", c.Fields.SymbolLayer.MeasureIri),
	)
	if _, ok := InterpolationFor(a.ColorScaleType); !ok {
		errs = append(errs, fmt.Errorf("unknown color scale type %q", a.ColorScaleType))
	}
	switch a.ColorScaleInterpolationType {
	case InterpolationLinear, InterpolationJenks, InterpolationQuantize, InterpolationQuantile:
	default:
		errs = append(errs, fmt.Errorf("unknown interpolation %q", a.ColorScaleInterpolationType))
	}
	return errors.Join(errs...)
}

// ----- table -----

// TableFields maps a component IRI to its column.
type TableFields map[string]TableColumn

type TableConfig struct {
	Header
	Settings TableSettings        `json:"settings"`
	Sorting  []TableSortingOption `json:"sorting"`
	Fields   TableFields          `json:"fields"`
}

func (c *TableConfig) InteractiveConfig() *InteractiveFiltersConfig { return nil }
func (c *TableConfig) SetInteractiveConfig(*InteractiveFiltersConfig) bool { return false }
func (c *TableConfig) FieldNames() []string { return nil }
func (c *TableConfig) FieldIri(string) (string, bool) { return "", false }
func (c *TableConfig) SetFieldIri(string, string) bool { return false }
func (c *TableConfig) Segment() *SegmentField { return nil }
func (c *TableConfig) SetSegment(*SegmentField) bool { return false }
func (c *TableConfig) DeleteField(string) bool { return false }

func (c *TableConfig) Column(iri string) (TableColumn, bool) {
	col, ok := c.Fields[iri]
	return col, ok
}

// Columns returns the columns ordered by their index.
func (c *TableConfig) Columns() []TableColumn {
	cols := make([]TableColumn, 0, len(c.Fields))
	for _, col := range c.Fields {
		cols = append(cols, col)
	}
	sort.SliceStable(cols, func(i, j int) bool {
		if cols[i].Index != cols[j].Index {
			return cols[i].Index < cols[j].Index
		}
		return cols[i].ComponentIri < cols[j].ComponentIri
	})
	return cols
}

// GroupedIris returns the grouping columns in column order.
func (c *TableConfig) GroupedIris() []string {
	var out []string
	for _, col := range c.Columns() {
		if col.IsGroup {
			out = append(out, col.ComponentIri)
		}
	}
	return out
}

func (c *TableConfig) validate() error {
	if c.Fields == nil {
		return fmt.Errorf("table needs fields")
	}
	var errs []error
	for iri, col := range c.Fields {
		if col.ComponentIri != iri {
			errs = append(errs, fmt.Errorf("column %s is keyed as %s", col.ComponentIri, iri))
		}
	}
	for _, s := range c.Sorting {
		if s.SortingOrder != SortAsc && s.SortingOrder != SortDesc {
			errs = append(errs, fmt.Errorf("unknown sorting order %q", s.SortingOrder))
		}
	}
	return errors.Join(errs...)
}

var (
	_ ChartConfig = &ColumnConfig{}
	_ ChartConfig = &BarConfig{}
	_ ChartConfig = &LineConfig{}
	_ ChartConfig = &AreaConfig{}
	_ ChartConfig = &ScatterplotConfig{}
	_ ChartConfig = &PieConfig{}
	_ ChartConfig = &MapConfig{}
	_ ChartConfig = &TableConfig{}
)
