package configurator

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/mahesh-hegde/visualize/app/adapt"
	"github.com/mahesh-hegde/visualize/app/chartconfig"
	"github.com/mahesh-hegde/visualize/app/cube"
	"github.com/mahesh-hegde/visualize/app/filtering"
)

var (
	configuringOnly         = []Stage{StageConfiguringChart}
	describingOnly          = []Stage{StageDescribingChart}
	configuringOrDescribing = []Stage{StageConfiguringChart, StageDescribingChart}
)

// Reduce applies an action to a state and returns the resulting state. An
// action that does not apply to the current stage, or that cannot be
// carried out, returns s itself. s is never modified.
//
// Reduce panics on an Action type it does not know.
func Reduce(s State, action Action) State {
	switch a := action.(type) {
	case Initialized:
		if a.Value == nil || a.Value.Stage() == StageInitial {
			return EmptyState()
		}
		return a.Value

	case DatasetSelected:
		sel, ok := s.(*SelectingDataset)
		if !ok {
			return s
		}
		return &SelectingDataset{DataSet: a.DataSet, Meta: sel.Meta}

	case StepNext:
		return stepNext(s, a.Metadata)

	case StepPrevious:
		return stepPrevious(s, a.To)

	case PublishFailed:
		if p, ok := s.(*Publishing); ok {
			return back(&p.Document, StageDescribingChart)
		}
		return s

	case Published:
		return s

	case ChartTypeChanged:
		return update(s, configuringOrDescribing, func(d *Document) bool {
			if a.Metadata == nil || !adapt.IsPossible(a.ChartType, a.Metadata) {
				return false
			}
			cfg, err := adapt.ToChartType(d.ChartConfig, a.ChartType, a.Metadata)
			if err != nil {
				return false
			}
			filtering.Derive(cfg, a.Metadata.Dimensions)
			d.ChartConfig = cfg
			d.ActiveField = ""
			return true
		})

	case ActiveFieldChanged:
		return update(s, configuringOrDescribing, func(d *Document) bool {
			d.ActiveField = a.Field
			return true
		})

	case ChartFieldChanged:
		return update(s, configuringOnly, func(d *Document) bool {
			return changeField(d.ChartConfig, a)
		})

	case ChartFieldDeleted:
		return update(s, configuringOnly, func(d *Document) bool {
			if a.Metadata == nil || !d.ChartConfig.DeleteField(a.Field) {
				return false
			}
			filtering.Derive(d.ChartConfig, a.Metadata.Dimensions)
			return true
		})

	case ChartOptionChanged:
		return update(s, configuringOnly, func(d *Document) bool {
			cfg, ok := changeOption(d.ChartConfig, a)
			if !ok {
				return false
			}
			if _, isTable := cfg.(*chartconfig.TableConfig); isTable && a.Metadata != nil {
				filtering.Derive(cfg, a.Metadata.Dimensions)
			}
			d.ChartConfig = cfg
			return true
		})

	case ChartPaletteChanged:
		return update(s, configuringOnly, func(d *Document) bool {
			cfg, ok := patchColor(d.ChartConfig, a.Field, a.ColorConfigPath, []string{"palette"}, a.Palette)
			if !ok {
				return false
			}
			// Area layers have a palette but no color mapping.
			if a.ColorMapping != nil {
				if cfg, ok = patchColor(cfg, a.Field, a.ColorConfigPath, []string{"colorMapping"}, a.ColorMapping); !ok {
					return false
				}
			}
			d.ChartConfig = cfg
			return true
		})

	case ChartPaletteReset:
		return update(s, configuringOnly, func(d *Document) bool {
			cfg, ok := patchColor(d.ChartConfig, a.Field, a.ColorConfigPath, []string{"colorMapping"}, a.ColorMapping)
			d.ChartConfig = cfg
			return ok
		})

	case ChartColorChanged:
		return update(s, configuringOnly, func(d *Document) bool {
			if a.Value == "" {
				return false
			}
			cfg, ok := patchColor(d.ChartConfig, a.Field, a.ColorConfigPath, []string{"colorMapping", a.Value}, a.Color)
			d.ChartConfig = cfg
			return ok
		})

	case ChartDescriptionChanged:
		return update(s, describingOnly, func(d *Document) bool {
			return d.Meta.Set(a.Path, a.Value) == nil
		})

	case InteractiveFilterChanged:
		return update(s, describingOnly, func(d *Document) bool {
			return d.ChartConfig.SetInteractiveConfig(a.Config.Clone())
		})

	case ChartConfigReplaced:
		return update(s, configuringOnly, func(d *Document) bool {
			if a.Metadata == nil || a.ChartConfig == nil {
				return false
			}
			cfg := chartconfig.Clone(a.ChartConfig)
			filtering.Derive(cfg, a.Metadata.Dimensions)
			d.ChartConfig = cfg
			return true
		})

	case FilterSetSingle:
		return updateFilters(s, func(f *chartconfig.Filters) bool {
			if a.Value == FieldValueNone {
				return f.Delete(a.DimensionIri)
			}
			f.Set(a.DimensionIri, chartconfig.SingleFilter(a.Value))
			return true
		})

	case FilterSetMulti:
		return updateFilters(s, func(f *chartconfig.Filters) bool {
			f.Set(a.DimensionIri, chartconfig.MultiFilter(a.Values...))
			return true
		})

	case FilterAddMulti:
		return updateFilters(s, func(f *chartconfig.Filters) bool {
			fv, ok := f.Get(a.DimensionIri)
			if ok && fv.Type == chartconfig.FilterMulti {
				for _, v := range a.Values {
					fv.Add(v)
				}
			} else {
				fv = chartconfig.MultiFilter(a.Values...)
			}
			setMulti(f, a.DimensionIri, fv, a.AllValues)
			return true
		})

	case FilterRemoveMulti:
		return updateFilters(s, func(f *chartconfig.Filters) bool {
			fv, ok := f.Get(a.DimensionIri)
			if ok && fv.Type == chartconfig.FilterMulti && len(fv.Values) > 0 {
				for _, v := range a.Values {
					fv.Remove(v)
				}
			} else {
				fv = chartconfig.MultiFilter()
				for _, v := range a.AllValues {
					if !slices.Contains(a.Values, v) {
						fv.Add(v)
					}
				}
			}
			setMulti(f, a.DimensionIri, fv, a.AllValues)
			return true
		})

	case FilterResetMulti:
		return updateFilters(s, func(f *chartconfig.Filters) bool {
			return f.Delete(a.DimensionIri)
		})

	case FilterResetRange:
		return updateFilters(s, func(f *chartconfig.Filters) bool {
			return f.Delete(a.DimensionIri)
		})

	case FilterSetNoneMulti:
		return updateFilters(s, func(f *chartconfig.Filters) bool {
			f.Set(a.DimensionIri, chartconfig.MultiFilter())
			return true
		})

	case FilterSetRange:
		return updateFilters(s, func(f *chartconfig.Filters) bool {
			f.Set(a.DimensionIri, chartconfig.RangeFilter(a.From, a.To))
			return true
		})

	case FiltersUpdate:
		return updateFilters(s, func(f *chartconfig.Filters) bool {
			*f = a.Filters.Clone()
			return true
		})

	case ImputationTypeChanged:
		return update(s, configuringOnly, func(d *Document) bool {
			area, ok := d.ChartConfig.(*chartconfig.AreaConfig)
			if !ok || !a.ImputationType.Valid() {
				return false
			}
			area.Fields.Y.ImputationType = a.ImputationType
			return true
		})

	default:
		panic(fmt.Sprintf("configurator: unhandled action %T", action))
	}
}

// update runs fn on a copy of the document of s when s is in one of the
// allowed stages. fn reports whether it changed anything; if not, s is
// returned as is.
func update(s State, allowed []Stage, fn func(d *Document) bool) State {
	doc, ok := DocumentOf(s)
	if !ok || !slices.Contains(allowed, s.Stage()) {
		return s
	}
	d := doc.Clone()
	if !fn(&d) {
		return s
	}
	return withDocument(s.Stage(), d)
}

func updateFilters(s State, fn func(f *chartconfig.Filters) bool) State {
	return update(s, configuringOnly, func(d *Document) bool {
		return fn(&d.ChartConfig.Base().Filters)
	})
}

// setMulti stores a multi filter, or removes it when it selects every value
// of the dimension.
func setMulti(f *chartconfig.Filters, iri string, fv chartconfig.FilterValue, allValues []string) {
	if len(allValues) > 0 && selectsAll(fv, allValues) {
		f.Delete(iri)
		return
	}
	f.Set(iri, fv)
}

func selectsAll(fv chartconfig.FilterValue, allValues []string) bool {
	for _, v := range allValues {
		if !fv.Has(v) {
			return false
		}
	}
	return true
}

func changeField(cfg chartconfig.ChartConfig, a ChartFieldChanged) bool {
	meta := a.Metadata
	if meta == nil {
		return false
	}
	component, ok := meta.Component(a.ComponentIri)
	if !ok {
		return false
	}

	if a.Field == "segment" {
		dim, ok := meta.Dimension(a.ComponentIri)
		if !ok {
			return false
		}
		if seg := cfg.Segment(); seg != nil {
			palette := seg.Palette
			if palette == "" {
				palette = chartconfig.DefaultPalette
			}
			seg.ComponentIri = dim.Iri
			seg.ColorMapping = chartconfig.ColorMapping(palette, dim.ValueStrings())
		} else if !cfg.SetSegment(adapt.NewSegment(cfg.Base().ChartType, dim)) {
			return false
		}
	} else {
		if !cfg.SetFieldIri(a.Field, a.ComponentIri) {
			return false
		}
		// A column chart over a non temporal x has nothing to filter by time.
		if _, isColumn := cfg.(*chartconfig.ColumnConfig); isColumn && a.Field == "x" && component.Kind != cube.TemporalDimension {
			if ifc := cfg.InteractiveConfig(); ifc != nil {
				ifc.Time.Active = false
			}
		}
	}

	if ifc := cfg.InteractiveConfig(); ifc != nil {
		ifc.RemoveDataFilter(a.ComponentIri)
	}
	filtering.Derive(cfg, meta.Dimensions)
	return true
}

func changeOption(cfg chartconfig.ChartConfig, a ChartOptionChanged) (chartconfig.ChartConfig, bool) {
	segs, err := chartconfig.FieldPath(a.Field, a.Path)
	if err != nil {
		return nil, false
	}
	out, err := chartconfig.Patch(cfg, segs, a.Value)
	if err != nil {
		return nil, false
	}

	if m, ok := out.(*chartconfig.MapConfig); ok && a.Field == "areaLayer" && a.Path == "colorScaleType" {
		var scale chartconfig.ColorScaleType
		if json.Unmarshal(a.Value, &scale) == nil {
			if interpolation, ok := chartconfig.InterpolationFor(scale); ok {
				m.Fields.AreaLayer.ColorScaleInterpolationType = interpolation
			}
		}
	}
	return out, true
}

// patchColor sets value at fields[field].<colorConfigPath>.<leaf...>.
func patchColor(cfg chartconfig.ChartConfig, field, colorConfigPath string, leaf []string, value any) (chartconfig.ChartConfig, bool) {
	if field == "" {
		return cfg, false
	}
	segs := []string{"fields", field}
	if colorConfigPath != "" {
		p, err := chartconfig.ParsePath(colorConfigPath)
		if err != nil {
			return cfg, false
		}
		segs = append(segs, p...)
	}
	segs = append(segs, leaf...)

	raw, err := json.Marshal(value)
	if err != nil {
		return cfg, false
	}
	out, err := chartconfig.Patch(cfg, segs, raw)
	if err != nil {
		return cfg, false
	}
	return out, true
}

func stepNext(s State, meta *cube.Metadata) State {
	switch st := s.(type) {
	case *SelectingDataset:
		if st.DataSet == "" || meta == nil || (meta.Iri != "" && meta.Iri != st.DataSet) {
			return s
		}
		types := adapt.PossibleChartTypes(meta)
		if len(types) == 0 {
			return s
		}
		cfg, err := adapt.InitialConfig(types[0], meta)
		if err != nil {
			return s
		}
		filtering.Derive(cfg, meta.Dimensions)
		return &ConfiguringChart{Document{DataSet: st.DataSet, Meta: st.Meta, ChartConfig: cfg}}
	case *ConfiguringChart:
		d := st.Document.Clone()
		d.ActiveField = ""
		return &DescribingChart{d}
	case *DescribingChart:
		d := st.Document.Clone()
		d.ActiveField = ""
		return &Publishing{d}
	}
	return s
}

// stepPrevious goes back from CONFIGURING_CHART or DESCRIBING_CHART to the
// previous stage, or to the given earlier one.
func stepPrevious(s State, to Stage) State {
	d, ok := DocumentOf(s)
	if !ok || s.Stage() == StagePublishing {
		return s
	}
	current := s.Stage().index()
	if to == "" {
		to = stages[current-1]
	}
	if to.index() < StageSelectingDataset.index() || to.index() >= current {
		return s
	}
	return back(d, to)
}

func back(d *Document, to Stage) State {
	if to == StageSelectingDataset {
		return &SelectingDataset{DataSet: d.DataSet, Meta: d.Meta}
	}
	nd := d.Clone()
	nd.ActiveField = ""
	return withDocument(to, nd)
}

// CanTransitionToNextStep reports whether STEP_NEXT would currently move
// the state forward.
func CanTransitionToNextStep(s State, meta *cube.Metadata) bool {
	if meta == nil || len(meta.Dimensions) == 0 {
		return false
	}
	switch st := s.(type) {
	case *SelectingDataset:
		return st.DataSet != ""
	case *ConfiguringChart, *DescribingChart:
		return true
	}
	return false
}
