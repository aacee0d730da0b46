package filtering

import (
	"github.com/mahesh-hegde/visualize/app/chartconfig"
	"github.com/mahesh-hegde/visualize/app/cube"
)

// MoveFilterField shifts the filter of dimensionIri by delta positions,
// swapping it with its neighbour. A dimension without a filter is inserted
// before the last key with a single filter on possibleValues[0]. Moves past
// either end leave the order unchanged. It reports whether anything moved.
func MoveFilterField(filters *chartconfig.Filters, dimensionIri string, delta int, possibleValues []string) bool {
	keys := filters.Keys()
	idx := -1
	for i, k := range keys {
		if k == dimensionIri {
			idx = i
			break
		}
	}

	switch {
	case idx == 0 && delta < 0:
		return false
	case idx == len(keys)-1 && idx >= 0 && delta > 0:
		return false
	case idx == -1 && delta != -1:
		return false
	case delta != -1 && delta != 1:
		return false
	}

	if idx == -1 {
		if len(possibleValues) == 0 {
			return false
		}
		fv := chartconfig.SingleFilter(possibleValues[0])
		if len(keys) == 0 {
			filters.Set(dimensionIri, fv)
			return true
		}
		replaced := keys[len(keys)-1]
		keys[len(keys)-1] = dimensionIri
		keys = append(keys, replaced)
		rebuild(filters, keys, dimensionIri, fv)
		return true
	}

	target := idx + delta
	keys[idx], keys[target] = keys[target], keys[idx]
	rebuild(filters, keys, "", chartconfig.FilterValue{})
	return true
}

func rebuild(filters *chartconfig.Filters, keys []string, newKey string, newValue chartconfig.FilterValue) {
	out := chartconfig.NewFilters()
	for _, k := range keys {
		if k == newKey {
			out.Set(k, newValue)
			continue
		}
		v, _ := filters.Get(k)
		out.Set(k, v)
	}
	*filters = out
}

// EnsureValuesCorrect replaces single filter values the dimension does not
// have any more with its first declared value.
func EnsureValuesCorrect(filters *chartconfig.Filters, dimensions []cube.Component) {
	for i := range dimensions {
		dim := &dimensions[i]
		f, ok := filters.Get(dim.Iri)
		if !ok || f.Type != chartconfig.FilterSingle || len(dim.Values) == 0 {
			continue
		}
		if !dim.HasValue(f.Value) {
			first, _ := dim.FirstValue()
			filters.Set(dim.Iri, chartconfig.SingleFilter(first))
		}
	}
}

// ByMappingStatus splits the filters into those on dimensions bound to a
// field and the rest. Order follows the filters.
func ByMappingStatus(cfg chartconfig.ChartConfig) (mapped, unmapped chartconfig.Filters) {
	mapped, unmapped = chartconfig.NewFilters(), chartconfig.NewFilters()
	filters := &cfg.Base().Filters
	for _, k := range filters.Keys() {
		v, _ := filters.Get(k)
		if isMapped(cfg, k) {
			mapped.Set(k, v.Clone())
		} else {
			unmapped.Set(k, v.Clone())
		}
	}
	return mapped, unmapped
}

func isMapped(cfg chartconfig.ChartConfig, iri string) bool {
	if t, ok := cfg.(*chartconfig.TableConfig); ok {
		col, ok := t.Column(iri)
		return ok && (!col.IsHidden || col.IsGroup)
	}
	return chartconfig.IsField(cfg, iri)
}
