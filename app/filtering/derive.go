// Package filtering keeps the filters of a chart config consistent with its
// field bindings.
package filtering

import (
	"github.com/mahesh-hegde/visualize/app/chartconfig"
	"github.com/mahesh-hegde/visualize/app/cube"
)

// Derive rewrites the filters of cfg in place. A dimension bound to a field
// (or shown as a table column or grouping) loses its filter, an unbound key
// dimension gets a single filter on its first value. Applying Derive twice
// has the same result as applying it once.
func Derive(cfg chartconfig.ChartConfig, dimensions []cube.Component) {
	filters := &cfg.Base().Filters
	switch c := cfg.(type) {
	case *chartconfig.TableConfig:
		for i := range dimensions {
			// A dimension without a column counts as visible.
			col, _ := c.Column(dimensions[i].Iri)
			ApplyTableDimension(filters, &dimensions[i], col.IsHidden && !col.IsGroup)
		}
	case *chartconfig.ColumnConfig, *chartconfig.BarConfig, *chartconfig.LineConfig,
		*chartconfig.AreaConfig, *chartconfig.ScatterplotConfig, *chartconfig.PieConfig,
		*chartconfig.MapConfig:
		for i := range dimensions {
			ApplyNonTableDimension(filters, &dimensions[i], chartconfig.IsField(cfg, dimensions[i].Iri))
		}
	default:
		panic("filtering: unhandled chart config type")
	}
}

// ApplyNonTableDimension reconciles the filter of one dimension of a non
// table chart.
func ApplyNonTableDimension(filters *chartconfig.Filters, dim *cube.Component, isField bool) {
	f, ok := filters.Get(dim.Iri)
	if !ok {
		if !isField && dim.IsKeyDimension {
			if first, ok := dim.FirstValue(); ok {
				filters.Set(dim.Iri, chartconfig.SingleFilter(first))
			}
		}
		return
	}
	switch f.Type {
	case chartconfig.FilterSingle:
		if isField {
			filters.Delete(dim.Iri)
		}
	case chartconfig.FilterMulti:
		if !isField {
			collapseMulti(filters, dim, f)
		}
	case chartconfig.FilterRange:
		if !isField {
			filters.Set(dim.Iri, chartconfig.SingleFilter(f.From))
		}
	}
}

// ApplyTableDimension reconciles the filter of one table column.
// shouldBecomeSingle is true for hidden columns that are not grouped.
func ApplyTableDimension(filters *chartconfig.Filters, dim *cube.Component, shouldBecomeSingle bool) {
	f, ok := filters.Get(dim.Iri)
	if !ok {
		if shouldBecomeSingle && dim.IsKeyDimension {
			if first, ok := dim.FirstValue(); ok {
				filters.Set(dim.Iri, chartconfig.SingleFilter(first))
			}
		}
		return
	}
	switch f.Type {
	case chartconfig.FilterSingle:
		if !shouldBecomeSingle {
			filters.Delete(dim.Iri)
		}
	case chartconfig.FilterMulti:
		if shouldBecomeSingle && dim.IsKeyDimension {
			collapseMulti(filters, dim, f)
		}
	case chartconfig.FilterRange:
		if shouldBecomeSingle {
			filters.Set(dim.Iri, chartconfig.SingleFilter(f.From))
		}
	}
}

// collapseMulti turns a multi filter into a single filter on its first
// selected value. Without a selection the first declared value is used,
// even if the user deselected it.
func collapseMulti(filters *chartconfig.Filters, dim *cube.Component, f chartconfig.FilterValue) {
	if len(f.Values) > 0 {
		filters.Set(dim.Iri, chartconfig.SingleFilter(f.Values[0]))
		return
	}
	if first, ok := dim.FirstValue(); ok {
		filters.Set(dim.Iri, chartconfig.SingleFilter(first))
		return
	}
	filters.Delete(dim.Iri)
}
