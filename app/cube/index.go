package cube

import (
	"context"
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/custom"
	"github.com/blevesearch/bleve/v2/analysis/char/asciifolding"
	"github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	"github.com/blevesearch/bleve/v2/analysis/tokenizer/unicode"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"
	"github.com/mahesh-hegde/visualize/app/common"
)

// DatasetDoc is what gets indexed per dataset. Labels from all locales are
// joined so one query finds a dataset regardless of the UI language.
type DatasetDoc struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Components  string `json:"components"`
}

func (d DatasetDoc) Type() string {
	return "dataset"
}

var _ mapping.Classifier = DatasetDoc{}

func joinLocalized(l LocalizedString) string {
	var parts []string
	for _, loc := range common.Locales {
		if s := l[loc]; s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}

func newDatasetDoc(d *CatalogDataset) DatasetDoc {
	var comps []string
	for _, c := range d.Dimensions {
		comps = append(comps, joinLocalized(c.Label))
	}
	for _, c := range d.Measures {
		comps = append(comps, joinLocalized(c.Label))
	}
	return DatasetDoc{
		Title:       joinLocalized(d.Title),
		Description: joinLocalized(d.Description),
		Components:  strings.Join(comps, " "),
	}
}

func indexMapping() (mapping.IndexMapping, error) {
	im := mapping.NewIndexMapping()
	err := im.AddCustomAnalyzer("folded", map[string]any{
		"type":         custom.Name,
		"char_filters": []string{asciifolding.Name},
		"tokenizer":    unicode.Name,
		"token_filters": []string{
			lowercase.Name,
		},
	})
	if err != nil {
		return nil, err
	}

	dm := mapping.NewDocumentMapping()
	for _, field := range []string{"title", "description", "components"} {
		fm := mapping.NewTextFieldMapping()
		fm.Analyzer = "folded"
		fm.Store = false
		dm.AddFieldMappingsAt(field, fm)
	}
	im.AddDocumentMapping("dataset", dm)
	im.DefaultAnalyzer = "folded"
	return im, nil
}

// CatalogIndex is an in-memory full text index over the catalog.
type CatalogIndex struct {
	idx   bleve.Index
	order []string
}

func NewCatalogIndex(c *Catalog) (*CatalogIndex, error) {
	im, err := indexMapping()
	if err != nil {
		return nil, fmt.Errorf("error while defining index: %w", err)
	}
	idx, err := bleve.NewMemOnly(im)
	if err != nil {
		return nil, fmt.Errorf("error while creating index: %w", err)
	}
	batch := idx.NewBatch()
	order := make([]string, 0, len(c.Datasets))
	for i := range c.Datasets {
		d := &c.Datasets[i]
		if err := batch.Index(d.Iri, newDatasetDoc(d)); err != nil {
			return nil, fmt.Errorf("error while indexing %s: %w", d.Iri, err)
		}
		order = append(order, d.Iri)
	}
	if err := idx.Batch(batch); err != nil {
		return nil, fmt.Errorf("error while indexing catalog: %w", err)
	}
	return &CatalogIndex{idx: idx, order: order}, nil
}

// Search returns dataset IRIs matching q, best match first. An empty query
// lists the catalog in declaration order.
func (ci *CatalogIndex) Search(ctx context.Context, q string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 20
	}
	q = strings.TrimSpace(q)
	if q == "" {
		if len(ci.order) < limit {
			limit = len(ci.order)
		}
		return append([]string(nil), ci.order[:limit]...), nil
	}

	var disjuncts []query.Query
	for _, field := range []string{"title", "description", "components"} {
		mq := bleve.NewMatchQuery(q)
		mq.SetField(field)
		if field == "title" {
			mq.SetBoost(2)
		}
		pq := bleve.NewPrefixQuery(strings.ToLower(q))
		pq.SetField(field)
		disjuncts = append(disjuncts, mq, pq)
	}
	req := bleve.NewSearchRequest(bleve.NewDisjunctionQuery(disjuncts...))
	req.Size = limit
	res, err := ci.idx.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("error while searching catalog: %w", err)
	}
	out := make([]string, 0, len(res.Hits))
	for _, hit := range res.Hits {
		out = append(out, hit.ID)
	}
	return out, nil
}

func (ci *CatalogIndex) Close() error {
	return ci.idx.Close()
}
