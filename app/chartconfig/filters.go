package chartconfig

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
	"github.com/tidwall/gjson"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

type FilterType string

const (
	FilterSingle FilterType = "single"
	FilterMulti  FilterType = "multi"
	FilterRange  FilterType = "range"
)

// FilterValue restricts the values of one dimension. Only the fields
// belonging to Type are meaningful. Values of a multi filter form an
// ordered set.
type FilterValue struct {
	Type   FilterType
	Value  string
	Values []string
	From   string
	To     string
}

func SingleFilter(value string) FilterValue {
	return FilterValue{Type: FilterSingle, Value: value}
}

func MultiFilter(values ...string) FilterValue {
	f := FilterValue{Type: FilterMulti, Values: []string{}}
	for _, v := range values {
		f.Add(v)
	}
	return f
}

func RangeFilter(from, to string) FilterValue {
	return FilterValue{Type: FilterRange, From: from, To: to}
}

func (f FilterValue) Has(value string) bool {
	for _, v := range f.Values {
		if v == value {
			return true
		}
	}
	return false
}

// Add appends value to a multi filter unless already present.
func (f *FilterValue) Add(value string) {
	if !f.Has(value) {
		f.Values = append(f.Values, value)
	}
}

func (f *FilterValue) Remove(value string) {
	out := make([]string, 0, len(f.Values))
	for _, v := range f.Values {
		if v != value {
			out = append(out, v)
		}
	}
	f.Values = out
}

func (f FilterValue) Clone() FilterValue {
	if f.Values != nil {
		f.Values = append([]string{}, f.Values...)
	}
	return f
}

func (f FilterValue) Equal(o FilterValue) bool {
	if f.Type != o.Type {
		return false
	}
	switch f.Type {
	case FilterSingle:
		return f.Value == o.Value
	case FilterRange:
		return f.From == o.From && f.To == o.To
	case FilterMulti:
		if len(f.Values) != len(o.Values) {
			return false
		}
		for i := range f.Values {
			if f.Values[i] != o.Values[i] {
				return false
			}
		}
		return true
	}
	return false
}

func (f FilterValue) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	writeString := func(s string) {
		b, _ := json.Marshal(s)
		buf.Write(b)
	}
	switch f.Type {
	case FilterSingle:
		buf.WriteString(`{"type":"single","value":`)
		writeString(f.Value)
	case FilterMulti:
		buf.WriteString(`{"type":"multi","values":{`)
		for i, v := range f.Values {
			if i > 0 {
				buf.WriteByte(',')
			}
			writeString(v)
			buf.WriteString(":true")
		}
		buf.WriteByte('}')
	case FilterRange:
		buf.WriteString(`{"type":"range","from":`)
		writeString(f.From)
		buf.WriteString(`,"to":`)
		writeString(f.To)
	default:
		return nil, fmt.Errorf("unknown filter type %q", f.Type)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

var filterKeys = map[FilterType][]string{
	FilterSingle: {"type", "value"},
	FilterMulti:  {"type", "values"},
	FilterRange:  {"type", "from", "to"},
}

func (f *FilterValue) UnmarshalJSON(data []byte) error {
	if !gjson.ValidBytes(data) {
		return fmt.Errorf("filter is not valid JSON")
	}
	r := gjson.ParseBytes(data)
	if !r.IsObject() {
		return fmt.Errorf("filter must be an object")
	}
	t := FilterType(r.Get("type").String())
	allowed, ok := filterKeys[t]
	if !ok || r.Get("type").Type != gjson.String {
		return fmt.Errorf("unknown filter type %s", r.Get("type").Raw)
	}
	var badKey string
	r.ForEach(func(key, _ gjson.Result) bool {
		for _, a := range allowed {
			if key.String() == a {
				return true
			}
		}
		badKey = key.String()
		return false
	})
	if badKey != "" {
		return fmt.Errorf("unexpected key %q in %s filter", badKey, t)
	}

	out := FilterValue{Type: t}
	switch t {
	case FilterSingle:
		v := r.Get("value")
		switch v.Type {
		case gjson.String:
			out.Value = v.String()
		case gjson.Number:
			out.Value = v.Raw
		default:
			return fmt.Errorf("single filter needs a string or number value")
		}
	case FilterMulti:
		vals := r.Get("values")
		if !vals.IsObject() {
			return fmt.Errorf("multi filter values must be an object")
		}
		out.Values = []string{}
		var err error
		vals.ForEach(func(key, value gjson.Result) bool {
			if value.Type != gjson.True {
				err = fmt.Errorf("multi filter value %q must be true", key.String())
				return false
			}
			out.Add(key.String())
			return true
		})
		if err != nil {
			return err
		}
	case FilterRange:
		from, to := r.Get("from"), r.Get("to")
		if from.Type != gjson.String || to.Type != gjson.String {
			return fmt.Errorf("range filter needs string from and to")
		}
		out.From, out.To = from.String(), to.String()
	}
	*f = out
	return nil
}

func (FilterValue) JSONSchema() *jsonschema.Schema {
	str := &jsonschema.Schema{Type: "string"}
	object := func(t FilterType, props map[string]*jsonschema.Schema, order ...string) *jsonschema.Schema {
		p := jsonschema.NewProperties()
		p.Set("type", &jsonschema.Schema{Const: string(t)})
		for _, name := range order {
			p.Set(name, props[name])
		}
		return &jsonschema.Schema{
			Type:                 "object",
			Properties:           p,
			Required:             append([]string{"type"}, order...),
			AdditionalProperties: jsonschema.FalseSchema,
		}
	}
	return &jsonschema.Schema{
		OneOf: []*jsonschema.Schema{
			object(FilterSingle, map[string]*jsonschema.Schema{
				"value": {OneOf: []*jsonschema.Schema{str, {Type: "number"}}},
			}, "value"),
			object(FilterMulti, map[string]*jsonschema.Schema{
				"values": {Type: "object", AdditionalProperties: &jsonschema.Schema{Const: true}},
			}, "values"),
			object(FilterRange, map[string]*jsonschema.Schema{"from": str, "to": str}, "from", "to"),
		},
	}
}

// Filters maps dimension IRIs to filter values. Iteration order is the
// insertion order and is kept through JSON round trips.
type Filters struct {
	om *orderedmap.OrderedMap[string, FilterValue]
}

func NewFilters() Filters {
	return Filters{om: orderedmap.New[string, FilterValue]()}
}

func (f *Filters) Get(iri string) (FilterValue, bool) {
	if f.om == nil {
		return FilterValue{}, false
	}
	return f.om.Get(iri)
}

// Set replaces the filter for iri. An existing key keeps its position, a
// new key goes last.
func (f *Filters) Set(iri string, v FilterValue) {
	if f.om == nil {
		f.om = orderedmap.New[string, FilterValue]()
	}
	f.om.Set(iri, v)
}

func (f *Filters) Delete(iri string) bool {
	if f.om == nil {
		return false
	}
	_, present := f.om.Delete(iri)
	return present
}

func (f *Filters) Len() int {
	if f.om == nil {
		return 0
	}
	return f.om.Len()
}

func (f *Filters) Keys() []string {
	keys := make([]string, 0, f.Len())
	if f.om == nil {
		return keys
	}
	for pair := f.om.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	return keys
}

func (f *Filters) Clone() Filters {
	out := NewFilters()
	if f.om == nil {
		return out
	}
	for pair := f.om.Oldest(); pair != nil; pair = pair.Next() {
		out.om.Set(pair.Key, pair.Value.Clone())
	}
	return out
}

// Equal compares keys, key order and values.
func (f *Filters) Equal(o *Filters) bool {
	ka, kb := f.Keys(), o.Keys()
	if len(ka) != len(kb) {
		return false
	}
	for i := range ka {
		if ka[i] != kb[i] {
			return false
		}
		va, _ := f.Get(ka[i])
		vb, _ := o.Get(kb[i])
		if !va.Equal(vb) {
			return false
		}
	}
	return true
}

func (f Filters) MarshalJSON() ([]byte, error) {
	if f.om == nil || f.om.Len() == 0 {
		return []byte("{}"), nil
	}
	return f.om.MarshalJSON()
}

func (f *Filters) UnmarshalJSON(data []byte) error {
	if !gjson.ValidBytes(data) || !gjson.ParseBytes(data).IsObject() {
		return fmt.Errorf("filters must be an object")
	}
	om := orderedmap.New[string, FilterValue]()
	if err := om.UnmarshalJSON(data); err != nil {
		return err
	}
	f.om = om
	return nil
}

func (Filters) JSONSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type:                 "object",
		AdditionalProperties: FilterValue{}.JSONSchema(),
	}
}
