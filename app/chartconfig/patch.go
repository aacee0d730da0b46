package chartconfig

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// ParsePath splits a property path such as `fields["https://x/y.z"].sorting`
// into its segments. Dots inside brackets are part of the key.
func ParsePath(path string) ([]string, error) {
	var segs []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			segs = append(segs, cur.String())
			cur.Reset()
		}
	}
	for i := 0; i < len(path); i++ {
		ch := path[i]
		switch ch {
		case '.':
			flush()
		case '[':
			flush()
			end := strings.IndexByte(path[i:], ']')
			if end < 0 {
				return nil, fmt.Errorf("unterminated bracket in %q", path)
			}
			key := path[i+1 : i+end]
			if len(key) >= 2 && (key[0] == '"' || key[0] == '\'') && key[len(key)-1] == key[0] {
				key = key[1 : len(key)-1]
			}
			if key == "" {
				return nil, fmt.Errorf("empty key in %q", path)
			}
			segs = append(segs, key)
			i += end
		default:
			cur.WriteByte(ch)
		}
	}
	flush()
	if len(segs) == 0 {
		return nil, fmt.Errorf("empty path")
	}
	return segs, nil
}

// FieldPath builds the segments addressing path inside the named field. An
// empty field addresses the chart config root.
func FieldPath(field string, path string) ([]string, error) {
	segs, err := ParsePath(path)
	if err != nil {
		return nil, err
	}
	if field == "" {
		return segs, nil
	}
	return append([]string{"fields", field}, segs...), nil
}

// Patch returns a copy of cfg with value stored at segs. A null or empty
// value removes the key. Filters and the chart type cannot be patched, and a
// patch that leaves the config invalid is rejected. Missing intermediate
// objects are created.
func Patch(cfg ChartConfig, segs []string, value json.RawMessage) (ChartConfig, error) {
	if len(segs) == 0 {
		return nil, fmt.Errorf("empty path")
	}
	if segs[0] == "filters" || segs[0] == "chartType" {
		return nil, fmt.Errorf("%s cannot be patched", segs[0])
	}

	raw, err := json.Marshal(cfg)
	if err != nil {
		return nil, err
	}
	lookup, target := patchPaths(raw, segs)

	value = bytes.TrimSpace(value)
	if len(value) == 0 || bytes.Equal(value, []byte("null")) {
		if !gjson.GetBytes(raw, lookup).Exists() {
			return Clone(cfg), nil
		}
		raw, err = sjson.DeleteBytes(raw, target)
	} else {
		if !json.Valid(value) {
			return nil, fmt.Errorf("invalid value %q", value)
		}
		raw, err = sjson.SetRawBytes(raw, target, value)
	}
	if err != nil {
		return nil, fmt.Errorf("cannot patch %s: %w", strings.Join(segs, "."), err)
	}
	return Decode(raw)
}

// patchPaths joins segs into a gjson lookup path and an sjson target path.
// Numeric segments address object keys unless the existing parent is an
// array.
func patchPaths(raw []byte, segs []string) (lookup, target string) {
	var l, t strings.Builder
	for i, seg := range segs {
		parent := gjson.GetBytes(raw, l.String())
		if i > 0 {
			l.WriteByte('.')
			t.WriteByte('.')
		} else {
			parent = gjson.ParseBytes(raw)
		}
		esc := escapePathKey(seg)
		l.WriteString(esc)
		if isIndex(seg) && !parent.IsArray() {
			t.WriteByte(':')
		}
		t.WriteString(esc)
	}
	return l.String(), t.String()
}

func escapePathKey(key string) string {
	var b strings.Builder
	for i := 0; i < len(key); i++ {
		switch key[i] {
		case '\\', '.', '*', '?', '|', '#', '@', ':', '!':
			b.WriteByte('\\')
		}
		b.WriteByte(key[i])
	}
	return b.String()
}

func isIndex(seg string) bool {
	if seg == "" {
		return false
	}
	for i := 0; i < len(seg); i++ {
		if seg[i] < '0' || seg[i] > '9' {
			return false
		}
	}
	return true
}
