package extract

import (
	"bytes"
	"encoding/json"

	"github.com/tidwall/gjson"

	"github.com/sells-group/extract-chat/internal/model"
)

// Kind classifies a normalized result.
type Kind string

const (
	KindTable  Kind = "table"
	KindNoData Kind = "no_data"
	KindRaw    Kind = "raw"
)

// NoDataMessage is the marker shown when nothing displayable came back.
const NoDataMessage = "No data extracted"

// ValueColumn names the single column used for lists of scalars.
const ValueColumn = "Value"

// Result is a normalized extraction payload. Table is set for KindTable;
// Text is set for KindNoData and KindRaw.
type Result struct {
	Kind  Kind         `json:"kind"`
	Table *model.Table `json:"table,omitempty"`
	Text  string       `json:"text,omitempty"`
}

// Message converts the result into an assistant chat message.
func (r Result) Message() model.ChatMessage {
	if r.Kind == KindTable {
		return model.AssistantTable(r.Table)
	}
	return model.AssistantText(r.Text)
}

// Normalize reshapes an arbitrary JSON payload into a table. Precedence:
//
//  1. "data" is a list of records: one row per record.
//  2. "data" is a mapping without list members: one row.
//  3. "data" is a mapping with a non-empty list member: rows from that list.
//  4. "data" is a mapping whose lists are all empty: one row.
//  5. no "data" key: the payload itself is the list or the single record.
//  6. empty, falsy or unrecognized: the no-data marker.
//
// When several members of "data" are non-empty lists the first one in
// document order wins. That tie-break mirrors what the extraction service
// was observed to need and is not a documented contract.
//
// Invalid JSON and scalar "data" degrade to KindRaw. Normalize never fails.
func Normalize(payload []byte) Result {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 {
		return noData()
	}
	if !gjson.ValidBytes(trimmed) {
		return rawText(string(trimmed))
	}

	root := gjson.ParseBytes(trimmed)
	if falsy(root) {
		return noData()
	}

	switch {
	case root.IsObject():
		if data := root.Get("data"); data.Exists() {
			return normalizeData(data)
		}
		return fromRecords([]gjson.Result{root})
	case root.IsArray():
		return fromList(root)
	default:
		return noData()
	}
}

func normalizeData(data gjson.Result) Result {
	if falsy(data) {
		return noData()
	}
	switch {
	case data.IsArray():
		return fromList(data)
	case data.IsObject():
		if list, ok := firstNonEmptyList(data); ok {
			return fromList(list)
		}
		return fromRecords([]gjson.Result{data})
	default:
		return rawText(data.String())
	}
}

// firstNonEmptyList returns the first list-valued member of obj, in document
// order, that has at least one element.
func firstNonEmptyList(obj gjson.Result) (gjson.Result, bool) {
	var found gjson.Result
	ok := false
	obj.ForEach(func(_, value gjson.Result) bool {
		if value.IsArray() && len(value.Array()) > 0 {
			found, ok = value, true
			return false
		}
		return true
	})
	return found, ok
}

func fromList(list gjson.Result) Result {
	items := list.Array()
	if len(items) == 0 {
		return noData()
	}

	allRecords := true
	for _, item := range items {
		if !item.IsObject() {
			allRecords = false
			break
		}
	}
	if allRecords {
		return fromRecords(items)
	}

	t := &model.Table{Columns: []string{ValueColumn}, Rows: make([][]string, 0, len(items))}
	for _, item := range items {
		t.Rows = append(t.Rows, []string{cell(item)})
	}
	return Result{Kind: KindTable, Table: t}
}

// fromRecords builds a table whose columns appear in first-seen order across
// the records. Missing cells are empty strings.
func fromRecords(records []gjson.Result) Result {
	var columns []string
	index := make(map[string]int)
	values := make([]map[string]string, 0, len(records))

	for _, rec := range records {
		row := make(map[string]string)
		rec.ForEach(func(key, value gjson.Result) bool {
			k := key.String()
			if _, seen := index[k]; !seen {
				index[k] = len(columns)
				columns = append(columns, k)
			}
			row[k] = cell(value)
			return true
		})
		values = append(values, row)
	}
	if len(columns) == 0 {
		return noData()
	}

	t := &model.Table{Columns: columns, Rows: make([][]string, len(values))}
	for i, row := range values {
		cells := make([]string, len(columns))
		for j, col := range columns {
			cells[j] = row[col]
		}
		t.Rows[i] = cells
	}
	return Result{Kind: KindTable, Table: t}
}

// cell renders a JSON value as display text. Nested values stay compact JSON.
func cell(v gjson.Result) string {
	switch v.Type {
	case gjson.Null:
		return ""
	case gjson.String:
		return v.Str
	case gjson.Number, gjson.True, gjson.False:
		return v.Raw
	default:
		var buf bytes.Buffer
		if err := json.Compact(&buf, []byte(v.Raw)); err != nil {
			return v.Raw
		}
		return buf.String()
	}
}

// falsy follows the usual truthiness of decoded JSON: null, false, 0, "",
// [] and {} carry nothing to show.
func falsy(v gjson.Result) bool {
	switch v.Type {
	case gjson.Null, gjson.False:
		return true
	case gjson.Number:
		return v.Num == 0
	case gjson.String:
		return v.Str == ""
	case gjson.JSON:
		if v.IsArray() {
			return len(v.Array()) == 0
		}
		empty := true
		v.ForEach(func(_, _ gjson.Result) bool {
			empty = false
			return false
		})
		return empty
	}
	return false
}

func noData() Result {
	return Result{Kind: KindNoData, Text: NoDataMessage}
}

func rawText(s string) Result {
	return Result{Kind: KindRaw, Text: s}
}

// EncodeRecords renders a table as a JSON array of objects whose keys follow
// the table's column order, so that Normalize(EncodeRecords(t)) reproduces t.
func EncodeRecords(t *model.Table) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, row := range t.Rows {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteByte('{')
		for j, col := range t.Columns {
			if j > 0 {
				buf.WriteByte(',')
			}
			k, err := json.Marshal(col)
			if err != nil {
				return nil, err
			}
			v, err := json.Marshal(row[j])
			if err != nil {
				return nil, err
			}
			buf.Write(k)
			buf.WriteByte(':')
			buf.Write(v)
		}
		buf.WriteByte('}')
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}
