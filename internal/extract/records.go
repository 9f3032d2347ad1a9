package extract

import (
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/sheetflow/excel-etl/internal/table"
)

// tableFromJSONArray builds a frame from a JSON array of flat records.
// Keys are walked in document order so the resulting column order matches
// the payload rather than Go's map iteration.
func tableFromJSONArray(data []byte) (*table.Table, error) {
	parsed := gjson.ParseBytes(data)
	if !parsed.IsArray() {
		return nil, fmt.Errorf("payload is not an array of records")
	}

	var (
		records []map[string]any
		order   []string
		walkErr error
	)
	seen := make(map[string]struct{})

	parsed.ForEach(func(_, row gjson.Result) bool {
		if !row.IsObject() {
			walkErr = fmt.Errorf("payload row is not an object: %s", row.Raw)
			return false
		}

		rec := make(map[string]any)
		row.ForEach(func(k, v gjson.Result) bool {
			key := k.String()
			if _, ok := seen[key]; !ok {
				seen[key] = struct{}{}
				order = append(order, key)
			}
			rec[key] = v.Value()
			return true
		})
		records = append(records, rec)

		return true
	})
	if walkErr != nil {
		return nil, walkErr
	}

	return table.FromMaps(records, order), nil
}
