// Package table converts generic table blocks (ordered rows of cell text)
// into key/value maps or header-keyed record lists.
package table

import "strings"

// ToKeyValue decodes a two-column table into a map. For each row with at
// least two cells the trimmed first cell is the key and the trimmed second
// cell is the value; rows with a blank key are skipped and later duplicate
// keys overwrite earlier ones.
func ToKeyValue(rows [][]string) map[string]string {
	out := make(map[string]string)
	for _, row := range rows {
		if len(row) < 2 {
			continue
		}
		key := strings.TrimSpace(row[0])
		if key == "" {
			continue
		}
		out[key] = strings.TrimSpace(row[1])
	}
	return out
}

// ToRecordList decodes a table whose first row is the header row. Each
// subsequent row becomes one record mapping header to trimmed cell value,
// defaulting to "" for short rows. Duplicate headers overwrite earlier
// columns within a row. Rows whose every value is empty are dropped; a row
// with at least one non-empty cell is kept.
func ToRecordList(rows [][]string) []map[string]string {
	if len(rows) == 0 {
		return nil
	}

	headers := make([]string, len(rows[0]))
	for i, cell := range rows[0] {
		headers[i] = strings.TrimSpace(cell)
	}

	var records []map[string]string
	for _, row := range rows[1:] {
		record := make(map[string]string, len(headers))
		empty := true
		for i, header := range headers {
			value := ""
			if i < len(row) {
				value = strings.TrimSpace(row[i])
			}
			record[header] = value
			if value != "" {
				empty = false
			}
		}
		if empty {
			continue
		}
		records = append(records, record)
	}
	return records
}
