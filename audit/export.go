package audit

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"time"
)

var csvHeader = []string{"created", "event", "user", "group_id", "org_id", "project_id", "content"}

// WriteCSV streams items as CSV with the free-form content flattened to
// a JSON column.
func WriteCSV(w io.Writer, items []LogItem) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(csvHeader); err != nil {
		return fmt.Errorf("[audit WriteCSV] header: %w", err)
	}

	for _, item := range items {
		content := ""
		if len(item.Content) > 0 {
			raw, err := json.Marshal(item.Content)
			if err != nil {
				return fmt.Errorf("[audit WriteCSV] marshal content: %w", err)
			}
			content = string(raw)
		}
		record := []string{
			item.Created.UTC().Format(time.RFC3339),
			item.Event,
			item.UserIdentifier(),
			item.GroupID,
			item.OrgID,
			item.ProjectID,
			content,
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("[audit WriteCSV] record: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// WriteJSON streams items as a pretty-printed JSON array for download.
// An empty result is still an array, never null.
func WriteJSON(w io.Writer, items []LogItem) error {
	if items == nil {
		items = []LogItem{}
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(items)
}
