package photo

import (
	"bytes"
	"fmt"
	"io"

	"github.com/goccy/go-json"
)

// DecodeRecords reads records from r. It accepts either a JSON array of
// records or a page object with a "records" array, as returned by the
// paged listing endpoints.
func DecodeRecords(r io.Reader) ([]Record, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("decode records: %w", err)
	}
	data = bytes.TrimSpace(data)

	if len(data) > 0 && data[0] == '{' {
		var page struct {
			Records []Record `json:"records"`
		}
		if err := json.Unmarshal(data, &page); err != nil {
			return nil, fmt.Errorf("decode records: %w", err)
		}
		return page.Records, nil
	}

	var recs []Record
	if err := json.Unmarshal(data, &recs); err != nil {
		return nil, fmt.Errorf("decode records: %w", err)
	}
	return recs, nil
}
