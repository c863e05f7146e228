package gallery

import (
	"fmt"
	"os"

	"github.com/matzehuels/waterfall/pkg/photo"
)

// LoadFile reads photo records from a JSON file and builds items. Records
// that fail validation are skipped; the returned error describes them while
// the valid items are still returned.
func LoadFile(path string, fallbackAspect float64) ([]*photo.Item, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	recs, err := photo.DecodeRecords(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return photo.FromRecords(recs, fallbackAspect)
}
