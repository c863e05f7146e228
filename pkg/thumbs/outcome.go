package thumbs

import "errors"

// Outcome is how one item's thumbnail was resolved.
type Outcome int

const (
	Failed  Outcome = iota // no display reference
	Cached                 // served from the blob cache
	Fetched                // downloaded in the batch archive
)

func (o Outcome) String() string {
	switch o {
	case Cached:
		return "cached"
	case Fetched:
		return "fetched"
	default:
		return "failed"
	}
}

var (
	// ErrNotInArchive marks an item whose photo had no matching archive entry.
	ErrNotInArchive = errors.New("not in archive")

	// ErrBatchFailed marks items lost to a failed batch request.
	ErrBatchFailed = errors.New("batch request failed")

	// ErrNoID marks an item without a photo ID.
	ErrNoID = errors.New("item has no photo id")
)

// ItemResult is the outcome for one input item.
type ItemResult struct {
	ID      string
	Outcome Outcome
	Ref     string // display reference; empty when Failed
	Err     error  // reason, when Failed
}

// Result is the outcome of one resolution pass. Items is parallel to the
// input. Warning is set when the batch request failed as a whole.
type Result struct {
	Items   []ItemResult
	Warning string
}

// Counts tallies the outcomes.
func (r Result) Counts() (cached, fetched, failed int) {
	for _, it := range r.Items {
		switch it.Outcome {
		case Cached:
			cached++
		case Fetched:
			fetched++
		default:
			failed++
		}
	}
	return
}

// Failures returns the failed items.
func (r Result) Failures() []ItemResult {
	var out []ItemResult
	for _, it := range r.Items {
		if it.Outcome == Failed {
			out = append(out, it)
		}
	}
	return out
}
