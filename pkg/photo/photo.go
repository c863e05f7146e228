package photo

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// DefaultAspectRatio is used for photos whose source dimensions are missing.
const DefaultAspectRatio = 1.5

// UnknownAuthor is filled in for records without an author.
const UnknownAuthor = "unknown"

var validate = validator.New(validator.WithRequiredStructEnabled())

// Record is the photo metadata returned by the photo service.
type Record struct {
	ID          string `json:"id" validate:"required"`
	FileName    string `json:"fileName"`
	Author      string `json:"author"`
	Width       int    `json:"width" validate:"gte=0"`
	Height      int    `json:"height" validate:"gte=0"`
	Aperture    string `json:"aperture"`
	ISO         string `json:"iso"`
	Shutter     string `json:"shutter"`
	Camera      string `json:"camera"`
	Lens        string `json:"lens"`
	FocalLength string `json:"focalLength"`
	ShootTime   string `json:"shootTime"`
	Title       string `json:"title"`
	Introduce   string `json:"introduce"`
	StartRating Rating `json:"startRating"`
	GroupID     string `json:"groupId,omitempty"`
}

// Item is one photo in a render cycle.
//
// AspectRatio is resolved once when the item is built and is always > 0.
// CalcWidth and CalcHeight are owned by the layout engine and rewritten on
// every layout pass. DisplaySrc is owned by the thumbnail pipeline and stays
// empty until a small-tier blob has been resolved for the photo.
type Item struct {
	Record

	AspectRatio float64 `json:"aspectRatio"`
	CalcWidth   float64 `json:"calcWidth"`
	CalcHeight  float64 `json:"calcHeight"`
	DisplaySrc  string  `json:"displaySrc,omitempty"`
}

// AspectRatio derives width/height. When either dimension is not positive it
// returns fallback, or DefaultAspectRatio if fallback is not positive either.
func AspectRatio(width, height int, fallback float64) float64 {
	if width > 0 && height > 0 {
		return float64(width) / float64(height)
	}
	if fallback > 0 {
		return fallback
	}
	return DefaultAspectRatio
}

// NewItem builds an item from rec without validation.
func NewItem(rec Record, fallback float64) *Item {
	if rec.Author == "" {
		rec.Author = UnknownAuthor
	}
	return &Item{
		Record:      rec,
		AspectRatio: AspectRatio(rec.Width, rec.Height, fallback),
	}
}

// FromRecord validates rec and builds an item from it.
func FromRecord(rec Record, fallback float64) (*Item, error) {
	if err := validate.Struct(rec); err != nil {
		return nil, fmt.Errorf("invalid photo record %q: %w", rec.ID, err)
	}
	return NewItem(rec, fallback), nil
}

// FromRecords builds items for every valid record, preserving order.
// Invalid records are skipped and reported together in the returned error;
// the items slice is usable even when err is non-nil.
func FromRecords(recs []Record, fallback float64) ([]*Item, error) {
	items := make([]*Item, 0, len(recs))
	var errs []error
	for _, rec := range recs {
		it, err := FromRecord(rec, fallback)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		items = append(items, it)
	}
	return items, errors.Join(errs...)
}
