package blobcache

import (
	"context"
	"errors"
	"fmt"

	"github.com/matzehuels/waterfall/pkg/photo"
)

var (
	// ErrClosed is returned by a Store used after Close.
	ErrClosed = errors.New("blob store closed")

	// ErrInvalidTier is returned for tiers other than small, medium and full.
	ErrInvalidTier = errors.New("invalid tier")

	// ErrEmptyID is returned when a photo ID is empty.
	ErrEmptyID = errors.New("empty photo id")

	// ErrEmptyData is returned by Put for a zero-length payload.
	ErrEmptyData = errors.New("empty payload")
)

// Store is a persistent photo blob store.
//
// Get reports a miss as (nil, false, nil); a miss is not an error. Put merges
// the tier into the photo's record and must preserve the other tiers. An
// empty tier reads as a miss, so Put rejects empty data with ErrEmptyData.
// Implementations must be safe for concurrent use.
type Store interface {
	Get(ctx context.Context, id string, tier photo.Tier) ([]byte, bool, error)
	Put(ctx context.Context, id string, tier photo.Tier, data []byte) error
	Record(ctx context.Context, id string) (*Record, bool, error)
	Clear(ctx context.Context) error
	Stats(ctx context.Context) (Stats, error)
	Close() error
}

// Record is everything cached for one photo.
type Record struct {
	PhotoID string `json:"photoId" bson:"_id"`
	Small   []byte `json:"small,omitempty" bson:"small,omitempty"`
	Medium  []byte `json:"medium,omitempty" bson:"medium,omitempty"`
	Full    []byte `json:"full,omitempty" bson:"full,omitempty"`
}

// Tier returns the payload stored for t, or nil.
func (r *Record) Tier(t photo.Tier) []byte {
	switch t {
	case photo.TierSmall:
		return r.Small
	case photo.TierMedium:
		return r.Medium
	case photo.TierFull:
		return r.Full
	}
	return nil
}

// SetTier replaces the payload for t, leaving the other tiers untouched.
func (r *Record) SetTier(t photo.Tier, data []byte) {
	switch t {
	case photo.TierSmall:
		r.Small = data
	case photo.TierMedium:
		r.Medium = data
	case photo.TierFull:
		r.Full = data
	}
}

// Tiers returns the tiers that hold a payload.
func (r *Record) Tiers() []photo.Tier {
	var ts []photo.Tier
	for _, t := range photo.Tiers {
		if len(r.Tier(t)) > 0 {
			ts = append(ts, t)
		}
	}
	return ts
}

// Stats summarizes a store's content.
type Stats struct {
	Records int                `json:"records"`
	Blobs   map[photo.Tier]int `json:"blobs"`
	Bytes   int64              `json:"bytes"`
}

func (s *Stats) add(r *Record) {
	if s.Blobs == nil {
		s.Blobs = make(map[photo.Tier]int, len(photo.Tiers))
	}
	s.Records++
	for _, t := range r.Tiers() {
		s.Blobs[t]++
		s.Bytes += int64(len(r.Tier(t)))
	}
}

func checkKey(id string, tier photo.Tier) error {
	if id == "" {
		return ErrEmptyID
	}
	if !tier.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidTier, tier)
	}
	return nil
}

func checkPut(id string, tier photo.Tier, data []byte) error {
	if err := checkKey(id, tier); err != nil {
		return err
	}
	if len(data) == 0 {
		return ErrEmptyData
	}
	return nil
}
