package photo

import (
	"fmt"
	"strings"
)

// Tier identifies one binary size variant of a photo.
type Tier string

const (
	TierSmall  Tier = "small"  // ~100 KB thumbnail used by the grid
	TierMedium Tier = "medium" // ~1000 KB preview used by the detail view
	TierFull   Tier = "full"   // original file
)

// Tiers lists every tier from smallest to largest.
var Tiers = []Tier{TierSmall, TierMedium, TierFull}

var tierAliases = map[string]Tier{
	"small":    TierSmall,
	"100k":     TierSmall,
	"medium":   TierMedium,
	"1000k":    TierMedium,
	"full":     TierFull,
	"original": TierFull,
}

// ParseTier parses a tier name. It accepts the canonical names and the
// aliases 100k, 1000k and original, case-insensitively.
func ParseTier(s string) (Tier, error) {
	if t, ok := tierAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return t, nil
	}
	return "", fmt.Errorf("unknown tier %q (want small, medium or full)", s)
}

// Valid reports whether t is one of the known tiers.
func (t Tier) Valid() bool {
	return t == TierSmall || t == TierMedium || t == TierFull
}

func (t Tier) String() string { return string(t) }
