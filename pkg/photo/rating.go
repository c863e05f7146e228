package photo

// Rating is the star status of a photo.
type Rating int

const (
	RatingVisible     Rating = -2 // query-only: Normal and Star
	RatingHidden      Rating = -1
	RatingNormal      Rating = 0
	RatingStar        Rating = 1
	RatingMeteorology Rating = 2
	RatingGroupOnly   Rating = 3
)

// String returns a short label for the rating.
func (r Rating) String() string {
	switch r {
	case RatingVisible:
		return "visible"
	case RatingHidden:
		return "hidden"
	case RatingNormal:
		return "normal"
	case RatingStar:
		return "star"
	case RatingMeteorology:
		return "meteorology"
	case RatingGroupOnly:
		return "group"
	default:
		return "unknown"
	}
}

// Visible reports whether photos with this rating appear in the public grid.
func (r Rating) Visible() bool {
	return r == RatingNormal || r == RatingStar
}
