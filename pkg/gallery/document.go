package gallery

import (
	"github.com/matzehuels/waterfall/pkg/layout"
	"github.com/matzehuels/waterfall/pkg/photo"
)

// Document is the serializable form of a Result.
type Document struct {
	Mobile   bool          `json:"mobile"`
	RowWidth float64       `json:"rowWidth"`
	Gap      float64       `json:"gap"`
	Height   float64       `json:"height"`
	Rows     []RowDocument `json:"rows"`
	Warning  string        `json:"warning,omitempty"`
	Stats    Stats         `json:"stats"`
}

// RowDocument is one packed row.
type RowDocument struct {
	Height float64        `json:"height"`
	Items  []ItemDocument `json:"items"`
}

// ItemDocument is one placed photo.
type ItemDocument struct {
	ID          string       `json:"id"`
	FileName    string       `json:"fileName,omitempty"`
	Title       string       `json:"title,omitempty"`
	Author      string       `json:"author,omitempty"`
	Rating      photo.Rating `json:"startRating"`
	AspectRatio float64      `json:"aspectRatio"`
	Width       float64      `json:"calcWidth"`
	Height      float64      `json:"calcHeight"`
	Src         string       `json:"displaySrc,omitempty"`
}

// Document converts the result for JSON output.
func (r *Result) Document() Document {
	doc := Document{
		Mobile:   r.Config.Mobile,
		RowWidth: r.Config.RowWidth,
		Gap:      r.Config.Gap,
		Height:   r.Height,
		Rows:     make([]RowDocument, len(r.Rows)),
		Warning:  r.Thumbnails.Warning,
		Stats:    r.Stats,
	}
	for i, row := range r.Rows {
		doc.Rows[i] = rowDocument(row)
	}
	return doc
}

func rowDocument(row layout.Row) RowDocument {
	rd := RowDocument{Height: row.Height, Items: make([]ItemDocument, len(row.Items))}
	for i, it := range row.Items {
		rd.Items[i] = ItemDocument{
			ID:          it.ID,
			FileName:    it.FileName,
			Title:       it.Title,
			Author:      it.Author,
			Rating:      it.StartRating,
			AspectRatio: it.AspectRatio,
			Width:       it.CalcWidth,
			Height:      it.CalcHeight,
			Src:         it.DisplaySrc,
		}
	}
	return rd
}
