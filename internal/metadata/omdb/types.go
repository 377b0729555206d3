package omdb

import "github.com/vadimtrunov/movierank/internal/core"

// titleResponse is the OMDb title lookup response. Only the fields the
// ranker needs are decoded; Ratings is a pointer so a missing key can be told
// apart from an empty list.
type titleResponse struct {
	Response string              `json:"Response"` // "True" or "False"
	Error    string              `json:"Error"`    // e.g. "Movie not found!"
	Title    string              `json:"Title"`
	Year     string              `json:"Year"`
	IMDbID   string              `json:"imdbID"`
	Ratings  *[]core.RatingEntry `json:"Ratings"`
}

// record converts the response into a domain record.
func (r *titleResponse) record() *core.MetadataRecord {
	rec := &core.MetadataRecord{
		Title:  r.Title,
		Year:   r.Year,
		IMDbID: r.IMDbID,
	}
	if r.Ratings != nil {
		rec.Ratings = *r.Ratings
	}
	return rec
}
