package core

// Title identifies a movie. It is used verbatim as query and map key.
type Title = string

// RatingEntry is a single (source, value) pair from a metadata record
type RatingEntry struct {
	Source string `json:"Source"` // e.g. "Rotten Tomatoes", "Internet Movie Database"
	Value  string `json:"Value"`  // e.g. "72%", "8.1/10"
}

// MetadataRecord represents the subset of a metadata response the ranker needs
type MetadataRecord struct {
	Title   string        `json:"Title"`
	Year    string        `json:"Year"`
	IMDbID  string        `json:"imdbID"`
	Ratings []RatingEntry `json:"Ratings"`
}

// RankedTitle is one entry of a ranked recommendation list
type RankedTitle struct {
	Title  Title `json:"title"`
	Rating int   `json:"rating"`
	Known  bool  `json:"known"` // False when the rating source had no entry for the title
}

// Pipeline stages a title can be skipped at.
const (
	StageSimilar  = "similar"
	StageMetadata = "metadata"
	StageRating   = "rating"
)

// SkippedTitle records a title that was dropped because a lookup failed
type SkippedTitle struct {
	Title  Title  `json:"title"`
	Stage  string `json:"stage"`  // StageSimilar, StageMetadata or StageRating
	Reason string `json:"reason"` // Error text
	Err    error  `json:"-"`
}

// NewSkippedTitle builds a SkippedTitle from a failed lookup.
func NewSkippedTitle(title Title, stage string, err error) SkippedTitle {
	s := SkippedTitle{Title: title, Stage: stage, Err: err}
	if err != nil {
		s.Reason = err.Error()
	}
	return s
}
