package directory

import "fmt"

// Unknown is the directory's placeholder for a field with no value.
const Unknown = "N/A"

// IsKnown reports whether v carries a real value.
func IsKnown(v string) bool {
	return v != "" && v != Unknown
}

// MediaKind is the kind of title a directory entry describes.
type MediaKind string

const (
	MediaMovie   MediaKind = "movie"
	MediaSeries  MediaKind = "series"
	MediaEpisode MediaKind = "episode"
	MediaGame    MediaKind = "game"
)

// ParseMediaKind validates a kind string as returned by the directory.
func ParseMediaKind(s string) (MediaKind, error) {
	switch k := MediaKind(s); k {
	case MediaMovie, MediaSeries, MediaEpisode, MediaGame:
		return k, nil
	default:
		return "", fmt.Errorf("unknown media type %q", s)
	}
}

// SearchResult is the lightweight entry returned by a title search.
type SearchResult struct {
	ID     string    `json:"imdbId"`
	Title  string    `json:"title"`
	Year   string    `json:"year"`
	Poster string    `json:"poster"`
	Kind   MediaKind `json:"type"`
}

// SearchPage is one page of search results.
// TotalResults is nil when the directory did not report a usable total.
type SearchPage struct {
	Results      []SearchResult
	TotalResults *int
}

// Rating is a score from a single source, e.g. "Rotten Tomatoes" / "72%".
type Rating struct {
	Source string `json:"source"`
	Value  string `json:"value"`
}

// FullRecord is the complete directory entry for one title.
type FullRecord struct {
	ID         string    `json:"imdbId"`
	Title      string    `json:"title"`
	Year       string    `json:"year"`
	Poster     string    `json:"poster"`
	Kind       MediaKind `json:"type"`
	Rated      string    `json:"rated"`
	Released   string    `json:"released"`
	Runtime    string    `json:"runtime"`
	Genre      string    `json:"genre"`
	Director   string    `json:"director"`
	Writer     string    `json:"writer"`
	Actors     string    `json:"actors"`
	Plot       string    `json:"plot"`
	Language   string    `json:"language"`
	Country    string    `json:"country"`
	Awards     string    `json:"awards"`
	Ratings    []Rating  `json:"ratings"`
	Metascore  string    `json:"metascore"`
	IMDbRating string    `json:"imdbRating"`
	IMDbVotes  string    `json:"imdbVotes"`

	DVD          *string `json:"dvd,omitempty"`
	BoxOffice    *string `json:"boxOffice,omitempty"`
	Production   *string `json:"production,omitempty"`
	Website      *string `json:"website,omitempty"`
	TotalSeasons *string `json:"totalSeasons,omitempty"`
}

// Clone returns a copy that shares no slices with r.
func (r *FullRecord) Clone() *FullRecord {
	if r == nil {
		return nil
	}
	out := *r
	if r.Ratings != nil {
		out.Ratings = append([]Rating(nil), r.Ratings...)
	}
	return &out
}

// Field is a labelled value shown on a detail view.
type Field struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Section groups detail fields under a heading.
type Section struct {
	Title  string  `json:"title"`
	Fields []Field `json:"fields"`
}

// Sections lays the record out as the "About" and "Critics" groups of a detail view.
func (r *FullRecord) Sections() []Section {
	return []Section{
		{
			Title: "About",
			Fields: []Field{
				{"Genre", r.Genre},
				{"Plot", r.Plot},
				{"Rated", r.Rated},
				{"Runtime", r.Runtime},
				{"Released", r.Released},
				{"Director", r.Director},
				{"Writer", r.Writer},
				{"Actors", r.Actors},
				{"Language", r.Language},
				{"Country", r.Country},
			},
		},
		{
			Title: "Critics",
			Fields: []Field{
				{"Awards", r.Awards},
				{"Metascore", r.Metascore},
				{"IMDb Rating", r.IMDbRating},
				{"IMDb Votes", r.IMDbVotes},
			},
		},
	}
}
