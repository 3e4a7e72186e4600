// Package mock provides an in-memory movie directory backed by an embedded
// sample catalogue, for development and tests.
package mock

import (
	"context"
	_ "embed"
	"fmt"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/moviefinder/moviefinder/internal/directory"
)

//go:embed catalogue.yaml
var catalogueYAML []byte

type catalogue struct {
	Titles []title `yaml:"titles"`
}

type title struct {
	ID           string   `yaml:"imdbID"`
	Title        string   `yaml:"title"`
	Year         string   `yaml:"year"`
	Type         string   `yaml:"type"`
	Poster       string   `yaml:"poster"`
	Rated        string   `yaml:"rated"`
	Released     string   `yaml:"released"`
	Runtime      string   `yaml:"runtime"`
	Genre        string   `yaml:"genre"`
	Director     string   `yaml:"director"`
	Writer       string   `yaml:"writer"`
	Actors       string   `yaml:"actors"`
	Plot         string   `yaml:"plot"`
	Language     string   `yaml:"language"`
	Country      string   `yaml:"country"`
	Awards       string   `yaml:"awards"`
	Ratings      []rating `yaml:"ratings"`
	Metascore    string   `yaml:"metascore"`
	IMDbRating   string   `yaml:"imdbRating"`
	IMDbVotes    string   `yaml:"imdbVotes"`
	DVD          *string  `yaml:"dvd"`
	BoxOffice    *string  `yaml:"boxOffice"`
	Production   *string  `yaml:"production"`
	Website      *string  `yaml:"website"`
	TotalSeasons *string  `yaml:"totalSeasons"`
}

type rating struct {
	Source string `yaml:"source"`
	Value  string `yaml:"value"`
}

// Directory is an in-memory directory.Provider.
type Directory struct {
	records  []directory.FullRecord
	byID     map[string]int
	pageSize int

	mu      sync.Mutex
	latency time.Duration
	failing error
}

// New loads the embedded catalogue.
func New(pageSize int) (*Directory, error) {
	return FromYAML(catalogueYAML, pageSize)
}

// FromYAML builds a directory from a catalogue document.
func FromYAML(data []byte, pageSize int) (*Directory, error) {
	var cat catalogue
	if err := yaml.Unmarshal(data, &cat); err != nil {
		return nil, fmt.Errorf("failed to parse catalogue: %w", err)
	}

	d := &Directory{
		records:  make([]directory.FullRecord, 0, len(cat.Titles)),
		byID:     make(map[string]int, len(cat.Titles)),
		pageSize: pageSize,
	}
	for _, t := range cat.Titles {
		rec, err := t.record()
		if err != nil {
			return nil, fmt.Errorf("catalogue entry %s: %w", t.ID, err)
		}
		if _, dup := d.byID[rec.ID]; dup {
			continue
		}
		d.byID[rec.ID] = len(d.records)
		d.records = append(d.records, rec)
	}
	return d, nil
}

func (t title) record() (directory.FullRecord, error) {
	kind, err := directory.ParseMediaKind(t.Type)
	if err != nil {
		return directory.FullRecord{}, err
	}

	rec := directory.FullRecord{
		ID:           t.ID,
		Title:        t.Title,
		Year:         t.Year,
		Poster:       orUnknown(t.Poster),
		Kind:         kind,
		Rated:        orUnknown(t.Rated),
		Released:     orUnknown(t.Released),
		Runtime:      orUnknown(t.Runtime),
		Genre:        orUnknown(t.Genre),
		Director:     orUnknown(t.Director),
		Writer:       orUnknown(t.Writer),
		Actors:       orUnknown(t.Actors),
		Plot:         orUnknown(t.Plot),
		Language:     orUnknown(t.Language),
		Country:      orUnknown(t.Country),
		Awards:       orUnknown(t.Awards),
		Ratings:      make([]directory.Rating, 0, len(t.Ratings)),
		Metascore:    orUnknown(t.Metascore),
		IMDbRating:   orUnknown(t.IMDbRating),
		IMDbVotes:    orUnknown(t.IMDbVotes),
		DVD:          t.DVD,
		BoxOffice:    t.BoxOffice,
		Production:   t.Production,
		Website:      t.Website,
		TotalSeasons: t.TotalSeasons,
	}
	for _, r := range t.Ratings {
		rec.Ratings = append(rec.Ratings, directory.Rating{Source: r.Source, Value: r.Value})
	}
	return rec, nil
}

func orUnknown(v string) string {
	if v == "" {
		return directory.Unknown
	}
	return v
}

// SetLatency delays every subsequent call by d.
func (d *Directory) SetLatency(latency time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.latency = latency
}

// SetFailure makes every subsequent call fail with err. Pass nil to recover.
func (d *Directory) SetFailure(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.failing = err
}

func (d *Directory) Name() string       { return "mock" }
func (d *Directory) IsConfigured() bool { return true }

func (d *Directory) Test(ctx context.Context) error {
	return d.wait(ctx, "test")
}

// FetchByID returns a copy of the catalogue record for id.
func (d *Directory) FetchByID(ctx context.Context, id string) (*directory.FullRecord, error) {
	if err := d.wait(ctx, "fetch by id"); err != nil {
		return nil, err
	}
	idx, ok := d.byID[id]
	if !ok {
		return nil, directory.TransportError("fetch by id", directory.ErrNotFound)
	}
	return d.records[idx].Clone(), nil
}

// Search matches query case-insensitively against titles.
func (d *Directory) Search(ctx context.Context, query string, page int) (*directory.SearchPage, error) {
	if err := d.wait(ctx, "search"); err != nil {
		return nil, err
	}

	needle := strings.ToLower(query)
	var matches []directory.SearchResult
	for _, r := range d.records {
		if strings.Contains(strings.ToLower(r.Title), needle) {
			matches = append(matches, directory.SearchResult{
				ID:     r.ID,
				Title:  r.Title,
				Year:   r.Year,
				Poster: r.Poster,
				Kind:   r.Kind,
			})
		}
	}

	total := len(matches)
	start := (page - 1) * d.pageSize
	if start < 0 || start > total {
		start = total
	}
	end := min(start+d.pageSize, total)

	return &directory.SearchPage{
		Results:      matches[start:end:end],
		TotalResults: &total,
	}, nil
}

func (d *Directory) wait(ctx context.Context, op string) error {
	d.mu.Lock()
	latency, failing := d.latency, d.failing
	d.mu.Unlock()

	if latency > 0 {
		select {
		case <-ctx.Done():
			return directory.TransportError(op, ctx.Err())
		case <-time.After(latency):
		}
	}
	if failing != nil {
		return directory.TransportError(op, failing)
	}
	return nil
}
