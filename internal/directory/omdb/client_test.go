package omdb

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"github.com/moviefinder/moviefinder/internal/config"
	"github.com/moviefinder/moviefinder/internal/directory"
)

const searchSample = `{
  "Search": [
    {"Title": "Batman Begins", "Year": "2005", "imdbID": "tt0372784", "Type": "movie", "Poster": "https://example.com/begins.jpg"},
    {"Title": "Batman: The Animated Series", "Year": "1992–1995", "imdbID": "tt0103359", "Type": "series", "Poster": "N/A"}
  ],
  "totalResults": "334",
  "Response": "True"
}`

const movieSample = `{
  "Title": "Batman",
  "Year": "1989",
  "Rated": "PG-13",
  "Released": "23 Jun 1989",
  "Runtime": "126 min",
  "Genre": "Action, Adventure",
  "Director": "Tim Burton",
  "Writer": "Bob Kane (Batman characters), Sam Hamm (story)",
  "Actors": "Michael Keaton, Jack Nicholson, Kim Basinger, Robert Wuhl",
  "Plot": "The Dark Knight of Gotham City begins his war on crime.",
  "Language": "English, French",
  "Country": "USA, UK",
  "Awards": "Won 1 Oscar. Another 9 wins & 26 nominations.",
  "Poster": "https://example.com/batman.jpg",
  "Ratings": [
    {"Source": "Internet Movie Database", "Value": "7.6/10"},
    {"Source": "Rotten Tomatoes", "Value": "72%"}
  ],
  "Metascore": "69",
  "imdbRating": "7.6",
  "imdbVotes": "289,519",
  "imdbID": "tt0096895",
  "Type": "movie",
  "DVD": "25 Mar 1997",
  "BoxOffice": "N/A",
  "Production": "Warner Bros. Pictures",
  "Website": "N/A",
  "Response": "True"
}`

func newTestClient(server *httptest.Server) *Client {
	cfg := config.OMDBConfig{
		APIKey:  "test-api-key",
		BaseURL: server.URL,
		Timeout: 5,
	}
	return NewClient(cfg, zerolog.Nop())
}

func serveJSON(t *testing.T, status int, body string, check func(r *http.Request)) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			check(r)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func assertKind(t *testing.T, err error, want directory.ErrorKind) {
	t.Helper()
	kind, ok := directory.KindOf(err)
	if !ok {
		t.Fatalf("error %v is not a directory error", err)
	}
	if kind != want {
		t.Errorf("KindOf(%v) = %v, want %v", err, kind, want)
	}
}

func TestClient_IsConfigured(t *testing.T) {
	tests := []struct {
		name   string
		apiKey string
		want   bool
	}{
		{"with key", "abc123", true},
		{"without key", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := NewClient(config.OMDBConfig{APIKey: tt.apiKey}, zerolog.Nop())
			if got := client.IsConfigured(); got != tt.want {
				t.Errorf("IsConfigured() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClient_Search(t *testing.T) {
	server := serveJSON(t, http.StatusOK, searchSample, func(r *http.Request) {
		q := r.URL.Query()
		if q.Get("s") != "batman" {
			t.Errorf("s = %q, want %q", q.Get("s"), "batman")
		}
		if q.Get("page") != "2" {
			t.Errorf("page = %q, want %q", q.Get("page"), "2")
		}
		if q.Get("apikey") != "test-api-key" {
			t.Errorf("apikey = %q, want %q", q.Get("apikey"), "test-api-key")
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q, want application/json", ct)
		}
	})

	page, err := newTestClient(server).Search(context.Background(), "batman", 2)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(page.Results) != 2 {
		t.Fatalf("len(Results) = %d, want 2", len(page.Results))
	}
	if page.TotalResults == nil || *page.TotalResults != 334 {
		t.Errorf("TotalResults = %v, want 334", page.TotalResults)
	}
	if got := page.Results[1].Kind; got != directory.MediaSeries {
		t.Errorf("Results[1].Kind = %q, want %q", got, directory.MediaSeries)
	}
	if got := page.Results[0].ID; got != "tt0372784" {
		t.Errorf("Results[0].ID = %q, want tt0372784", got)
	}
}

func TestClient_SearchTotalUnknown(t *testing.T) {
	body := `{"Search": [{"Title": "X", "Year": "2000", "imdbID": "tt1", "Type": "movie", "Poster": "N/A"}], "totalResults": "lots", "Response": "True"}`
	server := serveJSON(t, http.StatusOK, body, nil)

	page, err := newTestClient(server).Search(context.Background(), "x", 1)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if page.TotalResults != nil {
		t.Errorf("TotalResults = %d, want nil", *page.TotalResults)
	}
}

func TestClient_SearchNoMatches(t *testing.T) {
	server := serveJSON(t, http.StatusOK, `{"Response": "False", "Error": "Movie not found!"}`, nil)

	page, err := newTestClient(server).Search(context.Background(), "zzzz", 1)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(page.Results) != 0 || page.TotalResults == nil || *page.TotalResults != 0 {
		t.Errorf("Search() = %+v, want empty exhausted page", page)
	}
}

func TestClient_SearchErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   directory.ErrorKind
	}{
		{"server error", http.StatusInternalServerError, `{}`, directory.KindTransport},
		{"invalid key", http.StatusUnauthorized, `{"Response": "False", "Error": "Invalid API key!"}`, directory.KindTransport},
		{"too many results", http.StatusOK, `{"Response": "False", "Error": "Too many results."}`, directory.KindTransport},
		{"malformed json", http.StatusOK, `{"Search": [`, directory.KindDecode},
		{"missing search", http.StatusOK, `{"Response": "True"}`, directory.KindDecode},
		{"unknown type", http.StatusOK, `{"Search": [{"Title": "X", "imdbID": "tt1", "Type": "podcast"}], "Response": "True"}`, directory.KindDecode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := serveJSON(t, tt.status, tt.body, nil)
			_, err := newTestClient(server).Search(context.Background(), "batman", 1)
			if err == nil {
				t.Fatal("Search() error = nil, want error")
			}
			assertKind(t, err, tt.want)
		})
	}
}

func TestClient_FetchByID(t *testing.T) {
	server := serveJSON(t, http.StatusOK, movieSample, func(r *http.Request) {
		if got := r.URL.Query().Get("i"); got != "tt0096895" {
			t.Errorf("i = %q, want tt0096895", got)
		}
	})

	rec, err := newTestClient(server).FetchByID(context.Background(), "tt0096895")
	if err != nil {
		t.Fatalf("FetchByID() error = %v", err)
	}
	if rec.Title != "Batman" || rec.Director != "Tim Burton" {
		t.Errorf("FetchByID() = %q by %q, want Batman by Tim Burton", rec.Title, rec.Director)
	}
	if len(rec.Ratings) != 2 || rec.Ratings[1].Value != "72%" {
		t.Errorf("Ratings = %+v", rec.Ratings)
	}
	if rec.BoxOffice == nil || directory.IsKnown(*rec.BoxOffice) {
		t.Errorf("BoxOffice = %v, want N/A", rec.BoxOffice)
	}
	if rec.TotalSeasons != nil {
		t.Errorf("TotalSeasons = %q, want nil", *rec.TotalSeasons)
	}
}

func TestClient_FetchByIDNotFound(t *testing.T) {
	for _, msg := range []string{msgNotFound, msgIncorrectID} {
		t.Run(msg, func(t *testing.T) {
			server := serveJSON(t, http.StatusOK, `{"Response": "False", "Error": "`+msg+`"}`, nil)
			_, err := newTestClient(server).FetchByID(context.Background(), "tt9999999")
			if !errors.Is(err, directory.ErrNotFound) {
				t.Errorf("FetchByID() error = %v, want ErrNotFound", err)
			}
			assertKind(t, err, directory.KindTransport)
		})
	}
}

func TestClient_NotConfigured(t *testing.T) {
	client := NewClient(config.OMDBConfig{BaseURL: "http://127.0.0.1:1"}, zerolog.Nop())

	_, err := client.Search(context.Background(), "batman", 1)
	if !errors.Is(err, directory.ErrNotConfigured) {
		t.Errorf("Search() error = %v, want ErrNotConfigured", err)
	}
	if err := client.Test(context.Background()); !errors.Is(err, ErrAPIKeyMissing) {
		t.Errorf("Test() error = %v, want ErrAPIKeyMissing", err)
	}
}

func TestClient_NetworkFailure(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	client := newTestClient(server)
	server.Close()

	_, err := client.FetchByID(context.Background(), "tt0096895")
	if err == nil {
		t.Fatal("FetchByID() error = nil, want error")
	}
	assertKind(t, err, directory.KindTransport)
}
