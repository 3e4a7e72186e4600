package omdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/moviefinder/moviefinder/internal/config"
	"github.com/moviefinder/moviefinder/internal/directory"
)

const (
	opFetch  = "omdb fetch by id"
	opSearch = "omdb search"

	msgNotFound    = "Movie not found!"
	msgIncorrectID = "Incorrect IMDb ID."
)

var (
	ErrAPIKeyMissing = fmt.Errorf("OMDb API key is missing: %w", directory.ErrNotConfigured)
	ErrAPIError      = errors.New("OMDb API error")
)

// Client is an OMDb API client implementing directory.Provider.
type Client struct {
	httpClient *http.Client
	config     config.OMDBConfig
	logger     zerolog.Logger
}

var _ directory.Provider = (*Client)(nil)

// NewClient creates a new OMDb client.
func NewClient(cfg config.OMDBConfig, logger zerolog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.Timeout) * time.Second,
		},
		config: cfg,
		logger: logger.With().Str("component", "omdb").Logger(),
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return "omdb"
}

// IsConfigured returns true if the API key is set.
func (c *Client) IsConfigured() bool {
	return c.config.APIKey != ""
}

// Test verifies connectivity by looking up a well-known title.
func (c *Client) Test(ctx context.Context) error {
	_, err := c.FetchByID(ctx, "tt0133093") // The Matrix
	return err
}

// FetchByID returns the full record for an IMDb ID.
func (c *Client) FetchByID(ctx context.Context, id string) (*directory.FullRecord, error) {
	if id == "" {
		return nil, directory.TransportError(opFetch, directory.ErrNotFound)
	}

	params := url.Values{}
	params.Set("i", id)

	var resp titleResponse
	if err := c.get(ctx, opFetch, params, &resp); err != nil {
		return nil, err
	}

	if resp.Response == "False" {
		if resp.Error == msgNotFound || resp.Error == msgIncorrectID {
			return nil, directory.TransportError(opFetch, directory.ErrNotFound)
		}
		c.logger.Warn().Str("error", resp.Error).Str("imdbId", id).Msg("OMDb API returned error")
		return nil, directory.TransportError(opFetch, fmt.Errorf("%w: %s", ErrAPIError, resp.Error))
	}

	return toFullRecord(resp)
}

// Search returns one page of titles matching query.
// OMDb answers "Movie not found!" both for no matches and for pages past
// the end; either way the result is an empty, exhausted page.
func (c *Client) Search(ctx context.Context, query string, page int) (*directory.SearchPage, error) {
	params := url.Values{}
	params.Set("s", query)
	params.Set("page", strconv.Itoa(page))

	var resp searchResponse
	if err := c.get(ctx, opSearch, params, &resp); err != nil {
		return nil, err
	}

	if resp.Response == "False" {
		if resp.Error == msgNotFound {
			zero := 0
			return &directory.SearchPage{Results: []directory.SearchResult{}, TotalResults: &zero}, nil
		}
		c.logger.Warn().Str("error", resp.Error).Str("query", query).Int("page", page).Msg("OMDb API returned error")
		return nil, directory.TransportError(opSearch, fmt.Errorf("%w: %s", ErrAPIError, resp.Error))
	}

	if resp.Search == nil {
		return nil, directory.DecodeError(opSearch, errors.New("response has no Search field"))
	}

	results := make([]directory.SearchResult, 0, len(resp.Search))
	for _, item := range resp.Search {
		kind, err := directory.ParseMediaKind(item.Type)
		if err != nil {
			return nil, directory.DecodeError(opSearch, err)
		}
		results = append(results, directory.SearchResult{
			ID:     item.ImdbID,
			Title:  item.Title,
			Year:   item.Year,
			Poster: item.Poster,
			Kind:   kind,
		})
	}

	out := &directory.SearchPage{Results: results}
	if total, err := strconv.Atoi(resp.TotalResults); err == nil {
		out.TotalResults = &total
	}

	c.logger.Debug().
		Str("query", query).
		Int("page", page).
		Int("results", len(results)).
		Str("totalResults", resp.TotalResults).
		Msg("Fetched search page from OMDb")

	return out, nil
}

// get performs one GET against the API and decodes the JSON body into out.
func (c *Client) get(ctx context.Context, op string, params url.Values, out any) error {
	if !c.IsConfigured() {
		return directory.TransportError(op, ErrAPIKeyMissing)
	}

	params.Set("apikey", c.config.APIKey)
	reqURL := fmt.Sprintf("%s?%s", c.config.BaseURL, params.Encode())
	reqID := uuid.NewString()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return directory.TransportError(op, fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error().Err(err).Str("requestId", reqID).Str("op", op).Msg("HTTP request failed")
		return directory.TransportError(op, fmt.Errorf("HTTP request failed: %w", err))
	}
	defer resp.Body.Close()

	c.logger.Trace().
		Str("requestId", reqID).
		Str("op", op).
		Int("status", resp.StatusCode).
		Dur("latency", time.Since(start)).
		Msg("OMDb request")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return directory.TransportError(op, fmt.Errorf("%w: status %d", ErrAPIError, resp.StatusCode))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return directory.DecodeError(op, fmt.Errorf("failed to decode response: %w", err))
	}
	return nil
}

func toFullRecord(resp titleResponse) (*directory.FullRecord, error) {
	if resp.ImdbID == "" || resp.Title == "" {
		return nil, directory.DecodeError(opFetch, errors.New("response is missing imdbID or Title"))
	}
	kind, err := directory.ParseMediaKind(resp.Type)
	if err != nil {
		return nil, directory.DecodeError(opFetch, err)
	}

	rec := &directory.FullRecord{
		ID:           resp.ImdbID,
		Title:        resp.Title,
		Year:         resp.Year,
		Poster:       resp.Poster,
		Kind:         kind,
		Rated:        resp.Rated,
		Released:     resp.Released,
		Runtime:      resp.Runtime,
		Genre:        resp.Genre,
		Director:     resp.Director,
		Writer:       resp.Writer,
		Actors:       resp.Actors,
		Plot:         resp.Plot,
		Language:     resp.Language,
		Country:      resp.Country,
		Awards:       resp.Awards,
		Ratings:      make([]directory.Rating, 0, len(resp.Ratings)),
		Metascore:    resp.Metascore,
		IMDbRating:   resp.ImdbRating,
		IMDbVotes:    resp.ImdbVotes,
		DVD:          resp.DVD,
		BoxOffice:    resp.BoxOffice,
		Production:   resp.Production,
		Website:      resp.Website,
		TotalSeasons: resp.TotalSeasons,
	}
	for _, r := range resp.Ratings {
		rec.Ratings = append(rec.Ratings, directory.Rating{Source: r.Source, Value: r.Value})
	}
	return rec, nil
}
