package mock

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moviefinder/moviefinder/internal/directory"
)

func newTestDirectory(t *testing.T) *Directory {
	t.Helper()
	d, err := New(10)
	require.NoError(t, err)
	return d
}

func TestDirectory_SearchPaginates(t *testing.T) {
	d := newTestDirectory(t)
	ctx := context.Background()

	first, err := d.Search(ctx, "batman", 1)
	require.NoError(t, err)
	require.NotNil(t, first.TotalResults)
	assert.Equal(t, 14, *first.TotalResults)
	assert.Len(t, first.Results, 10)
	assert.Equal(t, "Batman", first.Results[0].Title)
	assert.True(t, directory.HasMoreContent(1, 10, len(first.Results), first.TotalResults))

	second, err := d.Search(ctx, "BATMAN", 2)
	require.NoError(t, err)
	assert.Len(t, second.Results, 4)
	assert.False(t, directory.HasMoreContent(2, 10, len(second.Results), second.TotalResults))

	beyond, err := d.Search(ctx, "batman", 5)
	require.NoError(t, err)
	assert.Empty(t, beyond.Results)
}

func TestDirectory_FetchByID(t *testing.T) {
	d := newTestDirectory(t)

	rec, err := d.FetchByID(context.Background(), "tt0096895")
	require.NoError(t, err)
	assert.Equal(t, "Tim Burton", rec.Director)
	assert.Equal(t, directory.MediaMovie, rec.Kind)
	require.Len(t, rec.Ratings, 3)
	require.NotNil(t, rec.BoxOffice)
	assert.False(t, directory.IsKnown(*rec.BoxOffice))

	sparse, err := d.FetchByID(context.Background(), "tt1877830")
	require.NoError(t, err)
	assert.Equal(t, directory.Unknown, sparse.Plot)

	rec.Ratings[0].Value = "changed"
	again, err := d.FetchByID(context.Background(), "tt0096895")
	require.NoError(t, err)
	assert.Equal(t, "7.6/10", again.Ratings[0].Value)
}

func TestDirectory_NotFound(t *testing.T) {
	d := newTestDirectory(t)

	_, err := d.FetchByID(context.Background(), "tt0000000")
	require.ErrorIs(t, err, directory.ErrNotFound)
	kind, ok := directory.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, directory.KindTransport, kind)
}

func TestDirectory_FailureAndLatency(t *testing.T) {
	d := newTestDirectory(t)
	boom := errors.New("connection reset")
	d.SetFailure(boom)

	_, err := d.Search(context.Background(), "batman", 1)
	require.ErrorIs(t, err, boom)

	d.SetFailure(nil)
	d.SetLatency(time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = d.Search(ctx, "batman", 1)
	require.ErrorIs(t, err, context.Canceled)
}

func TestFromYAML_RejectsUnknownKind(t *testing.T) {
	_, err := FromYAML([]byte("titles:\n  - imdbID: tt1\n    title: X\n    type: podcast\n"), 10)
	require.Error(t, err)
}
