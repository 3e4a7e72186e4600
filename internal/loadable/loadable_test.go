package loadable

import (
	"errors"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
)

func describe(l Loadable[int]) string {
	return Match(l,
		func() string { return "loading" },
		func(v int) string { return "loaded " + strconv.Itoa(v) },
		func(err error) string { return "failed " + err.Error() },
	)
}

func TestMatch(t *testing.T) {
	tests := []struct {
		name string
		in   Loadable[int]
		want string
	}{
		{"loading", Loading[int](), "loading"},
		{"zero value is loading", Loadable[int]{}, "loading"},
		{"loaded", Loaded(7), "loaded 7"},
		{"failed", Failed[int](errors.New("boom")), "failed boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, describe(tt.in))
		})
	}
}

func TestAccessors(t *testing.T) {
	boom := errors.New("boom")

	v, ok := Loaded("x").Value()
	assert.True(t, ok)
	assert.Equal(t, "x", v)

	_, ok = Failed[string](boom).Value()
	assert.False(t, ok)
	assert.ErrorIs(t, Failed[string](boom).Err(), boom)
	assert.NoError(t, Loaded("x").Err())

	assert.True(t, Loading[string]().IsLoading())
	assert.True(t, Loaded("x").IsLoaded())
	assert.True(t, Failed[string](boom).IsFailed())
}

func TestMap(t *testing.T) {
	double := func(v int) int { return v * 2 }

	assert.Equal(t, Loaded(4), Map(Loaded(2), double))
	assert.True(t, Map(Loading[int](), double).IsLoading())

	boom := errors.New("boom")
	assert.ErrorIs(t, Map(Failed[int](boom), double).Err(), boom)
}

func TestStatusText(t *testing.T) {
	text, err := StatusFailed.MarshalText()
	assert.NoError(t, err)
	assert.Equal(t, "failed", string(text))
	assert.Equal(t, "Loaded(3)", Loaded(3).String())
}
