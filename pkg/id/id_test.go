package id

import (
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIsSortable(t *testing.T) {
	t.Parallel()

	ids := make([]string, 0, 100)
	for i := 0; i < 100; i++ {
		ids = append(ids, New())
	}
	assert.True(t, sort.StringsAreSorted(ids))
}

func TestAtRoundTrip(t *testing.T) {
	t.Parallel()

	ts := time.Date(2026, 3, 4, 15, 30, 0, 0, time.UTC)
	s := At(ts)
	assert.Len(t, s, 26)

	got, err := Time(s)
	require.NoError(t, err)
	assert.True(t, got.Equal(ts))

	_, err = Time("not-an-id")
	assert.Error(t, err)
}
