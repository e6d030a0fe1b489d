package pagination

import (
	"context"
	"testing"

	"github.com/Sternrassler/openmart-client/pkg/client"
	"github.com/Sternrassler/openmart-client/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAll_Bounded(t *testing.T) {
	b := &fakeBackend{total: 100}

	got, err := All[result](context.Background(), b, model.Filter{}, 25, DefaultConfig())
	require.NoError(t, err)

	require.Len(t, got, 25)
	for i, r := range got {
		assert.Equal(t, i, r.n)
	}
	require.Len(t, b.requests, 1)
	assert.Equal(t, 25, b.requests[0].Limit.Or(0))
}

func TestAll_PageSizing(t *testing.T) {
	b := &fakeBackend{total: 2000}

	got, err := All[result](context.Background(), b, model.Filter{}, 1200, DefaultConfig())
	require.NoError(t, err)

	assert.Len(t, got, 1200)
	require.Len(t, b.requests, 3)
	assert.Equal(t, 500, b.requests[0].Limit.Or(0))
	assert.Equal(t, 500, b.requests[1].Limit.Or(0))
	assert.Equal(t, 200, b.requests[2].Limit.Or(0))
}

func TestAll_StopsOnShortPage(t *testing.T) {
	b := &fakeBackend{total: 62, lastHasCursor: true}

	got, err := All[result](context.Background(), b, model.Filter{}, 1000, DefaultConfig())
	require.NoError(t, err)

	assert.Len(t, got, 62)
	assert.Len(t, b.requests, 1)
}

func TestAll_StopsOnMissingCursor(t *testing.T) {
	b := &fakeBackend{total: 500}

	got, err := All[result](context.Background(), b, model.Filter{}, 1000, DefaultConfig())
	require.NoError(t, err)

	assert.Len(t, got, 500)
	assert.Len(t, b.requests, 1)
}

func TestAll_PartialOnError(t *testing.T) {
	b := &fakeBackend{total: 2000, failOn: 2}

	got, err := All[result](context.Background(), b, model.Filter{}, 1500, DefaultConfig())
	require.Error(t, err)

	assert.Len(t, got, 500)
	e, ok := client.AsError(err)
	require.True(t, ok)
	assert.Equal(t, client.CodeNetwork, e.Code)
}

func TestAll_InvalidMax(t *testing.T) {
	for _, n := range []int{0, -1} {
		b := &fakeBackend{total: 10}
		_, err := All[result](context.Background(), b, model.Filter{}, n, DefaultConfig())

		e, ok := client.AsError(err)
		require.True(t, ok)
		assert.Equal(t, client.CodeValidation, e.Code)
		assert.Empty(t, b.requests)
	}
}

type oversized struct{ fakeBackend }

// FetchPage ignores the limit and always returns twice as much.
func (o *oversized) FetchPage(ctx context.Context, f model.Filter) ([]result, error) {
	f.Limit = model.Some(f.Limit.Or(DefaultPageSize) * 2)
	return o.fakeBackend.FetchPage(ctx, f)
}

func TestAll_NeverExceedsMax(t *testing.T) {
	o := &oversized{fakeBackend{total: 100}}

	got, err := All[result](context.Background(), o, model.Filter{}, 30, DefaultConfig())
	require.NoError(t, err)
	assert.Len(t, got, 30)
}
