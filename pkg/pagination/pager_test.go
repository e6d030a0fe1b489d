package pagination

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/Sternrassler/openmart-client/pkg/client"
	"github.com/Sternrassler/openmart-client/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type result struct {
	n      int
	cursor model.Cursor
}

func (r result) CursorToken() model.Cursor { return r.cursor }

// fakeBackend serves total results in order. The cursor of result i is the
// JSON number i; the final result has none when lastHasCursor is false.
type fakeBackend struct {
	total         int
	lastHasCursor bool
	failOn        int // 1-based request number, 0 never
	requests      []model.Filter
}

func (b *fakeBackend) FetchPage(_ context.Context, f model.Filter) ([]result, error) {
	b.requests = append(b.requests, f)
	if b.failOn == len(b.requests) {
		return nil, client.NewError(client.CodeNetwork, "boom")
	}

	start := 0
	if c, ok := f.Cursor.Get(); ok {
		n, err := strconv.Atoi(string(c))
		if err != nil {
			return nil, err
		}
		start = n + 1
	}
	limit := f.Limit.Or(DefaultPageSize)

	var page []result
	for i := start; i < b.total && len(page) < limit; i++ {
		r := result{n: i, cursor: model.Cursor(strconv.Itoa(i))}
		if i == b.total-1 && !b.lastHasCursor {
			r.cursor = nil
		}
		page = append(page, r)
	}
	return page, nil
}

func collect(t *testing.T, p *Pager[result]) [][]result {
	t.Helper()
	var pages [][]result
	for page, err := range p.Pages(context.Background()) {
		require.NoError(t, err)
		pages = append(pages, page)
	}
	return pages
}

func TestPager_PageCounts(t *testing.T) {
	tests := []struct {
		name      string
		total     int
		pageSize  int
		wantPages int
		wantLast  int
	}{
		{name: "exact multiple", total: 100, pageSize: 25, wantPages: 4, wantLast: 25},
		{name: "remainder", total: 62, pageSize: 50, wantPages: 2, wantLast: 12},
		{name: "single short page", total: 7, pageSize: 50, wantPages: 1, wantLast: 7},
		{name: "empty", total: 0, pageSize: 10, wantPages: 1, wantLast: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// the final result keeps its cursor so only the short page ends the walk
			b := &fakeBackend{total: tt.total, lastHasCursor: true}
			pages := collect(t, NewPager[result](b, model.Filter{}, tt.pageSize, DefaultConfig()))

			wantRequests := tt.wantPages
			if tt.total > 0 && tt.total%tt.pageSize == 0 {
				// a full final page needs one more empty request to prove the end
				wantRequests++
			}
			assert.Len(t, b.requests, wantRequests)

			if tt.total > 0 && tt.total%tt.pageSize == 0 {
				pages = pages[:len(pages)-1]
			}
			require.Len(t, pages, tt.wantPages)
			assert.Len(t, pages[len(pages)-1], tt.wantLast)
		})
	}
}

func TestPager_MissingCursorEndsWalk(t *testing.T) {
	b := &fakeBackend{total: 100}
	pages := collect(t, NewPager[result](b, model.Filter{}, 25, DefaultConfig()))

	assert.Len(t, pages, 4)
	assert.Len(t, b.requests, 4)
}

func TestPager_FiftyPlusTwelve(t *testing.T) {
	b := &fakeBackend{total: 62}
	p := NewPager[result](b, model.Filter{Query: model.Some("coffee")}, 50, DefaultConfig())
	ctx := context.Background()

	first, err := p.Next(ctx)
	require.NoError(t, err)
	assert.Len(t, first, 50)
	assert.True(t, p.More())
	assert.Equal(t, "49", p.Cursor().String())

	second, err := p.Next(ctx)
	require.NoError(t, err)
	assert.Len(t, second, 12)
	assert.False(t, p.More())

	_, err = p.Next(ctx)
	assert.ErrorIs(t, err, ErrDone)
	assert.Len(t, b.requests, 2, "no request after the terminal page")

	assert.False(t, b.requests[0].Cursor.IsSet())
	c, ok := b.requests[1].Cursor.Get()
	require.True(t, ok)
	assert.Equal(t, "49", string(c))
	for _, r := range b.requests {
		assert.Equal(t, 50, r.Limit.Or(0))
		assert.Equal(t, "coffee", r.Query.Or(""))
	}
}

func TestPager_RequestShaping(t *testing.T) {
	b := &fakeBackend{total: 3}
	filter := model.Filter{EstimateTotal: model.Some(true), IncludeKeywords: []string{"espresso"}}

	p := NewPager[result](b, filter, 10_000, DefaultConfig())
	assert.Equal(t, MaxPageSize, p.Limit())
	assert.Equal(t, DefaultPageSize, NewPager[result](b, filter, 0, DefaultConfig()).Limit())

	_, err := p.Next(context.Background())
	require.NoError(t, err)

	req := b.requests[0]
	assert.Equal(t, model.Some(false), req.EstimateTotal, "estimate_total is forced off while paginating")
	assert.Equal(t, MaxPageSize, req.Limit.Or(0))
	assert.True(t, filter.EstimateTotal.Or(false), "caller filter untouched")
	assert.False(t, filter.Limit.IsSet())
}

func TestPager_ResumesFromFilterCursor(t *testing.T) {
	b := &fakeBackend{total: 30}
	filter := model.Filter{Cursor: model.Some(model.Cursor("9"))}

	pages := collect(t, NewPager[result](b, filter, 10, DefaultConfig()))

	require.NotEmpty(t, pages)
	assert.Equal(t, 10, pages[0][0].n)
	c, _ := b.requests[0].Cursor.Get()
	assert.Equal(t, "9", string(c))
}

func TestPager_ErrorStopsWalk(t *testing.T) {
	b := &fakeBackend{total: 100, failOn: 2}
	p := NewPager[result](b, model.Filter{}, 10, DefaultConfig())

	var pages int
	var gotErr error
	for _, err := range p.Pages(context.Background()) {
		if err != nil {
			gotErr = err
			continue
		}
		pages++
	}

	assert.Equal(t, 1, pages)
	e, ok := client.AsError(gotErr)
	require.True(t, ok)
	assert.Equal(t, client.CodeNetwork, e.Code)
	assert.False(t, p.More())
	assert.Len(t, b.requests, 2)
}

func TestPager_BreakStopsRequests(t *testing.T) {
	b := &fakeBackend{total: 100}
	p := NewPager[result](b, model.Filter{}, 10, DefaultConfig())

	for range p.Pages(context.Background()) {
		break
	}

	assert.Len(t, b.requests, 1)
	assert.True(t, p.More())
}

func TestPager_Timeout(t *testing.T) {
	slow := FetchFunc[result](func(ctx context.Context, _ model.Filter) ([]result, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})

	p := NewPager[result](slow, model.Filter{}, 10, Config{Timeout: 10 * time.Millisecond})
	_, err := p.Next(context.Background())
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}
