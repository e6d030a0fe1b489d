package pagination

import (
	"context"
	"errors"
	"iter"
	"time"

	"github.com/Sternrassler/openmart-client/pkg/logging"
	"github.com/Sternrassler/openmart-client/pkg/model"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

const (
	// DefaultPageSize is used when a caller passes a non-positive page size.
	DefaultPageSize = 50

	// MaxPageSize caps every page request.
	MaxPageSize = 500
)

// ErrDone is returned by Pager.Next once the walk has ended.
var ErrDone = errors.New("pagination: no more pages")

var (
	pagesFetchedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "openmart_pagination_pages_total",
		Help: "Pages fetched while paginating by driver",
	}, []string{"driver"})

	itemsFetchedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "openmart_pagination_items_total",
		Help: "Results fetched while paginating by driver",
	}, []string{"driver"})
)

// Item is a search result that carries a continuation cursor.
type Item interface {
	CursorToken() model.Cursor
}

// PageFetcher performs exactly one page request for filter. The filter
// already carries the page limit and cursor.
type PageFetcher[T Item] interface {
	FetchPage(ctx context.Context, filter model.Filter) ([]T, error)
}

// FetchFunc adapts a function to PageFetcher.
type FetchFunc[T Item] func(ctx context.Context, filter model.Filter) ([]T, error)

// FetchPage calls f.
func (f FetchFunc[T]) FetchPage(ctx context.Context, filter model.Filter) ([]T, error) {
	return f(ctx, filter)
}

// Config holds pagination configuration.
type Config struct {
	// Timeout bounds each page request. Zero leaves it to the caller's context.
	Timeout time.Duration

	// Logger defaults to the global logger.
	Logger *zerolog.Logger
}

// DefaultConfig returns the default pagination configuration.
func DefaultConfig() Config {
	return Config{}
}

func (c Config) logger() zerolog.Logger {
	if c.Logger != nil {
		return c.Logger.With().Str("component", logging.ComponentPagination).Logger()
	}
	return logging.NewLogger(logging.ComponentPagination)
}

// pageLimit clamps a requested size to (0, MaxPageSize].
func pageLimit(size int) int {
	if size <= 0 {
		return DefaultPageSize
	}
	return min(size, MaxPageSize)
}

// pageFilter is the request for one page: base predicates, the given limit
// and cursor, never a total estimate. A caller-supplied estimate_total is
// kept as false.
func pageFilter(base model.Filter, limit int, cursor model.Cursor) model.Filter {
	f := base.Clone()
	f.Limit = model.Some(limit)
	if !f.EstimateTotal.IsZero() {
		f.EstimateTotal = model.Some(false)
	}
	if cursor.Valid() {
		f.Cursor = model.Some(cursor)
	}
	return f
}

// terminal reports whether page is the last one for limit.
func terminal[T Item](page []T, limit int) bool {
	if len(page) < limit {
		return true
	}
	return !page[len(page)-1].CursorToken().Valid()
}

func fetch[T Item](ctx context.Context, fetcher PageFetcher[T], filter model.Filter, timeout time.Duration) ([]T, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return fetcher.FetchPage(ctx, filter)
}

// Pager walks a result set one page per Next call. A Pager is not safe for
// concurrent use and cannot be restarted.
type Pager[T Item] struct {
	fetcher PageFetcher[T]
	base    model.Filter
	limit   int
	cursor  model.Cursor
	done    bool
	pages   int
	items   int
	timeout time.Duration
	logger  zerolog.Logger
}

// NewPager creates a pager over filter. The walk starts at the filter's own
// cursor if it has one. pageSize is clamped to MaxPageSize; non-positive
// sizes use DefaultPageSize.
func NewPager[T Item](fetcher PageFetcher[T], filter model.Filter, pageSize int, cfg Config) *Pager[T] {
	var cursor model.Cursor
	if c, ok := filter.Cursor.Get(); ok {
		cursor = c
	}

	return &Pager[T]{
		fetcher: fetcher,
		base:    filter.Clone(),
		limit:   pageLimit(pageSize),
		cursor:  cursor,
		timeout: cfg.Timeout,
		logger:  cfg.logger(),
	}
}

// More reports whether Next may return another page.
func (p *Pager[T]) More() bool {
	return !p.done
}

// Cursor returns the token the next request would resume from.
func (p *Pager[T]) Cursor() model.Cursor {
	return p.cursor
}

// Limit returns the effective page size.
func (p *Pager[T]) Limit() int {
	return p.limit
}

// Next performs one request and returns its page. After the last page, or
// after an error, it returns ErrDone without sending anything.
func (p *Pager[T]) Next(ctx context.Context) ([]T, error) {
	if p.done {
		return nil, ErrDone
	}

	page, err := fetch(ctx, p.fetcher, pageFilter(p.base, p.limit, p.cursor), p.timeout)
	if err != nil {
		p.done = true
		p.logger.Debug().
			Err(err).
			Int("page", p.pages+1).
			Msg("Page request failed, stopping pagination")
		return nil, err
	}

	p.pages++
	p.items += len(page)
	pagesFetchedTotal.WithLabelValues("pager").Inc()
	itemsFetchedTotal.WithLabelValues("pager").Add(float64(len(page)))

	if len(page) > 0 {
		p.cursor = page[len(page)-1].CursorToken()
	}
	if terminal(page, p.limit) {
		p.done = true
		p.logger.Debug().
			Int("pages", p.pages).
			Int("items", p.items).
			Msg("Pagination complete")
	} else {
		p.logger.Debug().
			Int("page", p.pages).
			Int("size", len(page)).
			Msg("Fetched page")
	}

	return page, nil
}

// Pages returns the remaining pages as an iterator. Breaking out of the loop
// stops further requests. An error is yielded once and ends the sequence.
func (p *Pager[T]) Pages(ctx context.Context) iter.Seq2[[]T, error] {
	return func(yield func([]T, error) bool) {
		for p.More() {
			page, err := p.Next(ctx)
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(page, nil) {
				return
			}
		}
	}
}
