package pagination

import (
	"context"
	"fmt"
	"time"

	"github.com/Sternrassler/openmart-client/pkg/client"
	"github.com/Sternrassler/openmart-client/pkg/model"
)

// All fetches up to maxResults results for filter, in arrival order. Each
// request asks for min(MaxPageSize, remaining). On error the results
// gathered so far are returned with it.
func All[T Item](ctx context.Context, fetcher PageFetcher[T], filter model.Filter, maxResults int, cfg Config) ([]T, error) {
	if maxResults <= 0 {
		return nil, client.NewError(client.CodeValidation,
			fmt.Sprintf("max results must be positive (got %d)", maxResults))
	}

	logger := cfg.logger()
	start := time.Now()

	base := filter.Clone()
	var cursor model.Cursor
	if c, ok := filter.Cursor.Get(); ok {
		cursor = c
	}

	acc := make([]T, 0, min(maxResults, MaxPageSize))
	pages := 0
	for len(acc) < maxResults {
		limit := min(MaxPageSize, maxResults-len(acc))

		page, err := fetch(ctx, fetcher, pageFilter(base, limit, cursor), cfg.Timeout)
		if err != nil {
			logger.Warn().
				Err(err).
				Int("fetched", len(acc)).
				Int("pages", pages).
				Msg("Page request failed - returning partial results")
			return acc, err
		}

		pages++
		pagesFetchedTotal.WithLabelValues("all").Inc()
		itemsFetchedTotal.WithLabelValues("all").Add(float64(len(page)))

		if room := maxResults - len(acc); len(page) > room {
			page = page[:room]
		}
		acc = append(acc, page...)

		// Progress logging every 20 pages
		if pages%20 == 0 {
			logger.Info().
				Int("fetched", len(acc)).
				Int("max", maxResults).
				Msg("Fetch progress")
		}

		if terminal(page, limit) {
			break
		}
		cursor = page[len(page)-1].CursorToken()
	}

	logger.Debug().
		Int("results", len(acc)).
		Int("pages", pages).
		Dur("duration", time.Since(start)).
		Msg("Fetch complete")

	return acc, nil
}
